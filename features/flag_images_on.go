//go:build !noimages

package features

const hasImages = true
