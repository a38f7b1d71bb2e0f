//go:build noimages

package features

const hasImages = false
