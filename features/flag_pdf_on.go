//go:build !nopdf

package features

const hasPDF = true
