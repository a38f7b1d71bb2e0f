//go:build nopdf

package features

const hasPDF = false
