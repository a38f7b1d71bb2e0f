//go:build nospreadsheets

package features

const hasSpreadsheets = false
