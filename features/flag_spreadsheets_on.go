//go:build !nospreadsheets

package features

const hasSpreadsheets = true
