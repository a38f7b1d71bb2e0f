//go:build nooffice

package features

const hasOffice = false
