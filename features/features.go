// File: features/features.go
// Package features reports which document families this build can extract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Flags are fixed at build time:
//
//	go build -tags nopdf,nooffice ./...
//
// Text is always available. Each of the tags nopdf, noimages, nooffice and
// nospreadsheets turns one family off.

package features

import (
	"slices"
	"strings"
)

// FeatureSet lists the enabled document families.
type FeatureSet struct {
	Text         bool `json:"text" yaml:"text"`
	PDF          bool `json:"pdf" yaml:"pdf"`
	Images       bool `json:"images" yaml:"images"`
	Office       bool `json:"office" yaml:"office"`
	Spreadsheets bool `json:"spreadsheets" yaml:"spreadsheets"`
}

var (
	textMimes = []string{
		"text/plain",
		"text/markdown",
		"text/x-markdown",
		"text/csv",
		"text/tab-separated-values",
		"text/html",
		"application/json",
		"application/xml",
		"application/x-yaml",
		"application/toml",
		"text/x-rst",
		"text/x-org",
	}
	pdfMimes = []string{
		"application/pdf",
	}
	imageMimes = []string{
		"image/bmp",
		"image/gif",
		"image/jpeg",
		"image/png",
		"image/tiff",
		"image/webp",
		"image/jp2",
	}
	officeMimes = []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword",
		"application/vnd.oasis.opendocument.text",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.ms-powerpoint",
		"application/rtf",
		"application/epub+zip",
	}
	spreadsheetMimes = []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel",
		"application/vnd.ms-excel.sheet.macroEnabled.12",
		"application/vnd.ms-excel.sheet.binary.macroEnabled.12",
		"application/vnd.oasis.opendocument.spreadsheet",
	}
)

var (
	supported      = FeatureSet{Text: true, PDF: hasPDF, Images: hasImages, Office: hasOffice, Spreadsheets: hasSpreadsheets}
	supportedMimes = MimeTypesFor(supported)
)

// Supported returns the feature set compiled into this binary.
func Supported() FeatureSet {
	return supported
}

// SupportedMimeTypes returns a fresh copy of the MIME types this build
// handles, in registry order.
func SupportedMimeTypes() []string {
	return slices.Clone(supportedMimes)
}

// MimeTypesFor derives the ordered MIME list for fs: text group, then PDF,
// images, office and spreadsheets.
func MimeTypesFor(fs FeatureSet) []string {
	var out []string
	if fs.Text {
		out = append(out, textMimes...)
	}
	if fs.PDF {
		out = append(out, pdfMimes...)
	}
	if fs.Images {
		out = append(out, imageMimes...)
	}
	if fs.Office {
		out = append(out, officeMimes...)
	}
	if fs.Spreadsheets {
		out = append(out, spreadsheetMimes...)
	}
	return out
}

// Supports reports whether mime belongs to an enabled family. Parameters
// and case are ignored.
func (fs FeatureSet) Supports(mime string) bool {
	mime = NormalizeMime(mime)
	return slices.ContainsFunc(MimeTypesFor(fs), func(m string) bool {
		return strings.EqualFold(m, mime)
	})
}

// Restrict narrows fs to the families that still have at least one MIME
// type in accepted, typically the list an engine reports it handles.
func (fs FeatureSet) Restrict(accepted []string) FeatureSet {
	has := func(group []string) bool {
		return len(Intersect(group, accepted)) > 0
	}
	fs.Text = fs.Text && has(textMimes)
	fs.PDF = fs.PDF && has(pdfMimes)
	fs.Images = fs.Images && has(imageMimes)
	fs.Office = fs.Office && has(officeMimes)
	fs.Spreadsheets = fs.Spreadsheets && has(spreadsheetMimes)
	return fs
}

// Intersect returns the entries of mimes that also appear in accepted,
// keeping the order of mimes. Comparison ignores case and parameters.
func Intersect(mimes, accepted []string) []string {
	out := make([]string, 0, len(mimes))
	for _, m := range mimes {
		nm := NormalizeMime(m)
		if slices.ContainsFunc(accepted, func(a string) bool {
			return NormalizeMime(a) == nm
		}) {
			out = append(out, m)
		}
	}
	return out
}

// NormalizeMime lowercases mime and strips parameters, so
// "Application/JSON; charset=utf-8" becomes "application/json".
func NormalizeMime(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
