// File: features/mime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package features

import (
	"slices"
	"strings"
)

// extensions maps a lowercase extension (no dot) to its MIME type.
var extensions = map[string]string{
	"txt":        "text/plain",
	"md":         "text/markdown",
	"markdown":   "text/markdown",
	"commonmark": "text/x-commonmark",
	"pdf":        "application/pdf",
	"html":       "text/html",
	"htm":        "text/html",
	"xlsx":       "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xls":        "application/vnd.ms-excel",
	"xlsm":       "application/vnd.ms-excel.sheet.macroEnabled.12",
	"xlsb":       "application/vnd.ms-excel.sheet.binary.macroEnabled.12",
	"xlam":       "application/vnd.ms-excel.addin.macroEnabled.12",
	"xla":        "application/vnd.ms-excel.template.macroEnabled.12",
	"ods":        "application/vnd.oasis.opendocument.spreadsheet",
	"pptx":       "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"ppt":        "application/vnd.ms-powerpoint",
	"docx":       "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"doc":        "application/msword",
	"odt":        "application/vnd.oasis.opendocument.text",
	"bmp":        "image/bmp",
	"gif":        "image/gif",
	"jpg":        "image/jpeg",
	"jpeg":       "image/jpeg",
	"png":        "image/png",
	"tiff":       "image/tiff",
	"tif":        "image/tiff",
	"webp":       "image/webp",
	"jp2":        "image/jp2",
	"jpx":        "image/jpx",
	"jpm":        "image/jpm",
	"mj2":        "image/mj2",
	"pnm":        "image/x-portable-anymap",
	"pbm":        "image/x-portable-bitmap",
	"pgm":        "image/x-portable-graymap",
	"ppm":        "image/x-portable-pixmap",
	"svg":        "image/svg+xml",
	"csv":        "text/csv",
	"tsv":        "text/tab-separated-values",
	"json":       "application/json",
	"yaml":       "application/x-yaml",
	"yml":        "application/x-yaml",
	"toml":       "application/toml",
	"xml":        "application/xml",
	"eml":        "message/rfc822",
	"msg":        "application/vnd.ms-outlook",
	"zip":        "application/zip",
	"tar":        "application/x-tar",
	"tgz":        "application/x-tar",
	"gz":         "application/gzip",
	"7z":         "application/x-7z-compressed",
	"rst":        "text/x-rst",
	"org":        "text/x-org",
	"epub":       "application/epub+zip",
	"rtf":        "application/rtf",
	"bib":        "application/x-bibtex",
	"ipynb":      "application/x-ipynb+json",
	"tex":        "application/x-latex",
	"latex":      "application/x-latex",
	"typst":      "application/x-typst",
}

// byMime is the reverse index keyed by lowercase MIME, extensions sorted for
// stable output.
var byMime = func() map[string][]string {
	m := make(map[string][]string)
	for ext, mime := range extensions {
		key := strings.ToLower(mime)
		m[key] = append(m[key], ext)
	}
	for _, exts := range m {
		slices.Sort(exts)
	}
	return m
}()

// MimeFromExtension resolves a file extension, with or without the leading
// dot and in any case.
func MimeFromExtension(ext string) (string, bool) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	mime, ok := extensions[ext]
	return mime, ok
}

// ExtensionsForMime lists the known extensions for mime, or nil.
func ExtensionsForMime(mime string) []string {
	exts := byMime[NormalizeMime(mime)]
	if exts == nil {
		return nil
	}
	return slices.Clone(exts)
}
