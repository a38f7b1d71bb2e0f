// File: features/detect.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package features

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/momentics/hioload-bridge/api"
)

const unknownMime = "application/octet-stream"

// DetectMime sniffs the MIME type of data from its leading bytes. The result
// is normalized, so "text/plain; charset=utf-8" comes back as "text/plain".
// Empty input is an invalid argument; content that matches no known
// signature is an unsupported format.
func DetectMime(data []byte) (string, error) {
	if len(data) == 0 {
		return "", api.NewError(api.ErrCodeInvalidArgument, "cannot detect MIME type of empty input")
	}
	mime := NormalizeMime(mimetype.Detect(data).String())
	if mime == unknownMime {
		return "", api.NewError(api.ErrCodeUnsupportedFormat, "unrecognized content").
			WithContext("size", len(data))
	}
	return mime, nil
}
