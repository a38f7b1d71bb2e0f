// File: core/stream/outcome.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"encoding/json"

	"github.com/momentics/hioload-bridge/api"
)

// FromOutcome serializes an engine outcome into a Result. Metadata and each
// table become JSON blobs; images keep their raw bytes in engine order.
func FromOutcome(out *api.ExtractionOutcome, chunkSize int) (*Result, error) {
	if out == nil {
		return nil, api.NewError(api.ErrCodeExtractionFailed, "engine returned no result")
	}

	meta := out.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, api.Wrap(api.ErrCodeSerializationFailed, "cannot serialize metadata", err)
	}

	tables := make([][]byte, 0, len(out.Tables))
	for i := range out.Tables {
		raw, err := json.Marshal(&out.Tables[i])
		if err != nil {
			return nil, api.Wrap(api.ErrCodeSerializationFailed, "cannot serialize table", err).
				WithContext("table", i)
		}
		tables = append(tables, raw)
	}

	images := make([][]byte, 0, len(out.Images))
	for _, img := range out.Images {
		images = append(images, img.Data)
	}

	return New(out.Content, rawMeta, images, tables, chunkSize), nil
}
