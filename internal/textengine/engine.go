// File: internal/textengine/engine.go
// Package textengine
// Author: momentics <momentics@gmail.com>
//
// Built-in api.Extractor for plain-text formats. It validates structured
// text (JSON, YAML, CSV/TSV), derives text statistics, and turns delimited
// files into tables. Binary document families are reported as unsupported.

package textengine

import (
	"encoding/json"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/features"
)

const (
	mimePlain    = "text/plain"
	mimeMarkdown = "text/markdown"
	mimeXMD      = "text/x-markdown"
	mimeCSV      = "text/csv"
	mimeTSV      = "text/tab-separated-values"
	mimeJSON     = "application/json"
	mimeYAML     = "application/x-yaml"
)

var handled = []string{mimePlain, mimeMarkdown, mimeXMD, mimeCSV, mimeTSV, mimeJSON, mimeYAML}

// Engine extracts text formats. The zero value is ready to use.
type Engine struct{}

var _ api.Extractor = (*Engine)(nil)

// New returns an Engine.
func New() *Engine { return &Engine{} }

// MimeTypes lists the MIME types the engine accepts.
func (*Engine) MimeTypes() []string {
	out := make([]string, len(handled))
	copy(out, handled)
	return out
}

// ExtractBytesSync implements api.Extractor. data is not retained.
func (e *Engine) ExtractBytesSync(data []byte, mimeType string, cfg *api.ExtractionConfig) (*api.ExtractionOutcome, error) {
	mime := features.NormalizeMime(mimeType)
	if !isHandled(mime) {
		return nil, api.Errorf(api.ErrCodeUnsupportedFormat, "unsupported mime type %q", mimeType)
	}
	if !utf8.Valid(data) {
		return nil, api.Errorf(api.ErrCodeParsing, "%s input is not valid UTF-8", mime)
	}
	if cfg == nil {
		cfg = &api.ExtractionConfig{}
	}

	// string() copies, so nothing below aliases data.
	text := string(trimBOM(data))
	out := &api.ExtractionOutcome{
		Content:  text,
		MimeType: mime,
		Metadata: map[string]any{},
		Tables:   []api.Table{},
	}

	switch mime {
	case mimeJSON:
		if !json.Valid([]byte(text)) {
			var v any
			err := json.Unmarshal([]byte(text), &v)
			return nil, api.Wrap(api.ErrCodeParsing, "malformed JSON input", err)
		}
	case mimeYAML:
		var node yaml.Node
		if err := yaml.Unmarshal([]byte(text), &node); err != nil {
			return nil, api.Wrap(api.ErrCodeParsing, "malformed YAML input", err)
		}
	case mimeCSV, mimeTSV:
		comma := ','
		if mime == mimeTSV {
			comma = '\t'
		}
		rows, err := parseDelimited(text, comma)
		if err != nil {
			return nil, err
		}
		if api.BoolValue(cfg.ExtractTables, true) && len(rows) > 0 {
			out.Tables = append(out.Tables, api.Table{
				Cells:      rows,
				Markdown:   renderMarkdown(rows),
				PageNumber: 1,
			})
		}
	}

	if api.BoolValue(cfg.ExtractMetadata, true) {
		md := mime == mimeMarkdown || mime == mimeXMD
		out.Metadata = analyze(text, md).toMap()
	}
	return out, nil
}

func isHandled(mime string) bool {
	for _, m := range handled {
		if m == mime {
			return true
		}
	}
	return false
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
