// Package api
// Author: momentics <momentics@gmail.com>
//
// Contracts toward the extraction engine. The engine itself is opaque; the
// bridge only moves bytes in and results out.

package api

// Extractor is the extraction engine consumed by the bridge.
//
// Implementations must not retain data after ExtractBytesSync returns: the
// slice may be a view into a shared buffer or pooled scratch space that is
// rewritten as soon as the call completes.
type Extractor interface {
	ExtractBytesSync(data []byte, mimeType string, config *ExtractionConfig) (*ExtractionOutcome, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(data []byte, mimeType string, config *ExtractionConfig) (*ExtractionOutcome, error)

// ExtractBytesSync calls f.
func (f ExtractorFunc) ExtractBytesSync(data []byte, mimeType string, config *ExtractionConfig) (*ExtractionOutcome, error) {
	return f(data, mimeType, config)
}

// BytesWithMime represents an in-memory document and its MIME type.
type BytesWithMime struct {
	Data     []byte
	MimeType string
}

// ExtractionConfig is passed through to the engine untouched. Pointer fields
// are optional; nil leaves the decision to the engine.
type ExtractionConfig struct {
	ExtractTables   *bool          `json:"extract_tables,omitempty" yaml:"extract_tables,omitempty"`
	ExtractImages   *bool          `json:"extract_images,omitempty" yaml:"extract_images,omitempty"`
	ExtractMetadata *bool          `json:"extract_metadata,omitempty" yaml:"extract_metadata,omitempty"`
	Options         map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// ExtractionOutcome is the engine's result for one document.
type ExtractionOutcome struct {
	Content  string           `json:"content"`
	MimeType string           `json:"mime_type"`
	Metadata map[string]any   `json:"metadata"`
	Tables   []Table          `json:"tables"`
	Images   []ExtractedImage `json:"images,omitempty"`
}

// Table represents a detected table in the source document.
type Table struct {
	Cells      [][]string `json:"cells"`
	Markdown   string     `json:"markdown"`
	PageNumber int        `json:"page_number"`
}

// ExtractedImage is an image blob with optional positional hints.
type ExtractedImage struct {
	Data       []byte  `json:"data"`
	Format     string  `json:"format"`
	ImageIndex int     `json:"image_index"`
	PageNumber *int    `json:"page_number,omitempty"`
	Width      *uint32 `json:"width,omitempty"`
	Height     *uint32 `json:"height,omitempty"`
}

// BoolValue returns *p, or def when p is nil.
func BoolValue(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}
