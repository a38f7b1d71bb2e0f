// File: core/stream/streaming.go
// Package stream wraps a completed extraction for incremental hand-off.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Content is fully materialized when the Result is built; only the transfer to
// the host happens in chunks. Peak memory is therefore the size of the whole
// extraction, not of one chunk.
//
// Images and tables are read non-destructively: NextImage and NextTable move
// their own cursors, Image(i) and Table(i) never move anything, and Reset
// rewinds all three cursors.

package stream

import (
	"encoding/json"
	"sync"
	"unicode/utf8"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-bridge/api"
)

// DefaultChunkSize is used when a caller passes a non-positive chunk size.
const DefaultChunkSize = 65536

// Result is a chunked view over one extraction result. Safe for concurrent use.
type Result struct {
	mu        sync.Mutex
	content   string
	metadata  []byte
	images    *queue.Queue
	tables    *queue.Queue
	chunkSize int

	cursor   int
	imageIdx int
	tableIdx int
}

// New builds a Result. It never fails; a non-positive chunkSize selects
// DefaultChunkSize. Blobs are referenced, not copied.
func New(content string, metadata []byte, images [][]byte, tables [][]byte, chunkSize int) *Result {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	r := &Result{
		content:   content,
		metadata:  metadata,
		images:    queue.New(),
		tables:    queue.New(),
		chunkSize: chunkSize,
	}
	for _, img := range images {
		r.images.Add(img)
	}
	for _, tbl := range tables {
		r.tables.Add(tbl)
	}
	return r
}

// NextChunk returns up to ChunkSize bytes of content starting at the cursor.
// A chunk never ends inside a UTF-8 sequence. ("", false) means drained.
func (r *Result) NextChunk() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cursor >= len(r.content) {
		return "", false
	}
	end := chunkEnd(r.content, r.cursor, r.chunkSize)
	chunk := r.content[r.cursor:end]
	r.cursor = end
	return chunk, true
}

// chunkEnd picks the end of the chunk starting at start. It backs off to a
// rune boundary; when no boundary lies inside the window, the rune at start
// is emitted whole.
func chunkEnd(s string, start, size int) int {
	end := start + size
	if end >= len(s) {
		return len(s)
	}
	for e := end; e > start && end-e < utf8.UTFMax; e-- {
		if utf8.RuneStart(s[e]) {
			return e
		}
	}
	if end-start >= utf8.UTFMax {
		// not valid UTF-8 around the boundary
		return end
	}
	_, w := utf8.DecodeRuneInString(s[start:])
	return start + w
}

// Remaining returns everything after the cursor and moves it to the end.
func (r *Result) Remaining() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest := r.content[r.cursor:]
	r.cursor = len(r.content)
	return rest
}

// Metadata decodes the serialized metadata on each call.
func (r *Result) Metadata() (map[string]any, error) {
	var m map[string]any
	if err := r.DecodeMetadata(&m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// DecodeMetadata unmarshals the metadata JSON into v.
func (r *Result) DecodeMetadata(v any) error {
	r.mu.Lock()
	raw := r.metadata
	r.mu.Unlock()
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return api.Wrap(api.ErrCodeSerializationFailed, "malformed metadata JSON", err)
	}
	return nil
}

// RawMetadata returns the serialized metadata as stored.
func (r *Result) RawMetadata() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metadata
}

// NextImage returns the image under the image cursor and advances it.
func (r *Result) NextImage() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.imageIdx >= r.images.Length() {
		return nil, false
	}
	img := r.images.Get(r.imageIdx).([]byte)
	r.imageIdx++
	return img, true
}

// NextTable decodes the table under the table cursor and advances it.
// A malformed blob still advances the cursor so the caller can skip it.
func (r *Result) NextTable() (*api.Table, bool, error) {
	r.mu.Lock()
	if r.tableIdx >= r.tables.Length() {
		r.mu.Unlock()
		return nil, false, nil
	}
	raw := r.tables.Get(r.tableIdx).([]byte)
	idx := r.tableIdx
	r.tableIdx++
	r.mu.Unlock()

	t, err := decodeTable(raw, idx)
	if err != nil {
		return nil, true, err
	}
	return t, true, nil
}

// Image returns image i without moving the cursor.
func (r *Result) Image(i int) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= r.images.Length() {
		return nil, false
	}
	return r.images.Get(i).([]byte), true
}

// Table decodes table i without moving the cursor.
func (r *Result) Table(i int) (*api.Table, error) {
	r.mu.Lock()
	if i < 0 || i >= r.tables.Length() {
		n := r.tables.Length()
		r.mu.Unlock()
		return nil, api.Errorf(api.ErrCodeOutOfBounds, "table index %d out of range [0, %d)", i, n)
	}
	raw := r.tables.Get(i).([]byte)
	r.mu.Unlock()
	return decodeTable(raw, i)
}

func decodeTable(raw []byte, idx int) (*api.Table, error) {
	var t api.Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, api.Wrap(api.ErrCodeSerializationFailed, "malformed table JSON", err).
			WithContext("table", idx)
	}
	return &t, nil
}

func (r *Result) ImageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images.Length()
}

func (r *Result) TableCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tables.Length()
}

// Progress reports cursor/len as a value in [0, 1]. Empty content is
// complete.
func (r *Result) Progress() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.content) == 0 {
		return 1.0
	}
	return float64(r.cursor) / float64(len(r.content))
}

// Reset rewinds every cursor.
func (r *Result) Reset() {
	r.mu.Lock()
	r.cursor = 0
	r.imageIdx = 0
	r.tableIdx = 0
	r.mu.Unlock()
}

// TotalLength is the content length in bytes.
func (r *Result) TotalLength() int {
	return len(r.content)
}

// Position is the content cursor in bytes.
func (r *Result) Position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

func (r *Result) ChunkSize() int { return r.chunkSize }
