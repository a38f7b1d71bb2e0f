// File: core/stream/streaming_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"math"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-bridge/api"
)

func drain(r *Result) []string {
	var out []string
	for {
		c, ok := r.NextChunk()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

func TestNextChunk_LargeASCII(t *testing.T) {
	content := strings.Repeat("a", 200000)
	r := New(content, nil, nil, nil, 0)
	require.Equal(t, DefaultChunkSize, r.ChunkSize())

	chunks := drain(r)
	lens := make([]int, len(chunks))
	for i, c := range chunks {
		lens[i] = len(c)
	}
	assert.Equal(t, []int{65536, 65536, 65536, 3392}, lens)
	assert.Equal(t, content, strings.Join(chunks, ""))

	c, ok := r.NextChunk()
	assert.False(t, ok)
	assert.Empty(t, c)
	assert.Equal(t, 1.0, r.Progress())
}

func TestNextChunk_NeverSplitsRunes(t *testing.T) {
	content := strings.Repeat("héllo wörld ✓ 𝄞 ", 500)
	for _, size := range []int{1, 2, 3, 4, 5, 7, 64, 1000} {
		r := New(content, nil, nil, nil, size)
		chunks := drain(r)
		require.Equal(t, content, strings.Join(chunks, ""), "size %d", size)
		for _, c := range chunks {
			require.True(t, utf8.ValidString(c), "size %d chunk %q", size, c)
			require.NotEmpty(t, c)
			// only a single oversized rune may exceed the window
			if len(c) > size {
				assert.Equal(t, 1, utf8.RuneCountInString(c))
			}
		}
	}
}

func TestNextChunk_CursorMonotonic(t *testing.T) {
	r := New(strings.Repeat("xyz", 1000), nil, nil, nil, 128)
	last := r.Position()
	prevProgress := r.Progress()
	for {
		_, ok := r.NextChunk()
		if !ok {
			break
		}
		assert.Greater(t, r.Position(), last)
		assert.GreaterOrEqual(t, r.Progress(), prevProgress)
		last = r.Position()
		prevProgress = r.Progress()
	}
	assert.Equal(t, r.TotalLength(), r.Position())
}

func TestReset_Idempotent(t *testing.T) {
	r := New("abcdefghij", nil, [][]byte{{1}}, [][]byte{[]byte(`{"cells":[["a"]]}`)}, 3)
	first := drain(r)
	_, _ = r.NextImage()
	_, _, _ = r.NextTable()

	r.Reset()
	r.Reset()
	assert.Equal(t, 0, r.Position())
	assert.Equal(t, first, drain(r))

	img, ok := r.NextImage()
	require.True(t, ok)
	assert.Equal(t, []byte{1}, img)
	tbl, ok, err := r.NextTable()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"a"}}, tbl.Cells)
}

func TestRemaining(t *testing.T) {
	r := New("hello world", nil, nil, nil, 5)
	c, _ := r.NextChunk()
	assert.Equal(t, "hello", c)
	assert.Equal(t, " world", r.Remaining())
	assert.Equal(t, "", r.Remaining())
	_, ok := r.NextChunk()
	assert.False(t, ok)
}

func TestProgress_Empty(t *testing.T) {
	r := New("", nil, nil, nil, 10)
	assert.Equal(t, 1.0, r.Progress())
	_, ok := r.NextChunk()
	assert.False(t, ok)
}

func TestMetadata(t *testing.T) {
	r := New("x", []byte(`{"title":"doc","pages":3}`), nil, nil, 0)
	m, err := r.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "doc", m["title"])
	assert.Equal(t, float64(3), m["pages"])

	var typed struct {
		Title string `json:"title"`
	}
	require.NoError(t, r.DecodeMetadata(&typed))
	assert.Equal(t, "doc", typed.Title)

	empty := New("x", nil, nil, nil, 0)
	m, err = empty.Metadata()
	require.NoError(t, err)
	assert.Empty(t, m)

	bad := New("x", []byte(`{not json`), nil, nil, 0)
	_, err = bad.Metadata()
	assert.ErrorIs(t, err, api.ErrSerializationFailed)
}

func TestImagesNonDestructive(t *testing.T) {
	r := New("", nil, [][]byte{[]byte("a"), []byte("b")}, nil, 0)
	assert.Equal(t, 2, r.ImageCount())

	img, ok := r.Image(1)
	require.True(t, ok)
	assert.Equal(t, "b", string(img))

	first, ok := r.NextImage()
	require.True(t, ok)
	assert.Equal(t, "a", string(first))
	second, _ := r.NextImage()
	assert.Equal(t, "b", string(second))
	_, ok = r.NextImage()
	assert.False(t, ok)

	// still addressable after the cursor drained
	assert.Equal(t, 2, r.ImageCount())
	_, ok = r.Image(0)
	assert.True(t, ok)
	_, ok = r.Image(2)
	assert.False(t, ok)
	_, ok = r.Image(-1)
	assert.False(t, ok)
}

func TestTables(t *testing.T) {
	r := New("", nil, nil, [][]byte{
		[]byte(`{"cells":[["h1","h2"],["a","b"]],"markdown":"| h1 | h2 |","page_number":2}`),
		[]byte(`garbage`),
	}, 0)
	assert.Equal(t, 2, r.TableCount())

	tbl, err := r.Table(0)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.PageNumber)

	_, err = r.Table(5)
	assert.ErrorIs(t, err, api.ErrOutOfBounds)

	first, ok, err := r.NextTable()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "| h1 | h2 |", first.Markdown)

	_, ok, err = r.NextTable()
	assert.True(t, ok)
	assert.ErrorIs(t, err, api.ErrSerializationFailed)

	_, ok, err = r.NextTable()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestConcurrentPulls(t *testing.T) {
	content := strings.Repeat("0123456789", 10000)
	r := New(content, nil, nil, nil, 97)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				c, ok := r.NextChunk()
				if !ok {
					return
				}
				mu.Lock()
				total += len(c)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, len(content), total)
}

func TestFromOutcome(t *testing.T) {
	pg := 1
	out := &api.ExtractionOutcome{
		Content:  "body",
		MimeType: "text/plain",
		Metadata: map[string]any{"k": "v"},
		Tables:   []api.Table{{Cells: [][]string{{"x"}}, PageNumber: 1}},
		Images:   []api.ExtractedImage{{Data: []byte{0x89, 'P'}, Format: "png", PageNumber: &pg}},
	}
	r, err := FromOutcome(out, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, r.ChunkSize())
	assert.Equal(t, []string{"bo", "dy"}, drain(r))

	m, err := r.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "v", m["k"])

	tbl, err := r.Table(0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x"}}, tbl.Cells)

	img, ok := r.Image(0)
	require.True(t, ok)
	assert.Equal(t, []byte{0x89, 'P'}, img)
}

func TestFromOutcome_Errors(t *testing.T) {
	_, err := FromOutcome(nil, 0)
	assert.ErrorIs(t, err, api.ErrExtractionFailed)

	_, err = FromOutcome(&api.ExtractionOutcome{Metadata: map[string]any{"bad": math.NaN()}}, 0)
	assert.ErrorIs(t, err, api.ErrSerializationFailed)
}
