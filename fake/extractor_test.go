package fake

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-bridge/api"
)

func TestExtractor_EchoAndScript(t *testing.T) {
	e := NewExtractor()
	out, err := e.ExtractBytesSync([]byte("abc"), "text/plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.Content)

	e.SetOutcome("text/csv", &api.ExtractionOutcome{Content: "scripted"})
	out, err = e.ExtractBytesSync([]byte("x"), "text/csv", nil)
	require.NoError(t, err)
	assert.Equal(t, "scripted", out.Content)

	boom := errors.New("boom")
	e.SetError("bogus/type", boom)
	_, err = e.ExtractBytesSync([]byte("x"), "bogus/type", nil)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 3, e.CallCount())
	assert.Equal(t, "bogus/type", e.Calls()[2].MimeType)
}

func TestExtractor_CallDataIsCopied(t *testing.T) {
	e := NewExtractor()
	data := []byte("abc")
	_, _ = e.ExtractBytesSync(data, "text/plain", nil)
	data[0] = 'X'
	assert.Equal(t, "abc", string(e.Calls()[0].Data))
}

func TestExtractor_Hold(t *testing.T) {
	e := NewExtractor()
	release := e.Hold()

	done := make(chan struct{})
	go func() {
		_, _ = e.ExtractBytesSync([]byte("x"), "text/plain", nil)
		close(done)
	}()

	<-e.Started()
	select {
	case <-done:
		t.Fatal("call returned while held")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	release()
	<-done
}
