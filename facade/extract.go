// File: facade/extract.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-document entry points. The zero-copy path borrows the shared
// buffer for exactly the duration of the engine call, so the host cannot
// rewrite or release the region underneath the engine.

package facade

import (
	"context"
	"fmt"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/control"
	"github.com/momentics/hioload-bridge/core/stream"
	"github.com/momentics/hioload-bridge/internal/handles"
)

func validateDocument(data []byte, mimeType string) error {
	if len(data) == 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "document data is empty")
	}
	if mimeType == "" {
		return api.NewError(api.ErrCodeInvalidArgument, "mime type is empty")
	}
	return nil
}

// callEngine invokes the engine and records the outcome. Engine errors are
// returned as they are.
func (b *Bridge) callEngine(path string, data []byte, mimeType string, cfg *api.ExtractionConfig) (*api.ExtractionOutcome, error) {
	out, err := b.engine.ExtractBytesSync(data, mimeType, cfg)
	if err == nil && out == nil {
		err = api.NewError(api.ErrCodeExtractionFailed, "engine returned no result")
	}
	b.metrics.ObserveExtraction(path, err, len(data))
	if err != nil {
		b.log.Warn("extraction failed", "path", path, "mime_type", mimeType, "size", len(data), "error", err)
		return nil, err
	}
	return out, nil
}

// extract wraps engine failures as ExtractionFailed naming the MIME type.
func (b *Bridge) extract(path string, data []byte, mimeType string, cfg *api.ExtractionConfig) (*api.ExtractionOutcome, error) {
	out, err := b.callEngine(path, data, mimeType, cfg)
	if err != nil {
		if api.CodeOf(err) == api.ErrCodeExtractionFailed {
			return nil, err
		}
		return nil, api.Wrap(api.ErrCodeExtractionFailed, fmt.Sprintf("extraction failed (%s)", mimeType), err)
	}
	return out, nil
}

// ExtractFromBuffer runs the engine directly on [offset, offset+length) of
// the shared buffer h, without copying. Writes, clears and release of h fail
// with api.ErrBufferBusy until the engine returns.
func (b *Bridge) ExtractFromBuffer(h handles.Handle, offset, length int, mimeType string, cfg *api.ExtractionConfig) (*api.ExtractionOutcome, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if mimeType == "" {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "mime type is empty")
	}
	if length == 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "document data is empty")
	}
	sb, err := b.buffer(h)
	if err != nil {
		return nil, err
	}
	view, done, err := sb.Borrow(offset, length)
	if err != nil {
		return nil, err
	}
	defer done()
	return b.extract(control.PathBuffer, view, mimeType, cfg)
}

// ExtractFromBufferAsync is the context form of ExtractFromBuffer. The
// borrow is held until the engine returns even if ctx ends first.
func (b *Bridge) ExtractFromBufferAsync(ctx context.Context, h handles.Handle, offset, length int, mimeType string, cfg *api.ExtractionConfig) (*api.ExtractionOutcome, error) {
	return runAsync(ctx, b, func() (*api.ExtractionOutcome, error) {
		return b.ExtractFromBuffer(h, offset, length, mimeType, cfg)
	})
}

// ExtractBytesSync extracts a host-owned document.
func (b *Bridge) ExtractBytesSync(data []byte, mimeType string, cfg *api.ExtractionConfig) (*api.ExtractionOutcome, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if err := validateDocument(data, mimeType); err != nil {
		return nil, err
	}
	return b.extract(control.PathBytes, data, mimeType, cfg)
}

// ExtractBytes is the context form of ExtractBytesSync.
func (b *Bridge) ExtractBytes(ctx context.Context, data []byte, mimeType string, cfg *api.ExtractionConfig) (*api.ExtractionOutcome, error) {
	return runAsync(ctx, b, func() (*api.ExtractionOutcome, error) {
		return b.ExtractBytesSync(data, mimeType, cfg)
	})
}

// ExtractStreaming extracts data and registers the result for chunked
// retrieval. chunkSize <= 0 uses the runtime streaming.chunk_size.
func (b *Bridge) ExtractStreaming(data []byte, mimeType string, cfg *api.ExtractionConfig, chunkSize int) (handles.Handle, error) {
	if err := b.checkOpen(); err != nil {
		return handles.Nil, err
	}
	if err := validateDocument(data, mimeType); err != nil {
		return handles.Nil, err
	}
	out, err := b.extract(control.PathStreaming, data, mimeType, cfg)
	if err != nil {
		return handles.Nil, err
	}
	if chunkSize <= 0 {
		chunkSize = b.chunkSize()
	}
	res, err := stream.FromOutcome(out, chunkSize)
	if err != nil {
		b.log.Warn("streaming result serialization failed", "mime_type", mimeType, "error", err)
		return handles.Nil, err
	}
	h, err := registerHandle(b, b.streams, api.HandleStream, res)
	if err != nil {
		return handles.Nil, err
	}
	b.log.Debug("stream opened", "handle", h, "length", res.TotalLength(), "chunk_size", chunkSize)
	return h, nil
}

// ExtractStreamingAsync is the context form of ExtractStreaming. A result
// that completes after ctx ended stays registered until Close.
func (b *Bridge) ExtractStreamingAsync(ctx context.Context, data []byte, mimeType string, cfg *api.ExtractionConfig, chunkSize int) (handles.Handle, error) {
	return runAsync(ctx, b, func() (handles.Handle, error) {
		return b.ExtractStreaming(data, mimeType, cfg, chunkSize)
	})
}

func (b *Bridge) stream(h handles.Handle) (*stream.Result, error) {
	res, ok := b.streams.Get(h)
	if !ok {
		return nil, api.Errorf(api.ErrCodeNotFound, "unknown stream handle %s", h)
	}
	return res, nil
}

// StreamingNextChunk pulls the next chunk of stream h. ok is false once the
// content is drained.
func (b *Bridge) StreamingNextChunk(h handles.Handle) (chunk string, ok bool, err error) {
	res, err := b.stream(h)
	if err != nil {
		return "", false, err
	}
	chunk, ok = res.NextChunk()
	return chunk, ok, nil
}

// StreamingResult resolves h for metadata, image and table access.
func (b *Bridge) StreamingResult(h handles.Handle) (*stream.Result, error) {
	return b.stream(h)
}

// CloseStream retires stream h.
func (b *Bridge) CloseStream(h handles.Handle) error {
	if _, ok := retireHandle(b, b.streams, api.HandleStream, h); !ok {
		return api.Errorf(api.ErrCodeNotFound, "unknown stream handle %s", h)
	}
	b.log.Debug("stream closed", "handle", h)
	return nil
}
