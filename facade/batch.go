// File: facade/batch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Batch extraction. Inputs are staged in the bridge's memory pool inside one
// pool batch, so repeated batches of similar size reuse the same storage.
// The first failing item fails the whole batch; the error carries the item's
// index and MIME type.

package facade

import (
	"context"
	"errors"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/control"
	"github.com/momentics/hioload-bridge/pool"
)

// BatchExtractPooled extracts parallel lists of documents and MIME types.
// Results are returned in input order.
func (b *Bridge) BatchExtractPooled(buffers [][]byte, mimeTypes []string, cfg *api.ExtractionConfig) ([]*api.ExtractionOutcome, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if len(buffers) != len(mimeTypes) {
		return nil, api.Errorf(api.ErrCodeInvalidArgument,
			"buffers and mime types length mismatch: %d buffers, %d mime types", len(buffers), len(mimeTypes))
	}
	items := make([]api.BytesWithMime, len(buffers))
	for i := range buffers {
		items[i] = api.BytesWithMime{Data: buffers[i], MimeType: mimeTypes[i]}
	}
	return b.batch(items, cfg)
}

// BatchExtract is the paired form of BatchExtractPooled.
func (b *Bridge) BatchExtract(items []api.BytesWithMime, cfg *api.ExtractionConfig) ([]*api.ExtractionOutcome, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	return b.batch(items, cfg)
}

// BatchExtractPooledAsync is the context form of BatchExtractPooled.
// Cancellation is checked before dispatch only; a dispatched batch runs to
// the end.
func (b *Bridge) BatchExtractPooledAsync(ctx context.Context, buffers [][]byte, mimeTypes []string, cfg *api.ExtractionConfig) ([]*api.ExtractionOutcome, error) {
	return runAsync(ctx, b, func() ([]*api.ExtractionOutcome, error) {
		return b.BatchExtractPooled(buffers, mimeTypes, cfg)
	})
}

// BatchExtractAsync is the context form of BatchExtract.
func (b *Bridge) BatchExtractAsync(ctx context.Context, items []api.BytesWithMime, cfg *api.ExtractionConfig) ([]*api.ExtractionOutcome, error) {
	return runAsync(ctx, b, func() ([]*api.ExtractionOutcome, error) {
		return b.BatchExtract(items, cfg)
	})
}

func validateBatch(items []api.BytesWithMime) error {
	if len(items) == 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "batch is empty")
	}
	for i, it := range items {
		var e *api.Error
		switch {
		case len(it.Data) == 0:
			e = api.Errorf(api.ErrCodeInvalidArgument, "data at index %d is empty", i)
		case it.MimeType == "":
			e = api.Errorf(api.ErrCodeInvalidArgument, "mime type at index %d is empty", i)
		default:
			continue
		}
		e.Index = i
		e.MimeType = it.MimeType
		return e
	}
	return nil
}

func (b *Bridge) batch(items []api.BytesWithMime, cfg *api.ExtractionConfig) ([]*api.ExtractionOutcome, error) {
	if err := validateBatch(items); err != nil {
		return nil, err
	}
	pooled := b.poolEnabled()
	b.log.Debug("batch started", "items", len(items), "pooled", pooled)

	results := make([]*api.ExtractionOutcome, len(items))
	run := func(i int, data []byte) error {
		out, err := b.callEngine(control.PathBatch, data, items[i].MimeType, cfg)
		if err != nil {
			return api.NewItemError(i, items[i].MimeType, err)
		}
		results[i] = out
		return nil
	}

	var err error
	if pooled {
		err = b.pool.Batch(func(s *pool.Scope) error {
			for i, it := range items {
				scratch, err := s.Copy(it.Data)
				if err != nil {
					var ae *api.Error
					if errors.As(err, &ae) {
						ae.Index = i
						ae.MimeType = it.MimeType
					}
					return err
				}
				if err := run(i, scratch); err != nil {
					return err
				}
			}
			return nil
		})
	} else {
		for i, it := range items {
			if err = run(i, it.Data); err != nil {
				break
			}
		}
	}
	if err != nil {
		b.log.Warn("batch failed", "items", len(items), "error", err)
		return nil, err
	}
	return results, nil
}
