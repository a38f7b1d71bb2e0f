// File: facade/buffers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/core/buffer"
	"github.com/momentics/hioload-bridge/internal/handles"
)

// CreateSharedBuffer allocates a pinned region of capacity bytes and returns
// its handle.
func (b *Bridge) CreateSharedBuffer(capacity int) (handles.Handle, error) {
	if err := b.checkOpen(); err != nil {
		return handles.Nil, err
	}
	sb, err := buffer.New(capacity, buffer.WithMaxCapacity(b.cfg.SharedBuffer.MaxCapacity))
	if err != nil {
		b.log.Warn("shared buffer allocation failed", "capacity", capacity, "error", err)
		return handles.Nil, err
	}
	h, err := registerHandle(b, b.buffers, api.HandleBuffer, sb)
	if err != nil {
		_ = sb.Release()
		return handles.Nil, err
	}
	b.log.Debug("shared buffer created", "handle", h, "capacity", capacity, "backing", sb.Backing())
	return h, nil
}

func (b *Bridge) buffer(h handles.Handle) (*buffer.SharedBuffer, error) {
	sb, ok := b.buffers.Get(h)
	if !ok {
		return nil, api.Errorf(api.ErrCodeNotFound, "unknown shared buffer handle %s", h)
	}
	return sb, nil
}

// BufferWrite copies data into the buffer at offset.
func (b *Bridge) BufferWrite(h handles.Handle, offset int, data []byte) (int, error) {
	sb, err := b.buffer(h)
	if err != nil {
		return 0, err
	}
	return sb.WriteAt(offset, data)
}

// BufferAppend writes data at the buffer's cursor.
func (b *Bridge) BufferAppend(h handles.Handle, data []byte) (int, error) {
	sb, err := b.buffer(h)
	if err != nil {
		return 0, err
	}
	return sb.Append(data)
}

// BufferRead returns a copy of [offset, offset+length).
func (b *Bridge) BufferRead(h handles.Handle, offset, length int) ([]byte, error) {
	sb, err := b.buffer(h)
	if err != nil {
		return nil, err
	}
	return sb.ReadAt(offset, length)
}

// BufferReset moves the cursor to zero.
func (b *Bridge) BufferReset(h handles.Handle) error {
	sb, err := b.buffer(h)
	if err != nil {
		return err
	}
	sb.Reset()
	return nil
}

// BufferClear zero-fills the buffer.
func (b *Bridge) BufferClear(h handles.Handle) error {
	sb, err := b.buffer(h)
	if err != nil {
		return err
	}
	return sb.Clear()
}

// BufferInfo reports the buffer's accessors.
func (b *Bridge) BufferInfo(h handles.Handle) (api.BufferInfo, error) {
	sb, err := b.buffer(h)
	if err != nil {
		return api.BufferInfo{}, err
	}
	return sb.Info(), nil
}

// ReleaseSharedBuffer frees the buffer and retires its handle. It fails with
// api.ErrBufferBusy while an extraction borrows the buffer; the handle stays
// valid in that case.
func (b *Bridge) ReleaseSharedBuffer(h handles.Handle) error {
	sb, err := b.buffer(h)
	if err != nil {
		return err
	}
	if err := sb.Release(); err != nil {
		b.log.Warn("shared buffer release refused", "handle", h, "error", err)
		return err
	}
	retireHandle(b, b.buffers, api.HandleBuffer, h)
	b.log.Debug("shared buffer released", "handle", h)
	return nil
}
