// Package fake
// Author: momentics <momentics@gmail.com>
//
// Scriptable extraction engine for tests. By default it echoes the input as
// content; outcomes and errors can be scripted per MIME type, and calls can
// be held open to exercise in-flight behavior.

package fake

import (
	"sync"

	"github.com/momentics/hioload-bridge/api"
)

// Call records one engine invocation. Data is a copy of the input.
type Call struct {
	Data     []byte
	MimeType string
	Config   *api.ExtractionConfig
}

// Extractor is a fake implementation of api.Extractor.
type Extractor struct {
	mu       sync.Mutex
	outcomes map[string]*api.ExtractionOutcome
	errs     map[string]error
	calls    []Call
	gate     chan struct{}
	started  chan struct{}
	onCall   func(data []byte, mimeType string)
}

var _ api.Extractor = (*Extractor)(nil)

// NewExtractor creates an echoing fake engine.
func NewExtractor() *Extractor {
	return &Extractor{
		outcomes: make(map[string]*api.ExtractionOutcome),
		errs:     make(map[string]error),
		started:  make(chan struct{}, 128),
	}
}

// SetOutcome scripts the result returned for mimeType.
func (e *Extractor) SetOutcome(mimeType string, out *api.ExtractionOutcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcomes[mimeType] = out
}

// SetError scripts a failure for mimeType.
func (e *Extractor) SetError(mimeType string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs[mimeType] = err
}

// OnCall runs fn with the live input slice inside every call.
func (e *Extractor) OnCall(fn func(data []byte, mimeType string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCall = fn
}

// Hold makes subsequent calls wait until the returned release func runs.
// release is idempotent.
func (e *Extractor) Hold() (release func()) {
	gate := make(chan struct{})
	e.mu.Lock()
	e.gate = gate
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			if e.gate == gate {
				e.gate = nil
			}
			e.mu.Unlock()
			close(gate)
		})
	}
}

// Started receives one value per call as soon as the call begins.
func (e *Extractor) Started() <-chan struct{} { return e.started }

// Calls returns recorded invocations in order.
func (e *Extractor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}

// CallCount returns the number of invocations so far.
func (e *Extractor) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// ExtractBytesSync implements api.Extractor.
func (e *Extractor) ExtractBytesSync(data []byte, mimeType string, cfg *api.ExtractionConfig) (*api.ExtractionOutcome, error) {
	e.mu.Lock()
	e.calls = append(e.calls, Call{Data: append([]byte(nil), data...), MimeType: mimeType, Config: cfg})
	gate := e.gate
	onCall := e.onCall
	out, hasOut := e.outcomes[mimeType]
	err := e.errs[mimeType]
	e.mu.Unlock()

	select {
	case e.started <- struct{}{}:
	default:
	}
	if onCall != nil {
		onCall(data, mimeType)
	}
	if gate != nil {
		<-gate
	}

	if err != nil {
		return nil, err
	}
	if hasOut {
		cp := *out
		return &cp, nil
	}
	return &api.ExtractionOutcome{
		Content:  string(data),
		MimeType: mimeType,
		Metadata: map[string]any{"length": len(data)},
		Tables:   []api.Table{},
	}, nil
}
