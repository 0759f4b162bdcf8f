// Package upload drives a document upload through the analysis
// service as a small state machine:
//
//	Idle → Validating → Transmitting(progress) → Succeeded | Failed
//
// At most one upload is in flight at a time; the pipeline refuses a
// second start rather than relying on the caller to serialize.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"subtext/internal/report"
)

// State names the pipeline's position in the upload lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateTransmitting State = "transmitting"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// expectedMediaType is the only declared type accepted. No content
// sniffing beyond the declared type.
const expectedMediaType = "application/pdf"

var (
	// ErrBusy rejects an upload started while another is in flight.
	ErrBusy = errors.New("upload already in flight")
	// ErrInvalidType rejects a non-PDF before any network attempt.
	ErrInvalidType = errors.New("only PDF documents are accepted")
	// ErrTooLarge rejects a document over the configured size cap
	// before any network attempt.
	ErrTooLarge = errors.New("document exceeds the size limit")
)

type analyzer interface {
	Analyze(ctx context.Context, filename string, data []byte, onProgress func(int)) (report.Report, error)
}

// Pipeline validates and transmits one document at a time.
type Pipeline struct {
	analyzer analyzer
	maxBytes int64

	mu       sync.Mutex
	state    State
	progress int
	reason   string
	inFlight bool
}

// New creates a pipeline. maxBytes <= 0 disables the size cap.
func New(a analyzer, maxBytes int64) *Pipeline {
	return &Pipeline{analyzer: a, maxBytes: maxBytes, state: StateIdle}
}

// Status returns the current state, the transmission progress (0-100,
// reset to 0 outside of transmission), and the failure reason when the
// state is Failed.
func (p *Pipeline) Status() (State, int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.progress, p.reason
}

// Run executes one upload attempt and returns the parsed report on
// success. It never retries; the caller may call Run again, which
// starts a fresh validating cycle. A second Run while one is in flight
// returns ErrBusy without touching the in-flight attempt.
func (p *Pipeline) Run(ctx context.Context, filename, mediaType string, data []byte) (report.Report, error) {
	if err := p.begin(); err != nil {
		return report.Report{}, err
	}

	if mediaType != expectedMediaType {
		p.fail("wrong file type: PDF only")
		return report.Report{}, fmt.Errorf("%w: got %q", ErrInvalidType, mediaType)
	}
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		p.fail("document too large")
		return report.Report{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	p.transition(StateTransmitting)
	r, err := p.analyzer.Analyze(ctx, filename, data, p.setProgress)
	if err != nil {
		if ctx.Err() != nil {
			// An abandoned upload is Failed-equivalent: no report
			// is adopted and the next attempt starts clean.
			p.fail("upload canceled")
			return report.Report{}, ctx.Err()
		}
		p.fail("analysis failed")
		return report.Report{}, err
	}

	p.succeed()
	return r, nil
}

// begin claims the single-flight slot and enters Validating with a
// clean progress indicator.
func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return ErrBusy
	}
	p.inFlight = true
	p.state = StateValidating
	p.progress = 0
	p.reason = ""
	return nil
}

func (p *Pipeline) transition(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// setProgress records transmission progress, monotonically
// non-decreasing within an attempt.
func (p *Pipeline) setProgress(percent int) {
	p.mu.Lock()
	if percent > p.progress {
		p.progress = percent
	}
	p.mu.Unlock()
}

// succeed and fail reach the terminal states and reset progress to 0
// so a subsequent upload starts from a clean indicator.

func (p *Pipeline) succeed() {
	p.mu.Lock()
	p.state = StateSucceeded
	p.progress = 0
	p.inFlight = false
	p.mu.Unlock()
}

func (p *Pipeline) fail(reason string) {
	p.mu.Lock()
	p.state = StateFailed
	p.progress = 0
	p.reason = reason
	p.inFlight = false
	p.mu.Unlock()
}
