// Package speech provides the speech input/output adapter used by the interview session.
//
// Output (synthesis) and input (recognition) are independent channels. At most
// one utterance plays at a time: a new Speak cancels the active utterance and
// the newest request wins. Recognition is single-shot: each StartListening
// yields exactly one Result and then deactivates.
package speech

import (
	"context"
	"log"
	"strings"
	"sync"
)

// DefaultLocale is the fixed recognition and synthesis locale.
const DefaultLocale = "en-US"

// Synthesizer speaks text aloud. Synthesize blocks until the utterance has
// finished playing or ctx is cancelled.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) error
}

// Recognizer captures a single utterance and returns its final transcript.
type Recognizer interface {
	Recognize(ctx context.Context) (string, error)
}

// Result is the single outcome of a capture: a transcript or an error.
type Result struct {
	Transcript string
	Err        error
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithVerbose enables [SPEECH] logging.
func WithVerbose(verbose bool) Option {
	return func(a *Adapter) {
		a.verbose = verbose
	}
}

// WithErrorHandler sets the handler for synthesis failures that were not
// caused by cancellation. The default handler logs them.
func WithErrorHandler(fn func(error)) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.onError = fn
		}
	}
}

// Adapter wraps platform synthesis and recognition behind a start/stop/cancel contract.
// It holds no session state.
type Adapter struct {
	synth   Synthesizer
	rec     Recognizer
	verbose bool
	onError func(error)

	mu         sync.Mutex
	current    *utterance
	listening  bool
	stopListen context.CancelFunc
}

type utterance struct {
	text   string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAdapter creates an Adapter. Either backend may be nil: a nil synthesizer
// makes Speak a no-op, a nil recognizer makes StartListening fail with
// ErrUnsupportedCapability.
func NewAdapter(synth Synthesizer, rec Recognizer, opts ...Option) *Adapter {
	a := &Adapter{
		synth: synth,
		rec:   rec,
		onError: func(err error) {
			log.Printf("[SPEECH] synthesis failed: %v", err)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Speak starts speaking text without blocking. Any active utterance is
// cancelled first and discarded silently.
func (a *Adapter) Speak(text string) {
	if a.synth == nil || strings.TrimSpace(text) == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	u := &utterance{
		text:   text,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	a.mu.Lock()
	prev := a.current
	if prev != nil {
		prev.cancel()
	}
	a.current = u
	a.mu.Unlock()

	go a.play(ctx, prev, u)
}

func (a *Adapter) play(ctx context.Context, prev, u *utterance) {
	defer close(u.done)
	defer u.cancel()

	// The previous backend call must return before this one starts.
	if prev != nil {
		<-prev.done
	}

	if ctx.Err() == nil {
		if a.verbose {
			log.Printf("[SPEECH] speaking %d chars", len(u.text))
		}
		err := a.synth.Synthesize(ctx, u.text)
		if err != nil && ctx.Err() == nil {
			a.onError(err)
		}
	}

	a.mu.Lock()
	if a.current == u {
		a.current = nil
	}
	a.mu.Unlock()
}

// Cancel stops the active utterance. It does not wait for the backend to stop.
func (a *Adapter) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		a.current.cancel()
		if a.verbose {
			log.Printf("[SPEECH] utterance cancelled")
		}
	}
}

// Speaking reports whether an utterance is queued or playing.
func (a *Adapter) Speaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

// Wait blocks until the most recent utterance has finished or been discarded.
func (a *Adapter) Wait() {
	a.mu.Lock()
	u := a.current
	a.mu.Unlock()
	if u != nil {
		<-u.done
	}
}

// StartListening activates capture. The returned channel yields exactly one
// Result and is then closed; capture deactivates before the Result is sent.
func (a *Adapter) StartListening(ctx context.Context) (<-chan Result, error) {
	if a.rec == nil {
		return nil, ErrUnsupportedCapability
	}

	a.mu.Lock()
	if a.listening {
		a.mu.Unlock()
		return nil, ErrAlreadyListening
	}
	lctx, cancel := context.WithCancel(ctx)
	a.listening = true
	a.stopListen = cancel
	a.mu.Unlock()

	if a.verbose {
		log.Printf("[SPEECH] listening")
	}

	results := make(chan Result, 1)
	go func() {
		defer close(results)
		defer cancel()

		text, err := a.rec.Recognize(lctx)
		text = strings.TrimSpace(text)
		if err == nil && text == "" {
			err = ErrNoSpeech
		}

		a.mu.Lock()
		a.listening = false
		a.stopListen = nil
		a.mu.Unlock()

		if a.verbose {
			log.Printf("[SPEECH] capture finished: %d chars, err=%v", len(text), err)
		}
		if err != nil {
			results <- Result{Err: err}
			return
		}
		results <- Result{Transcript: text}
	}()

	return results, nil
}

// StopListening cancels an active capture. The pending Result carries the
// cancellation error.
func (a *Adapter) StopListening() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopListen != nil {
		a.stopListen()
	}
}

// Listening reports whether capture is active.
func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// CanListen reports whether a recognition facility is available.
func (a *Adapter) CanListen() bool {
	return a.rec != nil
}
