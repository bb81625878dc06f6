// Package session implements the interview session controller.
//
// The controller is the single source of truth for an interview: it owns the
// phase, the conversation history, the busy and listening flags, the pending
// input buffer and the final report. The service client and the speech
// adapter hold no session state.
//
// Only one user-initiated remote operation runs at a time. The state mutex is
// never held across a remote call, so a second operation issued while busy is
// rejected with ErrBusy instead of being queued.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/mock-interview/internal/service"
	"github.com/jonathan/mock-interview/internal/speech"
	"github.com/jonathan/mock-interview/internal/types"
)

// Fixed conversational texts.
const (
	// OpeningMessage is sent right after the resume is accepted to seed the first interviewer turn.
	OpeningMessage = "I have uploaded my resume. Please start the interview."
	// ErrorNotice is appended as an interviewer turn when a message cannot be delivered.
	ErrorNotice = "Error: Could not connect to the interviewer."
	// EndConfirmPrompt is the question asked before ending the interview.
	EndConfirmPrompt = "Are you sure you want to end the interview and generate your report?"
)

// Speech is the part of the speech adapter the controller drives.
type Speech interface {
	Speak(text string)
	Cancel()
	StartListening(ctx context.Context) (<-chan speech.Result, error)
	StopListening()
}

// Confirmer gates the end of the interview. It returns true to proceed.
type Confirmer func(prompt string) bool

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	ID        string
	Phase     Phase
	History   []types.Turn
	Busy      bool
	Listening bool
	Input     string
	Report    *types.Report
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfirmer sets the end-of-interview confirmation gate. The default always confirms.
func WithConfirmer(confirm Confirmer) Option {
	return func(c *Controller) {
		if confirm != nil {
			c.confirm = confirm
		}
	}
}

// WithObserver registers a function called with a fresh Snapshot after every state change.
// Observers run on the goroutine that made the change and must not block.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithVoiceErrorHandler sets the handler for capture errors that arrive after
// BeginVoiceInput has returned.
func WithVoiceErrorHandler(fn func(error)) Option {
	return func(c *Controller) {
		c.onVoiceError = fn
	}
}

// WithVerbose enables [SESSION] logging.
func WithVerbose(verbose bool) Option {
	return func(c *Controller) {
		c.verbose = verbose
	}
}

// Controller is the interview state machine.
type Controller struct {
	client       service.Client
	speech       Speech
	confirm      Confirmer
	observers    []func(Snapshot)
	onVoiceError func(error)
	verbose      bool
	opts         []Option

	mu        sync.Mutex
	id        string
	phase     Phase
	history   []types.Turn
	busy      bool
	listening bool
	input     string
	report    *types.Report

	voice sync.WaitGroup
}

// New creates a Controller in PhaseIntake. A nil sp disables speech entirely.
func New(client service.Client, sp Speech, opts ...Option) *Controller {
	if sp == nil {
		sp = noSpeech{}
	}
	c := &Controller{
		client:  client,
		speech:  sp,
		confirm: func(string) bool { return true },
		opts:    opts,
		id:      uuid.NewString(),
		phase:   PhaseIntake,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewSession discards this session and returns a fresh one in PhaseIntake
// sharing the same collaborators and options.
func (c *Controller) NewSession() *Controller {
	c.speech.Cancel()
	c.speech.StopListening()
	return New(c.client, c.speech, c.opts...)
}

// SubmitResume uploads the resume and requests the opening interviewer turn.
// On success the session enters PhaseConversing with the opening turn as its
// only history entry. On failure the session stays in PhaseIntake with no history.
func (c *Controller) SubmitResume(ctx context.Context, resume types.Resume) error {
	c.mu.Lock()
	if err := c.checkLocked("submit resume", PhaseIntake); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := validateResume(resume); err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = true
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	c.logf("submitting resume %s (%d bytes)", resume.Filename, len(resume.Content))

	ctx = service.WithSessionID(ctx, c.id)
	err := c.client.SubmitResume(ctx, resume)
	var opening string
	if err == nil {
		opening, err = c.client.SendMessage(ctx, OpeningMessage)
	}
	if err != nil {
		c.update(func() {
			c.busy = false
		})
		c.logf("resume intake failed: %v", err)
		return fmt.Errorf("submit resume: %w", err)
	}

	c.update(func() {
		c.phase = PhaseConversing
		c.history = append(c.history, types.InterviewerTurn(opening))
		c.busy = false
	})
	c.logf("phase %s -> %s", PhaseIntake, PhaseConversing)
	c.speech.Speak(opening)
	return nil
}

// SendText sends the candidate's message. The candidate turn is appended
// before the request is made and stays in history even if the request fails,
// in which case an interviewer turn carrying ErrorNotice follows it.
func (c *Controller) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if err := c.checkLocked("send message", PhaseConversing); err != nil {
		c.mu.Unlock()
		return err
	}
	if text == "" {
		c.mu.Unlock()
		return ErrEmptyMessage
	}
	c.history = append(c.history, types.CandidateTurn(text))
	c.busy = true
	c.input = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	reply, err := c.client.SendMessage(service.WithSessionID(ctx, c.id), text)
	if err != nil {
		c.update(func() {
			c.history = append(c.history, types.InterviewerTurn(ErrorNotice))
			c.busy = false
		})
		c.logf("send failed: %v", err)
		return fmt.Errorf("send message: %w", err)
	}

	c.update(func() {
		c.history = append(c.history, types.InterviewerTurn(reply))
		c.busy = false
	})
	c.speech.Speak(reply)
	return nil
}

// SendPending commits the pending input buffer, typed or transcribed, via SendText.
func (c *Controller) SendPending(ctx context.Context) error {
	return c.SendText(ctx, c.Input())
}

// SetInput replaces the pending input buffer.
func (c *Controller) SetInput(text string) {
	c.update(func() {
		c.input = text
	})
}

// Input returns the pending input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// BeginVoiceInput starts a single speech capture. The final transcript is
// written into the pending input buffer; it is not sent. Listening clears
// when capture ends whatever the outcome. Capture errors arriving later go
// to the voice error handler.
func (c *Controller) BeginVoiceInput(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkLocked("voice input", PhaseConversing); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.listening {
		c.mu.Unlock()
		return speech.ErrAlreadyListening
	}
	results, err := c.speech.StartListening(ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.listening = true
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	c.voice.Add(1)
	go c.awaitTranscript(results)
	return nil
}

func (c *Controller) awaitTranscript(results <-chan speech.Result) {
	defer c.voice.Done()

	r, ok := <-results
	c.update(func() {
		c.listening = false
		if ok && r.Err == nil {
			c.input = r.Transcript
		}
	})

	if !ok || r.Err == nil {
		return
	}
	c.logf("voice input ended: %v", r.Err)
	if c.onVoiceError != nil && !errors.Is(r.Err, context.Canceled) {
		c.onVoiceError(r.Err)
	}
}

// StopVoiceInput cancels an active capture.
func (c *Controller) StopVoiceInput() {
	c.speech.StopListening()
}

// Wait blocks until every pending capture has delivered its result.
func (c *Controller) Wait() {
	c.voice.Wait()
}

// EndInterview asks for confirmation, cancels speech output and requests the
// report. On success the session becomes PhaseReported. On failure it returns
// to PhaseConversing with history untouched so the candidate may retry.
func (c *Controller) EndInterview(ctx context.Context) error {
	const op = "end interview"

	c.mu.Lock()
	err := c.checkLocked(op, PhaseConversing)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if !c.confirm(EndConfirmPrompt) {
		return ErrNotConfirmed
	}

	c.speech.Cancel()
	c.speech.StopListening()

	c.mu.Lock()
	if err := c.checkLocked(op, PhaseConversing); err != nil {
		c.mu.Unlock()
		return err
	}
	c.phase = PhaseEnding
	c.busy = true
	c.listening = false
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	c.logf("phase %s -> %s", PhaseConversing, PhaseEnding)

	report, err := c.client.EndInterview(service.WithSessionID(ctx, c.id))
	if err == nil && report == nil {
		err = &service.MalformedReport{Message: "no report returned"}
	}
	if err != nil {
		c.update(func() {
			c.phase = PhaseConversing
			c.busy = false
		})
		c.logf("phase %s -> %s: %v", PhaseEnding, PhaseConversing, err)
		return fmt.Errorf("end interview: %w", err)
	}

	c.update(func() {
		c.report = report.Clone()
		c.phase = PhaseReported
		c.busy = false
	})
	c.logf("phase %s -> %s", PhaseEnding, PhaseReported)
	return nil
}

// ID returns the session ID sent with each request.
func (c *Controller) ID() string {
	return c.id
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// History returns a copy of the conversation in conversational order.
func (c *Controller) History() []types.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Turn(nil), c.history...)
}

// Busy reports whether a remote request is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Listening reports whether speech capture is active.
func (c *Controller) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Report returns a copy of the report, or nil before PhaseReported.
func (c *Controller) Report() *types.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report.Clone()
}

// Snapshot returns a copy of the full session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) checkLocked(op string, want Phase) error {
	if c.busy {
		return &TransitionError{Op: op, Phase: c.phase, Err: ErrBusy}
	}
	if c.phase != want {
		return &TransitionError{Op: op, Phase: c.phase, Err: ErrInvalidPhase}
	}
	return nil
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		ID:        c.id,
		Phase:     c.phase,
		History:   append([]types.Turn(nil), c.history...),
		Busy:      c.busy,
		Listening: c.listening,
		Input:     c.input,
		Report:    c.report.Clone(),
	}
}

// update applies fn under the state lock and notifies observers afterwards.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) notify(snap Snapshot) {
	for _, fn := range c.observers {
		fn(snap)
	}
}

func (c *Controller) logf(format string, args ...interface{}) {
	if c.verbose {
		log.Printf("[SESSION] "+format, args...)
	}
}

// noSpeech is used when no speech adapter is configured.
type noSpeech struct{}

func (noSpeech) Speak(string)   {}
func (noSpeech) Cancel()        {}
func (noSpeech) StopListening() {}
func (noSpeech) StartListening(context.Context) (<-chan speech.Result, error) {
	return nil, speech.ErrUnsupportedCapability
}
