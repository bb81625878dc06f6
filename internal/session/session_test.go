package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mock-interview/internal/service"
	"github.com/jonathan/mock-interview/internal/speech"
	"github.com/jonathan/mock-interview/internal/types"
)

type fakeClient struct {
	mu         sync.Mutex
	submitErr  error
	sendErr    error
	replies    []string
	endReport  *types.Report
	endErr     error
	gate       chan struct{}
	entered    chan string
	submitted  []types.Resume
	messages   []string
	sessionIDs []string
	endCalls   int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		endReport: &types.Report{
			TechnicalScore:      8,
			CommunicationScore:  6,
			ProblemSolvingScore: 7,
			Feedback:            "Solid answers overall.",
			Strengths:           []string{"Go", "Systems design"},
			Weaknesses:          []string{"Brevity"},
		},
	}
}

// block makes subsequent SendMessage and EndInterview calls wait for release.
func (f *fakeClient) block() {
	f.gate = make(chan struct{})
	f.entered = make(chan string, 4)
}

func (f *fakeClient) release() {
	close(f.gate)
}

func (f *fakeClient) wait(op string) {
	if f.gate == nil {
		return
	}
	f.entered <- op
	<-f.gate
}

func (f *fakeClient) SubmitResume(ctx context.Context, resume types.Resume) error {
	f.mu.Lock()
	f.submitted = append(f.submitted, resume)
	f.sessionIDs = append(f.sessionIDs, service.SessionIDFromContext(ctx))
	err := f.submitErr
	f.mu.Unlock()
	return err
}

func (f *fakeClient) SendMessage(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.messages = append(f.messages, text)
	f.sessionIDs = append(f.sessionIDs, service.SessionIDFromContext(ctx))
	err := f.sendErr
	var reply string
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	} else {
		reply = "reply to " + text
	}
	f.mu.Unlock()

	f.wait("send")
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (f *fakeClient) EndInterview(ctx context.Context) (*types.Report, error) {
	f.mu.Lock()
	f.endCalls++
	f.sessionIDs = append(f.sessionIDs, service.SessionIDFromContext(ctx))
	report, err := f.endReport, f.endErr
	f.mu.Unlock()

	f.wait("end")
	return report, err
}

type fakeSpeech struct {
	mu       sync.Mutex
	spoken   []string
	cancels  int
	stops    int
	startErr error
	pending  chan speech.Result
}

func (f *fakeSpeech) Speak(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
}

func (f *fakeSpeech) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeSpeech) StartListening(ctx context.Context) (<-chan speech.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.pending = make(chan speech.Result, 1)
	return f.pending, nil
}

func (f *fakeSpeech) StopListening() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeSpeech) deliver(r speech.Result) {
	f.mu.Lock()
	ch := f.pending
	f.pending = nil
	f.mu.Unlock()
	ch <- r
	close(ch)
}

func (f *fakeSpeech) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func testResume() types.Resume {
	return types.Resume{Filename: "resume.pdf", Content: []byte("%PDF-1.4 resume")}
}

// conversing returns a controller that has completed intake.
func conversing(t *testing.T, client *fakeClient, sp Speech, opts ...Option) *Controller {
	t.Helper()
	client.replies = append([]string{"Tell me about yourself."}, client.replies...)
	c := New(client, sp, opts...)
	require.NoError(t, c.SubmitResume(context.Background(), testResume()))
	require.Equal(t, PhaseConversing, c.Phase())
	return c
}

func waitEntered(t *testing.T, client *fakeClient, want string) {
	t.Helper()
	select {
	case op := <-client.entered:
		require.Equal(t, want, op)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s call", want)
	}
}

func TestNew_StartsInIntake(t *testing.T) {
	c := New(newFakeClient(), nil)

	snap := c.Snapshot()
	assert.Equal(t, PhaseIntake, snap.Phase)
	assert.Empty(t, snap.History)
	assert.False(t, snap.Busy)
	assert.False(t, snap.Listening)
	assert.Nil(t, snap.Report)
	assert.NotEmpty(t, c.ID())
}

func TestSubmitResume_Success(t *testing.T) {
	client := newFakeClient()
	client.replies = []string{"Welcome! Tell me about your last project."}
	sp := &fakeSpeech{}
	c := New(client, sp)

	err := c.SubmitResume(context.Background(), testResume())
	require.NoError(t, err)

	assert.Equal(t, PhaseConversing, c.Phase())
	assert.False(t, c.Busy())
	assert.Equal(t, []types.Turn{types.InterviewerTurn("Welcome! Tell me about your last project.")}, c.History())
	assert.Equal(t, []string{OpeningMessage}, client.messages)
	assert.Equal(t, []string{"Welcome! Tell me about your last project."}, sp.spokenTexts())
	require.Len(t, client.submitted, 1)
	assert.Equal(t, "resume.pdf", client.submitted[0].Filename)
	for _, id := range client.sessionIDs {
		assert.Equal(t, c.ID(), id)
	}
}

func TestSubmitResume_Failures(t *testing.T) {
	tests := []struct {
		name      string
		submitErr error
		sendErr   error
		wantIs    error
		wantSends int
	}{
		{
			name:      "upload unreachable",
			submitErr: &service.TransportError{Op: service.OpSubmitResume, URL: "http://localhost:8000", Cause: errors.New("connection refused")},
			wantIs:    service.ErrTransport,
			wantSends: 0,
		},
		{
			name:      "upload rejected",
			submitErr: &service.ServiceError{Op: service.OpSubmitResume, StatusCode: 400, Detail: "Only PDF files are allowed"},
			wantIs:    service.ErrService,
			wantSends: 0,
		},
		{
			name:      "opening message fails",
			sendErr:   &service.ServiceError{Op: service.OpSendMessage, StatusCode: 500},
			wantIs:    service.ErrService,
			wantSends: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			client.submitErr = tt.submitErr
			client.sendErr = tt.sendErr
			sp := &fakeSpeech{}
			c := New(client, sp)

			err := c.SubmitResume(context.Background(), testResume())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)

			assert.Equal(t, PhaseIntake, c.Phase())
			assert.False(t, c.Busy())
			assert.Empty(t, c.History())
			assert.Len(t, client.messages, tt.wantSends)
			assert.Empty(t, sp.spokenTexts())
		})
	}
}

func TestSubmitResume_RetryAfterFailure(t *testing.T) {
	client := newFakeClient()
	client.submitErr = &service.TransportError{Op: service.OpSubmitResume, Cause: errors.New("refused")}
	c := New(client, nil)

	require.Error(t, c.SubmitResume(context.Background(), testResume()))

	client.submitErr = nil
	require.NoError(t, c.SubmitResume(context.Background(), testResume()))
	assert.Equal(t, PhaseConversing, c.Phase())
	assert.Len(t, c.History(), 1)
}

func TestSubmitResume_InvalidResume(t *testing.T) {
	tests := []struct {
		name   string
		resume types.Resume
	}{
		{name: "not a pdf", resume: types.Resume{Filename: "resume.docx", Content: []byte("data")}},
		{name: "no extension", resume: types.Resume{Filename: "resume", Content: []byte("data")}},
		{name: "empty file", resume: types.Resume{Filename: "resume.pdf"}},
		{name: "too large", resume: types.Resume{Filename: "resume.pdf", Content: make([]byte, MaxResumeBytes+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			c := New(client, nil)

			err := c.SubmitResume(context.Background(), tt.resume)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidResume)

			var resumeErr *ResumeError
			require.True(t, errors.As(err, &resumeErr))
			assert.Equal(t, tt.resume.Filename, resumeErr.Filename)

			assert.Equal(t, PhaseIntake, c.Phase())
			assert.Empty(t, client.submitted)
		})
	}
}

func TestSubmitResume_UppercaseExtension(t *testing.T) {
	c := New(newFakeClient(), nil)
	err := c.SubmitResume(context.Background(), types.Resume{Filename: "CV.PDF", Content: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, PhaseConversing, c.Phase())
}

func TestSubmitResume_RejectedAfterIntake(t *testing.T) {
	client := newFakeClient()
	c := conversing(t, client, &fakeSpeech{})

	err := c.SubmitResume(context.Background(), testResume())
	assert.ErrorIs(t, err, ErrInvalidPhase)

	var transition *TransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, PhaseConversing, transition.Phase)
	assert.Len(t, client.submitted, 1)
}

func TestSendText_Success(t *testing.T) {
	client := newFakeClient()
	sp := &fakeSpeech{}
	c := conversing(t, client, sp)
	client.replies = []string{"Why did you pick Go?"}
	c.SetInput("draft")

	err := c.SendText(context.Background(), "  I built a payment service.  ")
	require.NoError(t, err)

	assert.Equal(t, []types.Turn{
		types.InterviewerTurn("Tell me about yourself."),
		types.CandidateTurn("I built a payment service."),
		types.InterviewerTurn("Why did you pick Go?"),
	}, c.History())
	assert.False(t, c.Busy())
	assert.Empty(t, c.Input())
	assert.Equal(t, "I built a payment service.", client.messages[len(client.messages)-1])
	assert.Equal(t, []string{"Tell me about yourself.", "Why did you pick Go?"}, sp.spokenTexts())
}

func TestSendText_EmptyRejected(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		client := newFakeClient()
		c := conversing(t, client, &fakeSpeech{})
		before := c.Snapshot()

		err := c.SendText(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Equal(t, before, c.Snapshot())
		assert.Len(t, client.messages, 1)
	}
}

func TestSendText_FailureAppendsNotice(t *testing.T) {
	client := newFakeClient()
	sp := &fakeSpeech{}
	c := conversing(t, client, sp)
	client.sendErr = &service.TransportError{Op: service.OpSendMessage, Cause: errors.New("connection reset")}

	err := c.SendText(context.Background(), "Hello?")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrTransport)
	assert.True(t, service.Retryable(err))

	assert.Equal(t, []types.Turn{
		types.InterviewerTurn("Tell me about yourself."),
		types.CandidateTurn("Hello?"),
		types.InterviewerTurn(ErrorNotice),
	}, c.History())
	assert.False(t, c.Busy())
	assert.Equal(t, PhaseConversing, c.Phase())
	assert.Equal(t, []string{"Tell me about yourself."}, sp.spokenTexts())
}

func TestSendText_RejectedOutsideConversing(t *testing.T) {
	client := newFakeClient()
	c := New(client, nil)

	err := c.SendText(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.Empty(t, c.History())
	assert.Empty(t, client.messages)
}

func TestBusy_RejectsOverlappingOperations(t *testing.T) {
	client := newFakeClient()
	sp := &fakeSpeech{}
	c := conversing(t, client, sp)
	client.block()

	done := make(chan error, 1)
	go func() {
		done <- c.SendText(context.Background(), "first")
	}()
	waitEntered(t, client, "send")

	assert.True(t, c.Busy())
	before := c.Snapshot()

	assert.ErrorIs(t, c.SendText(context.Background(), "second"), ErrBusy)
	assert.ErrorIs(t, c.EndInterview(context.Background()), ErrBusy)
	assert.ErrorIs(t, c.BeginVoiceInput(context.Background()), ErrBusy)
	assert.ErrorIs(t, c.SubmitResume(context.Background(), testResume()), ErrBusy)
	assert.Equal(t, before, c.Snapshot())

	client.release()
	require.NoError(t, <-done)

	assert.False(t, c.Busy())
	assert.Equal(t, []string{OpeningMessage, "first"}, client.messages)
	assert.Equal(t, 0, client.endCalls)
	assert.Len(t, c.History(), 3)
}

func TestEndInterview_Success(t *testing.T) {
	client := newFakeClient()
	sp := &fakeSpeech{}
	c := conversing(t, client, sp)
	require.NoError(t, c.SendText(context.Background(), "My answer."))
	historyBefore := c.History()

	err := c.EndInterview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhaseReported, c.Phase())
	assert.False(t, c.Busy())
	assert.Equal(t, historyBefore, c.History())
	assert.Equal(t, client.endReport, c.Report())
	assert.Equal(t, 1, sp.cancels)
	assert.Equal(t, 1, client.endCalls)
}

func TestEndInterview_ReportedIsTerminal(t *testing.T) {
	client := newFakeClient()
	c := conversing(t, client, &fakeSpeech{})
	require.NoError(t, c.EndInterview(context.Background()))

	assert.ErrorIs(t, c.SendText(context.Background(), "one more thing"), ErrInvalidPhase)
	assert.ErrorIs(t, c.EndInterview(context.Background()), ErrInvalidPhase)
	assert.ErrorIs(t, c.BeginVoiceInput(context.Background()), ErrInvalidPhase)
	assert.Equal(t, PhaseReported, c.Phase())
	assert.Equal(t, 1, client.endCalls)
}

func TestEndInterview_Declined(t *testing.T) {
	client := newFakeClient()
	sp := &fakeSpeech{}
	var prompts []string
	c := conversing(t, client, sp, WithConfirmer(func(prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	}))
	before := c.Snapshot()

	err := c.EndInterview(context.Background())
	assert.ErrorIs(t, err, ErrNotConfirmed)

	assert.Equal(t, []string{EndConfirmPrompt}, prompts)
	assert.Equal(t, before, c.Snapshot())
	assert.Equal(t, 0, client.endCalls)
	assert.Equal(t, 0, sp.cancels)
}

func TestEndInterview_FailureRevertsToConversing(t *testing.T) {
	tests := []struct {
		name   string
		report *types.Report
		err    error
		wantIs error
	}{
		{
			name:   "service error",
			err:    &service.ServiceError{Op: service.OpEndInterview, StatusCode: 200, Detail: "No chat history found"},
			wantIs: service.ErrService,
		},
		{
			name:   "malformed report",
			err:    &service.MalformedReport{Message: "missing technical_score"},
			wantIs: service.ErrMalformedReport,
		},
		{
			name:   "no report",
			wantIs: service.ErrMalformedReport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			c := conversing(t, client, &fakeSpeech{})
			historyBefore := c.History()
			client.endReport = tt.report
			client.endErr = tt.err

			err := c.EndInterview(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)

			assert.Equal(t, PhaseConversing, c.Phase())
			assert.False(t, c.Busy())
			assert.Nil(t, c.Report())
			assert.Equal(t, historyBefore, c.History())

			client.endReport = newFakeClient().endReport
			client.endErr = nil
			require.NoError(t, c.EndInterview(context.Background()))
			assert.Equal(t, PhaseReported, c.Phase())
		})
	}
}

func TestEndInterview_EndingWhileInFlight(t *testing.T) {
	client := newFakeClient()
	c := conversing(t, client, &fakeSpeech{})
	client.block()

	done := make(chan error, 1)
	go func() {
		done <- c.EndInterview(context.Background())
	}()
	waitEntered(t, client, "end")

	assert.Equal(t, PhaseEnding, c.Phase())
	assert.True(t, c.Busy())
	assert.ErrorIs(t, c.EndInterview(context.Background()), ErrBusy)
	assert.ErrorIs(t, c.SendText(context.Background(), "wait"), ErrBusy)

	client.release()
	require.NoError(t, <-done)
	assert.Equal(t, PhaseReported, c.Phase())
	assert.Equal(t, 1, client.endCalls)
}

func TestEndInterview_RejectedInIntake(t *testing.T) {
	client := newFakeClient()
	c := New(client, nil)

	err := c.EndInterview(context.Background())
	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.Equal(t, PhaseIntake, c.Phase())
	assert.Equal(t, 0, client.endCalls)
}

func TestVoiceInput_TranscriptFillsInput(t *testing.T) {
	client := newFakeClient()
	sp := &fakeSpeech{}
	c := conversing(t, client, sp)

	require.NoError(t, c.BeginVoiceInput(context.Background()))
	assert.True(t, c.Listening())

	sp.deliver(speech.Result{Transcript: "I led the migration to Kubernetes."})
	c.Wait()

	assert.False(t, c.Listening())
	assert.Equal(t, "I led the migration to Kubernetes.", c.Input())
	assert.Len(t, c.History(), 1)
	assert.Len(t, client.messages, 1)

	require.NoError(t, c.SendPending(context.Background()))
	assert.Equal(t, types.CandidateTurn("I led the migration to Kubernetes."), c.History()[1])
	assert.Empty(t, c.Input())
}

func TestVoiceInput_CaptureError(t *testing.T) {
	client := newFakeClient()
	sp := &fakeSpeech{}
	var voiceErrs []error
	var mu sync.Mutex
	c := conversing(t, client, sp, WithVoiceErrorHandler(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		voiceErrs = append(voiceErrs, err)
	}))
	c.SetInput("typed so far")

	require.NoError(t, c.BeginVoiceInput(context.Background()))
	sp.deliver(speech.Result{Err: speech.ErrNoSpeech})
	c.Wait()

	assert.False(t, c.Listening())
	assert.Equal(t, "typed so far", c.Input())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, voiceErrs, 1)
	assert.ErrorIs(t, voiceErrs[0], speech.ErrNoSpeech)
}

func TestVoiceInput_CancelledIsNotReported(t *testing.T) {
	sp := &fakeSpeech{}
	called := false
	c := conversing(t, newFakeClient(), sp, WithVoiceErrorHandler(func(error) { called = true }))

	require.NoError(t, c.BeginVoiceInput(context.Background()))
	c.StopVoiceInput()
	sp.deliver(speech.Result{Err: context.Canceled})
	c.Wait()

	assert.False(t, c.Listening())
	assert.False(t, called)
	assert.Equal(t, 1, sp.stops)
}

func TestVoiceInput_Unsupported(t *testing.T) {
	c := conversing(t, newFakeClient(), nil)

	err := c.BeginVoiceInput(context.Background())
	assert.ErrorIs(t, err, speech.ErrUnsupportedCapability)
	assert.False(t, c.Listening())
	assert.False(t, c.Busy())
	assert.Equal(t, PhaseConversing, c.Phase())
}

func TestVoiceInput_AlreadyListening(t *testing.T) {
	sp := &fakeSpeech{}
	c := conversing(t, newFakeClient(), sp)

	require.NoError(t, c.BeginVoiceInput(context.Background()))
	err := c.BeginVoiceInput(context.Background())
	assert.ErrorIs(t, err, speech.ErrAlreadyListening)
	assert.True(t, c.Listening())

	sp.deliver(speech.Result{Transcript: "done"})
	c.Wait()
	assert.False(t, c.Listening())
}

func TestVoiceInput_AdapterRefusal(t *testing.T) {
	sp := &fakeSpeech{startErr: speech.ErrAlreadyListening}
	c := conversing(t, newFakeClient(), sp)

	err := c.BeginVoiceInput(context.Background())
	assert.ErrorIs(t, err, speech.ErrAlreadyListening)
	assert.False(t, c.Listening())
}

func TestEndInterview_StopsListening(t *testing.T) {
	sp := &fakeSpeech{}
	c := conversing(t, newFakeClient(), sp)
	require.NoError(t, c.BeginVoiceInput(context.Background()))

	require.NoError(t, c.EndInterview(context.Background()))
	assert.Equal(t, 1, sp.stops)
	assert.False(t, c.Listening())

	sp.deliver(speech.Result{Err: context.Canceled})
	c.Wait()
	assert.False(t, c.Listening())
	assert.Equal(t, PhaseReported, c.Phase())
}

func TestObserver_SeesEveryChange(t *testing.T) {
	client := newFakeClient()
	var mu sync.Mutex
	var phases []Phase
	var busy []bool
	c := New(client, nil, WithObserver(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, s.Phase)
		busy = append(busy, s.Busy)
	}))

	require.NoError(t, c.SubmitResume(context.Background(), testResume()))
	require.NoError(t, c.EndInterview(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{PhaseIntake, PhaseConversing, PhaseEnding, PhaseReported}, phases)
	assert.Equal(t, []bool{true, false, true, false}, busy)
}

func TestQueries_ReturnCopies(t *testing.T) {
	c := conversing(t, newFakeClient(), nil)
	require.NoError(t, c.EndInterview(context.Background()))

	history := c.History()
	history[0].Text = "changed"
	assert.Equal(t, "Tell me about yourself.", c.History()[0].Text)

	report := c.Report()
	report.Strengths[0] = "changed"
	assert.Equal(t, "Go", c.Report().Strengths[0])
}

func TestNewSession(t *testing.T) {
	client := newFakeClient()
	sp := &fakeSpeech{}
	c := conversing(t, client, sp)
	require.NoError(t, c.EndInterview(context.Background()))

	next := c.NewSession()
	assert.NotEqual(t, c.ID(), next.ID())
	assert.Equal(t, PhaseIntake, next.Phase())
	assert.Empty(t, next.History())
	assert.Nil(t, next.Report())
	assert.Equal(t, PhaseReported, c.Phase())

	require.NoError(t, next.SubmitResume(context.Background(), testResume()))
	assert.Equal(t, PhaseConversing, next.Phase())
	assert.Equal(t, next.ID(), client.sessionIDs[len(client.sessionIDs)-1])
}

func TestTransitionError_Message(t *testing.T) {
	err := &TransitionError{Op: "send message", Phase: PhaseReported, Err: ErrInvalidPhase}
	assert.True(t, strings.Contains(err.Error(), "send message rejected in phase reported"))
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "intake", PhaseIntake.String())
	assert.Equal(t, "conversing", PhaseConversing.String())
	assert.Equal(t, "ending", PhaseEnding.String())
	assert.Equal(t, "reported", PhaseReported.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
