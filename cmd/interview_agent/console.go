package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonathan/mock-interview/internal/observability"
	"github.com/jonathan/mock-interview/internal/presenter"
	"github.com/jonathan/mock-interview/internal/service"
	"github.com/jonathan/mock-interview/internal/session"
	"github.com/jonathan/mock-interview/internal/speech"
	"github.com/jonathan/mock-interview/internal/types"
	"golang.org/x/sync/errgroup"
)

const helpText = `Type your answer and press Enter to send.
  /voice  answer by voice (the transcript is filled in, press Enter to send)
  /stop   stop listening
  /end    end the interview and get your report
  /quit   leave without a report`

var errQuit = errors.New("quit")

// syncWriter serializes writes from the loop and the event printer.
type syncWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Write(p)
}

// console drives a Controller from line-oriented input.
type console struct {
	out        io.Writer
	lines      chan string
	stop       <-chan struct{}
	printer    *observability.Printer
	prompt     bool
	verbose    bool
	resumePath string
	printed    int
}

type consoleOptions struct {
	ResumePath string
	Prompt     bool // print an input prompt; set for interactive terminals
	Verbose    bool
}

// runInterview runs interviews until input ends, the candidate quits or
// declines to start a new one.
func runInterview(ctx context.Context, in io.Reader, out io.Writer, client service.Client, sp session.Speech, opts consoleOptions) error {
	w := &syncWriter{out: out}
	c := &console{
		out:        w,
		lines:      make(chan string),
		stop:       ctx.Done(),
		printer:    observability.NewPrinter(w),
		prompt:     opts.Prompt,
		verbose:    opts.Verbose,
		resumePath: opts.ResumePath,
	}

	// The reader is left outside the group: a blocked read on a terminal
	// cannot be interrupted once the loop is done.
	go c.read(in)

	events := make(chan session.Snapshot, 32)
	done := make(chan struct{})

	ctrl := session.New(client, sp,
		session.WithConfirmer(c.confirm),
		session.WithObserver(func(s session.Snapshot) {
			select {
			case events <- s:
			default:
			}
		}),
		session.WithVoiceErrorHandler(c.notice),
		session.WithVerbose(opts.Verbose),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.watch(events, done)
		return nil
	})
	g.Go(func() error {
		defer close(done)
		err := c.loop(gctx, ctrl)
		if errors.Is(err, errQuit) {
			return nil
		}
		return err
	})
	return g.Wait()
}

func (c *console) read(in io.Reader) {
	defer close(c.lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
}

// readLine returns the next input line; false means input has ended or
// the run was interrupted.
func (c *console) readLine() (string, bool) {
	select {
	case line, ok := <-c.lines:
		return line, ok
	case <-c.stop:
		return "", false
	}
}

func (c *console) next() (string, bool) {
	if c.prompt {
		c.printf("> ")
	}
	return c.readLine()
}

func (c *console) ask(question string) bool {
	c.printf("%s [y/N] ", question)
	line, ok := c.readLine()
	if !ok {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (c *console) confirm(prompt string) bool {
	return c.ask(prompt)
}

func (c *console) loop(ctx context.Context, ctrl *session.Controller) error {
	for {
		if err := c.intake(ctx, ctrl); err != nil {
			return err
		}
		if err := c.converse(ctx, ctrl); err != nil {
			return err
		}

		report := ctrl.Report()
		if report == nil {
			return nil
		}
		if c.verbose {
			c.printer.PrintReport(report)
		}
		if err := presenter.Render(c.out, presenter.Present(*report)); err != nil {
			return err
		}
		if !c.ask(presenter.StartNewLabel + "?") {
			return nil
		}
		ctrl = ctrl.NewSession()
		c.printed = 0
	}
}

func (c *console) intake(ctx context.Context, ctrl *session.Controller) error {
	for ctrl.Phase() == session.PhaseIntake {
		path := c.resumePath
		c.resumePath = ""
		if path == "" {
			c.printf("Path to your resume (PDF): ")
			line, ok := c.readLine()
			if !ok {
				return errQuit
			}
			path = strings.TrimSpace(line)
		}
		if path == "/quit" {
			return errQuit
		}
		if path == "" {
			continue
		}

		resume, err := readResume(path)
		if err != nil {
			c.notice(err)
			continue
		}
		c.printf("%s\n", dimStyle.Render("Uploading "+resume.Filename+"..."))
		if err := ctrl.SubmitResume(ctx, resume); err != nil {
			c.notice(err)
			continue
		}
		c.printf("%s\n\n", dimStyle.Render(helpText))
		c.printTurns(ctrl)
	}
	return nil
}

func (c *console) converse(ctx context.Context, ctrl *session.Controller) error {
	for ctrl.Phase() == session.PhaseConversing {
		line, ok := c.next()
		if !ok {
			return errQuit
		}

		var err error
		switch text := strings.TrimSpace(line); text {
		case "/quit":
			return errQuit
		case "/help":
			c.printf("%s\n", dimStyle.Render(helpText))
		case "/voice":
			if err = ctrl.BeginVoiceInput(ctx); err == nil {
				c.printf("%s\n", dimStyle.Render("Listening... type /stop to cancel."))
			}
		case "/stop":
			ctrl.StopVoiceInput()
		case "/end":
			err = ctrl.EndInterview(ctx)
			if errors.Is(err, session.ErrNotConfirmed) {
				err = nil
				c.printf("%s\n", dimStyle.Render("Continuing the interview."))
			}
		case "":
			if strings.TrimSpace(ctrl.Input()) == "" {
				continue
			}
			err = ctrl.SendPending(ctx)
		default:
			err = ctrl.SendText(ctx, text)
		}

		c.printTurns(ctrl)
		if err != nil {
			c.notice(err)
		}
	}
	return nil
}

// watch prints transient status derived from state changes until done is closed.
func (c *console) watch(events <-chan session.Snapshot, done <-chan struct{}) {
	var prev session.Snapshot
	for {
		select {
		case <-done:
			return
		case s := <-events:
			switch {
			case s.Phase == session.PhaseEnding && prev.Phase != session.PhaseEnding:
				c.printf("%s\n", dimStyle.Render("Generating your report..."))
			case s.Busy && !prev.Busy:
				c.printf("%s\n", dimStyle.Render("Thinking..."))
			case prev.Listening && !s.Listening && s.Input != "" && s.Input != prev.Input:
				c.printf("%s %s\n", dimStyle.Render("Heard:"), s.Input)
				c.printf("%s\n", dimStyle.Render("Press Enter to send, or type a different answer."))
			}
			if c.verbose && s.Phase != prev.Phase {
				c.printer.PrintState(observability.State{
					SessionID: s.ID,
					Phase:     s.Phase.String(),
					Turns:     len(s.History),
					Busy:      s.Busy,
					Listening: s.Listening,
				})
			}
			prev = s
		}
	}
}

// printTurns prints the interviewer turns not yet shown. Candidate turns are
// echoed by the terminal already, error notices are styled as notices.
func (c *console) printTurns(ctrl *session.Controller) {
	history := ctrl.History()
	for _, turn := range history[min(c.printed, len(history)):] {
		switch {
		case turn.Speaker == types.SpeakerCandidate:
			if !c.prompt {
				c.printf("%s %s\n", candidateStyle.Render("You:"), turn.Text)
			}
		case turn.Text == session.ErrorNotice:
			c.printf("%s\n", noticeStyle.Render(turn.Text))
		default:
			c.printf("%s %s\n", interviewerStyle.Render("Interviewer:"), turn.Text)
		}
	}
	c.printed = len(history)
	if c.verbose {
		c.printer.PrintTranscript(history)
	}
}

func (c *console) notice(err error) {
	var msg string
	switch {
	case errors.Is(err, session.ErrBusy):
		msg = "Please wait for the current request to finish."
	case errors.Is(err, session.ErrEmptyMessage):
		msg = "Type an answer first."
	case errors.Is(err, session.ErrInvalidResume):
		msg = err.Error()
	case errors.Is(err, speech.ErrUnsupportedCapability):
		msg = "Voice input is not available. Set listen_command to enable it."
	case errors.Is(err, speech.ErrAlreadyListening):
		msg = "Already listening."
	case errors.Is(err, speech.ErrNoSpeech):
		msg = "No speech was detected. Try /voice again."
	case errors.Is(err, service.ErrMalformedReport):
		msg = fmt.Sprintf("The report could not be read (%v). Try /end again.", err)
	case service.Retryable(err):
		msg = fmt.Sprintf("Could not reach the interviewer service (%v). Check that it is running and try again.", err)
	case errors.Is(err, service.ErrService):
		msg = fmt.Sprintf("The interviewer service rejected the request: %v", err)
	default:
		msg = fmt.Sprintf("Error: %v", err)
	}
	c.printf("%s\n", noticeStyle.Render(msg))
}

//nolint:errcheck // writing to the terminal; errors are not recoverable
func (c *console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func readResume(path string) (types.Resume, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Resume{}, fmt.Errorf("failed to read resume: %w", err)
	}
	return types.Resume{Filename: filepath.Base(path), Content: content}, nil
}
