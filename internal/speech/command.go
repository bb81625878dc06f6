package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// localePlaceholder is replaced with the configured locale in command arguments.
const localePlaceholder = "{locale}"

// CommandSynthesizer speaks text by running a platform command such as
// "espeak" or "say" with the text as its final argument.
type CommandSynthesizer struct {
	name   string
	args   []string
	locale string
}

// NewCommandSynthesizer parses a command line and checks that the program exists.
func NewCommandSynthesizer(commandLine, locale string) (*CommandSynthesizer, error) {
	name, args, err := parseCommand(commandLine)
	if err != nil {
		return nil, err
	}
	return &CommandSynthesizer{name: name, args: args, locale: localeOrDefault(locale)}, nil
}

// Synthesize runs the command and waits for it to exit. Cancelling ctx kills the process.
func (s *CommandSynthesizer) Synthesize(ctx context.Context, text string) error {
	args := append(expandArgs(s.args, s.locale), text)
	cmd := exec.CommandContext(ctx, s.name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &CommandError{
			Command: s.name,
			Message: strings.TrimSpace(stderr.String()),
			Cause:   err,
		}
	}
	return nil
}

// CommandRecognizer captures one utterance by running a platform command that
// records audio and prints the final transcript on stdout.
type CommandRecognizer struct {
	name   string
	args   []string
	locale string
}

// NewCommandRecognizer parses a command line. A program that cannot be found
// yields ErrUnsupportedCapability.
func NewCommandRecognizer(commandLine, locale string) (*CommandRecognizer, error) {
	name, args, err := parseCommand(commandLine)
	if err != nil {
		return nil, err
	}
	return &CommandRecognizer{name: name, args: args, locale: localeOrDefault(locale)}, nil
}

// Recognize runs the command and returns its trimmed stdout.
func (r *CommandRecognizer) Recognize(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.name, expandArgs(r.args, r.locale)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &CommandError{
			Command: r.name,
			Message: strings.TrimSpace(stderr.String()),
			Cause:   err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// WriterSynthesizer prints utterances to a writer. It is the terminal fallback
// when no speech command is configured.
type WriterSynthesizer struct {
	out    io.Writer
	prefix string
}

// NewWriterSynthesizer creates a synthesizer writing "<prefix><text>" lines to out.
func NewWriterSynthesizer(out io.Writer, prefix string) *WriterSynthesizer {
	return &WriterSynthesizer{out: out, prefix: prefix}
}

// Synthesize writes the utterance unless ctx was already cancelled.
func (w *WriterSynthesizer) Synthesize(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w.out, "%s%s\n", w.prefix, text)
	return err
}

func parseCommand(commandLine string) (string, []string, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return "", nil, ErrUnsupportedCapability
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedCapability, fields[0], err)
	}
	return path, fields[1:], nil
}

func expandArgs(args []string, locale string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = strings.ReplaceAll(arg, localePlaceholder, locale)
	}
	return out
}

func localeOrDefault(locale string) string {
	if locale == "" {
		return DefaultLocale
	}
	return locale
}
