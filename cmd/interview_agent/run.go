package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive mock interview",
	Long: `Uploads your resume to the interviewer service and starts a turn-based interview in the terminal.

Answer by typing, or with /voice when a listen_command is configured. Interviewer turns are spoken through speak_command unless muted. /end asks for confirmation, then shows the scored report.

Configuration can be loaded from a JSON file using --config. Environment variables (INTERVIEW_*) override the file, and flags override both.`,
	RunE: runInterviewCmd,
}

var (
	runResume string
	runMute   bool
)

func init() {
	runCommand.Flags().StringVarP(&runResume, "resume", "r", "", "Path to your resume PDF (prompted for when omitted)")
	runCommand.Flags().BoolVar(&runMute, "mute", false, "Do not speak interviewer turns")

	rootCmd.AddCommand(runCommand)
}

func runInterviewCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}
	adapter := buildSpeech(cfg, os.Stderr)
	defer adapter.Cancel()

	if cfg.Verbose {
		_, _ = fmt.Fprintf(os.Stdout, "Interviewer service: %s\n", cfg.ServiceURL)
		if !adapter.CanListen() {
			_, _ = fmt.Fprintln(os.Stdout, "Voice input: unavailable")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return runInterview(ctx, os.Stdin, os.Stdout, client, adapter, consoleOptions{
		ResumePath: runResume,
		Prompt:     term.IsTerminal(int(os.Stdin.Fd())),
		Verbose:    cfg.Verbose,
	})
}
