package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jonathan/mock-interview/internal/observability"
	"github.com/jonathan/mock-interview/internal/presenter"
	"github.com/jonathan/mock-interview/internal/service"
	"github.com/spf13/cobra"
)

var reportCommand = &cobra.Command{
	Use:   "report [file]",
	Short: "Render a saved interview report",
	Long: `Decodes a report document, as returned by the interviewer service's end_interview endpoint, and renders the scored summary.

Reads from the named file, or from stdin when the file is omitted or "-". Both the {"report": ...} envelope and a bare report object are accepted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReportCmd,
}

func init() {
	rootCmd.AddCommand(reportCommand)
}

func runReportCmd(_ *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open report: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	return renderReportDocument(in, os.Stdout, verbose)
}

// renderReportDocument decodes a report document and renders its summary.
func renderReportDocument(in io.Reader, out io.Writer, verbose bool) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	report, err := service.DecodeReportDocument(data)
	if err != nil {
		return err
	}

	if verbose {
		observability.NewPrinter(out).PrintReport(report)
	}
	return presenter.Render(out, presenter.Present(*report))
}
