package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonathan/mock-interview/internal/service"
	"github.com/spf13/cobra"
)

var checkCommand = &cobra.Command{
	Use:   "check",
	Short: "Check that the interviewer service is reachable",
	RunE:  runCheckCmd,
}

var checkTimeout time.Duration

func init() {
	checkCommand.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Second, "How long to wait for the service to answer")

	rootCmd.AddCommand(checkCommand)
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	return checkService(ctx, client, cfg.ServiceURL, os.Stdout)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

func checkService(ctx context.Context, client healthChecker, url string, out io.Writer) error {
	if err := client.Health(ctx); err != nil {
		if service.Retryable(err) {
			return fmt.Errorf("interviewer service at %s is unreachable: %w", url, err)
		}
		return err
	}
	_, _ = fmt.Fprintf(out, "Interviewer service at %s is reachable\n", url)
	return nil
}
