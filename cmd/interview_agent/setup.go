package main

import (
	"fmt"
	"io"
	"log"

	"github.com/jonathan/mock-interview/internal/config"
	"github.com/jonathan/mock-interview/internal/service"
	"github.com/jonathan/mock-interview/internal/speech"
	"github.com/spf13/cobra"
)

// resolveConfig layers configuration sources: flags over environment over
// the config file over built-in defaults.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config

	if cmd.Flags().Changed("service-url") {
		cfg.ServiceURL = serviceURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if f := cmd.Flags().Lookup("mute"); f != nil && f.Changed {
		cfg.Mute = runMute
	}

	envCfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	cfg = cfg.MergeWithDefaults(*envCfg)

	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := fileCfg.Validate(); err != nil {
			return cfg, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildClient creates the HTTP client, signing requests when a JWT secret is configured.
func buildClient(cfg config.Config) (*service.HTTPClient, error) {
	opts := service.DefaultOptions()
	opts.Timeout = cfg.Timeout()
	opts.Verbose = cfg.Verbose

	if config.JWTEnabled() {
		jwtCfg, err := config.NewJWTConfig()
		if err != nil {
			return nil, err
		}
		opts.Tokens = service.NewTokenSource(jwtCfg)
	}

	return service.NewHTTPClient(cfg.ServiceURL, opts)
}

// buildSpeech creates the speech adapter from the configured platform commands.
// Missing programs disable the matching capability instead of failing.
func buildSpeech(cfg config.Config, debugOut io.Writer) *speech.Adapter {
	var synth speech.Synthesizer
	switch {
	case cfg.Mute:
	case cfg.SpeakCommand != "":
		s, err := speech.NewCommandSynthesizer(cfg.SpeakCommand, cfg.Locale)
		if err != nil {
			log.Printf("[SPEECH] speech output disabled: %v", err)
			break
		}
		synth = s
	case cfg.Verbose:
		synth = speech.NewWriterSynthesizer(debugOut, "[SPEECH] would say: ")
	}

	var rec speech.Recognizer
	if cfg.ListenCommand != "" {
		r, err := speech.NewCommandRecognizer(cfg.ListenCommand, cfg.Locale)
		if err != nil {
			log.Printf("[SPEECH] voice input disabled: %v", err)
		} else {
			rec = r
		}
	}

	return speech.NewAdapter(synth, rec, speech.WithVerbose(cfg.Verbose))
}
