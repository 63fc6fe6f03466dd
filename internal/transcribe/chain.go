package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"matscribe/internal/command"
	"matscribe/internal/config"
	"matscribe/internal/logging"
	"matscribe/internal/services"
)

// Chain tries transcription backends in the configured order. An unconfigured
// provider is dropped at build time rather than failing mid-run; an empty
// chain is a configuration error.
type Chain struct {
	backends []Backend
	fallback bool
	logger   *slog.Logger
}

// NewChain assembles the backend chain from configuration. The run parameter
// feeds the local backend and may be nil to use the real command runner.
func NewChain(cfg *config.Config, run command.Runner, logger *slog.Logger, opts ...RemoteOption) (*Chain, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "transcribe"))

	var backends []Backend
	for _, provider := range cfg.Transcription.Providers {
		switch provider {
		case "remote":
			endpoint := strings.TrimSpace(cfg.Transcription.RemoteEndpoint)
			if endpoint == "" {
				logger.Warn("remote provider listed but no endpoint configured, dropping")
				continue
			}
			timeout := time.Duration(cfg.Transcription.RemoteTimeoutSeconds) * time.Second
			backends = append(backends, NewRemote(endpoint, timeout, cfg.Transcription.RemoteMaxRetries, opts...))
		case "local":
			backends = append(backends, NewLocal(
				cfg.Transcription.LocalBinary,
				cfg.Transcription.LocalModelPath,
				cfg.Transcription.LocalThreads,
				run))
		default:
			return nil, services.Wrap(services.ErrConfiguration, "transcription", "init", fmt.Sprintf("unknown provider %q", provider), nil)
		}
	}
	if len(backends) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "transcription", "init", "no usable transcription backend configured", nil)
	}
	if !cfg.Transcription.EnableFallback {
		backends = backends[:1]
	}
	return &Chain{backends: backends, fallback: cfg.Transcription.EnableFallback, logger: logger}, nil
}

func (c *Chain) log() *slog.Logger {
	if c.logger == nil {
		return logging.NewNop()
	}
	return c.logger
}

// Backends exposes the assembled chain, primarily for health reporting.
func (c *Chain) Backends() []Backend {
	return append([]Backend(nil), c.backends...)
}

// Transcribe walks the chain until one backend produces a transcript. Each
// backend's availability is checked first so a down remote server costs one
// quick probe instead of a full upload timeout.
func (c *Chain) Transcribe(ctx context.Context, req Request) (Result, error) {
	var failures []string
	for _, backend := range c.backends {
		if err := backend.Available(ctx); err != nil {
			c.log().WarnContext(ctx, "backend unavailable",
				logging.String("backend", backend.Name()),
				logging.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %v", backend.Name(), err))
			continue
		}

		result, err := backend.Transcribe(ctx, req)
		if err == nil {
			c.log().InfoContext(ctx, "transcription complete",
				logging.String("backend", backend.Name()),
				logging.Int("segments", len(result.Segments)))
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		c.log().WarnContext(ctx, "backend failed",
			logging.String("backend", backend.Name()),
			logging.Error(err))
		failures = append(failures, fmt.Sprintf("%s: %v", backend.Name(), err))
	}
	return Result{}, services.Wrap(services.ErrTransient, "transcription", "chain",
		fmt.Sprintf("all backends failed: %s", strings.Join(failures, "; ")), nil)
}
