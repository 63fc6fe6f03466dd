package testsupport

import (
	"path/filepath"
	"testing"

	"matscribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRemoteEndpoint points the remote transcription backend at the given URL.
func WithRemoteEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.RemoteEndpoint = endpoint
	}
}

// WithProviders overrides the transcription backend order.
func WithProviders(providers ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Providers = providers
	}
}

// WithCorrection enables LLM correction against the given endpoint.
func WithCorrection(baseURL, model string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Correction.Enabled = true
		b.cfg.Correction.BaseURL = baseURL
		b.cfg.Correction.Model = model
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default matscribe external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		StubBinaries(b.t, names...)
	}
}
