package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"matscribe/internal/artifacts"
	"matscribe/internal/audio"
	"matscribe/internal/command"
	"matscribe/internal/config"
	"matscribe/internal/correction"
	"matscribe/internal/deps"
	"matscribe/internal/pipeline"
	"matscribe/internal/stage"
	"matscribe/internal/state"
	"matscribe/internal/subtitles"
	"matscribe/internal/transcribe"
	"matscribe/internal/vocab"
)

// runtime bundles everything the process command needs for one input root.
type runtime struct {
	cfg      *config.Config
	store    *state.Store
	pipeline *pipeline.Pipeline
	lock     *flock.Flock
}

func newRuntime(cfg *config.Config, inputRoot string, logger *slog.Logger) (*runtime, error) {
	if err := cfg.EnsureDirectories(inputRoot); err != nil {
		return nil, fmt.Errorf("prepare work directory: %w", err)
	}

	workDir := cfg.WorkDirFor(inputRoot)
	lock := flock.New(filepath.Join(workDir, "matscribe.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another matscribe run is already processing %s", inputRoot)
	}

	store, err := state.Open(workDir)
	if err != nil {
		lock.Unlock() //nolint:errcheck
		return nil, err
	}

	pipe, err := buildPipeline(cfg, inputRoot, store, logger)
	if err != nil {
		store.Close() //nolint:errcheck
		lock.Unlock() //nolint:errcheck
		return nil, err
	}
	return &runtime{cfg: cfg, store: store, pipeline: pipe, lock: lock}, nil
}

func (r *runtime) Close() {
	if r.store != nil {
		r.store.Close() //nolint:errcheck
	}
	if r.lock != nil {
		r.lock.Unlock() //nolint:errcheck
	}
}

func buildHandlers(cfg *config.Config, layout artifacts.Layout, logger *slog.Logger) ([]stage.Handler, error) {
	dict, err := buildDictionary(cfg)
	if err != nil {
		return nil, err
	}

	chain, err := transcribe.NewChain(cfg, command.Run, logger)
	if err != nil {
		return nil, err
	}

	corrector, err := correction.NewHandler(cfg, layout, buildCompleter(cfg), dict, logger)
	if err != nil {
		return nil, err
	}

	return []stage.Handler{
		audio.NewExtractor(cfg, layout, command.Run, logger),
		transcribe.NewHandler(cfg, layout, chain, dict, logger),
		corrector,
		subtitles.NewHandler(cfg, layout, logger),
	}, nil
}

func buildDictionary(cfg *config.Config) (*vocab.Dictionary, error) {
	dict := vocab.NewDictionary()
	if path := strings.TrimSpace(cfg.Correction.TermsFile); path != "" {
		if err := dict.LoadTermsFile(path); err != nil {
			return nil, fmt.Errorf("load terms file: %w", err)
		}
	}
	return dict, nil
}

func buildCompleter(cfg *config.Config) correction.Completer {
	if !cfg.Correction.Enabled {
		return nil
	}
	return correction.NewClient(correction.ClientConfig{
		APIKey:         cfg.Correction.APIKey,
		BaseURL:        cfg.Correction.BaseURL,
		Model:          cfg.Correction.Model,
		TimeoutSeconds: cfg.Correction.TimeoutSeconds,
		MaxRetries:     cfg.Correction.MaxRetries,
	})
}

func buildPipeline(cfg *config.Config, inputRoot string, store *state.Store, logger *slog.Logger) (*pipeline.Pipeline, error) {
	layout := artifacts.NewLayout(cfg.ItemsDirFor(inputRoot))

	handlers, err := buildHandlers(cfg, layout, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.New(store, artifacts.NewDetector(layout), handlers, logger)
}

func checkRequiredBinaries(cfg *config.Config) error {
	statuses := deps.CheckBinaries(deps.Required(cfg))
	missing := deps.MissingRequired(statuses)
	if len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s (run `matscribe doctor` for details)", strings.Join(missing, ", "))
	}
	return nil
}
