package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// WorkDirName is the subdirectory created inside the input root that holds
	// the state database and per-item artifacts.
	WorkDirName string `toml:"work_dir_name"`
	LogDir      string `toml:"log_dir"`
}

// Processing contains scheduler and discovery configuration.
type Processing struct {
	Concurrency     int      `toml:"concurrency"`
	VideoExtensions []string `toml:"video_extensions"`
}

// Audio contains audio extraction configuration.
type Audio struct {
	SampleRate   int    `toml:"sample_rate"`
	FFmpegBinary string `toml:"ffmpeg_binary"`
}

// Transcription contains speech-to-text backend configuration.
type Transcription struct {
	// Providers lists backends in fallback order ("remote", "local").
	Providers      []string `toml:"providers"`
	EnableFallback bool     `toml:"enable_fallback"`
	Model          string   `toml:"model"`
	Language       string   `toml:"language"`

	RemoteEndpoint       string `toml:"remote_endpoint"`
	RemoteTimeoutSeconds int    `toml:"remote_timeout_seconds"`
	RemoteMaxRetries     int    `toml:"remote_max_retries"`

	LocalBinary    string `toml:"local_binary"`
	LocalModelPath string `toml:"local_model_path"`
	LocalThreads   int    `toml:"local_threads"`
}

// Correction contains LLM transcript correction configuration.
type Correction struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
	PromptFile     string `toml:"prompt_file"`
	TermsFile      string `toml:"terms_file"`
}

// Subtitles contains SRT generation configuration.
type Subtitles struct {
	MaxLineChars   int  `toml:"max_line_chars"`
	AlongsideVideo bool `toml:"alongside_video"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for matscribe.
//
// Configuration sections by subsystem:
//   - Paths: work subdirectory name and log directory
//   - Processing: worker concurrency and video discovery extensions
//   - Audio: ffmpeg extraction settings
//   - Transcription: backend order, remote endpoint, local whisper binary
//   - Correction: LLM transcript correction settings
//   - Subtitles: SRT generation settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Processing    Processing    `toml:"processing"`
	Audio         Audio         `toml:"audio"`
	Transcription Transcription `toml:"transcription"`
	Correction    Correction    `toml:"correction"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/matscribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("matscribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WorkDirFor returns the work directory for a given input root.
func (c *Config) WorkDirFor(inputRoot string) string {
	return filepath.Join(inputRoot, c.Paths.WorkDirName)
}

// ItemsDirFor returns the per-item artifact directory root for an input root.
func (c *Config) ItemsDirFor(inputRoot string) string {
	return filepath.Join(c.WorkDirFor(inputRoot), "items")
}

// EnsureDirectories creates required directories for a run against inputRoot.
func (c *Config) EnsureDirectories(inputRoot string) error {
	dirs := []string{c.WorkDirFor(inputRoot), c.ItemsDirFor(inputRoot)}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Audio.FFmpegBinary) != "" {
		return c.Audio.FFmpegBinary
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
