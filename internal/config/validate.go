package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateCorrection(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	name := strings.TrimSpace(c.Paths.WorkDirName)
	if name == "" || name == "." || name == ".." {
		return errors.New("paths.work_dir_name must be a directory name")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.Concurrency < 1 {
		return errors.New("processing.concurrency must be at least 1")
	}
	if len(c.Processing.VideoExtensions) == 0 {
		return errors.New("processing.video_extensions must not be empty")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate < 8000 {
		return fmt.Errorf("audio.sample_rate %d is too low for speech recognition", c.Audio.SampleRate)
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if len(c.Transcription.Providers) == 0 {
		return errors.New("transcription.providers must list at least one backend")
	}
	// A listed remote backend without an endpoint is tolerated here; the
	// fallback chain drops unconfigured backends and errors only when nothing
	// usable remains.
	for _, provider := range c.Transcription.Providers {
		switch provider {
		case "remote", "local":
		default:
			return fmt.Errorf("transcription.providers: unknown backend %q", provider)
		}
	}
	if c.Transcription.RemoteMaxRetries < 1 {
		return errors.New("transcription.remote_max_retries must be at least 1")
	}
	if c.Transcription.RemoteTimeoutSeconds < 1 {
		return errors.New("transcription.remote_timeout_seconds must be at least 1")
	}
	if c.Transcription.LocalBinary == "" {
		return errors.New("transcription.local_binary must be set")
	}
	return nil
}

func (c *Config) validateCorrection() error {
	if !c.Correction.Enabled {
		return nil
	}
	if c.Correction.BaseURL == "" {
		return errors.New("correction.base_url is required when correction is enabled")
	}
	if c.Correction.Model == "" {
		return errors.New("correction.model is required when correction is enabled")
	}
	if c.Correction.TimeoutSeconds < 1 {
		return errors.New("correction.timeout_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MaxLineChars < 10 {
		return errors.New("subtitles.max_line_chars must be at least 10")
	}
	return nil
}
