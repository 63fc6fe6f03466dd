package config

import (
	"path/filepath"
	"strings"
)

// normalize expands user paths and canonicalizes enumerations so the rest of
// the program never has to re-check casing or tildes.
func (c *Config) normalize() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Transcription.LocalModelPath != "" {
		if c.Transcription.LocalModelPath, err = expandPath(c.Transcription.LocalModelPath); err != nil {
			return err
		}
	}
	if c.Correction.PromptFile != "" {
		if c.Correction.PromptFile, err = expandPath(c.Correction.PromptFile); err != nil {
			return err
		}
	}
	if c.Correction.TermsFile != "" {
		if c.Correction.TermsFile, err = expandPath(c.Correction.TermsFile); err != nil {
			return err
		}
	}

	c.Paths.WorkDirName = strings.TrimSpace(c.Paths.WorkDirName)
	// Work dir must stay a relative subdirectory of the input root.
	c.Paths.WorkDirName = filepath.Base(c.Paths.WorkDirName)

	normalized := make([]string, 0, len(c.Processing.VideoExtensions))
	for _, ext := range c.Processing.VideoExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	if len(normalized) > 0 {
		c.Processing.VideoExtensions = normalized
	}

	providers := make([]string, 0, len(c.Transcription.Providers))
	for _, provider := range c.Transcription.Providers {
		provider = strings.ToLower(strings.TrimSpace(provider))
		if provider != "" {
			providers = append(providers, provider)
		}
	}
	c.Transcription.Providers = providers

	c.Transcription.RemoteEndpoint = strings.TrimRight(strings.TrimSpace(c.Transcription.RemoteEndpoint), "/")
	c.Correction.BaseURL = strings.TrimSpace(c.Correction.BaseURL)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}
