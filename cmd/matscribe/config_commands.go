package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"matscribe/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := os.WriteFile(target, []byte(config.SampleConfig()), 0o644); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set transcription.remote_endpoint or install whisper-cli before processing.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults are shown")
			}
			fmt.Fprintf(out, "Work directory name:   %s\n", cfg.Paths.WorkDirName)
			fmt.Fprintf(out, "Concurrency:           %d\n", cfg.Processing.Concurrency)
			fmt.Fprintf(out, "Video extensions:      %s\n", strings.Join(cfg.Processing.VideoExtensions, ", "))
			fmt.Fprintf(out, "Audio sample rate:     %d Hz\n", cfg.Audio.SampleRate)
			fmt.Fprintf(out, "Transcription chain:   %s\n", strings.Join(cfg.Transcription.Providers, " -> "))
			fmt.Fprintf(out, "Remote endpoint:       %s\n", valueOrUnset(cfg.Transcription.RemoteEndpoint))
			fmt.Fprintf(out, "Whisper model:         %s\n", valueOrUnset(cfg.Transcription.Model))
			fmt.Fprintf(out, "Correction enabled:    %t\n", cfg.Correction.Enabled)
			fmt.Fprintf(out, "Correction model:      %s\n", valueOrUnset(cfg.Correction.Model))
			fmt.Fprintf(out, "Subtitle line length:  %d\n", cfg.Subtitles.MaxLineChars)
			fmt.Fprintf(out, "Copy SRT next to video: %t\n", cfg.Subtitles.AlongsideVideo)
			return nil
		},
	}
}

func valueOrUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(unset)"
	}
	return value
}
