package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"matscribe/internal/correction"
	"matscribe/internal/vocab"
)

func newCorrectCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var showReplacements bool

	cmd := &cobra.Command{
		Use:   "correct <transcript.txt>",
		Short: "Run vocabulary correction over a transcript file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Correction.Enabled {
				return fmt.Errorf("correction is disabled; set [correction] enabled = true in the config")
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			text := strings.TrimSpace(string(raw))
			if text == "" {
				return fmt.Errorf("transcript %s is empty", args[0])
			}

			dict, err := buildDictionary(cfg)
			if err != nil {
				return err
			}
			systemPrompt := dict.CorrectionSystemPrompt()
			if path := strings.TrimSpace(cfg.Correction.PromptFile); path != "" {
				systemPrompt, err = vocab.LoadPromptFile(path)
				if err != nil {
					return fmt.Errorf("load prompt file: %w", err)
				}
			}

			client := buildCompleter(cfg)
			response, err := client.Complete(cmd.Context(), systemPrompt, text)
			if err != nil {
				return fmt.Errorf("correction model: %w", err)
			}

			replacements := correction.ParseResponse(response)
			corrected := correction.Apply(text, replacements)

			out := cmd.OutOrStdout()
			if showReplacements {
				for _, rep := range replacements {
					fmt.Fprintf(out, "%s -> %s\n", rep.Original, rep.Replacement)
				}
				if len(replacements) == 0 {
					fmt.Fprintln(out, "No corrections needed")
				}
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(corrected+"\n"), 0o644); err != nil {
					return fmt.Errorf("write corrected transcript: %w", err)
				}
				fmt.Fprintf(out, "Wrote corrected transcript to %s (%d replacement(s))\n", outputPath, len(replacements))
				return nil
			}
			if !showReplacements {
				fmt.Fprintln(out, corrected)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write corrected text to a file instead of stdout")
	cmd.Flags().BoolVar(&showReplacements, "show-replacements", false, "Print the replacement list instead of the corrected text")
	return cmd
}
