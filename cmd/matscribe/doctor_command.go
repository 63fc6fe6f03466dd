package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"matscribe/internal/command"
	"matscribe/internal/deps"
	"matscribe/internal/logging"
	"matscribe/internal/transcribe"
)

const doctorProbeTimeout = 15 * time.Second

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and backend availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			fmt.Fprintln(out, "Binaries")
			for _, status := range deps.CheckBinaries(deps.Required(cfg)) {
				kind := statusOK
				message := status.Command
				if !status.Available {
					message = status.Detail
					if status.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						failures++
					}
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}

			fmt.Fprintln(out, "Transcription backends")
			probeCtx, cancel := context.WithTimeout(cmd.Context(), doctorProbeTimeout)
			defer cancel()

			chain, err := transcribe.NewChain(cfg, command.Run, logging.NewNop())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("chain", statusError, err.Error(), colorize))
				failures++
			} else {
				anyReady := false
				for _, backend := range chain.Backends() {
					if err := backend.Available(probeCtx); err != nil {
						fmt.Fprintln(out, renderStatusLine(backend.Name(), statusWarn, err.Error(), colorize))
						continue
					}
					anyReady = true
					fmt.Fprintln(out, renderStatusLine(backend.Name(), statusOK, "", colorize))
				}
				if !anyReady {
					fmt.Fprintln(out, renderStatusLine("chain", statusError, "no transcription backend is reachable", colorize))
					failures++
				}
			}

			fmt.Fprintln(out, "Correction")
			if completer := buildCompleter(cfg); completer == nil {
				fmt.Fprintln(out, renderStatusLine("model", statusWarn, "disabled; transcripts will not be corrected", colorize))
			} else if err := completer.Available(probeCtx); err != nil {
				fmt.Fprintln(out, renderStatusLine("model", statusWarn, err.Error(), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("model", statusOK, cfg.Correction.Model, colorize))
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
}
