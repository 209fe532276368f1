package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelhouse/internal/config"
	"reelhouse/internal/daemon"
	"reelhouse/internal/daemonrun"
	"reelhouse/internal/preflight"
	"reelhouse/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipNetwork bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				line := func(label string, kind statusKind, msg string) {
					fmt.Fprintln(out, renderStatusLine(label, kind, msg, colorize))
				}

				fmt.Fprintln(out, renderSectionHeader("System", colorize))
				configMsg := ctx.configPath
				if !ctx.configSeen {
					configMsg += " (defaults)"
				}
				line("Config", statusInfo, configMsg)
				line("Queue database", statusInfo, store.Path())

				held, err := daemon.LockHeld(cfg)
				switch {
				case err != nil:
					line("Daemon", statusError, err.Error())
				case held:
					msg := "Running"
					if pid := daemonrun.ReadPID(cfg); pid > 0 {
						msg = fmt.Sprintf("Running (pid %d)", pid)
					}
					line("Daemon", statusOK, msg)
				default:
					line("Daemon", statusWarn, "Not running")
				}

				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
				ffmpegPath, err := daemonrun.ResolveFFmpegPath(cmd.Context(), cfg, store)
				if errors.Is(err, config.ErrFFmpegPathMissing) {
					line("ffmpeg", statusError, "Not configured (set tools.ffmpeg_path or FFMPEG_PATH)")
				} else if err != nil {
					return err
				}

				var results []preflight.Result
				if ffmpegPath != "" {
					results = preflight.RunAll(cmd.Context(), cfg, ffmpegPath)
				}
				results = append(results, preflight.FrameURLBase(cfg))
				if !skipNetwork {
					results = append(results, preflight.CheckTaggingFromConfig(cmd.Context(), cfg))
				}
				for _, result := range results {
					kind := statusOK
					if !result.Passed {
						kind = statusWarn
					}
					line(result.Name, kind, result.Detail)
				}

				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSectionHeader("Queue", colorize))
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				parts := make([]string, 0, len(stats))
				for _, status := range queue.AllStatuses() {
					parts = append(parts, fmt.Sprintf("%s %d", status, stats[status]))
				}
				line("Jobs", statusInfo, strings.Join(parts, ", "))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipNetwork, "offline", false, "Skip the tagging service connectivity check")
	return cmd
}
