package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelhouse/internal/config"
	"reelhouse/internal/conversion"
	"reelhouse/internal/logging"
	"reelhouse/internal/queue"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var keepRelative bool

	cmd := &cobra.Command{
		Use:   "enqueue <source> <operation>",
		Short: "Request a conversion for a media file",
		Long: "Request a conversion for a media file.\n\n" +
			"Operations: thumbnail, scaledown, makeclip, categorize. A request that\n" +
			"matches a pending or running job less than an hour old is ignored.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			if !keepRelative {
				abs, err := filepath.Abs(source)
				if err != nil {
					return fmt.Errorf("resolve source path: %w", err)
				}
				source = abs
			}
			operation := args[1]

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				if _, known := queue.ParseOperation(operation); !known {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %q is not a known operation (known: %s); the job will complete without doing any work\n",
						operation, knownOperationList())
				}
				intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithStaleAfter(cfg.StaleAfter()))
				created, err := intake.RequestConversion(cmd.Context(), source, operation)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if created {
					fmt.Fprintf(out, "Queued %s for %s\n", queue.CanonicalOperation(operation), source)
				} else {
					fmt.Fprintf(out, "Already queued: %s for %s\n", queue.CanonicalOperation(operation), source)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&keepRelative, "no-abs", false, "Store the source path exactly as given")
	return cmd
}

func knownOperationList() string {
	ops := queue.KnownOperations()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}
