package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"reelhouse/internal/config"
	"reelhouse/internal/queue"
	"reelhouse/internal/tags"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var keepRelative bool

	cmd := &cobra.Command{
		Use:   "tags <source>",
		Short: "List tags recorded for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			if !keepRelative {
				abs, err := filepath.Abs(source)
				if err != nil {
					return fmt.Errorf("resolve source path: %w", err)
				}
				source = abs
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				list, err := tags.NewStore(store.DB()).ListBySource(cmd.Context(), source)
				if err != nil {
					return err
				}
				if asJSON {
					type tagView struct {
						Tag  string `json:"tag"`
						Slug string `json:"slug"`
					}
					views := make([]tagView, 0, len(list))
					for _, tag := range list {
						views = append(views, tagView{Tag: tag.Text, Slug: tag.Slug})
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintf(out, "No tags for %s\n", source)
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, tag := range list {
					rows = append(rows, []string{tag.Text, tag.Slug})
				}
				fmt.Fprint(out, renderTable([]column{col("Tag"), col("Slug")}, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&keepRelative, "no-abs", false, "Look up the source path exactly as given")
	return cmd
}
