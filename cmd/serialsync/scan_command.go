package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"serialsync/internal/selection"
	"serialsync/internal/watermark"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		since      string
		titleWidth int
	)

	cmd := &cobra.Command{
		Use:   "scan <index-url>",
		Short: "List the parts of a publication without downloading anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			log, err := ctx.newLogger()
			if err != nil {
				return err
			}
			defer log.Close()

			w, err := watermark.Parse(since)
			if err != nil {
				return err
			}

			client, err := newCrawler(cfg, log)
			if err != nil {
				return err
			}

			pub, err := client.Scan(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			watermark.Apply(pub.Parts, w)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d parts, %d modified)\n", pub.Title, len(pub.Parts), pub.ModifiedCount())

			if tags := pub.Tags.Values(); len(tags) > 0 {
				fmt.Fprintf(out, "Tags: %v\n", tags)
			}

			fmt.Fprintln(out, selection.RenderParts(pub.Parts, titleWidth))

			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Watermark used to mark parts as modified")
	cmd.Flags().IntVar(&titleWidth, "title-width", selection.DefaultTitleWidth, "Truncate titles to this display width")

	return cmd
}
