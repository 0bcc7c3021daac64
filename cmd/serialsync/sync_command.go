package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"serialsync/internal/assembly"
	"serialsync/internal/fetcher"
	"serialsync/internal/pipeline"
	"serialsync/internal/selection"
	"serialsync/internal/watermark"
)

var errHistoryDisabled = errors.New("--since-last needs history to be enabled")

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var (
		since        string
		selectExpr   string
		useSinceLast bool
		noAssemble   bool
	)

	cmd := &cobra.Command{
		Use:   "sync <index-url>",
		Short: "Fetch selected parts of a publication and assemble them into one archive",
		Long: `Scan the publication index, mark parts added after the watermark as modified,
let the operator choose which parts to fetch, download the missing ones and
merge everything fetched into a single archive.`,
		Args: cobra.ExactArgs(1),
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

			indexURL := args[0]
			startTime := time.Now()

			w, err := watermark.Parse(since)
			if err != nil {
				return err
			}

			if useSinceLast {
				if !cfg.History.Enabled {
					return errHistoryDisabled
				}

				w, err = sinceLast(cmd.Context(), cfg.History.Path, indexURL, log)
				if err != nil {
					return err
				}
			}

			var selector selection.Selector

			switch {
			case cmd.Flags().Changed("select"):
				selector = selection.StaticSelector{Expr: selectExpr}
			case selection.IsTerminal(os.Stdin):
				selector = selection.NewPromptSelector(cmd.InOrStdin(), cmd.OutOrStdout())
			default:
				return selection.ErrNotInteractive
			}

			client, err := newCrawler(cfg, log)
			if err != nil {
				return err
			}

			scraper := client.Scraper()
			defer scraper.Attempts().LogSummary(log)

			deps := pipeline.Deps{
				Scanner:  client,
				Selector: selector,
				Fetcher:  fetcher.New(scraper, cfg.Output.BasePath, cfg.Source.DownloadFormat, log),
				Logger:   log,
			}

			if cfg.Assembly.Enabled && !noAssemble {
				deps.Assembler = assembly.NewExecAssembler(cfg.Assembly.Command, log)
			}

			if cfg.History.Enabled {
				recorder := &lazyRecorder{path: cfg.History.Path}
				defer recorder.Close()

				deps.Recorder = recorder
			}

			log.Info("🚀 Starting sync", "url", indexURL, "output", cfg.Output.BasePath)

			p := pipeline.New(deps, pipeline.Options{
				Language:        cfg.Assembly.Language,
				FormatFlags:     cfg.Assembly.Args,
				WriteManifest:   cfg.Output.WriteManifest,
				SkipIfUnchanged: cfg.Assembly.SkipIfUnchanged,
			})

			outcome, err := p.Run(cmd.Context(), pipeline.Request{IndexURL: indexURL, Watermark: w})
			if err != nil {
				log.Error(fmt.Sprintf("❌ Sync failed at %s: %v", outcome.State, err))

				return err
			}

			log.Info(fmt.Sprintf("✨ Sync complete in %v", time.Since(startTime)))
			fmt.Fprintln(cmd.OutOrStdout(), outcome.Summary())

			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Watermark: parts added after this date count as modified (YYYY-MM-DD or DD.MM.YYYY)")
	cmd.Flags().BoolVar(&useSinceLast, "since-last", false, "Use the last successful sync of this publication as the watermark")
	cmd.Flags().StringVar(&selectExpr, "select", "", `Parts to fetch without prompting: "all", "modified", "none", or "3,1,4-6"`)
	cmd.Flags().BoolVar(&noAssemble, "no-assemble", false, "Fetch parts but do not build the archive")
	cmd.MarkFlagsMutuallyExclusive("since", "since-last")

	return cmd
}
