package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/reviewgen/pkg/db"
	"github.com/japaniel/reviewgen/pkg/ingest"
	"github.com/japaniel/reviewgen/pkg/logger"
	"github.com/japaniel/reviewgen/pkg/markov"
	"github.com/japaniel/reviewgen/pkg/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Train on the review data and serve GET /api/{word}",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model := server.NewModel(markov.NewSource(a.cfg.Seed), a.cfg.MaxSteps)
			handler := server.NewHandler(model, logger.New(logger.WARN))

			g, ctx := errgroup.WithContext(cmd.Context())

			// Requests get 503 until this publishes a corpus.
			g.Go(func() error {
				texts, err := a.loadTexts(ctx)
				if err != nil {
					return err
				}
				corpus, _, err := a.train(ctx, texts)
				if err != nil {
					return err
				}
				model.Publish(corpus)
				logger.Info("Model ready: %d words", corpus.Len())
				return nil
			})

			g.Go(func() error {
				return server.Run(ctx, a.cfg.ListenAddr, handler, logger.New(logger.INFO))
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func newGenerateCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "generate <word>...",
		Short: "Train on the review data and print generated text for each seed word",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			texts, err := a.loadTexts(ctx)
			if err != nil {
				return err
			}
			corpus, _, err := a.train(ctx, texts)
			if err != nil {
				return err
			}
			gen := markov.NewGenerator(corpus, markov.NewSource(a.cfg.Seed))
			if a.cfg.MaxSteps > 0 {
				gen.MaxSteps = a.cfg.MaxSteps
			}
			out := cmd.OutOrStdout()
			for _, seed := range args {
				for i := 0; i < count; i++ {
					res, err := gen.Generate(seed)
					if err != nil {
						return err
					}
					printResult(out, res)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "texts to generate per seed word")
	return cmd
}

func printResult(w io.Writer, res markov.Result) {
	if !res.Found {
		fmt.Fprintf(w, "%s: Word not found", res.Seed)
		if len(res.Suggestions) > 0 {
			fmt.Fprintf(w, " (did you mean: %s)", strings.Join(res.Suggestions, ", "))
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, res.Text)
	if res.Truncated {
		logger.Warn("Output for %q truncated after %d words", res.Seed, res.Steps)
	}
}

func newImportCmd(a *app) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Stage the review data in the SQLite database (resumable)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := a.ensureData(ctx)
			if err != nil {
				return err
			}
			conn, err := db.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			logger.Info("Database initialized at %s", a.cfg.DBPath)

			if reset {
				id, err := db.CreateOrGetDataset(conn, path, a.cfg.DownloadURL)
				if err != nil {
					return err
				}
				if err := db.ResetDataset(conn, id); err != nil {
					return fmt.Errorf("failed to reset dataset: %w", err)
				}
			}

			importer := ingest.NewImporter(conn)
			importer.BatchSize = a.cfg.BatchSize
			importer.Logger = logger.New(logger.INFO)
			importer.OnProgress = func(imported int) {
				logger.Debug("Staged %d reviews", imported)
			}
			id, st, err := importer.ImportFile(ctx, path, a.cfg.DownloadURL)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			total, err := db.CountReviews(conn, id)
			if err != nil {
				return err
			}
			ds, err := db.GetDataset(conn, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Import complete. Staged %d new reviews (%d total, %d malformed lines).\n", st.Imported, total, st.Malformed)
			fmt.Fprintf(cmd.OutOrStdout(), "Dataset %d (%s) processed through line %d, added %s.\n", ds.ID, ds.Path, ds.LastProcessedLine, ds.AddedAt.Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop previously staged reviews and start over")
	return cmd
}

func newTrainCmd(a *app) *cobra.Command {
	var fromDB bool
	var top int
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a corpus and print a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var texts []string
			var err error
			if fromDB {
				texts, err = a.stagedTexts(ctx)
			} else {
				texts, err = a.loadTexts(ctx)
			}
			if err != nil {
				return err
			}
			corpus, st, err := a.train(ctx, texts)
			if err != nil {
				return err
			}
			writeReport(cmd.OutOrStdout(), corpus, st, top)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "train on reviews staged by import instead of the data file")
	cmd.Flags().IntVar(&top, "top", 10, "number of most frequent words to list")
	return cmd
}

// stagedTexts reads the reviews staged for the configured data file.
func (a *app) stagedTexts(ctx context.Context) ([]string, error) {
	conn, err := db.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	id, err := db.CreateOrGetDataset(conn, a.cfg.DataPath(), a.cfg.DownloadURL)
	if err != nil {
		return nil, err
	}
	texts, err := db.ReviewTexts(conn, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged reviews: %w", err)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no reviews staged for %s; run import first", a.cfg.DataPath())
	}
	return texts, ctx.Err()
}

func writeReport(w io.Writer, corpus *markov.Corpus, st ingest.TrainStats, top int) {
	fmt.Fprintf(w, "Lines:    %d\n", st.Lines)
	fmt.Fprintf(w, "Tokens:   %d (%d primary)\n", st.Tokens, st.Accepted)
	fmt.Fprintf(w, "Words:    %d\n", len(corpus.Texts()))
	fmt.Fprintf(w, "Elapsed:  %s\n", st.Elapsed.Round(time.Millisecond))
	if top <= 0 {
		return
	}

	// Ranked by how often a word led a pair; usage is fixed at registration.
	type freq struct {
		text  string
		count int
	}
	var words []freq
	for _, t := range corpus.Texts() {
		wd, _ := corpus.Word(t)
		n := 0
		for _, c := range wd.Successors() {
			n += c
		}
		words = append(words, freq{t, n})
	}
	sort.SliceStable(words, func(i, j int) bool { return words[i].count > words[j].count })
	if len(words) > top {
		words = words[:top]
	}
	fmt.Fprintln(w, "Most frequent:")
	for _, u := range words {
		fmt.Fprintf(w, "  %-20s %d\n", u.text, u.count)
	}
}
