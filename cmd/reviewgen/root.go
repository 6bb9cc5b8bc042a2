package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/japaniel/reviewgen/pkg/config"
	"github.com/japaniel/reviewgen/pkg/dataset"
	"github.com/japaniel/reviewgen/pkg/ingest"
	"github.com/japaniel/reviewgen/pkg/logger"
	"github.com/japaniel/reviewgen/pkg/markov"
	"github.com/japaniel/reviewgen/pkg/tokenize"
)

// app carries the resolved configuration into every subcommand.
type app struct {
	cfg config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	var configPath string
	flagCfg := config.Default()

	cmd := &cobra.Command{
		Use:           "reviewgen",
		Short:         "Generate review-like text from a Markov chain trained on product reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			config.Overlay(&cfg, flagCfg, cmd.Flags())
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := logger.Init(cfg.LogFile, cfg.LogLevel); err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	config.RegisterFlags(cmd.PersistentFlags(), &flagCfg)

	cmd.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newImportCmd(a),
		newTrainCmd(a),
	)
	return cmd
}

// ensureData makes sure the review file exists locally, downloading it if needed.
func (a *app) ensureData(ctx context.Context) (string, error) {
	path := a.cfg.DataPath()
	d := &dataset.Downloader{
		Client: &http.Client{Timeout: dataset.DefaultDownloadTimeout},
		Logger: logger.New(logger.INFO),
	}
	if err := d.Ensure(ctx, path, a.cfg.DownloadURL); err != nil {
		return "", fmt.Errorf("failed to ensure dataset: %w", err)
	}
	return path, nil
}

// loadTexts returns the review texts to train on, in file order.
func (a *app) loadTexts(ctx context.Context) ([]string, error) {
	path, err := a.ensureData(ctx)
	if err != nil {
		return nil, err
	}
	texts, st, err := dataset.LoadReviewTexts(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	logger.Info("Loaded %d reviews from %s (%d malformed lines skipped)", st.Reviews, path, st.Malformed)
	return texts, nil
}

func (a *app) newTrainer() (*ingest.Trainer, error) {
	tok, err := tokenize.New(a.cfg.Language)
	if err != nil {
		return nil, err
	}
	tr := ingest.NewTrainer(tok)
	tr.Workers = a.cfg.Workers
	tr.Logger = logger.New(logger.INFO)
	tr.ProgressEvery = 10000
	tr.OnProgress = func(current, total int) {
		logger.Debug("Trained %d/%d lines", current, total)
	}
	return tr, nil
}

func (a *app) train(ctx context.Context, texts []string) (*markov.Corpus, ingest.TrainStats, error) {
	tr, err := a.newTrainer()
	if err != nil {
		return nil, ingest.TrainStats{}, err
	}
	corpus, st, err := tr.Train(ctx, texts)
	if err != nil {
		return nil, st, fmt.Errorf("training failed: %w", err)
	}
	return corpus, st, nil
}
