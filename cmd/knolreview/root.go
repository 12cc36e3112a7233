package main

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/conorfennell/knolreview/internal/config"
	"github.com/conorfennell/knolreview/internal/logger"
	"github.com/conorfennell/knolreview/internal/review"
	"github.com/conorfennell/knolreview/internal/storage"
)

// app holds what every subcommand runs against. It is filled in by the
// root command's PersistentPreRunE; close tears it down after Execute,
// whether or not the command failed.
type app struct {
	cfg   config.Config
	log   *logger.Logger
	store storage.KV
	eng   *review.Engine
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "knolreview",
		Short:         "Spaced repetition scheduling for markdown decks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newAddCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newUpdateCmd(a),
		newSuspendCmd(a),
		newUnsuspendCmd(a),
		newDeleteCmd(a),
		newAdjustCmd(a),
		newReviewCmd(a),
		newNextCmd(a),
		newQueueCmd(a),
		newStatsCmd(a),
		newSuggestionsCmd(a),
		newSyncCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newImportItemsCmd(a),
		newSettingsCmd(a),
		newResetCmd(a),
	)
	return root, a
}

// execute runs root and always releases the engine and store afterwards.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	err := root.ExecuteContext(ctx)
	if cerr := a.close(ctx); err == nil {
		err = cerr
	}
	return err
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load("", cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	a.log = log

	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, storage.RedisConfig{
		Password:  cfg.Store.RedisPassword,
		DB:        cfg.Store.RedisDB,
		KeyPrefix: cfg.Store.KeyPrefix,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}
	a.store = store

	opts := review.Options{
		Store:          store,
		Logger:         log,
		SessionLogSize: cfg.Engine.SessionLogSize,
		WriteBehind:    cfg.Engine.WriteBehind,
		SaveAttempts:   cfg.Engine.SaveAttempts,
		RetryInterval:  cfg.Engine.RetryInterval,
	}
	if cfg.SchedulingSet {
		opts.Settings = &cfg.Scheduling
	}
	eng, err := review.New(ctx, opts)
	if err != nil {
		store.Close()
		return err
	}
	a.eng = eng
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.eng == nil {
		return nil
	}
	eng := a.eng
	a.eng = nil
	defer a.log.Sync()
	defer a.store.Close()

	if err := eng.Close(ctx); err != nil {
		a.log.Warn("state was not fully saved", "error", err)
		return err
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
