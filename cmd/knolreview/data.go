package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/conorfennell/knolreview/internal/deck"
	"github.com/conorfennell/knolreview/internal/review"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print review statistics, retention curve and problem areas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, a.eng.GetStatistics())
		},
	}
}

func newSuggestionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggestions",
		Short: "Suggest difficulty tier changes from review performance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, a.eng.GetDifficultyAdjustments())
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [source...]",
		Short: "Import cards from markdown decks (directories or git URLs)",
		Long: "Sync reconciles each deck source with the review items: new cards are added " +
			"and items whose card was removed are deleted. Without arguments the configured " +
			"decks.sources are synced.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := args
			if len(sources) == 0 {
				sources = a.cfg.Decks.Sources
			}
			if len(sources) == 0 {
				return errors.New("no deck sources given or configured")
			}
			s := &deck.Syncer{Engine: a.eng, ReposDir: a.cfg.Decks.ReposDir, Log: a.log}
			return printJSON(cmd, s.SyncAll(cmd.Context(), sources))
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write items, review history and settings as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := a.eng.ExportData()
			if out == "" {
				return printJSON(cmd, snap)
			}
			b, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			return errors.Wrapf(os.WriteFile(out, b, 0o600), "failed to write %s", out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write (default stdout)")
	return cmd
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	return errors.Wrapf(json.Unmarshal(b, v), "failed to decode %s", path)
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge an exported snapshot into the current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap review.Snapshot
			if err := readJSON(args[0], &snap); err != nil {
				return err
			}
			if err := a.eng.ImportData(snap); err != nil {
				return err
			}
			return printJSON(cmd, map[string]int{"items": len(snap.Items), "sessions": len(snap.Sessions)})
		},
	}
}

func newImportItemsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-items <file>",
		Short: "Add items from a JSON array of new items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []review.NewItem
			if err := readJSON(args[0], &entries); err != nil {
				return err
			}
			return printJSON(cmd, a.eng.ImportItems(entries))
		},
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the scheduling settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, a.eng.Settings())
		},
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Change scheduling settings; unset flags keep their current value",
		Args:  cobra.NoArgs,
	}
	var (
		graduating, second, minInterval, maxInterval int
		easy, hard, again, modifier                  float64
		clampAfter                                   bool
	)
	f := set.Flags()
	f.IntVar(&graduating, "graduating-interval", 0, "days after the first correct review")
	f.IntVar(&second, "second-interval", 0, "days after the second correct review")
	f.Float64Var(&easy, "easy-multiplier", 0, "interval factor for quality 5")
	f.Float64Var(&hard, "hard-multiplier", 0, "interval factor for quality 2")
	f.Float64Var(&again, "again-multiplier", 0, "interval factor after a failed review")
	f.Float64Var(&modifier, "interval-modifier", 0, "factor applied to every interval")
	f.IntVar(&minInterval, "min-interval", 0, "shortest interval in days")
	f.IntVar(&maxInterval, "max-interval", 0, "longest interval in days")
	f.BoolVar(&clampAfter, "clamp-after-multiplier", false, "clamp again after the easy/hard factor")
	set.RunE = func(cmd *cobra.Command, _ []string) error {
		cur := a.eng.Settings()
		if f.Changed("graduating-interval") {
			cur.GraduatingInterval = graduating
		}
		if f.Changed("second-interval") {
			cur.SecondInterval = second
		}
		if f.Changed("easy-multiplier") {
			cur.EasyMultiplier = easy
		}
		if f.Changed("hard-multiplier") {
			cur.HardMultiplier = hard
		}
		if f.Changed("again-multiplier") {
			cur.AgainMultiplier = again
		}
		if f.Changed("interval-modifier") {
			cur.IntervalModifier = modifier
		}
		if f.Changed("min-interval") {
			cur.MinInterval = minInterval
		}
		if f.Changed("max-interval") {
			cur.MaxInterval = maxInterval
		}
		if f.Changed("clamp-after-multiplier") {
			cur.ClampAfterMultiplier = clampAfter
		}
		updated, err := a.eng.UpdateSettings(cur)
		if err != nil {
			return err
		}
		return printJSON(cmd, updated)
	}
	cmd.AddCommand(set)
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all items, review history and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			return printJSON(cmd, a.eng.ResetAllData())
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
