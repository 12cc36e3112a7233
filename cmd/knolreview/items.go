package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/review"
)

func newAddCmd(a *app) *cobra.Command {
	var in review.NewItem
	var difficulty, itemType string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a review item, due immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Difficulty = domain.Difficulty(difficulty)
			in.Type = domain.ItemType(itemType)
			it, err := a.eng.AddItem(in)
			if err != nil {
				return err
			}
			return printJSON(cmd, it)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.ID, "id", "", "item id (generated when empty)")
	f.StringVar(&in.ContentRef, "content", "", "content reference")
	f.StringVar(&in.Subject, "subject", "", "subject")
	f.StringVar(&in.Chapter, "chapter", "", "chapter")
	f.StringVar(&difficulty, "difficulty", "", "easy, medium or hard")
	f.StringVar(&itemType, "type", "", "item type, default flashcard")
	f.StringSliceVar(&in.Tags, "tags", nil, "comma separated tags")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.eng.GetItem(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, it)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items ordered by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, a.eng.Items(ff.filter()))
		},
	}
	ff.register(cmd.Flags())
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var content, subject, chapter, difficulty, itemType string
	var tags []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an item's content metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var u review.ItemUpdate
			if f.Changed("content") {
				u.ContentRef = &content
			}
			if f.Changed("subject") {
				u.Subject = &subject
			}
			if f.Changed("chapter") {
				u.Chapter = &chapter
			}
			if f.Changed("difficulty") {
				d := domain.Difficulty(difficulty)
				u.Difficulty = &d
			}
			if f.Changed("type") {
				t := domain.ItemType(itemType)
				u.Type = &t
			}
			if f.Changed("tags") {
				u.Tags = tags
			}
			it, err := a.eng.UpdateItem(args[0], u)
			if err != nil {
				return err
			}
			return printJSON(cmd, it)
		},
	}
	f := cmd.Flags()
	f.StringVar(&content, "content", "", "content reference")
	f.StringVar(&subject, "subject", "", "subject")
	f.StringVar(&chapter, "chapter", "", "chapter")
	f.StringVar(&difficulty, "difficulty", "", "easy, medium or hard")
	f.StringVar(&itemType, "type", "", "item type")
	f.StringSliceVar(&tags, "tags", nil, "comma separated tags")
	return cmd
}

func itemCmd(use, short string, fn func(id string) (domain.ReviewItem, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := fn(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, it)
		},
	}
}

func newSuspendCmd(a *app) *cobra.Command {
	return itemCmd("suspend", "Exclude an item from the queue", func(id string) (domain.ReviewItem, error) {
		return a.eng.SuspendItem(id)
	})
}

func newUnsuspendCmd(a *app) *cobra.Command {
	return itemCmd("unsuspend", "Return a suspended item to the queue", func(id string) (domain.ReviewItem, error) {
		return a.eng.UnsuspendItem(id)
	})
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item and its review history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.eng.DeleteItem(args[0]); err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"deleted": args[0]})
		},
	}
}

func newAdjustCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "adjust <id> <easy|medium|hard>",
		Short:     "Move an item to another difficulty tier",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(domain.Easy), string(domain.Medium), string(domain.Hard)},
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.eng.AdjustItemDifficulty(args[0], domain.Difficulty(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd, it)
		},
	}
}

// filterFlags binds the queue and list filters to flags.
type filterFlags struct {
	subject, chapter, difficulty, itemType, status, origin string
	limit                                                  int
}

func (ff *filterFlags) register(f *pflag.FlagSet) {
	f.StringVar(&ff.subject, "subject", "", "only this subject")
	f.StringVar(&ff.chapter, "chapter", "", "only this chapter")
	f.StringVar(&ff.difficulty, "difficulty", "", "only this difficulty tier")
	f.StringVar(&ff.itemType, "type", "", "only this item type")
	f.StringVar(&ff.status, "status", "", "only this status")
	f.StringVar(&ff.origin, "origin", "", "only items synced from this deck source")
	f.IntVar(&ff.limit, "limit", 0, "at most this many items (0: all)")
}

func (ff *filterFlags) filter() review.Filter {
	return review.Filter{
		Subject:    ff.subject,
		Chapter:    ff.chapter,
		Difficulty: domain.Difficulty(ff.difficulty),
		Type:       domain.ItemType(ff.itemType),
		Status:     domain.Status(ff.status),
		Origin:     ff.origin,
		Limit:      ff.limit,
	}
}
