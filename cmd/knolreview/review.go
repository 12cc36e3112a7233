package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newReviewCmd(a *app) *cobra.Command {
	var responseMs int64
	cmd := &cobra.Command{
		Use:   "review <id> <quality 0-5>",
		Short: "Record a review and reschedule the item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Wrapf(err, "quality %q is not a number", args[1])
			}
			res, err := a.eng.ProcessReview(args[0], q, responseMs)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().Int64Var(&responseMs, "response-ms", 0, "time taken to answer in milliseconds")
	return cmd
}

func newNextCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the item to review next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			it, ok := a.eng.GetNextReviewItem(ff.filter())
			if !ok {
				return printJSON(cmd, nil)
			}
			return printJSON(cmd, it)
		},
	}
	ff.register(cmd.Flags())
	return cmd
}

func newQueueCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Print the due items in review order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, a.eng.GetReviewQueue(ff.filter()))
		},
	}
	ff.register(cmd.Flags())
	return cmd
}
