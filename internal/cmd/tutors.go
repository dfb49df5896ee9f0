package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhanwis/tutoradmin/internal/applications"
	"github.com/dhanwis/tutoradmin/internal/directory"
	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/model"
	"github.com/dhanwis/tutoradmin/internal/output"
	"github.com/dhanwis/tutoradmin/internal/tui/styles"
	"github.com/dhanwis/tutoradmin/internal/util"
)

func registerTutorsCmd(parent *cobra.Command) {
	var (
		status string
		search string
		reason string
	)

	tutorsCmd := &cobra.Command{
		Use:     "tutors",
		Aliases: []string{"tutor"},
		Short:   "Browse tutors and review applications",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tutors with their application status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTutorsList(cmd, status, search)
		},
	}
	listCmd.Flags().StringVar(&status, "status", "all", "all, pending, approved or rejected")
	listCmd.Flags().StringVarP(&search, "search", "s", "", "filter by name or qualification")

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List applications waiting for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTutorsList(cmd, string(model.StatusPending), "")
		},
	}

	approveCmd := &cobra.Command{
		Use:   "approve <tutor-id>",
		Short: "Approve a tutor application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, args[0], model.DecisionApprove, "")
		},
	}

	rejectCmd := &cobra.Command{
		Use:   "reject <tutor-id>",
		Short: "Reject a tutor application",
		Long: `Reject a tutor application. --reason is optional and is only sent
when given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, args[0], model.DecisionReject, reason)
		},
	}
	rejectCmd.Flags().StringVarP(&reason, "reason", "r", "", "reason shown to the tutor")

	tutorsCmd.AddCommand(listCmd, pendingCmd, approveCmd, rejectCmd)
	parent.AddCommand(tutorsCmd)
}

func parseStatus(s string) (model.ApprovalStatus, bool, error) {
	switch st := model.ApprovalStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case "", "all":
		return "", true, nil
	case model.StatusPending, model.StatusApproved, model.StatusRejected:
		return st, false, nil
	default:
		return "", false, errors.NewValidationError(fmt.Sprintf("unknown status %q: want all, pending, approved or rejected", s)).WithField("status")
	}
}

func runTutorsList(cmd *cobra.Command, status, search string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	want, all, err := parseStatus(status)
	if err != nil {
		return e.fail("list tutors", err)
	}

	tutors, err := e.client.ListTutors(cmd.Context())
	if err != nil {
		return e.fail("load tutors", err)
	}

	board := applications.Partition(tutors)
	shown := tutors
	if !all {
		shown = board.List(want)
	}
	shown = directory.Filter(shown, search)

	empty := "No tutors found."
	if want == model.StatusPending {
		empty = "No pending applications."
	}
	return e.printer.Print(shown, tutorRows(shown), empty)
}

func tutorRows(tutors []model.Entity) output.Rows {
	rows := output.Rows{Headers: []string{"ID", "Name", "Qualification", "Categories", "Status", "Students"}}
	for _, t := range tutors {
		status := string(t.Status())
		rows.Add(
			fmt.Sprint(t.ID),
			util.OrPlaceholder(t.FullName),
			util.OrPlaceholder(t.Qualification),
			util.OrPlaceholder(util.JoinNonEmpty(t.CategoryNames(), ", ")),
			styles.StatusIcon(status)+" "+status,
			util.OrPlaceholder(util.JoinNonEmpty(t.AssignedNames(model.KindStudent), ", ")),
		)
	}
	return rows
}

func runReview(cmd *cobra.Command, rawID string, decision model.ReviewDecision, reason string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	action := string(decision) + " the application"
	id, err := parseID(model.KindTutor, rawID)
	if err != nil {
		return e.fail(action, err)
	}

	tutors, err := e.client.ListTutors(cmd.Context())
	if err != nil {
		return e.fail("load tutors", err)
	}
	board := applications.Partition(tutors)
	tutor, _, ok := board.Find(id)
	if !ok {
		return e.fail(action, errors.NewNotFoundError(string(model.KindTutor), fmt.Sprint(id)))
	}

	reviewer := applications.NewReviewer(e.client, e.logger)
	outcome, err := reviewer.Review(cmd.Context(), id, decision, strings.TrimSpace(reason))
	if err != nil {
		return e.fail(action, err)
	}
	board = board.Apply(outcome)

	e.notef("%s %s (tutor %d) is now %s. %d application(s) pending.\n",
		styles.StatusIcon(string(outcome.Status)), util.OrPlaceholder(tutor.FullName), id, outcome.Status, len(board.Pending))
	return nil
}
