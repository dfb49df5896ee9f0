package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhanwis/tutoradmin/internal/assign"
	"github.com/dhanwis/tutoradmin/internal/directory"
	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/model"
	"github.com/dhanwis/tutoradmin/internal/tui/picker"
)

// assignFlags select how the new assignment set is built.
type assignFlags struct {
	replace bool
	set     []string
	add     []string
	remove  []string
}

// runPicker is swapped out in tests.
var runPicker = picker.Run

// pickerSaver hands the picker the reloaded anchor after a partial save.
type pickerSaver struct {
	*assign.Reconciler
	loader *directory.Loader
}

func (s pickerSaver) Anchor(kind model.Kind, id model.ID) (model.Entity, bool) {
	anchor, err := s.loader.Current().Anchor(kind, id)
	return anchor, err == nil
}

func registerAssignCmd(parent *cobra.Command) {
	assignCmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign tutors to a student or students to a tutor",
		Long: `Edit who is linked to whom. The new set is compared with the current one
and at most two requests are sent: one assigning the additions, then one
unassigning the removals. The lists are reloaded afterwards.

Give --set to replace the whole set, or --add/--remove to change it. With
none of them, an interactive picker opens when standard input is a
terminal; otherwise the current assignments are printed.`,
	}

	for _, dir := range []assign.Direction{assign.TutorsForStudent, assign.StudentsForTutor} {
		assignCmd.AddCommand(newAssignDirectionCmd(dir))
	}
	parent.AddCommand(assignCmd)
}

func newAssignDirectionCmd(dir assign.Direction) *cobra.Command {
	var flags assignFlags
	counterpart := dir.Counterpart()

	c := &cobra.Command{
		Use:   fmt.Sprintf("%s <%s-id>", counterpart.Plural(), dir.Anchor()),
		Short: fmt.Sprintf("Edit the %s assigned to a %s", counterpart.Plural(), dir.Anchor()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(cmd, dir, args[0], flags)
		},
	}
	c.Flags().StringSliceVar(&flags.set, "set", nil, fmt.Sprintf("replace the assigned %s with these ids", counterpart.Plural()))
	c.Flags().StringSliceVar(&flags.add, "add", nil, fmt.Sprintf("%s ids to assign", counterpart))
	c.Flags().StringSliceVar(&flags.remove, "remove", nil, fmt.Sprintf("%s ids to unassign", counterpart))
	c.MarkFlagsMutuallyExclusive("set", "add")
	c.MarkFlagsMutuallyExclusive("set", "remove")
	return c
}

func runAssign(cmd *cobra.Command, dir assign.Direction, rawID string, flags assignFlags) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	const action = "update assignments"
	anchorKind, counterpart := dir.Anchor(), dir.Counterpart()

	anchorID, err := parseID(anchorKind, rawID)
	if err != nil {
		return e.fail(action, err)
	}

	loader := directory.NewLoader(e.client, e.logger)
	snap, err := loader.Load(cmd.Context())
	if err != nil {
		return e.fail("load assignments", err)
	}
	anchor, err := snap.Anchor(anchorKind, anchorID)
	if err != nil {
		return e.fail(action, err)
	}

	reconciler := assign.New(e.client,
		assign.WithRefresher(loader.Refresh),
		assign.WithLogger(e.logger),
	)

	edited := cmd.Flags().Changed("set") || cmd.Flags().Changed("add") || cmd.Flags().Changed("remove")
	if !edited {
		if !stdinIsTerminal() {
			return e.printer.Print(anchor, entityRows([]model.Entity{anchor}, counterpart), "")
		}
		saver := pickerSaver{Reconciler: reconciler, loader: loader}
		outcome, err := runPicker(cmd.Context(), saver, dir, anchor, snap.Candidates(counterpart))
		if err != nil {
			return e.fail(action, err)
		}
		if !outcome.Saved {
			if outcome.Err != nil {
				return e.fail(action, outcome.Err)
			}
			e.notef("No changes saved.\n")
			return nil
		}
		return printAssignResult(e, loader, dir, anchorID, outcome.Result)
	}

	flags.replace = cmd.Flags().Changed("set")
	oldIDs := assign.NewIDSet(anchor.AssignedIDs(counterpart)...)
	newIDs, err := editedSet(counterpart, oldIDs, flags)
	if err != nil {
		return e.fail(action, err)
	}
	if err := checkCandidates(counterpart, snap.Candidates(counterpart), newIDs.Minus(oldIDs)); err != nil {
		return e.fail(action, err)
	}

	result, err := reconciler.Save(cmd.Context(), dir, anchorID, oldIDs, newIDs)
	if err != nil {
		return e.fail(action, err)
	}
	return printAssignResult(e, loader, dir, anchorID, result)
}

// editedSet applies the flags to the current set.
func editedSet(counterpart model.Kind, current assign.IDSet, flags assignFlags) (assign.IDSet, error) {
	if flags.replace {
		ids, err := parseIDs(counterpart, flags.set)
		if err != nil {
			return nil, err
		}
		return assign.NewIDSet(ids...), nil
	}

	added, err := parseIDs(counterpart, flags.add)
	if err != nil {
		return nil, err
	}
	removed, err := parseIDs(counterpart, flags.remove)
	if err != nil {
		return nil, err
	}

	next := assign.NewIDSet(current.Sorted()...)
	for _, id := range added {
		next[id] = struct{}{}
	}
	for _, id := range removed {
		delete(next, id)
	}
	return next, nil
}

// checkCandidates rejects additions that are not assignable, such as
// unknown ids or tutors whose application is not approved.
func checkCandidates(counterpart model.Kind, candidates []model.Entity, added assign.IDSet) error {
	known := make(assign.IDSet, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
	}
	for _, id := range added.Sorted() {
		if known.Has(id) {
			continue
		}
		msg := fmt.Sprintf("%s %d cannot be assigned", counterpart, id)
		if counterpart == model.KindTutor {
			msg = fmt.Sprintf("tutor %d is not an approved tutor", id)
		}
		return errors.NewValidationError(msg).WithField(counterpart.Plural()).WithValue(int(id))
	}
	return nil
}

func printAssignResult(e *env, loader *directory.Loader, dir assign.Direction, anchorID model.ID, result assign.Result) error {
	counterpart := dir.Counterpart()
	if result.Plan.Empty() {
		e.notef("No changes.\n")
	} else {
		e.notef("Assigned %d %s, unassigned %d.\n", len(result.Plan.ToAssign), counterpart.Plural(), len(result.Plan.ToUnassign))
	}

	if result.RefreshErr != nil {
		e.notef("Saved, but reloading failed; run the list command again to check.\n")
		return nil
	}

	anchor, err := loader.Current().Anchor(dir.Anchor(), anchorID)
	if err != nil {
		return e.fail("reload assignments", err)
	}
	return e.printer.Print(anchor, entityRows([]model.Entity{anchor}, counterpart), "")
}
