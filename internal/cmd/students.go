package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhanwis/tutoradmin/internal/directory"
	"github.com/dhanwis/tutoradmin/internal/model"
	"github.com/dhanwis/tutoradmin/internal/output"
	"github.com/dhanwis/tutoradmin/internal/util"
)

func registerStudentsCmd(parent *cobra.Command) {
	var search string

	studentsCmd := &cobra.Command{
		Use:     "students",
		Aliases: []string{"student"},
		Short:   "Browse students",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List students with their assigned tutors",
		Long: `List every student with the tutors currently assigned to them.

--search keeps the students whose name or qualification contains the text
(case-insensitive); glob patterns such as 'a*n' are matched too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStudentsList(cmd, search)
		},
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "filter by name or qualification")

	studentsCmd.AddCommand(listCmd)
	parent.AddCommand(studentsCmd)
}

func runStudentsList(cmd *cobra.Command, search string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	students, err := e.client.ListStudents(cmd.Context())
	if err != nil {
		return e.fail("load students", err)
	}
	students = directory.Filter(students, search)

	return e.printer.Print(students, entityRows(students, model.KindTutor), "No students found.")
}

// entityRows renders tutors or students with the names of their linked
// counterparts.
func entityRows(entities []model.Entity, counterpart model.Kind) output.Rows {
	rows := output.Rows{Headers: []string{"ID", "Name", "Email", "Qualification", titleCase(counterpart.Plural())}}
	for _, en := range entities {
		rows.Add(
			fmt.Sprint(en.ID),
			util.OrPlaceholder(en.FullName),
			util.OrPlaceholder(en.Email),
			util.OrPlaceholder(en.Qualification),
			util.OrPlaceholder(util.JoinNonEmpty(en.AssignedNames(counterpart), ", ")),
		)
	}
	return rows
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
