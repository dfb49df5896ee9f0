package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhanwis/tutoradmin/internal/catalog"
	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/output"
	"github.com/dhanwis/tutoradmin/internal/util"
)

func registerCategoriesCmd(parent *cobra.Command) {
	categoriesCmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "courses"},
		Short:   "Maintain course categories, subcategories and courses",
		Long: `Maintain the course catalog. The catalog is kept in a local YAML file
(catalog.file, default catalog.yaml in the config directory) and starts with
the Web Development and Data Science categories.

Deleting a category or subcategory also deletes the courses filed under it.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories and courses",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesList,
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateCatalog(cmd, "add the category", func(c *catalog.Catalog) (string, error) {
				cat, err := c.AddCategory(args[0])
				return fmt.Sprintf("Added category %q (id %d).", cat.Name, cat.ID), err
			})
		},
	}

	addSubCmd := &cobra.Command{
		Use:   "add-sub <category-id> <name>",
		Short: "Add a subcategory to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateCatalog(cmd, "add the subcategory", func(c *catalog.Catalog) (string, error) {
				catID, err := parseNumber("category", args[0])
				if err != nil {
					return "", err
				}
				sub, err := c.AddSubcategory(catID, args[1])
				return fmt.Sprintf("Added subcategory %q (id %d).", sub.Name, sub.ID), err
			})
		},
	}

	var course struct {
		title, tutor  string
		category, sub string
	}
	addCourseCmd := &cobra.Command{
		Use:   "add-course",
		Short: "Add a course under a category and subcategory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateCatalog(cmd, "add the course", func(c *catalog.Catalog) (string, error) {
				catID, err := parseNumber("category", course.category)
				if err != nil {
					return "", err
				}
				subID, err := parseNumber("subcategory", course.sub)
				if err != nil {
					return "", err
				}
				added, err := c.AddCourse(course.title, catID, subID, course.tutor)
				return fmt.Sprintf("Added course %q (id %d).", added.Title, added.ID), err
			})
		},
	}
	addCourseCmd.Flags().StringVar(&course.title, "title", "", "course title")
	addCourseCmd.Flags().StringVar(&course.category, "category", "", "category id")
	addCourseCmd.Flags().StringVar(&course.sub, "sub", "", "subcategory id")
	addCourseCmd.Flags().StringVar(&course.tutor, "tutor", "", "tutor name")

	rmCmd := &cobra.Command{
		Use:   "rm <category-id>",
		Short: "Delete a category with its subcategories and courses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateCatalog(cmd, "delete the category", func(c *catalog.Catalog) (string, error) {
				id, err := parseNumber("category", args[0])
				if err != nil {
					return "", err
				}
				n, err := c.DeleteCategory(id)
				return fmt.Sprintf("Deleted category %d and %d course(s).", id, n), err
			})
		},
	}

	rmSubCmd := &cobra.Command{
		Use:   "rm-sub <category-id> <subcategory-id>",
		Short: "Delete a subcategory and its courses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateCatalog(cmd, "delete the subcategory", func(c *catalog.Catalog) (string, error) {
				catID, err := parseNumber("category", args[0])
				if err != nil {
					return "", err
				}
				subID, err := parseNumber("subcategory", args[1])
				if err != nil {
					return "", err
				}
				n, err := c.DeleteSubcategory(catID, subID)
				return fmt.Sprintf("Deleted subcategory %d and %d course(s).", subID, n), err
			})
		},
	}

	rmCourseCmd := &cobra.Command{
		Use:   "rm-course <course-id>",
		Short: "Delete a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateCatalog(cmd, "delete the course", func(c *catalog.Catalog) (string, error) {
				id, err := parseNumber("course", args[0])
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Deleted course %d.", id), c.DeleteCourse(id)
			})
		},
	}

	categoriesCmd.AddCommand(listCmd, addCmd, addSubCmd, addCourseCmd, rmCmd, rmSubCmd, rmCourseCmd)
	parent.AddCommand(categoriesCmd)
}

func parseNumber(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid %s id %q", field, s)).WithField(field).WithValue(s)
	}
	return n, nil
}

// updateCatalog runs fn against the stored catalog and prints its message
// once the change is written.
func updateCatalog(cmd *cobra.Command, action string, fn func(*catalog.Catalog) (string, error)) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	var msg string
	if _, err := e.catalog().Update(func(c *catalog.Catalog) error {
		var err error
		msg, err = fn(c)
		return err
	}); err != nil {
		return e.fail(action, err)
	}

	e.logger.Info("catalog updated", "action", action)
	e.notef("%s\n", msg)
	return nil
}

func runCategoriesList(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.catalog().Load()
	if err != nil {
		return e.fail("load the catalog", err)
	}

	// JSON and YAML get the whole tree in one document.
	if e.printer.Format() != output.FormatTable {
		return e.printer.Print(c, output.Rows{}, "")
	}

	categories := output.Rows{Headers: []string{"ID", "Category", "Subcategories"}}
	for _, cat := range c.Categories {
		subs := make([]string, 0, len(cat.Subcategories))
		for _, sub := range cat.Subcategories {
			subs = append(subs, fmt.Sprintf("%s (%d)", sub.Name, sub.ID))
		}
		categories.Add(fmt.Sprint(cat.ID), cat.Name, util.OrPlaceholder(strings.Join(subs, ", ")))
	}
	e.printer.Heading("Categories")
	if err := e.printer.Print(c.Categories, categories, "No categories yet."); err != nil {
		return err
	}

	courses := output.Rows{Headers: []string{"ID", "Course", "Category", "Subcategory", "Tutor"}}
	for _, row := range c.CourseRows() {
		courses.Add(fmt.Sprint(row.ID), row.Title, util.OrPlaceholder(row.Category), util.OrPlaceholder(row.Subcategory), util.OrPlaceholder(row.Tutor))
	}
	e.printer.Heading("Courses")
	return e.printer.Print(c.CourseRows(), courses, "No courses yet.")
}
