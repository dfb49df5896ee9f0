package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/dhanwis/tutoradmin/internal/catalog"
	"github.com/dhanwis/tutoradmin/internal/config"
)

func readCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(config.ConfigDir(), "catalog.yaml"))
	if err != nil {
		t.Fatalf("read catalog: %v", err)
	}
	var c catalog.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	return &c
}

func TestCategoriesList_Seed(t *testing.T) {
	setupTestEnvironment(t)

	output, err := executeCommand("categories", "list")
	if err != nil {
		t.Fatalf("categories list failed: %v", err)
	}
	for _, want := range []string{"Categories", "Web Development", "Frontend (11)", "Data Science", "Courses", "React for Beginners", "John Doe"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestCategories_AddAndList(t *testing.T) {
	setupTestEnvironment(t)

	output, err := executeCommand("categories", "add", "  Music ")
	if err != nil {
		t.Fatalf("categories add failed: %v", err)
	}
	if !strings.Contains(output, `Added category "Music" (id 23).`) {
		t.Errorf("output = %q", output)
	}

	output, err = executeCommand("categories", "add-sub", "23", "Guitar")
	if err != nil {
		t.Fatalf("categories add-sub failed: %v", err)
	}
	if !strings.Contains(output, `Added subcategory "Guitar" (id 24).`) {
		t.Errorf("output = %q", output)
	}

	output, err = executeCommand("categories", "add-course", "--title", "Chords 101", "--category", "23", "--sub", "24", "--tutor", "Jane Smith")
	if err != nil {
		t.Fatalf("categories add-course failed: %v", err)
	}
	if !strings.Contains(output, `Added course "Chords 101" (id 25).`) {
		t.Errorf("output = %q", output)
	}

	c := readCatalog(t)
	if len(c.Categories) != 3 || len(c.Courses) != 3 {
		t.Errorf("catalog has %d categories and %d courses, want 3 and 3", len(c.Categories), len(c.Courses))
	}

	output, err = executeCommand("categories", "list")
	if err != nil {
		t.Fatalf("categories list failed: %v", err)
	}
	if !strings.Contains(output, "Guitar (24)") || !strings.Contains(output, "Chords 101") {
		t.Errorf("list output missing the new entries:\n%s", output)
	}
}

func TestCategories_DeleteCascades(t *testing.T) {
	setupTestEnvironment(t)

	output, err := executeCommand("categories", "rm", "1")
	if err != nil {
		t.Fatalf("categories rm failed: %v", err)
	}
	if !strings.Contains(output, "Deleted category 1 and 1 course(s).") {
		t.Errorf("output = %q", output)
	}

	c := readCatalog(t)
	if len(c.Categories) != 1 || c.Categories[0].Name != "Data Science" {
		t.Errorf("categories = %+v, want only Data Science", c.Categories)
	}
	if len(c.Courses) != 1 || c.Courses[0].Title != "Python for Data Analysis" {
		t.Errorf("courses = %+v, want only Python for Data Analysis", c.Courses)
	}

	output, err = executeCommand("categories", "rm-sub", "2", "21")
	if err != nil {
		t.Fatalf("categories rm-sub failed: %v", err)
	}
	if !strings.Contains(output, "Deleted subcategory 21 and 1 course(s).") {
		t.Errorf("output = %q", output)
	}

	output, err = executeCommand("categories", "list")
	if err != nil {
		t.Fatalf("categories list failed: %v", err)
	}
	if !strings.Contains(output, "No courses yet.") {
		t.Errorf("output = %q, want the empty course message", output)
	}
}

func TestCategories_Errors(t *testing.T) {
	setupTestEnvironment(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty name", []string{"categories", "add", "   "}, "Cannot add the category: name cannot be empty."},
		{"unknown course", []string{"categories", "rm-course", "99"}, "Cannot delete the course: course '99' not found."},
		{"unknown category", []string{"categories", "add-sub", "7", "Jazz"}, "Cannot add the subcategory: category '7' not found."},
		{"bad id", []string{"categories", "rm", "first"}, `Cannot delete the category: invalid category id "first".`},
		{
			"subcategory of another category",
			[]string{"categories", "add-course", "--title", "X", "--category", "1", "--sub", "21", "--tutor", "Y"},
			"Cannot add the course: subcategory '21' not found.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatalf("%v succeeded", tt.args)
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(config.ConfigDir(), "catalog.yaml")); !os.IsNotExist(err) {
		t.Errorf("failed updates wrote the catalog (stat err = %v)", err)
	}
}

func TestCategoriesList_JSON(t *testing.T) {
	setupTestEnvironment(t)

	output, err := executeCommand("categories", "list", "-o", "json")
	if err != nil {
		t.Fatalf("categories list failed: %v", err)
	}
	if !strings.Contains(output, `"Web Development"`) || !strings.Contains(output, `"courses"`) {
		t.Errorf("json output = %s", output)
	}
}
