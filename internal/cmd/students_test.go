package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhanwis/tutoradmin/internal/config"
	"github.com/dhanwis/tutoradmin/internal/logging"
	"github.com/dhanwis/tutoradmin/internal/model"
	"github.com/dhanwis/tutoradmin/internal/testutil"
)

// seedDirectory fills the fake API with a small school: two students, an
// approved tutor teaching Sam, a pending and a rejected application, and a
// second approved tutor with no students.
func seedDirectory(fake *testutil.FakeAPI) {
	fake.AddStudent(model.Entity{ID: 1, FullName: "Sam Student", Email: "sam@example.com", Qualification: "Grade 10"})
	fake.AddStudent(model.Entity{ID: 2, FullName: "Ali Khan", Email: "ali@example.com", Qualification: "Grade 12"})
	fake.AddTutor(model.Entity{ID: 5, FullName: "Jane Smith", Qualification: "MSc Maths", IsApproved: true})
	fake.AddTutor(model.Entity{ID: 6, FullName: "Tom Pending", Qualification: "BEd"})
	fake.AddTutor(model.Entity{ID: 7, FullName: "Rex Rejected", IsRejected: true})
	fake.AddTutor(model.Entity{ID: 8, FullName: "Mia Tutor", Qualification: "PhD Physics", IsApproved: true})
	fake.Link(5, 1)
}

func TestStudentsList(t *testing.T) {
	fake := setupTestEnvironment(t)
	seedDirectory(fake)
	loginForTest(t)

	output, err := executeCommand("students", "list")
	if err != nil {
		t.Fatalf("students list failed: %v\nOutput: %s", err, output)
	}
	for _, want := range []string{"Sam Student", "Ali Khan", "Jane Smith", "Tutors"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestStudentsList_Search(t *testing.T) {
	fake := setupTestEnvironment(t)
	seedDirectory(fake)
	loginForTest(t)

	output, err := executeCommand("students", "list", "--search", "ALI")
	if err != nil {
		t.Fatalf("students list failed: %v", err)
	}
	if !strings.Contains(output, "Ali Khan") || strings.Contains(output, "Sam Student") {
		t.Errorf("search output = %s, want only Ali Khan", output)
	}

	output, err = executeCommand("students", "list", "--search", "grade 1?")
	if err != nil {
		t.Fatalf("students list failed: %v", err)
	}
	if !strings.Contains(output, "Ali Khan") || !strings.Contains(output, "Sam Student") {
		t.Errorf("glob output = %s, want both students", output)
	}

	output, err = executeCommand("students", "list", "--search", "nobody")
	if err != nil {
		t.Fatalf("students list failed: %v", err)
	}
	if !strings.Contains(output, "No students found.") {
		t.Errorf("output = %q, want the empty message", output)
	}
}

func TestStudentsList_JSON(t *testing.T) {
	fake := setupTestEnvironment(t)
	seedDirectory(fake)
	loginForTest(t)

	output, err := executeCommand("students", "list", "-o", "json")
	if err != nil {
		t.Fatalf("students list failed: %v", err)
	}

	var students []model.Entity
	if err := json.Unmarshal([]byte(output), &students); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, output)
	}
	if len(students) != 2 {
		t.Fatalf("got %d students, want 2", len(students))
	}
	if got := students[0].AssignedIDs(model.KindTutor); len(got) != 1 || got[0] != 5 {
		t.Errorf("Sam's tutors = %v, want [5]", got)
	}
}

func TestStudentsList_NotLoggedIn(t *testing.T) {
	fake := setupTestEnvironment(t)
	seedDirectory(fake)

	_, err := executeCommand("students", "list")
	if err == nil {
		t.Fatal("students list without a token succeeded")
	}
	if got, want := err.Error(), "Failed to load students. Please log in again."; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
	if n := len(fake.Requests()); n != 0 {
		t.Errorf("sent %d requests without a token, want 0", n)
	}
}

func TestStudentsList_ServerError(t *testing.T) {
	fake := setupTestEnvironment(t)
	seedDirectory(fake)
	loginForTest(t)
	fake.Fail("GET /admin/students/", 500, `{"detail":"database is down"}`)

	_, err := executeCommand("students", "list")
	if err == nil {
		t.Fatal("students list succeeded against a failing server")
	}
	if got, want := err.Error(), "Failed to load students. Please try again."; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestStudentsList_Logs(t *testing.T) {
	fake := setupTestEnvironment(t)
	seedDirectory(fake)
	loginForTest(t)
	t.Setenv("TUTORADMIN_LOGGING_ENABLED", "true")
	t.Setenv("TUTORADMIN_LOGGING_LEVEL", "debug")

	if _, err := executeCommand("students", "list"); err != nil {
		t.Fatalf("students list failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(config.ConfigDir(), "logs", logging.LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	log := string(data)
	for _, want := range []string{`"msg":"api request"`, `"command":"tutoradmin students list"`, `"request_id":"` + fake.Requests()[0].RequestID + `"`} {
		if !strings.Contains(log, want) {
			t.Errorf("log missing %s:\n%s", want, log)
		}
	}
}
