// Package testutil provides testing utilities for tutoradmin tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dhanwis/tutoradmin/internal/model"
)

// Credentials accepted by the fake login endpoint.
const (
	TestEmail    = "admin@example.com"
	TestPassword = "secret"
	TestToken    = "test-token"
)

// RecordedRequest is a request the fake API received.
type RecordedRequest struct {
	Method    string
	Path      string
	Body      map[string]any
	RequestID string
}

type link struct {
	tutor, student model.ID
}

type failure struct {
	status int
	body   string
}

// FakeAPI is an in-memory admin API served over httptest. Tutors and
// students are linked through a relation table so both list endpoints
// embed the same assignments, the way the real server does.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	tutors   map[model.ID]*model.Entity
	students map[model.ID]*model.Entity
	links    map[link]struct{}
	requests []RecordedRequest
	failures map[string]failure
	hook     func(method, path string)
}

// NewFakeAPI starts a fake admin API that is closed when the test finishes.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		tutors:   make(map[model.ID]*model.Entity),
		students: make(map[model.ID]*model.Entity),
		links:    make(map[link]struct{}),
		failures: make(map[string]failure),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL clients should use.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// AddTutor registers a tutor. Approval flags are taken from e.
func (f *FakeAPI) AddTutor(e model.Entity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.AssignedStudents = nil
	f.tutors[e.ID] = &e
}

// AddStudent registers a student.
func (f *FakeAPI) AddStudent(e model.Entity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.AssignedTutors = nil
	f.students[e.ID] = &e
}

// Link assigns a student to a tutor.
func (f *FakeAPI) Link(tutorID, studentID model.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[link{tutorID, studentID}] = struct{}{}
}

// StudentsOf returns the sorted ids of the students linked to a tutor.
func (f *FakeAPI) StudentsOf(tutorID model.ID) []model.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ID
	for l := range f.links {
		if l.tutor == tutorID {
			out = append(out, l.student)
		}
	}
	slices.Sort(out)
	return out
}

// TutorsOf returns the sorted ids of the tutors linked to a student.
func (f *FakeAPI) TutorsOf(studentID model.ID) []model.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ID
	for l := range f.links {
		if l.student == studentID {
			out = append(out, l.tutor)
		}
	}
	slices.Sort(out)
	return out
}

// Tutor returns a copy of a stored tutor.
func (f *FakeAPI) Tutor(id model.ID) (model.Entity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tutors[id]
	if !ok {
		return model.Entity{}, false
	}
	return *t, true
}

// Fail makes every request matching method and path answer with status.
// An action suffix such as "POST /admin/manage-students/#unassign" limits
// the failure to write requests carrying that action.
func (f *FakeAPI) Fail(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = failure{status: status, body: body}
}

// OnRequest installs a function that runs before each request is handled.
func (f *FakeAPI) OnRequest(fn func(method, path string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = fn
}

// Requests returns every request received so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

// Writes returns the non-GET requests received so far.
func (f *FakeAPI) Writes() []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if r.Method != http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook(r.Method, r.URL.Path)
	}

	var body map[string]any
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON"})
				return
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, RecordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		Body:      body,
		RequestID: r.Header.Get("X-Request-ID"),
	})

	key := r.Method + " " + r.URL.Path
	if action, ok := body["action"].(string); ok {
		if fl, found := f.failures[key+"#"+action]; found {
			writeRaw(w, fl.status, fl.body)
			return
		}
	}
	if fl, found := f.failures[key]; found {
		writeRaw(w, fl.status, fl.body)
		return
	}

	if r.URL.Path == "/login/" && r.Method == http.MethodPost {
		f.login(w, body)
		return
	}

	if r.Header.Get("Authorization") != "Token "+TestToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/admin/students/":
		writeJSON(w, http.StatusOK, f.studentList())
	case r.Method == http.MethodGet && r.URL.Path == "/admin/tutors/":
		writeJSON(w, http.StatusOK, f.tutorList(false))
	case r.Method == http.MethodGet && r.URL.Path == "/admin/tutors/approved/":
		writeJSON(w, http.StatusOK, f.tutorList(true))
	case r.Method == http.MethodPost && r.URL.Path == "/admin/manage-students/":
		f.manage(w, body, "tutor_id", "student_ids", func(anchor, id model.ID) link { return link{anchor, id} })
	case r.Method == http.MethodPost && r.URL.Path == "/admin/manage-tutors/":
		f.manage(w, body, "student_id", "tutor_ids", func(anchor, id model.ID) link { return link{id, anchor} })
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/admin/review-user/"):
		f.review(w, r.URL.Path, body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
}

func (f *FakeAPI) login(w http.ResponseWriter, body map[string]any) {
	if body["email"] == TestEmail && body["password"] == TestPassword {
		writeJSON(w, http.StatusOK, map[string]string{"token": TestToken})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid email or password"})
}

func (f *FakeAPI) manage(w http.ResponseWriter, body map[string]any, anchorKey, idsKey string, mk func(anchor, id model.ID) link) {
	anchor, ok := body[anchorKey].(float64)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": anchorKey + " is required"})
		return
	}
	raw, _ := body[idsKey].([]any)
	if len(raw) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": idsKey + " is required"})
		return
	}

	action, _ := body["action"].(string)
	for _, v := range raw {
		id, _ := v.(float64)
		l := mk(model.ID(anchor), model.ID(id))
		switch action {
		case "assign":
			f.links[l] = struct{}{}
		case "unassign":
			delete(f.links, l)
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid action"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Assignments updated"})
}

func (f *FakeAPI) review(w http.ResponseWriter, path string, body map[string]any) {
	idPart := strings.Trim(strings.TrimPrefix(path, "/admin/review-user/"), "/")
	n, err := strconv.Atoi(idPart)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	tutor, ok := f.tutors[model.ID(n)]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	switch body["action"] {
	case "approve":
		tutor.IsApproved, tutor.IsRejected = true, false
		tutor.RejectionReason = ""
	case "reject":
		tutor.IsApproved, tutor.IsRejected = false, true
		tutor.RejectionReason, _ = body["reason"].(string)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid action"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          tutor.ID,
		"is_approved": tutor.IsApproved,
		"is_rejected": tutor.IsRejected,
		"message":     fmt.Sprintf("Tutor %s", body["action"]),
	})
}

func (f *FakeAPI) studentList() []model.Entity {
	out := make([]model.Entity, 0, len(f.students))
	for _, s := range f.students {
		e := *s
		for l := range f.links {
			if l.student == e.ID {
				if t, ok := f.tutors[l.tutor]; ok {
					e.AssignedTutors = append(e.AssignedTutors, model.Entity{ID: t.ID, FullName: t.FullName})
				}
			}
		}
		sortByID(e.AssignedTutors)
		out = append(out, e)
	}
	sortByID(out)
	return out
}

func (f *FakeAPI) tutorList(approvedOnly bool) []model.Entity {
	out := make([]model.Entity, 0, len(f.tutors))
	for _, t := range f.tutors {
		if approvedOnly && (!t.IsApproved || t.IsRejected) {
			continue
		}
		e := *t
		for l := range f.links {
			if l.tutor == e.ID {
				if s, ok := f.students[l.student]; ok {
					e.AssignedStudents = append(e.AssignedStudents, model.Entity{ID: s.ID, FullName: s.FullName})
				}
			}
		}
		sortByID(e.AssignedStudents)
		out = append(out, e)
	}
	sortByID(out)
	return out
}

func sortByID(es []model.Entity) {
	slices.SortFunc(es, func(a, b model.Entity) int { return int(a.ID) - int(b.ID) })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
