// Package model defines the tutor and student records returned by the admin API.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind names one side of the tutor/student relation.
type Kind string

const (
	KindTutor   Kind = "tutor"
	KindStudent Kind = "student"
)

// Counterpart returns the other side of the relation.
func (k Kind) Counterpart() Kind {
	if k == KindTutor {
		return KindStudent
	}
	return KindTutor
}

// Plural returns the plural form used in flags and headings.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// ID is a record identifier. The API sends ids as numbers in most payloads
// and as strings in some; both decode to the same integer so set
// comparisons never depend on the wire form.
type ID int

// UnmarshalJSON accepts a JSON number, a numeric string, or null (zero).
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		// Accept integral floats such as 3.0
		f, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil || f != float64(int(f)) {
			return fmt.Errorf("invalid id %s", data)
		}
		n = int(f)
	}
	*id = ID(n)
	return nil
}

// ParseID normalizes a user-supplied id string.
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return ID(n), nil
}

// Category is a subject a tutor teaches or a student studies. The API sends
// either {"id": 1, "name": "Maths"} or the bare name.
type Category struct {
	ID   ID     `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// UnmarshalJSON accepts an object or a bare string.
func (c *Category) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Name)
	}
	type alias Category
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Category(a)
	return nil
}

// ApprovalStatus is the review state of a tutor application.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Entity is a tutor or a student.
type Entity struct {
	ID            ID         `json:"id" yaml:"id"`
	FullName      string     `json:"full_name" yaml:"full_name"`
	Email         string     `json:"email,omitempty" yaml:"email,omitempty"`
	Qualification string     `json:"qualification,omitempty" yaml:"qualification,omitempty"`
	ProfilePhoto  string     `json:"profile_photo,omitempty" yaml:"profile_photo,omitempty"`
	Categories    []Category `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Set on tutors.
	AssignedStudents []Entity `json:"assigned_students,omitempty" yaml:"assigned_students,omitempty"`
	IsApproved       bool     `json:"is_approved,omitempty" yaml:"is_approved,omitempty"`
	IsRejected       bool     `json:"is_rejected,omitempty" yaml:"is_rejected,omitempty"`
	RejectionReason  string   `json:"rejection_reason,omitempty" yaml:"rejection_reason,omitempty"`

	// Set on students.
	AssignedTutors []Entity `json:"assigned_tutors,omitempty" yaml:"assigned_tutors,omitempty"`
}

// Assigned returns the linked records of the given counterpart kind.
func (e Entity) Assigned(counterpart Kind) []Entity {
	if counterpart == KindStudent {
		return e.AssignedStudents
	}
	return e.AssignedTutors
}

// AssignedIDs returns the ids of the linked records of the given counterpart kind.
func (e Entity) AssignedIDs(counterpart Kind) []ID {
	linked := e.Assigned(counterpart)
	ids := make([]ID, 0, len(linked))
	for _, l := range linked {
		ids = append(ids, l.ID)
	}
	return ids
}

// AssignedNames returns the display names of the linked records.
func (e Entity) AssignedNames(counterpart Kind) []string {
	linked := e.Assigned(counterpart)
	names := make([]string, 0, len(linked))
	for _, l := range linked {
		if l.FullName != "" {
			names = append(names, l.FullName)
		}
	}
	return names
}

// CategoryNames returns the category names in API order.
func (e Entity) CategoryNames() []string {
	names := make([]string, 0, len(e.Categories))
	for _, c := range e.Categories {
		names = append(names, c.Name)
	}
	return names
}

// Status derives the application state from the approval flags. Rejected
// wins if the API ever reports both.
func (e Entity) Status() ApprovalStatus {
	switch {
	case e.IsRejected:
		return StatusRejected
	case e.IsApproved:
		return StatusApproved
	default:
		return StatusPending
	}
}
