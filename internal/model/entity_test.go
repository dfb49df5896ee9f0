package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"number", `7`, 7, false},
		{"string", `"7"`, 7, false},
		{"padded string", `" 12 "`, 12, false},
		{"integral float", `3.0`, 3, false},
		{"null", `null`, 0, false},
		{"fractional", `3.5`, 0, true},
		{"word", `"seven"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && id != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.input, id, tt.want)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID(" 42 "); err != nil || id != 42 {
		t.Errorf("ParseID(\" 42 \") = %d, %v; want 42, nil", id, err)
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if _, err := ParseID(bad); err == nil {
			t.Errorf("ParseID(%q) error = nil, want error", bad)
		}
	}
}

func TestCategory_UnmarshalJSON(t *testing.T) {
	var cats []Category
	if err := json.Unmarshal([]byte(`[{"id": 1, "name": "Maths"}, "Physics"]`), &cats); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	want := []Category{{ID: 1, Name: "Maths"}, {Name: "Physics"}}
	if !reflect.DeepEqual(cats, want) {
		t.Errorf("categories = %+v, want %+v", cats, want)
	}
}

func TestEntity_Decode(t *testing.T) {
	body := `{
		"id": "3",
		"full_name": "Jane Smith",
		"qualification": "MSc Physics",
		"categories": ["Physics"],
		"assigned_students": [{"id": 1, "full_name": "Alice"}, {"id": "2", "full_name": "Bob"}],
		"is_approved": true
	}`

	var e Entity
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}

	if e.ID != 3 {
		t.Errorf("ID = %d, want 3", e.ID)
	}
	if got := e.AssignedIDs(KindStudent); !reflect.DeepEqual(got, []ID{1, 2}) {
		t.Errorf("AssignedIDs(student) = %v, want [1 2]", got)
	}
	if got := e.AssignedIDs(KindTutor); len(got) != 0 {
		t.Errorf("AssignedIDs(tutor) = %v, want empty", got)
	}
	if got := e.AssignedNames(KindStudent); !reflect.DeepEqual(got, []string{"Alice", "Bob"}) {
		t.Errorf("AssignedNames(student) = %v, want [Alice Bob]", got)
	}
	if e.Status() != StatusApproved {
		t.Errorf("Status() = %q, want %q", e.Status(), StatusApproved)
	}
}

func TestEntity_Status(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   ApprovalStatus
	}{
		{"pending", Entity{}, StatusPending},
		{"approved", Entity{IsApproved: true}, StatusApproved},
		{"rejected", Entity{IsRejected: true}, StatusRejected},
		{"both flags", Entity{IsApproved: true, IsRejected: true}, StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entity.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKind_Counterpart(t *testing.T) {
	if KindTutor.Counterpart() != KindStudent {
		t.Error("KindTutor.Counterpart() != KindStudent")
	}
	if KindStudent.Counterpart() != KindTutor {
		t.Error("KindStudent.Counterpart() != KindTutor")
	}
	if KindStudent.Plural() != "students" {
		t.Errorf("Plural() = %q, want students", KindStudent.Plural())
	}
}
