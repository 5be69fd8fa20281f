package authz

import (
	"testing"
	"time"
)

func TestAssignmentLifecycle(t *testing.T) {
	cases := []struct {
		status                      string
		editable, deletable, graded bool
	}{
		{AssignmentAssigned, true, true, false},
		{AssignmentInProgress, true, true, false},
		{AssignmentSubmitted, false, false, true},
		{AssignmentGraded, false, false, true},
	}
	for _, tc := range cases {
		a := &AssignmentRecord{Status: tc.status}
		if got := assignmentEditable(a); got != tc.editable {
			t.Errorf("assignmentEditable(%s) = %v", tc.status, got)
		}
		if got := assignmentDeletable(a); got != tc.deletable {
			t.Errorf("assignmentDeletable(%s) = %v", tc.status, got)
		}
		if got := assignmentSubmitted(a); got != tc.graded {
			t.Errorf("assignmentSubmitted(%s) = %v", tc.status, got)
		}
	}
	if assignmentEditable(nil) || assignmentDeletable(nil) || assignmentSubmitted(nil) {
		t.Error("nil record must fail every predicate")
	}
}

func TestAttendanceWindows(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	fresh := &AttendanceRecord{Date: now.Add(-2 * time.Hour), Status: "present"}
	if !attendanceEditable(fresh, now) || !attendanceDeletable(fresh, now) {
		t.Error("fresh record must be editable and deletable")
	}

	dayOld := &AttendanceRecord{Date: now.Add(-30 * time.Hour), Status: "present"}
	if attendanceEditable(dayOld, now) {
		t.Error("record older than 24h must not be editable")
	}
	if !attendanceDeletable(dayOld, now) {
		t.Error("record older than 24h but younger than 7d must be deletable")
	}

	weekOld := &AttendanceRecord{Date: now.AddDate(0, 0, -8), Status: "present"}
	if attendanceDeletable(weekOld, now) {
		t.Error("record older than 7d must not be deletable")
	}

	finalized := &AttendanceRecord{Date: now, Status: AttendanceFinalized}
	if attendanceDeletable(finalized, now) {
		t.Error("finalized record must not be deletable")
	}
	if !attendanceEditable(finalized, now) {
		t.Error("finalization blocks deletion, not same-day edits")
	}
}

func TestMarkWindow(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		hour int
		open bool
	}{
		{6, false},
		{7, true},
		{12, true},
		{17, true},
		{18, false},
		{23, false},
	}
	for _, tc := range cases {
		if got := markWindowOpen(day.Add(time.Duration(tc.hour) * time.Hour)); got != tc.open {
			t.Errorf("markWindowOpen at %02d:00 = %v, want %v", tc.hour, got, tc.open)
		}
	}
}

func TestGradeLifecycle(t *testing.T) {
	if !gradeEditable(&GradeRecord{Status: GradeDraft}) {
		t.Error("draft grade must be editable")
	}
	if !gradeEditable(&GradeRecord{Status: GradePending}) {
		t.Error("pending grade must be editable")
	}
	if gradeEditable(&GradeRecord{Status: "finalized"}) {
		t.Error("finalized grade must not be editable")
	}

	if !gradeDeletable(&GradeRecord{Status: GradeDraft}) {
		t.Error("unreported draft must be deletable")
	}
	if gradeDeletable(&GradeRecord{Status: GradeDraft, Reported: true}) {
		t.Error("reported draft must not be deletable")
	}
	if gradeDeletable(&GradeRecord{Status: GradePending}) {
		t.Error("only drafts are deletable")
	}
	if gradeEditable(nil) || gradeDeletable(nil) {
		t.Error("nil record must fail every predicate")
	}
}
