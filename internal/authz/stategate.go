package authz

import "time"

// Lifecycle predicates over fetched records. These are business rules,
// evaluated against the injected service clock so tests stay
// deterministic.

func assignmentEditable(a *AssignmentRecord) bool {
	return a != nil && (a.Status == AssignmentAssigned || a.Status == AssignmentInProgress)
}

func assignmentDeletable(a *AssignmentRecord) bool {
	return a != nil && (a.Status == AssignmentAssigned || a.Status == AssignmentInProgress)
}

func assignmentSubmitted(a *AssignmentRecord) bool {
	return a != nil && (a.Status == AssignmentSubmitted || a.Status == AssignmentGraded)
}

// attendanceEditable allows corrections for up to 24 hours after the
// attendance date.
func attendanceEditable(a *AttendanceRecord, now time.Time) bool {
	if a == nil {
		return false
	}
	return now.Sub(a.Date) <= 24*time.Hour
}

// attendanceDeletable allows removal for up to 7 days, and never once
// the record is finalized.
func attendanceDeletable(a *AttendanceRecord, now time.Time) bool {
	if a == nil || a.Status == AttendanceFinalized {
		return false
	}
	return now.Sub(a.Date) <= 7*24*time.Hour
}

// markWindowOpen reports whether attendance may be recorded right now.
// Marking is only valid for the current school day, between 07:00 and
// 18:00 local time.
func markWindowOpen(now time.Time) bool {
	h := now.Hour()
	return h >= 7 && h < 18
}

func gradeEditable(g *GradeRecord) bool {
	return g != nil && (g.Status == GradeDraft || g.Status == GradePending)
}

func gradeDeletable(g *GradeRecord) bool {
	return g != nil && g.Status == GradeDraft && !g.Reported
}
