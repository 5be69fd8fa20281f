// Package authz implements the access decision engine for academic
// records. Each decision combines a static capability set resolved from
// the policy tables with relationship and lifecycle facts answered by
// the Directory collaborator.
package authz

import (
	"context"
	"time"

	"github.com/meridian-sis/meridian/internal/policy"
)

// Actor is the requesting user.
type Actor struct {
	UserID string
	Role   policy.Role
}

// Decision is the outcome of one access check. Allowed is only
// meaningful when Success is true; lookup failures are reported as an
// error alongside a zero Decision, never as a deny.
type Decision struct {
	Success     bool     `json:"success"`
	Allowed     bool     `json:"allowed"`
	Reason      string   `json:"reason,omitempty"`
	FilteredIDs []string `json:"filteredIds,omitempty"`
}

func allow(reason string) Decision {
	return Decision{Success: true, Allowed: true, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Success: true, Allowed: false, Reason: reason}
}

func filtered(ids []string, reason string) Decision {
	if ids == nil {
		ids = []string{}
	}
	return Decision{Success: true, FilteredIDs: ids, Reason: reason}
}

// Assignment status values.
const (
	AssignmentAssigned   = "assigned"
	AssignmentInProgress = "in_progress"
	AssignmentSubmitted  = "submitted"
	AssignmentGraded     = "graded"
)

// Attendance and grade status values referenced by the state gates.
const (
	AttendanceFinalized = "finalized"
	GradeDraft          = "draft"
	GradePending        = "pending"
)

// AssignmentRecord carries the ownership and lifecycle attributes of an
// assignment relevant to authorization.
type AssignmentRecord struct {
	ID        string
	TeacherID string
	StudentID string
	Status    string
}

// AttendanceRecord carries the attributes of one attendance row.
type AttendanceRecord struct {
	ID        string
	StudentID string
	ClassID   string
	TeacherID string
	Date      time.Time
	Status    string
}

// GradeRecord carries the attributes of one grade row.
type GradeRecord struct {
	ID           string
	StudentID    string
	AssignmentID string
	TeacherID    string
	Status       string
	Reported     bool
}

// Directory answers the relationship and record lookups the decision
// engine depends on. Record lookups return (nil, nil) when the record
// does not exist; only infrastructure failures produce errors.
type Directory interface {
	Assignment(ctx context.Context, id string) (*AssignmentRecord, error)
	Attendance(ctx context.Context, id string) (*AttendanceRecord, error)
	Grade(ctx context.Context, id string) (*GradeRecord, error)

	TeacherHasClass(ctx context.Context, teacherID, classID string) (bool, error)
	TeacherHasStudent(ctx context.Context, teacherID, studentID string) (bool, error)
	TeacherOwnsAssignment(ctx context.Context, teacherID, assignmentID string) (bool, error)
	ParentHasChild(ctx context.Context, parentID, studentID string) (bool, error)

	GradeExists(ctx context.Context, assignmentID, studentID string) (bool, error)
	BulkMarkRecorded(ctx context.Context, classID string, day time.Time) (bool, error)
}
