package authz

import (
	"context"
	"fmt"

	"github.com/meridian-sis/meridian/internal/policy"
)

// CanViewAssignment decides whether the actor may view one assignment.
func (s *Service) CanViewAssignment(ctx context.Context, pol policy.Policy, actor Actor, assignmentID string) (Decision, error) {
	if pol.ViewAll {
		return allow("Admin has full view access"), nil
	}
	if assignmentID == "" {
		return deny("Assignment ID is required"), nil
	}
	a, err := s.dir.Assignment(ctx, assignmentID)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: fetch assignment %s: %w", assignmentID, err)
	}
	if a == nil {
		return deny("Assignment not found"), nil
	}

	if actor.Role == policy.RoleTeacher {
		owns := a.TeacherID == actor.UserID
		studentOK, err := s.dir.TeacherHasStudent(ctx, actor.UserID, a.StudentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher-student lookup: %w", err)
		}
		switch {
		case owns:
			return allow("Teacher viewing own assignment"), nil
		case studentOK:
			return allow("Teacher viewing student assignment"), nil
		default:
			return deny("No access to this assignment"), nil
		}
	}

	if actor.Role == policy.RoleStudent && pol.ViewOwn {
		if a.StudentID == actor.UserID {
			return allow("Student viewing own assignment"), nil
		}
		return deny("Assignment not assigned to this student"), nil
	}

	return deny("Access denied by policy"), nil
}

// CanEditAssignment decides edit access. Assignments lock once
// submitted or graded.
func (s *Service) CanEditAssignment(ctx context.Context, pol policy.Policy, actor Actor, assignmentID string) (Decision, error) {
	if pol.EditAll {
		return allow("Admin has full edit access"), nil
	}
	if assignmentID == "" {
		return deny("Assignment ID is required"), nil
	}
	a, err := s.dir.Assignment(ctx, assignmentID)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: fetch assignment %s: %w", assignmentID, err)
	}
	if a == nil {
		return deny("Assignment not found"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.EditOwn {
		switch {
		case a.TeacherID != actor.UserID:
			return deny("Not teacher's assignment"), nil
		case !assignmentEditable(a):
			return deny("Assignment cannot be edited (submitted/graded)"), nil
		default:
			return allow("Teacher can edit own assignment"), nil
		}
	}

	// Students submit assignments, they never edit them.
	return deny("Edit access denied"), nil
}

// CanGradeAssignment decides grading access for an assignment,
// optionally scoped to one student.
func (s *Service) CanGradeAssignment(ctx context.Context, pol policy.Policy, actor Actor, assignmentID, studentID string) (Decision, error) {
	if pol.GradeAll {
		return allow("Admin has full grading access"), nil
	}
	if assignmentID == "" {
		return deny("Assignment ID is required for grading"), nil
	}
	a, err := s.dir.Assignment(ctx, assignmentID)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: fetch assignment %s: %w", assignmentID, err)
	}
	if a == nil {
		return deny("Assignment not found"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.GradeOwn {
		studentOK := true
		if studentID != "" {
			studentOK, err = s.dir.TeacherHasStudent(ctx, actor.UserID, studentID)
			if err != nil {
				return Decision{}, fmt.Errorf("authz: teacher-student lookup: %w", err)
			}
		}
		switch {
		case a.TeacherID != actor.UserID:
			return deny("Not teacher's assignment"), nil
		case !studentOK:
			return deny("No access to this student"), nil
		case !assignmentSubmitted(a):
			return deny("Assignment not yet submitted"), nil
		default:
			return allow("Teacher can grade assignment"), nil
		}
	}

	return deny("Grading access denied"), nil
}

// CanCreateAssignment decides whether the actor may create assignments,
// optionally for a specific class.
func (s *Service) CanCreateAssignment(ctx context.Context, pol policy.Policy, actor Actor, classID string) (Decision, error) {
	if pol.CreateAll {
		if actor.Role == policy.RoleAdmin {
			return allow("Admin can create assignments"), nil
		}
		return allow("Teacher can create assignments"), nil
	}

	if actor.Role == policy.RoleTeacher && classID != "" {
		classOK, err := s.dir.TeacherHasClass(ctx, actor.UserID, classID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher-class lookup: %w", err)
		}
		if classOK {
			return allow("Teacher can create assignments for their class"), nil
		}
		return deny("No access to specified class"), nil
	}

	return deny("Create assignment access denied"), nil
}

// CanDeleteAssignment decides delete access. Assignments with
// submissions or grades cannot be removed.
func (s *Service) CanDeleteAssignment(ctx context.Context, pol policy.Policy, actor Actor, assignmentID string) (Decision, error) {
	if pol.DeleteAll {
		return allow("Admin has delete access"), nil
	}
	if assignmentID == "" {
		return deny("Assignment ID is required"), nil
	}
	a, err := s.dir.Assignment(ctx, assignmentID)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: fetch assignment %s: %w", assignmentID, err)
	}
	if a == nil {
		return deny("Assignment not found"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.DeleteOwn {
		switch {
		case a.TeacherID != actor.UserID:
			return deny("Not teacher's assignment"), nil
		case !assignmentDeletable(a):
			return deny("Assignment cannot be deleted (has submissions/grades)"), nil
		default:
			return allow("Teacher can delete own assignment"), nil
		}
	}

	return deny("Delete access denied"), nil
}

// FilterAssignments returns the subset of ids the actor may view, in
// the original order.
func (s *Service) FilterAssignments(ctx context.Context, pol policy.Policy, actor Actor, assignmentIDs []string) (Decision, error) {
	if pol.ViewAll {
		return filtered(assignmentIDs, "Admin can view all assignments"), nil
	}

	ids, err := filterIDs(ctx, assignmentIDs, func(ctx context.Context, id string) (bool, error) {
		a, err := s.dir.Assignment(ctx, id)
		if err != nil || a == nil {
			return false, err
		}
		switch actor.Role {
		case policy.RoleTeacher:
			if a.TeacherID == actor.UserID {
				return true, nil
			}
			return s.dir.TeacherHasStudent(ctx, actor.UserID, a.StudentID)
		case policy.RoleStudent:
			return a.StudentID == actor.UserID, nil
		default:
			return false, nil
		}
	})
	if err != nil {
		return Decision{}, fmt.Errorf("authz: filter assignments: %w", err)
	}
	return filtered(ids, fmt.Sprintf("Filtered to %d accessible assignments", len(ids))), nil
}

// AssignmentsByStudent decides whether the actor may list one student's
// assignments.
func (s *Service) AssignmentsByStudent(ctx context.Context, pol policy.Policy, actor Actor, studentID string) (Decision, error) {
	if studentID == "" {
		return deny("Student ID is required"), nil
	}
	if pol.ViewAll {
		return allow("Admin can view all student assignments"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.ViewStudent {
		studentOK, err := s.dir.TeacherHasStudent(ctx, actor.UserID, studentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher-student lookup: %w", err)
		}
		if studentOK {
			return allow("Teacher can view student assignments"), nil
		}
		return deny("Student not assigned to this teacher"), nil
	}

	if actor.Role == policy.RoleStudent {
		if studentID == actor.UserID {
			return allow("Student viewing own assignments"), nil
		}
		return deny("Cannot view other student assignments"), nil
	}

	return deny("Access denied"), nil
}
