package authz

import (
	"context"
	"fmt"

	"github.com/meridian-sis/meridian/internal/policy"
)

// CanViewStudent decides view access to student records. When a teacher
// supplies a list of ids the decision carries the visible subset
// instead of a single yes/no.
func (s *Service) CanViewStudent(ctx context.Context, pol policy.Policy, actor Actor, studentID string, studentIDs []string) (Decision, error) {
	if pol.ViewAll {
		return allow("Admin has full access"), nil
	}

	if actor.Role == policy.RoleStudent {
		if studentID != "" && studentID != actor.UserID {
			return deny("Students can only view their own records"), nil
		}
		return allow("Student viewing own record"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.ViewStudent {
		if studentID != "" {
			assigned, err := s.dir.TeacherHasStudent(ctx, actor.UserID, studentID)
			if err != nil {
				return Decision{}, fmt.Errorf("authz: teacher-student lookup: %w", err)
			}
			if assigned {
				return allow("Teacher viewing assigned student"), nil
			}
			return deny("Student not assigned to this teacher"), nil
		}
		if len(studentIDs) > 0 {
			ids, err := filterIDs(ctx, studentIDs, func(ctx context.Context, id string) (bool, error) {
				return s.dir.TeacherHasStudent(ctx, actor.UserID, id)
			})
			if err != nil {
				return Decision{}, fmt.Errorf("authz: filter assigned students: %w", err)
			}
			d := filtered(ids, fmt.Sprintf("Teacher can view %d of %d requested students", len(ids), len(studentIDs)))
			d.Allowed = true
			return d, nil
		}
	}

	return deny("Access denied by policy"), nil
}

// CanEditStudent decides edit access to a student record.
func (s *Service) CanEditStudent(ctx context.Context, pol policy.Policy, actor Actor, studentID string) (Decision, error) {
	if pol.EditAll {
		return allow("Admin has full edit access"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.EditOwn {
		if studentID == "" {
			return deny("Student ID required for edit access check"), nil
		}
		assigned, err := s.dir.TeacherHasStudent(ctx, actor.UserID, studentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher-student lookup: %w", err)
		}
		if assigned {
			return allow("Teacher can edit assigned student"), nil
		}
		return deny("Cannot edit unassigned student"), nil
	}

	return deny("Edit access denied"), nil
}

// CanDeleteStudent decides delete access. Student records are only ever
// removed by administrators.
func (s *Service) CanDeleteStudent(ctx context.Context, pol policy.Policy, actor Actor, studentID string) (Decision, error) {
	if pol.DeleteAll {
		return allow("Admin has delete access"), nil
	}
	return deny("Delete access restricted to administrators"), nil
}

// CanCreateStudent decides create access.
func (s *Service) CanCreateStudent(ctx context.Context, pol policy.Policy, actor Actor) (Decision, error) {
	if pol.CreateAll {
		if actor.Role == policy.RoleAdmin {
			return allow("Admin can create students"), nil
		}
		return allow("Teacher can create students"), nil
	}
	return deny("Create access denied"), nil
}

// FilterStudents returns the subset of ids the actor may view, in the
// original order.
func (s *Service) FilterStudents(ctx context.Context, pol policy.Policy, actor Actor, studentIDs []string) (Decision, error) {
	if pol.ViewAll {
		return filtered(studentIDs, "Admin can view all students"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.ViewStudent {
		ids, err := filterIDs(ctx, studentIDs, func(ctx context.Context, id string) (bool, error) {
			return s.dir.TeacherHasStudent(ctx, actor.UserID, id)
		})
		if err != nil {
			return Decision{}, fmt.Errorf("authz: filter assigned students: %w", err)
		}
		return filtered(ids, fmt.Sprintf("Filtered to %d assigned students", len(ids))), nil
	}

	if actor.Role == policy.RoleStudent {
		ids := make([]string, 0, 1)
		for _, id := range studentIDs {
			if id == actor.UserID {
				ids = append(ids, id)
			}
		}
		return filtered(ids, "Student can only view own record"), nil
	}

	return filtered(nil, "No access to requested students"), nil
}
