package authz

import (
	"context"
	"fmt"

	"github.com/meridian-sis/meridian/internal/policy"
)

// CanViewGrade decides view access to a grade, addressed by grade id or
// by student id.
func (s *Service) CanViewGrade(ctx context.Context, pol policy.Policy, actor Actor, gradeID, studentID string) (Decision, error) {
	if pol.ViewAll {
		return allow("Admin has full view access"), nil
	}
	if gradeID == "" && studentID == "" {
		return deny("Grade ID or Student ID is required"), nil
	}

	var grade *GradeRecord
	if gradeID != "" {
		var err error
		grade, err = s.dir.Grade(ctx, gradeID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: fetch grade %s: %w", gradeID, err)
		}
		if grade == nil {
			return deny("Grade not found"), nil
		}
	}
	targetStudentID := studentID
	if targetStudentID == "" && grade != nil {
		targetStudentID = grade.StudentID
	}

	if actor.Role == policy.RoleTeacher && pol.ViewStudent {
		assignmentID := ""
		if grade != nil {
			assignmentID = grade.AssignmentID
		}
		studentOK, assignmentOK, err := s.studentAndAssignmentAccess(ctx, actor.UserID, targetStudentID, assignmentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher grade lookup: %w", err)
		}
		switch {
		case !studentOK:
			return deny("Student not assigned to this teacher"), nil
		case !assignmentOK:
			return deny("No access to assignment"), nil
		default:
			return allow("Teacher can view student grades"), nil
		}
	}

	if actor.Role == policy.RoleStudent && pol.ViewOwn {
		if targetStudentID == actor.UserID {
			return allow("Student viewing own grades"), nil
		}
		return deny("Cannot view other student grades"), nil
	}

	if actor.Role == policy.RoleParent && pol.ViewChild {
		isChild, err := s.dir.ParentHasChild(ctx, actor.UserID, targetStudentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: parent-child lookup: %w", err)
		}
		if isChild {
			return allow("Parent viewing child grades"), nil
		}
		return deny("Not authorized to view this student grades"), nil
	}

	return deny("Grade view access denied"), nil
}

// CanEditGrade decides edit access. Grades lock once past draft or
// pending status.
func (s *Service) CanEditGrade(ctx context.Context, pol policy.Policy, actor Actor, gradeID, studentID, assignmentID string) (Decision, error) {
	if pol.EditAll {
		return allow("Admin has full edit access"), nil
	}

	var grade *GradeRecord
	if gradeID != "" {
		var err error
		grade, err = s.dir.Grade(ctx, gradeID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: fetch grade %s: %w", gradeID, err)
		}
		if grade == nil {
			return deny("Grade not found"), nil
		}
	}
	targetStudentID := studentID
	targetAssignmentID := assignmentID
	if grade != nil {
		if targetStudentID == "" {
			targetStudentID = grade.StudentID
		}
		if targetAssignmentID == "" {
			targetAssignmentID = grade.AssignmentID
		}
	}
	if targetStudentID == "" || targetAssignmentID == "" {
		return deny("Student ID and Assignment ID are required for grade editing"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.EditOwn {
		studentOK, assignmentOK, err := s.studentAndAssignmentAccess(ctx, actor.UserID, targetStudentID, targetAssignmentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher grade lookup: %w", err)
		}
		switch {
		case !studentOK:
			return deny("Student not assigned to this teacher"), nil
		case !assignmentOK:
			return deny("No access to assignment"), nil
		case !gradeEditable(grade):
			return deny("Grade is locked or finalized"), nil
		default:
			return allow("Teacher can edit student grade"), nil
		}
	}

	return deny("Grade edit access denied"), nil
}

// CanCreateGrade decides whether the actor may grade a (student,
// assignment) pair. A second grade for the same pair is never allowed.
func (s *Service) CanCreateGrade(ctx context.Context, pol policy.Policy, actor Actor, studentID, assignmentID string) (Decision, error) {
	if pol.CreateAll {
		return allow("Admin can create grades"), nil
	}
	if studentID == "" || assignmentID == "" {
		return deny("Student ID and Assignment ID are required for grade creation"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.CreateOwn {
		studentOK, assignmentOK, err := s.studentAndAssignmentAccess(ctx, actor.UserID, studentID, assignmentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher grade lookup: %w", err)
		}
		switch {
		case !studentOK:
			return deny("Student not assigned to this teacher"), nil
		case !assignmentOK:
			return deny("No access to assignment"), nil
		}
		exists, err := s.dir.GradeExists(ctx, assignmentID, studentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: existing grade lookup: %w", err)
		}
		if exists {
			return deny("Grade already exists or assignment not ready"), nil
		}
		return allow("Teacher can create grade"), nil
	}

	return deny("Grade creation access denied"), nil
}

// CanDeleteGrade decides delete access. Only unreported draft grades
// may be removed.
func (s *Service) CanDeleteGrade(ctx context.Context, pol policy.Policy, actor Actor, gradeID string) (Decision, error) {
	if pol.DeleteAll {
		return allow("Admin has delete access"), nil
	}
	if gradeID == "" {
		return deny("Grade ID is required"), nil
	}
	grade, err := s.dir.Grade(ctx, gradeID)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: fetch grade %s: %w", gradeID, err)
	}
	if grade == nil {
		return deny("Grade not found"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.DeleteOwn {
		studentOK, assignmentOK, err := s.studentAndAssignmentAccess(ctx, actor.UserID, grade.StudentID, grade.AssignmentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher grade lookup: %w", err)
		}
		switch {
		case !studentOK:
			return deny("Student not assigned to this teacher"), nil
		case !assignmentOK:
			return deny("No access to assignment"), nil
		case !gradeDeletable(grade):
			return deny("Grade cannot be deleted (finalized/reported)"), nil
		default:
			return allow("Teacher can delete grade"), nil
		}
	}

	return deny("Grade delete access denied"), nil
}

// FilterGrades returns the subset of ids the actor may view, in the
// original order.
func (s *Service) FilterGrades(ctx context.Context, pol policy.Policy, actor Actor, gradeIDs []string) (Decision, error) {
	if pol.ViewAll {
		return filtered(gradeIDs, "Admin can view all grades"), nil
	}

	ids, err := filterIDs(ctx, gradeIDs, func(ctx context.Context, id string) (bool, error) {
		grade, err := s.dir.Grade(ctx, id)
		if err != nil || grade == nil {
			return false, err
		}
		switch actor.Role {
		case policy.RoleTeacher:
			studentOK, assignmentOK, err := s.studentAndAssignmentAccess(ctx, actor.UserID, grade.StudentID, grade.AssignmentID)
			return studentOK && assignmentOK, err
		case policy.RoleStudent:
			return grade.StudentID == actor.UserID, nil
		case policy.RoleParent:
			return s.dir.ParentHasChild(ctx, actor.UserID, grade.StudentID)
		default:
			return false, nil
		}
	})
	if err != nil {
		return Decision{}, fmt.Errorf("authz: filter grades: %w", err)
	}
	return filtered(ids, fmt.Sprintf("Filtered to %d accessible grades", len(ids))), nil
}

// StudentGrades decides whether the actor may list one student's
// grades.
func (s *Service) StudentGrades(ctx context.Context, pol policy.Policy, actor Actor, studentID string) (Decision, error) {
	if studentID == "" {
		return deny("Student ID is required"), nil
	}
	if pol.ViewAll {
		return allow("Admin can view all student grades"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.ViewStudent {
		studentOK, err := s.dir.TeacherHasStudent(ctx, actor.UserID, studentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher-student lookup: %w", err)
		}
		if studentOK {
			return allow("Teacher can view student grades"), nil
		}
		return deny("Student not assigned to this teacher"), nil
	}

	if actor.Role == policy.RoleStudent && pol.ViewOwn {
		if studentID == actor.UserID {
			return allow("Student viewing own grades"), nil
		}
		return deny("Cannot view other student grades"), nil
	}

	if actor.Role == policy.RoleParent && pol.ViewChild {
		isChild, err := s.dir.ParentHasChild(ctx, actor.UserID, studentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: parent-child lookup: %w", err)
		}
		if isChild {
			return allow("Parent viewing child grades"), nil
		}
		return deny("Not authorized to view this student grades"), nil
	}

	return deny("Student grades access denied"), nil
}

// ClassGrades decides whether the actor may list a class's grades.
func (s *Service) ClassGrades(ctx context.Context, pol policy.Policy, actor Actor, classID string) (Decision, error) {
	if classID == "" {
		return deny("Class ID is required"), nil
	}
	if pol.ViewAll {
		return allow("Admin can view all class grades"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.ViewClass {
		classOK, err := s.dir.TeacherHasClass(ctx, actor.UserID, classID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher-class lookup: %w", err)
		}
		if classOK {
			return allow("Teacher can view class grades"), nil
		}
		return deny("No access to this class"), nil
	}

	return deny("Class grades access denied"), nil
}

// CanExportGrades decides export access for a class or a student.
func (s *Service) CanExportGrades(ctx context.Context, pol policy.Policy, actor Actor, classID, studentID string) (Decision, error) {
	if pol.ExportAll {
		return allow("Admin can export all grades"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.ExportOwn {
		if classID != "" {
			classOK, err := s.dir.TeacherHasClass(ctx, actor.UserID, classID)
			if err != nil {
				return Decision{}, fmt.Errorf("authz: teacher-class lookup: %w", err)
			}
			if classOK {
				return allow("Teacher can export class grades"), nil
			}
			return deny("No access to this class"), nil
		}
		if studentID != "" {
			studentOK, err := s.dir.TeacherHasStudent(ctx, actor.UserID, studentID)
			if err != nil {
				return Decision{}, fmt.Errorf("authz: teacher-student lookup: %w", err)
			}
			if studentOK {
				return allow("Teacher can export student grades"), nil
			}
			return deny("Student not assigned to this teacher"), nil
		}
	}

	return deny("Grade export access denied"), nil
}
