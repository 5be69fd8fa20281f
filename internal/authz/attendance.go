package authz

import (
	"context"
	"fmt"

	"github.com/meridian-sis/meridian/internal/policy"
)

// CanViewAttendance decides view access to an attendance record. The
// record may be addressed directly by id or indirectly by student or
// class; caller-supplied ids win over values on the fetched record.
func (s *Service) CanViewAttendance(ctx context.Context, pol policy.Policy, actor Actor, attendanceID, studentID, classID string) (Decision, error) {
	if pol.ViewAll {
		return allow("Admin has full view access"), nil
	}

	var rec *AttendanceRecord
	if attendanceID != "" {
		var err error
		rec, err = s.dir.Attendance(ctx, attendanceID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: fetch attendance %s: %w", attendanceID, err)
		}
		if rec == nil {
			return deny("Attendance record not found"), nil
		}
	}
	targetStudentID := studentID
	targetClassID := classID
	if rec != nil {
		if targetStudentID == "" {
			targetStudentID = rec.StudentID
		}
		if targetClassID == "" {
			targetClassID = rec.ClassID
		}
	}

	if actor.Role == policy.RoleTeacher && pol.ViewClass {
		classOK, studentOK, err := s.classAndStudentAccess(ctx, actor.UserID, targetClassID, targetStudentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher attendance lookup: %w", err)
		}
		switch {
		case classOK:
			return allow("Teacher can view class attendance"), nil
		case studentOK:
			return allow("Teacher can view student attendance"), nil
		default:
			return deny("No access to attendance records"), nil
		}
	}

	if actor.Role == policy.RoleStudent && pol.ViewOwn {
		if targetStudentID == actor.UserID {
			return allow("Student viewing own attendance"), nil
		}
		return deny("Cannot view other student attendance"), nil
	}

	if actor.Role == policy.RoleParent && pol.ViewChild {
		if targetStudentID == "" {
			return deny("Student ID required for parent access"), nil
		}
		isChild, err := s.dir.ParentHasChild(ctx, actor.UserID, targetStudentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: parent-child lookup: %w", err)
		}
		if isChild {
			return allow("Parent viewing child attendance"), nil
		}
		return deny("Not authorized to view this student attendance"), nil
	}

	return deny("Attendance view access denied"), nil
}

// CanMarkAttendance decides whether the actor may record attendance for
// a student in a class today.
func (s *Service) CanMarkAttendance(ctx context.Context, pol policy.Policy, actor Actor, studentID, classID string) (Decision, error) {
	if pol.CreateAll {
		return allow("Admin can mark attendance for all"), nil
	}
	if studentID == "" || classID == "" {
		return deny("Student ID and Class ID are required for marking attendance"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.MarkAttendance {
		classOK, studentOK, err := s.classAndStudentAccess(ctx, actor.UserID, classID, studentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher attendance lookup: %w", err)
		}
		switch {
		case !classOK:
			return deny("No access to this class"), nil
		case !studentOK:
			return deny("Student not in teacher class"), nil
		case !markWindowOpen(s.now()):
			return deny("Attendance already marked or outside marking window"), nil
		default:
			return allow("Teacher can mark attendance"), nil
		}
	}

	return deny("Attendance marking access denied"), nil
}

// CanEditAttendance decides edit access. Records lock 24 hours after
// the attendance date.
func (s *Service) CanEditAttendance(ctx context.Context, pol policy.Policy, actor Actor, attendanceID, studentID, classID string) (Decision, error) {
	if pol.EditAll {
		return allow("Admin has full edit access"), nil
	}

	var rec *AttendanceRecord
	if attendanceID != "" {
		var err error
		rec, err = s.dir.Attendance(ctx, attendanceID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: fetch attendance %s: %w", attendanceID, err)
		}
		if rec == nil {
			return deny("Attendance record not found"), nil
		}
	}
	targetStudentID := studentID
	targetClassID := classID
	if rec != nil {
		if targetStudentID == "" {
			targetStudentID = rec.StudentID
		}
		if targetClassID == "" {
			targetClassID = rec.ClassID
		}
	}
	if targetStudentID == "" || targetClassID == "" {
		return deny("Student ID and Class ID are required for editing attendance"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.EditOwn {
		classOK, studentOK, err := s.classAndStudentAccess(ctx, actor.UserID, targetClassID, targetStudentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher attendance lookup: %w", err)
		}
		editable := rec == nil || attendanceEditable(rec, s.now())
		switch {
		case !classOK:
			return deny("No access to this class"), nil
		case !studentOK:
			return deny("Student not in teacher class"), nil
		case !editable:
			return deny("Attendance record is locked (too old or finalized)"), nil
		default:
			return allow("Teacher can edit attendance"), nil
		}
	}

	return deny("Attendance edit access denied"), nil
}

// CanDeleteAttendance decides delete access. Records are deletable for
// seven days and never once finalized.
func (s *Service) CanDeleteAttendance(ctx context.Context, pol policy.Policy, actor Actor, attendanceID string) (Decision, error) {
	if pol.DeleteAll {
		return allow("Admin has delete access"), nil
	}
	if attendanceID == "" {
		return deny("Attendance ID is required"), nil
	}
	rec, err := s.dir.Attendance(ctx, attendanceID)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: fetch attendance %s: %w", attendanceID, err)
	}
	if rec == nil {
		return deny("Attendance record not found"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.DeleteOwn {
		classOK, studentOK, err := s.classAndStudentAccess(ctx, actor.UserID, rec.ClassID, rec.StudentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher attendance lookup: %w", err)
		}
		switch {
		case !classOK:
			return deny("No access to this class"), nil
		case !studentOK:
			return deny("Student not in teacher class"), nil
		case !attendanceDeletable(rec, s.now()):
			return deny("Attendance record cannot be deleted (finalized or too old)"), nil
		default:
			return allow("Teacher can delete attendance"), nil
		}
	}

	return deny("Attendance delete access denied"), nil
}

// FilterAttendance returns the subset of ids the actor may view, in the
// original order.
func (s *Service) FilterAttendance(ctx context.Context, pol policy.Policy, actor Actor, attendanceIDs []string) (Decision, error) {
	if pol.ViewAll {
		return filtered(attendanceIDs, "Admin can view all attendance records"), nil
	}

	ids, err := filterIDs(ctx, attendanceIDs, func(ctx context.Context, id string) (bool, error) {
		rec, err := s.dir.Attendance(ctx, id)
		if err != nil || rec == nil {
			return false, err
		}
		switch actor.Role {
		case policy.RoleTeacher:
			classOK, studentOK, err := s.classAndStudentAccess(ctx, actor.UserID, rec.ClassID, rec.StudentID)
			return classOK || studentOK, err
		case policy.RoleStudent:
			return rec.StudentID == actor.UserID, nil
		case policy.RoleParent:
			return s.dir.ParentHasChild(ctx, actor.UserID, rec.StudentID)
		default:
			return false, nil
		}
	})
	if err != nil {
		return Decision{}, fmt.Errorf("authz: filter attendance: %w", err)
	}
	return filtered(ids, fmt.Sprintf("Filtered to %d accessible attendance records", len(ids))), nil
}

// StudentAttendance decides whether the actor may list one student's
// attendance history.
func (s *Service) StudentAttendance(ctx context.Context, pol policy.Policy, actor Actor, studentID string) (Decision, error) {
	if studentID == "" {
		return deny("Student ID is required"), nil
	}
	if pol.ViewAll {
		return allow("Admin can view all student attendance"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.ViewStudent {
		studentOK, err := s.dir.TeacherHasStudent(ctx, actor.UserID, studentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher-student lookup: %w", err)
		}
		if studentOK {
			return allow("Teacher can view student attendance"), nil
		}
		return deny("Student not in teacher classes"), nil
	}

	if actor.Role == policy.RoleStudent && pol.ViewHistory {
		if studentID == actor.UserID {
			return allow("Student viewing own attendance history"), nil
		}
		return deny("Cannot view other student attendance"), nil
	}

	if actor.Role == policy.RoleParent && pol.ViewHistory {
		isChild, err := s.dir.ParentHasChild(ctx, actor.UserID, studentID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: parent-child lookup: %w", err)
		}
		if isChild {
			return allow("Parent viewing child attendance history"), nil
		}
		return deny("Not authorized to view this student attendance"), nil
	}

	return deny("Student attendance access denied"), nil
}

// ClassAttendance decides whether the actor may list a class's
// attendance.
func (s *Service) ClassAttendance(ctx context.Context, pol policy.Policy, actor Actor, classID string) (Decision, error) {
	if classID == "" {
		return deny("Class ID is required"), nil
	}
	if pol.ViewAll {
		return allow("Admin can view all class attendance"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.ViewClass {
		classOK, err := s.dir.TeacherHasClass(ctx, actor.UserID, classID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher-class lookup: %w", err)
		}
		if classOK {
			return allow("Teacher can view class attendance"), nil
		}
		return deny("No access to this class"), nil
	}

	return deny("Class attendance access denied"), nil
}

// CanBulkMarkAttendance decides whether the actor may bulk-mark a
// class's attendance for today. Bulk marking is valid at most once per
// class per day.
func (s *Service) CanBulkMarkAttendance(ctx context.Context, pol policy.Policy, actor Actor, classID string) (Decision, error) {
	if pol.BulkAll {
		return allow("Admin can bulk mark attendance"), nil
	}
	if classID == "" {
		return deny("Class ID is required for bulk attendance marking"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.BulkOwn {
		classOK, err := s.dir.TeacherHasClass(ctx, actor.UserID, classID)
		if err != nil {
			return Decision{}, fmt.Errorf("authz: teacher-class lookup: %w", err)
		}
		if !classOK {
			return deny("No access to this class"), nil
		}
		already, err := s.dir.BulkMarkRecorded(ctx, classID, s.now())
		if err != nil {
			return Decision{}, fmt.Errorf("authz: bulk mark lookup: %w", err)
		}
		if already || !markWindowOpen(s.now()) {
			return deny("Bulk attendance already marked or outside marking window"), nil
		}
		return allow("Teacher can bulk mark attendance"), nil
	}

	return deny("Bulk attendance marking access denied"), nil
}

// CanExportAttendance decides export access for a class or a student.
func (s *Service) CanExportAttendance(ctx context.Context, pol policy.Policy, actor Actor, classID, studentID string) (Decision, error) {
	if pol.ExportAll {
		return allow("Admin can export all attendance"), nil
	}

	if actor.Role == policy.RoleTeacher && pol.ExportOwn {
		if classID != "" {
			classOK, err := s.dir.TeacherHasClass(ctx, actor.UserID, classID)
			if err != nil {
				return Decision{}, fmt.Errorf("authz: teacher-class lookup: %w", err)
			}
			if classOK {
				return allow("Teacher can export class attendance"), nil
			}
			return deny("No access to this class"), nil
		}
		if studentID != "" {
			studentOK, err := s.dir.TeacherHasStudent(ctx, actor.UserID, studentID)
			if err != nil {
				return Decision{}, fmt.Errorf("authz: teacher-student lookup: %w", err)
			}
			if studentOK {
				return allow("Teacher can export student attendance"), nil
			}
			return deny("Student not in teacher classes"), nil
		}
	}

	return deny("Attendance export access denied"), nil
}
