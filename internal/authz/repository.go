package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Repository answers directory lookups from PostgreSQL. The once-per-day
// bulk-mark marker lives in Redis because it is transient operational
// state, not part of the academic record.
type Repository struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, redisClient *redis.Client) *Repository {
	return &Repository{pool: pool, redis: redisClient}
}

var _ Directory = (*Repository)(nil)

// Assignment fetches one assignment row, or nil when absent.
func (r *Repository) Assignment(ctx context.Context, id string) (*AssignmentRecord, error) {
	const query = `
		SELECT id, teacher_id, student_id, status
		FROM assignments
		WHERE id = $1`

	var rec AssignmentRecord
	err := r.pool.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.TeacherID, &rec.StudentID, &rec.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Attendance fetches one attendance row, or nil when absent.
func (r *Repository) Attendance(ctx context.Context, id string) (*AttendanceRecord, error) {
	const query = `
		SELECT id, student_id, class_id, teacher_id, attended_on, status
		FROM attendance_records
		WHERE id = $1`

	var rec AttendanceRecord
	err := r.pool.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.StudentID, &rec.ClassID, &rec.TeacherID, &rec.Date, &rec.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Grade fetches one grade row, or nil when absent.
func (r *Repository) Grade(ctx context.Context, id string) (*GradeRecord, error) {
	const query = `
		SELECT id, student_id, assignment_id, teacher_id, status, reported
		FROM grades
		WHERE id = $1`

	var rec GradeRecord
	err := r.pool.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.StudentID, &rec.AssignmentID, &rec.TeacherID, &rec.Status, &rec.Reported)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

// TeacherHasClass reports whether the teacher is assigned to the class.
func (r *Repository) TeacherHasClass(ctx context.Context, teacherID, classID string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM teacher_classes WHERE teacher_id = $1 AND class_id = $2)`,
		teacherID, classID)
}

// TeacherHasStudent reports whether the student is in one of the
// teacher's classes.
func (r *Repository) TeacherHasStudent(ctx context.Context, teacherID, studentID string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM teacher_students WHERE teacher_id = $1 AND student_id = $2)`,
		teacherID, studentID)
}

// TeacherOwnsAssignment reports whether the teacher created the
// assignment.
func (r *Repository) TeacherOwnsAssignment(ctx context.Context, teacherID, assignmentID string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM assignments WHERE id = $1 AND teacher_id = $2)`,
		assignmentID, teacherID)
}

// ParentHasChild reports whether the student is one of the parent's
// children.
func (r *Repository) ParentHasChild(ctx context.Context, parentID, studentID string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM parent_children WHERE parent_id = $1 AND student_id = $2)`,
		parentID, studentID)
}

// GradeExists reports whether a grade already exists for the
// (assignment, student) pair.
func (r *Repository) GradeExists(ctx context.Context, assignmentID, studentID string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM grades WHERE assignment_id = $1 AND student_id = $2)`,
		assignmentID, studentID)
}

func bulkMarkKey(classID string, day time.Time) string {
	return fmt.Sprintf("attendance:bulkmark:%s:%s", classID, day.Format("2006-01-02"))
}

// BulkMarkRecorded reports whether bulk attendance was already recorded
// for the class on the given day.
func (r *Repository) BulkMarkRecorded(ctx context.Context, classID string, day time.Time) (bool, error) {
	if r.redis == nil {
		return false, nil
	}
	n, err := r.redis.Exists(ctx, bulkMarkKey(classID, day)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordBulkMark marks the class as bulk-marked for the day. The marker
// expires after 48 hours; the gate only ever asks about today.
func (r *Repository) RecordBulkMark(ctx context.Context, classID string, day time.Time) error {
	if r.redis == nil {
		return nil
	}
	return r.redis.Set(ctx, bulkMarkKey(classID, day), "1", 48*time.Hour).Err()
}
