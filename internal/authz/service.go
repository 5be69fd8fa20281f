package authz

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// filterConcurrency bounds parallel per-item lookups during filtering.
const filterConcurrency = 8

// Service is the access decision engine. It is stateless apart from the
// injected collaborators and safe for concurrent use.
type Service struct {
	dir Directory
	now func() time.Time
}

// NewService constructs the decision engine.
func NewService(dir Directory) *Service {
	return &Service{dir: dir, now: time.Now}
}

// WithNow overrides the engine clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// classAndStudentAccess resolves the two independent teacher
// relationship facts concurrently. An empty id yields false for that
// side without issuing a lookup.
func (s *Service) classAndStudentAccess(ctx context.Context, teacherID, classID, studentID string) (classOK, studentOK bool, err error) {
	g, ctx := errgroup.WithContext(ctx)
	if classID != "" {
		g.Go(func() error {
			ok, err := s.dir.TeacherHasClass(ctx, teacherID, classID)
			classOK = ok
			return err
		})
	}
	if studentID != "" {
		g.Go(func() error {
			ok, err := s.dir.TeacherHasStudent(ctx, teacherID, studentID)
			studentOK = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, false, err
	}
	return classOK, studentOK, nil
}

// studentAndAssignmentAccess resolves teacher visibility of a student
// together with ownership of an assignment. An empty assignment id is
// treated as accessible, matching the view path where the grade row may
// not reference an assignment.
func (s *Service) studentAndAssignmentAccess(ctx context.Context, teacherID, studentID, assignmentID string) (studentOK, assignmentOK bool, err error) {
	assignmentOK = true
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, err := s.dir.TeacherHasStudent(ctx, teacherID, studentID)
		studentOK = ok
		return err
	})
	if assignmentID != "" {
		g.Go(func() error {
			ok, err := s.dir.TeacherOwnsAssignment(ctx, teacherID, assignmentID)
			assignmentOK = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, false, err
	}
	return studentOK, assignmentOK, nil
}

// filterIDs re-evaluates visibility per id with bounded concurrency and
// returns the visible subset in the original order.
func filterIDs(ctx context.Context, ids []string, visible func(ctx context.Context, id string) (bool, error)) ([]string, error) {
	keep := make([]bool, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(filterConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			ok, err := visible(ctx, id)
			if err != nil {
				return err
			}
			keep[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		if keep[i] {
			out = append(out, id)
		}
	}
	return out, nil
}
