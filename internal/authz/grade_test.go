package authz

import (
	"context"
	"slices"
	"testing"

	"github.com/meridian-sis/meridian/internal/policy"
)

func gradePol(role policy.Role) policy.Policy {
	return policy.Resolve(policy.ResourceGrade, role)
}

func TestCanViewGrade(t *testing.T) {
	svc := newTestService(newFakeDirectory())
	ctx := context.Background()

	cases := []struct {
		name             string
		actor            Actor
		gradeID, student string
		allowed          bool
	}{
		{"admin any grade", admin(), "grade3", "", true},
		{"teacher own student grade", teacher1(), "grade1", "", true},
		{"teacher foreign grade", teacher1(), "grade3", "", false},
		{"student own grade", student1(), "grade1", "", true},
		{"student other grade", student1(), "grade2", "", false},
		{"parent child grade", parent1(), "grade1", "", true},
		{"parent by student id", parent1(), "", "student2", true},
		{"parent other student", parent1(), "", "student3", false},
		{"no identifiers", teacher1(), "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := svc.CanViewGrade(ctx, gradePol(tc.actor.Role), tc.actor, tc.gradeID, tc.student)
			requireDecision(t, d, err, tc.allowed)
		})
	}
}

func TestCanEditGradeStateGate(t *testing.T) {
	svc := newTestService(newFakeDirectory())
	ctx := context.Background()
	p := gradePol(policy.RoleTeacher)

	// grade2 is still a draft.
	d, err := svc.CanEditGrade(ctx, p, teacher1(), "grade2", "", "")
	requireDecision(t, d, err, true)

	// grade1 was finalized.
	d, err = svc.CanEditGrade(ctx, p, teacher1(), "grade1", "", "")
	requireDecision(t, d, err, false)
	if d.Reason != "Grade is locked or finalized" {
		t.Fatalf("reason = %q", d.Reason)
	}

	// The relationship check fails before the state gate.
	d, err = svc.CanEditGrade(ctx, p, teacher1(), "grade3", "", "")
	requireDecision(t, d, err, false)
	if d.Reason != "Student not assigned to this teacher" {
		t.Fatalf("reason = %q", d.Reason)
	}

	d, err = svc.CanEditGrade(ctx, p, teacher1(), "missing", "", "")
	requireDecision(t, d, err, false)
	if d.Reason != "Grade not found" {
		t.Fatalf("reason = %q", d.Reason)
	}

	d, err = svc.CanEditGrade(ctx, p, teacher1(), "", "student1", "")
	requireDecision(t, d, err, false)
	if d.Reason != "Student ID and Assignment ID are required for grade editing" {
		t.Fatalf("reason = %q", d.Reason)
	}
}

func TestCanCreateGrade(t *testing.T) {
	svc := newTestService(newFakeDirectory())
	ctx := context.Background()
	p := gradePol(policy.RoleTeacher)

	d, err := svc.CanCreateGrade(ctx, p, teacher1(), "student2", "assign2")
	requireDecision(t, d, err, true)

	// A grade for (assign1, student1) already exists.
	d, err = svc.CanCreateGrade(ctx, p, teacher1(), "student1", "assign1")
	requireDecision(t, d, err, false)
	if d.Reason != "Grade already exists or assignment not ready" {
		t.Fatalf("reason = %q", d.Reason)
	}

	d, err = svc.CanCreateGrade(ctx, p, teacher1(), "student3", "assign2")
	requireDecision(t, d, err, false)

	d, err = svc.CanCreateGrade(ctx, p, teacher1(), "", "assign2")
	requireDecision(t, d, err, false)

	d, err = svc.CanCreateGrade(ctx, gradePol(policy.RoleStudent), student1(), "student1", "assign1")
	requireDecision(t, d, err, false)
}

func TestCanDeleteGrade(t *testing.T) {
	svc := newTestService(newFakeDirectory())
	ctx := context.Background()
	p := gradePol(policy.RoleTeacher)

	// grade2 is an unreported draft.
	d, err := svc.CanDeleteGrade(ctx, p, teacher1(), "grade2")
	requireDecision(t, d, err, true)

	d, err = svc.CanDeleteGrade(ctx, p, teacher1(), "grade1")
	requireDecision(t, d, err, false)
	if d.Reason != "Grade cannot be deleted (finalized/reported)" {
		t.Fatalf("reason = %q", d.Reason)
	}

	d, err = svc.CanDeleteGrade(ctx, gradePol(policy.RoleAdmin), admin(), "grade3")
	requireDecision(t, d, err, true)
}

func TestFilterGrades(t *testing.T) {
	svc := newTestService(newFakeDirectory())
	ctx := context.Background()
	ids := []string{"grade1", "grade2", "grade3", "missing"}

	d, err := svc.FilterGrades(ctx, gradePol(policy.RoleAdmin), admin(), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(d.FilteredIDs, ids) {
		t.Fatalf("admin filter must echo input: %v", d.FilteredIDs)
	}

	d, err = svc.FilterGrades(ctx, gradePol(policy.RoleTeacher), teacher1(), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(d.FilteredIDs, []string{"grade1", "grade2"}) {
		t.Fatalf("teacher filter = %v", d.FilteredIDs)
	}

	d, err = svc.FilterGrades(ctx, gradePol(policy.RoleStudent), student1(), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(d.FilteredIDs, []string{"grade1"}) {
		t.Fatalf("student filter = %v", d.FilteredIDs)
	}

	d, err = svc.FilterGrades(ctx, gradePol(policy.RoleParent), parent1(), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(d.FilteredIDs, []string{"grade1", "grade2"}) {
		t.Fatalf("parent filter = %v", d.FilteredIDs)
	}
}

func TestFilterGradesFreshRelationshipLookup(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir)
	ctx := context.Background()
	p := gradePol(policy.RoleParent)

	d, err := svc.FilterGrades(ctx, p, parent1(), []string{"grade1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(d.FilteredIDs, []string{"grade1"}) {
		t.Fatalf("filter = %v", d.FilteredIDs)
	}

	// Removing the relationship takes effect on the very next call.
	dir.parentChildren["parent1"] = nil
	d, err = svc.FilterGrades(ctx, p, parent1(), []string{"grade1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.FilteredIDs) != 0 {
		t.Fatalf("stale relationship honored: %v", d.FilteredIDs)
	}
}

func TestStudentGrades(t *testing.T) {
	svc := newTestService(newFakeDirectory())
	ctx := context.Background()

	d, err := svc.StudentGrades(ctx, gradePol(policy.RoleTeacher), teacher1(), "student1")
	requireDecision(t, d, err, true)

	d, err = svc.StudentGrades(ctx, gradePol(policy.RoleTeacher), teacher1(), "student4")
	requireDecision(t, d, err, false)

	d, err = svc.StudentGrades(ctx, gradePol(policy.RoleStudent), student1(), "student1")
	requireDecision(t, d, err, true)

	d, err = svc.StudentGrades(ctx, gradePol(policy.RoleParent), parent1(), "student1")
	requireDecision(t, d, err, true)

	d, err = svc.StudentGrades(ctx, gradePol(policy.RoleParent), parent1(), "student3")
	requireDecision(t, d, err, false)
}

func TestClassGrades(t *testing.T) {
	svc := newTestService(newFakeDirectory())
	ctx := context.Background()

	d, err := svc.ClassGrades(ctx, gradePol(policy.RoleTeacher), teacher1(), "class2")
	requireDecision(t, d, err, true)

	d, err = svc.ClassGrades(ctx, gradePol(policy.RoleTeacher), teacher1(), "class4")
	requireDecision(t, d, err, false)

	d, err = svc.ClassGrades(ctx, gradePol(policy.RoleParent), parent1(), "class1")
	requireDecision(t, d, err, false)
}

func TestCanExportGrades(t *testing.T) {
	svc := newTestService(newFakeDirectory())
	ctx := context.Background()
	p := gradePol(policy.RoleTeacher)

	d, err := svc.CanExportGrades(ctx, p, teacher1(), "class1", "")
	requireDecision(t, d, err, true)

	d, err = svc.CanExportGrades(ctx, p, teacher1(), "", "student2")
	requireDecision(t, d, err, true)

	d, err = svc.CanExportGrades(ctx, p, teacher1(), "", "")
	requireDecision(t, d, err, false)

	d, err = svc.CanExportGrades(ctx, gradePol(policy.RoleStudent), student1(), "", "student1")
	requireDecision(t, d, err, false)
}
