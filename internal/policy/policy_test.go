package policy

import "testing"

func TestResolveAdminAlwaysUnconditional(t *testing.T) {
	for _, resource := range []Resource{ResourceAssignment, ResourceAttendance, ResourceGrade, ResourceStudent} {
		p := Resolve(resource, RoleAdmin)
		if !p.ViewAll || !p.EditAll || !p.DeleteAll || !p.CreateAll {
			t.Errorf("admin policy for %s missing an All flag: %+v", resource, p)
		}
	}
}

func TestResolveUnknownRoleFallsBackToStudent(t *testing.T) {
	for _, resource := range []Resource{ResourceAssignment, ResourceAttendance, ResourceGrade, ResourceStudent} {
		got := Resolve(resource, Role("guardian"))
		want := Resolve(resource, RoleStudent)
		if got != want {
			t.Errorf("unknown role for %s: got %+v want student policy %+v", resource, got, want)
		}
	}
}

func TestResolveParentOnlyDefinedForAttendanceAndGrades(t *testing.T) {
	if p := Resolve(ResourceAttendance, RoleParent); !p.ViewChild {
		t.Errorf("parent attendance policy should grant ViewChild: %+v", p)
	}
	if p := Resolve(ResourceGrade, RoleParent); !p.ViewChild {
		t.Errorf("parent grade policy should grant ViewChild: %+v", p)
	}
	// Assignment and student tables have no parent entry, so parents get
	// the student policy and can never claim another student's record.
	if got, want := Resolve(ResourceAssignment, RoleParent), Resolve(ResourceAssignment, RoleStudent); got != want {
		t.Errorf("parent assignment policy: got %+v want %+v", got, want)
	}
	if got, want := Resolve(ResourceStudent, RoleParent), Resolve(ResourceStudent, RoleStudent); got != want {
		t.Errorf("parent student policy: got %+v want %+v", got, want)
	}
}

func TestStudentNeverGainsWriteAccess(t *testing.T) {
	for _, resource := range []Resource{ResourceAssignment, ResourceAttendance, ResourceGrade, ResourceStudent} {
		p := Resolve(resource, RoleStudent)
		if p.EditAll || p.DeleteAll || p.CreateAll || p.DeleteOwn || p.CreateOwn {
			t.Errorf("student policy for %s grants write access: %+v", resource, p)
		}
		if !p.ViewOwn {
			t.Errorf("student policy for %s should grant ViewOwn", resource)
		}
	}
	// Students may submit assignments but never edit them.
	if p := Resolve(ResourceAssignment, RoleStudent); p.EditOwn || !p.SubmitOwn {
		t.Errorf("student assignment policy: %+v", p)
	}
	if p := Resolve(ResourceStudent, RoleStudent); p.EditOwn {
		t.Errorf("students must not edit their own master record: %+v", p)
	}
}

func TestTeacherCreateScopes(t *testing.T) {
	if p := Resolve(ResourceAssignment, RoleTeacher); !p.CreateAll {
		t.Errorf("teachers originate assignments: %+v", p)
	}
	if p := Resolve(ResourceStudent, RoleTeacher); !p.CreateAll {
		t.Errorf("teachers may register students: %+v", p)
	}
	if p := Resolve(ResourceAttendance, RoleTeacher); p.CreateAll || !p.CreateOwn {
		t.Errorf("teachers mark attendance only for own classes: %+v", p)
	}
	if p := Resolve(ResourceGrade, RoleTeacher); p.CreateAll || !p.CreateOwn {
		t.Errorf("teachers grade only their own students: %+v", p)
	}
}
