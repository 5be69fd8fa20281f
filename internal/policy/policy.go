// Package policy defines the static role capability tables for the four
// academic resource types. The tables are fixed at compile time and are
// never mutated; resolution is a pure lookup.
package policy

// Role identifies the requesting user's role.
type Role string

// Known roles. Anything else resolves to the student policy.
const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// Resource identifies the record type a policy applies to.
type Resource string

// Resource types covered by the policy tables.
const (
	ResourceAssignment Resource = "assignment"
	ResourceAttendance Resource = "attendance"
	ResourceGrade      Resource = "grade"
	ResourceStudent    Resource = "student"
)

// Policy is the capability set granted to one role for one resource
// type. Flags are independent booleans; the "All" flags short-circuit
// every relationship and state check in the decision engine.
type Policy struct {
	ViewAll   bool
	EditAll   bool
	DeleteAll bool
	CreateAll bool
	GradeAll  bool

	ViewOwn   bool
	EditOwn   bool
	DeleteOwn bool
	CreateOwn bool
	GradeOwn  bool
	SubmitOwn bool

	// Teacher capabilities scoped to assigned students and classes.
	ViewStudent    bool
	ViewClass      bool
	MarkAttendance bool

	// Export and bulk marking carry both an unconditional (admin) and a
	// relationship-gated (teacher) variant.
	ExportAll bool
	ExportOwn bool
	BulkAll   bool
	BulkOwn   bool

	// Parent capabilities.
	ViewChild bool

	// History/report style listings (own for students, child for parents).
	ViewHistory bool
}

var tables = map[Resource]map[Role]Policy{
	ResourceAssignment: {
		RoleAdmin: {
			ViewAll: true, EditAll: true, DeleteAll: true, CreateAll: true,
			GradeAll: true,
		},
		RoleTeacher: {
			CreateAll: true,
			ViewOwn:   true, EditOwn: true, DeleteOwn: true, GradeOwn: true,
			ViewStudent: true,
		},
		RoleStudent: {
			ViewOwn: true, SubmitOwn: true,
		},
	},
	ResourceAttendance: {
		RoleAdmin: {
			ViewAll: true, EditAll: true, DeleteAll: true, CreateAll: true,
			ExportAll: true, BulkAll: true,
		},
		RoleTeacher: {
			ViewOwn: true, EditOwn: true, DeleteOwn: true, CreateOwn: true,
			ViewStudent: true, ViewClass: true,
			MarkAttendance: true, BulkOwn: true, ExportOwn: true,
		},
		RoleStudent: {
			ViewOwn: true, ViewHistory: true,
		},
		RoleParent: {
			ViewChild: true, ViewHistory: true,
		},
	},
	ResourceGrade: {
		RoleAdmin: {
			ViewAll: true, EditAll: true, DeleteAll: true, CreateAll: true,
			ExportAll: true,
		},
		RoleTeacher: {
			ViewOwn: true, EditOwn: true, DeleteOwn: true, CreateOwn: true,
			ViewStudent: true, ViewClass: true, ExportOwn: true,
		},
		RoleStudent: {
			ViewOwn: true, ViewHistory: true,
		},
		RoleParent: {
			ViewChild: true, ViewHistory: true,
		},
	},
	ResourceStudent: {
		RoleAdmin: {
			ViewAll: true, EditAll: true, DeleteAll: true, CreateAll: true,
		},
		RoleTeacher: {
			CreateAll:   true,
			ViewStudent: true, EditOwn: true,
		},
		RoleStudent: {
			ViewOwn: true,
		},
	},
}

// Resolve returns the capability set for the given resource and role.
// Unknown roles, and roles with no entry for the resource, receive the
// student policy so an unrecognised caller never gains privileges.
func Resolve(resource Resource, role Role) Policy {
	table, ok := tables[resource]
	if !ok {
		return Policy{}
	}
	if p, ok := table[role]; ok {
		return p
	}
	return table[RoleStudent]
}
