// file: internals/features/ingest/endpoints.go
package ingest

// Source endpoint names. They key both the ledger rows and the sync_state
// checkpoints, so they must stay stable across releases.
const (
	EndpointStudents     = "students_ref"
	EndpointStaff        = "staff_ref"
	EndpointStaffPos     = "staff_positions"
	EndpointParents      = "parents_ref"
	EndpointParentLinks  = "student_parent_links"
	EndpointClasses      = "classes_ref"
	EndpointSubjects     = "subjects"
	EndpointWorkForms    = "work_forms"
	EndpointSchedule     = "schedule_lessons"
	EndpointAttendance   = "attendance"
	EndpointMarksCurrent = "marks_current"
	EndpointMarksFinal   = "marks_final"
)

// SnapshotEndpoints are full-extract feeds without a date axis: every pull
// replaces the whole picture, so they are ingested on every run.
var SnapshotEndpoints = []string{
	EndpointStudents,
	EndpointStaff,
	EndpointStaffPos,
	EndpointParents,
	EndpointParentLinks,
	EndpointClasses,
	EndpointSubjects,
	EndpointWorkForms,
}

// WindowedEndpoints carry a date per record and are pulled by window.
var WindowedEndpoints = []string{
	EndpointSchedule,
	EndpointAttendance,
	EndpointMarksCurrent,
	EndpointMarksFinal,
}
