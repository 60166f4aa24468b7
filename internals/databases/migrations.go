package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate applies the schema. Every statement is idempotent so the runner can
// execute on every start. The EXCLUDE constraints are DEFERRABLE INITIALLY
// DEFERRED: the close/open compound write briefly holds two covering intervals
// inside a transaction, and the constraint must only judge the commit state.
func Migrate(db *gorm.DB) error {
	for i, stmt := range schemaStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	// ── sync state ──────────────────────────────────────────────────────────
	`CREATE TABLE IF NOT EXISTS sync_state (
		endpoint                TEXT PRIMARY KEY,
		last_successful_sync_at TIMESTAMPTZ,
		last_seen_updated_at    TIMESTAMPTZ,
		window_from             DATE,
		window_to               DATE,
		next_cursor             TEXT,
		params                  JSONB NOT NULL DEFAULT '{}'::jsonb,
		notes                   TEXT,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT ck_sync_state_window CHECK (
			window_from IS NULL OR window_to IS NULL OR window_to >= window_from
		)
	)`,

	// ── ingestion ledger, monthly range partitions ──────────────────────────
	`CREATE TABLE IF NOT EXISTS ledger_records (
		endpoint           TEXT NOT NULL,
		source_id          TEXT NOT NULL,
		partition_date     DATE NOT NULL,
		raw_payload        JSONB NOT NULL,
		source_hash        VARCHAR(64) NOT NULL,
		batch_id           VARCHAR(36) NOT NULL,
		src_day            DATE NOT NULL,
		first_seen_src_day DATE NOT NULL,
		last_seen_src_day  DATE NOT NULL,
		ingested_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (endpoint, source_id, partition_date)
	) PARTITION BY RANGE (partition_date)`,

	`CREATE INDEX IF NOT EXISTS ix_ledger_records_batch
		ON ledger_records (endpoint, batch_id)`,

	// ── reference data ──────────────────────────────────────────────────────
	`CREATE TABLE IF NOT EXISTS ref_department (
		department_id   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		department_name TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS ref_subject (
		subject_id    BIGINT PRIMARY KEY,
		subject_title TEXT NOT NULL,
		in_curriculum BOOLEAN NOT NULL DEFAULT FALSE,
		in_olymp      BOOLEAN NOT NULL DEFAULT FALSE,
		department_id BIGINT REFERENCES ref_department(department_id),
		is_closed     BOOLEAN NOT NULL DEFAULT FALSE
	)`,

	`CREATE TABLE IF NOT EXISTS ref_work_form (
		form_id          BIGINT PRIMARY KEY,
		form_name        TEXT NOT NULL,
		form_description TEXT,
		is_control       BOOLEAN NOT NULL DEFAULT FALSE,
		weight_pct       INT NOT NULL DEFAULT 0 CHECK (weight_pct BETWEEN 0 AND 100),
		form_percent_raw INT,
		created_at_src   TIMESTAMPTZ,
		archived_at_src  TIMESTAMPTZ,
		deleted_at_src   TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS ref_academic_period (
		period_id   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		period_name TEXT NOT NULL,
		start_date  DATE NOT NULL,
		end_date    DATE NOT NULL,
		CONSTRAINT ck_ref_academic_period_range CHECK (end_date >= start_date)
	)`,

	`CREATE TABLE IF NOT EXISTS ref_programme (
		programme_code VARCHAR(16) PRIMARY KEY,
		programme_name TEXT NOT NULL
	)`,

	`INSERT INTO ref_programme (programme_code, programme_name) VALUES
		('IB', 'IB Diploma Programme'),
		('IPC', 'International Primary Curriculum'),
		('PEARSON', 'Pearson Edexcel'),
		('STATE', 'State curriculum')
	ON CONFLICT (programme_code) DO NOTHING`,

	// ── people ──────────────────────────────────────────────────────────────
	`CREATE TABLE IF NOT EXISTS student (
		student_id     BIGINT PRIMARY KEY,
		first_name     TEXT NOT NULL,
		last_name      TEXT NOT NULL,
		gender         TEXT,
		dob            DATE,
		email          TEXT,
		programme_code VARCHAR(16) REFERENCES ref_programme(programme_code),
		cohort         INT,
		active         BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS staff (
		staff_id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		email             TEXT NOT NULL UNIQUE,
		staff_name        TEXT NOT NULL,
		gender            TEXT,
		external_staff_id BIGINT UNIQUE,
		active            BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS parent (
		parent_id   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		email       TEXT NOT NULL UNIQUE,
		parent_name TEXT NOT NULL DEFAULT '',
		active      BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS student_parent (
		student_id BIGINT NOT NULL REFERENCES student(student_id),
		parent_id  BIGINT NOT NULL REFERENCES parent(parent_id),
		PRIMARY KEY (student_id, parent_id)
	)`,

	`CREATE TABLE IF NOT EXISTS staff_department (
		staff_id       BIGINT NOT NULL REFERENCES staff(staff_id),
		department_id  BIGINT NOT NULL REFERENCES ref_department(department_id),
		position_title TEXT,
		PRIMARY KEY (staff_id, department_id)
	)`,

	// ── groups ──────────────────────────────────────────────────────────────
	`CREATE TABLE IF NOT EXISTS class (
		class_id   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		class_code TEXT NOT NULL UNIQUE,
		cohort     INT
	)`,

	`CREATE TABLE IF NOT EXISTS teaching_group (
		group_id   BIGINT PRIMARY KEY,
		group_name TEXT NOT NULL,
		subject_id BIGINT REFERENCES ref_subject(subject_id),
		active     BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	// ── interval-bearing relations ──────────────────────────────────────────
	// class_teacher: at most one covering interval per class at any date.
	`CREATE TABLE IF NOT EXISTS class_teacher (
		class_id   BIGINT NOT NULL REFERENCES class(class_id),
		staff_id   BIGINT NOT NULL REFERENCES staff(staff_id),
		valid_from DATE NOT NULL,
		valid_to   DATE,
		PRIMARY KEY (class_id, valid_from),
		CONSTRAINT ck_class_teacher_bounds CHECK (valid_to IS NULL OR valid_to >= valid_from)
	)`,

	`DO $$ BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint WHERE conname = 'excl_class_teacher_overlap'
		) THEN
			ALTER TABLE class_teacher ADD CONSTRAINT excl_class_teacher_overlap
				EXCLUDE USING gist (
					class_id WITH =,
					daterange(valid_from, valid_to, '[]') WITH &&
				) DEFERRABLE INITIALLY DEFERRED;
		END IF;
	END $$`,

	// group_staff_assignment: scoped to (group, staff). Co-teaching is
	// allowed, overlapping intervals for the same staff on a group are not.
	`CREATE TABLE IF NOT EXISTS group_staff_assignment (
		group_id   BIGINT NOT NULL REFERENCES teaching_group(group_id),
		staff_id   BIGINT NOT NULL REFERENCES staff(staff_id),
		valid_from DATE NOT NULL,
		valid_to   DATE,
		PRIMARY KEY (group_id, staff_id, valid_from),
		CONSTRAINT ck_group_staff_bounds CHECK (valid_to IS NULL OR valid_to >= valid_from)
	)`,

	`DO $$ BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint WHERE conname = 'excl_group_staff_overlap'
		) THEN
			ALTER TABLE group_staff_assignment ADD CONSTRAINT excl_group_staff_overlap
				EXCLUDE USING gist (
					group_id WITH =,
					staff_id WITH =,
					daterange(valid_from, valid_to, '[]') WITH &&
				) DEFERRABLE INITIALLY DEFERRED;
		END IF;
	END $$`,

	// membership/enrolment: overlap tolerated, (key, valid_from) unique via PK.
	`CREATE TABLE IF NOT EXISTS group_student_membership (
		group_id   BIGINT NOT NULL REFERENCES teaching_group(group_id),
		student_id BIGINT NOT NULL REFERENCES student(student_id),
		valid_from DATE NOT NULL,
		valid_to   DATE,
		PRIMARY KEY (group_id, student_id, valid_from),
		CONSTRAINT ck_group_student_bounds CHECK (valid_to IS NULL OR valid_to >= valid_from)
	)`,

	`CREATE TABLE IF NOT EXISTS student_class_enrolment (
		student_id BIGINT NOT NULL REFERENCES student(student_id),
		class_id   BIGINT NOT NULL REFERENCES class(class_id),
		valid_from DATE NOT NULL,
		valid_to   DATE,
		PRIMARY KEY (student_id, class_id, valid_from),
		CONSTRAINT ck_student_class_bounds CHECK (valid_to IS NULL OR valid_to >= valid_from)
	)`,

	// ── schedule / lessons ──────────────────────────────────────────────────
	`CREATE TABLE IF NOT EXISTS timetable_schedule (
		schedule_id          BIGINT PRIMARY KEY,
		group_id             BIGINT NOT NULL,
		subject_id           BIGINT REFERENCES ref_subject(subject_id),
		room                 TEXT,
		replaced_schedule_id BIGINT,
		schedule_start       DATE NOT NULL,
		schedule_finish      DATE
	)`,

	`CREATE TABLE IF NOT EXISTS lesson (
		lesson_id            BIGINT PRIMARY KEY,
		schedule_id          BIGINT NOT NULL REFERENCES timetable_schedule(schedule_id),
		lesson_date          DATE NOT NULL,
		day_number           INT,
		lesson_start         TIME,
		lesson_finish        TIME,
		is_replacement       BOOLEAN NOT NULL DEFAULT FALSE,
		replaced_schedule_id BIGINT
	)`,

	`CREATE INDEX IF NOT EXISTS ix_lesson_date ON lesson (lesson_date)`,

	`CREATE TABLE IF NOT EXISTS lesson_staff (
		lesson_id  BIGINT NOT NULL REFERENCES lesson(lesson_id),
		staff_id   BIGINT NOT NULL REFERENCES staff(staff_id),
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (lesson_id, staff_id)
	)`,

	// ── facts ───────────────────────────────────────────────────────────────
	`CREATE TABLE IF NOT EXISTS attendance_event (
		attendance_id    BIGINT PRIMARY KEY,
		student_id       BIGINT NOT NULL REFERENCES student(student_id),
		lesson_id        BIGINT NOT NULL REFERENCES lesson(lesson_id),
		attendance_date  DATE NOT NULL,
		status_code      INT NOT NULL DEFAULT 0,
		period_id        BIGINT REFERENCES ref_academic_period(period_id),
		subject_id       BIGINT REFERENCES ref_subject(subject_id),
		grade_cohort     INT,
		student_name_src TEXT,
		CONSTRAINT uq_attendance_student_lesson UNIQUE (student_id, lesson_id)
	)`,

	`CREATE TABLE IF NOT EXISTS mark_current (
		mark_id             BIGINT PRIMARY KEY,
		student_id          BIGINT NOT NULL REFERENCES student(student_id),
		group_id            BIGINT REFERENCES teaching_group(group_id),
		period_id           BIGINT REFERENCES ref_academic_period(period_id),
		period_label_raw    TEXT,
		group_name_snapshot TEXT,
		lesson_date         DATE NOT NULL,
		created_at_src      TIMESTAMPTZ,
		value               NUMERIC(6,2),
		assessment          TEXT,
		assessment_scheme   TEXT,
		is_control          BOOLEAN NOT NULL DEFAULT FALSE,
		form_id             BIGINT REFERENCES ref_work_form(form_id),
		form_name_raw       TEXT,
		weight_raw          NUMERIC(6,2),
		weight_pct          INT
	)`,

	`CREATE INDEX IF NOT EXISTS ix_mark_current_date ON mark_current (lesson_date)`,

	`CREATE TABLE IF NOT EXISTS mark_final (
		final_mark_id       BIGINT PRIMARY KEY,
		student_id          BIGINT NOT NULL REFERENCES student(student_id),
		group_id            BIGINT REFERENCES teaching_group(group_id),
		subject_id          BIGINT REFERENCES ref_subject(subject_id),
		period_id           BIGINT REFERENCES ref_academic_period(period_id),
		period_label_raw    TEXT,
		group_name_snapshot TEXT,
		lesson_date         DATE NOT NULL,
		value               NUMERIC(6,2),
		final_criterion_raw TEXT,
		assessment_scheme   TEXT,
		created_at_src      TIMESTAMPTZ
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS uq_mark_final_scope
		ON mark_final (student_id, COALESCE(group_id, 0), COALESCE(period_id, 0))`,
}
