package store

import "database/sql"

// Schema creates the six tables. Every entity is partitioned by college_id;
// the remaining key columns are only unique within a college. Counters carry
// their invariants as CHECK constraints so no write path can regress them.
const Schema = `
CREATE TABLE IF NOT EXISTS colleges (
    college_id TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS users (
    college_id    TEXT NOT NULL REFERENCES colleges (college_id),
    roll_no       TEXT NOT NULL,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    role          TEXT NOT NULL CHECK (role IN ('Student', 'Teacher')),
    password_hash TEXT NOT NULL,
    PRIMARY KEY (college_id, roll_no)
);

CREATE TABLE IF NOT EXISTS courses (
    college_id TEXT NOT NULL REFERENCES colleges (college_id),
    year       TEXT NOT NULL,
    session    TEXT NOT NULL,
    class_name TEXT NOT NULL,
    roll_no    TEXT NOT NULL,
    subject    TEXT NOT NULL,
    PRIMARY KEY (college_id, year, session, class_name, roll_no, subject),
    FOREIGN KEY (college_id, roll_no) REFERENCES users (college_id, roll_no)
);

CREATE TABLE IF NOT EXISTS attendance (
    college_id   TEXT NOT NULL REFERENCES colleges (college_id),
    year         TEXT NOT NULL,
    session      TEXT NOT NULL,
    class_name   TEXT NOT NULL,
    subject      TEXT NOT NULL,
    roll_no      TEXT NOT NULL,
    total_days   INTEGER NOT NULL DEFAULT 0 CHECK (total_days >= 0),
    days_present INTEGER NOT NULL DEFAULT 0 CHECK (days_present >= 0 AND days_present <= total_days),
    percent      DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (percent >= 0 AND percent <= 100),
    today_marked TEXT NOT NULL DEFAULT 'unset' CHECK (today_marked IN ('unset', 'present', 'absent')),
    PRIMARY KEY (college_id, year, session, class_name, subject, roll_no),
    FOREIGN KEY (college_id, roll_no) REFERENCES users (college_id, roll_no)
);

CREATE TABLE IF NOT EXISTS timetable (
    college_id TEXT NOT NULL REFERENCES colleges (college_id),
    year       TEXT NOT NULL,
    session    TEXT NOT NULL,
    class_name TEXT NOT NULL,
    day        TEXT NOT NULL,
    time       TEXT NOT NULL,
    duration   TEXT NOT NULL DEFAULT '',
    subject    TEXT NOT NULL DEFAULT '',
    venue      TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (college_id, year, session, class_name, day, time)
);

CREATE TABLE IF NOT EXISTS holidays (
    college_id TEXT NOT NULL REFERENCES colleges (college_id),
    date       TEXT NOT NULL,
    occasion   TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (college_id, date)
);
`

// InitSchema creates all tables if they do not exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
