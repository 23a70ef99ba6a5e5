package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists colleges, users, enrollments and attendance in Postgres.
// Every lookup is scoped by college id first; the roll number alone is never
// a key.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateCollege registers a college and returns its generated id.
// Returns ErrAlreadyExists when the name is taken.
func (r *Repository) CreateCollege(ctx context.Context, name string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO colleges (college_id, name)
		VALUES ($1, $2)
	`, id, name)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrAlreadyExists
		}
		return "", fmt.Errorf("create college: %w", err)
	}
	return id, nil
}

// ListColleges returns the names of all registered colleges.
func (r *Repository) ListColleges(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM colleges`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// FindCollegeID resolves a college name to its id. Absence is not an error:
// the empty string is returned when no college has that name.
func (r *Repository) FindCollegeID(ctx context.Context, name string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT college_id FROM colleges WHERE name = $1
	`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// CreateUser inserts a user row. The password hash must already be computed;
// plaintext never reaches this layer. Returns ErrAlreadyExists when the
// (college, roll number) pair or the email is taken.
func (r *Repository) CreateUser(ctx context.Context, u User) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE college_id = $1 AND roll_no = $2)
	`, u.CollegeID, u.RollNo).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (college_id, roll_no, name, email, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.CollegeID, u.RollNo, u.Name, u.Email, u.Role, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser returns a user or nil when absent.
func (r *Repository) GetUser(ctx context.Context, collegeID, rollNo string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT college_id, roll_no, name, email, role, password_hash
		FROM users WHERE college_id = $1 AND roll_no = $2
	`, collegeID, rollNo)
	var u User
	if err := row.Scan(&u.CollegeID, &u.RollNo, &u.Name, &u.Email, &u.Role, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ListSubjects returns the subject of every course the student is enrolled in
// for the given year and session.
func (r *Repository) ListSubjects(ctx context.Context, collegeID, year, session, rollNo string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subject FROM courses
		WHERE college_id = $1 AND year = $2 AND session = $3 AND roll_no = $4
	`, collegeID, year, session, rollNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// ListClasses returns the class of every matching course row, duplicates
// included; the service layer reduces them to a set.
func (r *Repository) ListClasses(ctx context.Context, collegeID, year, session, rollNo string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT class_name FROM courses
		WHERE college_id = $1 AND year = $2 AND session = $3 AND roll_no = $4
	`, collegeID, year, session, rollNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// ListAttendance returns every attendance row for the student in the given
// year and session. Class is deliberately not a filter: rows from all of the
// student's classes come back in one call.
func (r *Repository) ListAttendance(ctx context.Context, collegeID, rollNo, year, session string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT college_id, year, session, class_name, subject, roll_no,
		       total_days, days_present, percent, today_marked
		FROM attendance
		WHERE college_id = $1 AND roll_no = $2 AND year = $3 AND session = $4
	`, collegeID, rollNo, year, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.CollegeID, &rec.Year, &rec.Session, &rec.Class, &rec.Subject, &rec.RollNo,
			&rec.TotalDays, &rec.DaysPresent, &rec.Percent, &rec.TodayMarked); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// MarkAttendance sets the daily flag on one existing row. The counters are
// untouched; only the rollover advances them. Returns ErrNotFound when no row
// matches the full key.
func (r *Repository) MarkAttendance(ctx context.Context, collegeID, rollNo, year, session, class, subject string, mark Mark) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance SET today_marked = $7
		WHERE college_id = $1 AND roll_no = $2 AND year = $3 AND session = $4
		  AND class_name = $5 AND subject = $6
	`, collegeID, rollNo, year, session, class, subject, string(mark))
	if err != nil {
		return fmt.Errorf("mark attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTimetable returns timetable rows for the college, year and session
// whose subject is in the provided set.
func (r *Repository) ListTimetable(ctx context.Context, collegeID, year, session string, subjects []string) ([]TimetableEntry, error) {
	if len(subjects) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT college_id, year, session, class_name, day, time, duration, subject, venue
		FROM timetable
		WHERE college_id = $1 AND year = $2 AND session = $3 AND subject = ANY($4)
	`, collegeID, year, session, subjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []TimetableEntry
	for rows.Next() {
		var e TimetableEntry
		if err := rows.Scan(&e.CollegeID, &e.Year, &e.Session, &e.Class, &e.Day, &e.Time,
			&e.Duration, &e.Subject, &e.Venue); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CheckHoliday returns the occasion for the date, if one is recorded.
func (r *Repository) CheckHoliday(ctx context.Context, collegeID, date string) (string, bool, error) {
	var occasion string
	err := r.db.QueryRowContext(ctx, `
		SELECT occasion FROM holidays WHERE college_id = $1 AND date = $2
	`, collegeID, date).Scan(&occasion)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return occasion, true, nil
}

// InsertCourse writes an enrollment row. There is no API path for enrollment;
// course data is loaded directly, so the insert stays available here.
func (r *Repository) InsertCourse(ctx context.Context, c Course) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (college_id, year, session, class_name, roll_no, subject)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`, c.CollegeID, c.Year, c.Session, c.Class, c.RollNo, c.Subject)
	return err
}

// InsertRecord creates an attendance row with zeroed counters. Rows must
// exist before they can be marked; marking never auto-creates.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) error {
	marked := rec.TodayMarked
	if marked == "" {
		marked = MarkUnset
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (college_id, year, session, class_name, subject, roll_no,
		                        total_days, days_present, percent, today_marked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
	`, rec.CollegeID, rec.Year, rec.Session, rec.Class, rec.Subject, rec.RollNo,
		rec.TotalDays, rec.DaysPresent, rec.Percent, string(marked))
	return err
}

// InsertTimetableEntry writes one timetable slot.
func (r *Repository) InsertTimetableEntry(ctx context.Context, e TimetableEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO timetable (college_id, year, session, class_name, day, time, duration, subject, venue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
	`, e.CollegeID, e.Year, e.Session, e.Class, e.Day, e.Time, e.Duration, e.Subject, e.Venue)
	return err
}

// InsertHoliday writes one holiday row.
func (r *Repository) InsertHoliday(ctx context.Context, h Holiday) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO holidays (college_id, date, occasion)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, h.CollegeID, h.Date, h.Occasion)
	return err
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
