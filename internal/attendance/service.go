package attendance

import (
	"context"
	"errors"
	"log"
	"time"

	"rollbook/internal/auth"
)

// Service coordinates registration, lookups and the daily rollover on top of
// the repository. Handlers talk to it, never to the repository directly.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// RegisterCollege creates a college and returns its generated id.
func (s *Service) RegisterCollege(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("college name required")
	}
	return s.repo.CreateCollege(ctx, name)
}

// Colleges lists all registered college names.
func (s *Service) Colleges(ctx context.Context) ([]string, error) {
	return s.repo.ListColleges(ctx)
}

// CollegeID resolves a college name; empty result means no such college.
func (s *Service) CollegeID(ctx context.Context, name string) (string, error) {
	return s.repo.FindCollegeID(ctx, name)
}

// RegisterUser hashes the password and stores the user. The plaintext is
// never persisted.
func (s *Service) RegisterUser(ctx context.Context, collegeID, rollNo, name, email, role, plainPassword string) error {
	hash, err := auth.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	return s.repo.CreateUser(ctx, User{
		CollegeID:    collegeID,
		RollNo:       rollNo,
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
}

// VerifyUser checks a login attempt. A missing user and a wrong password
// both come back false; the caller cannot tell which it was.
func (s *Service) VerifyUser(ctx context.Context, collegeID, rollNo, plainPassword string) (bool, error) {
	u, err := s.repo.GetUser(ctx, collegeID, rollNo)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}
	return auth.CheckPassword(u.PasswordHash, plainPassword), nil
}

// SubjectsForStudent returns the subject of every enrolled course.
func (s *Service) SubjectsForStudent(ctx context.Context, collegeID, year, session, rollNo string) ([]string, error) {
	return s.repo.ListSubjects(ctx, collegeID, year, session, rollNo)
}

// ClassesForStudent returns the student's classes as a deduplicated set.
func (s *Service) ClassesForStudent(ctx context.Context, collegeID, year, session, rollNo string) ([]string, error) {
	classes, err := s.repo.ListClasses(ctx, collegeID, year, session, rollNo)
	if err != nil {
		return nil, err
	}
	return uniqueStrings(classes), nil
}

// AttendanceForStudent returns every attendance row across all of the
// student's classes for the year and session.
func (s *Service) AttendanceForStudent(ctx context.Context, collegeID, rollNo, year, session string) ([]Record, error) {
	return s.repo.ListAttendance(ctx, collegeID, rollNo, year, session)
}

// Mark records today's presence flag on an existing attendance row.
func (s *Service) Mark(ctx context.Context, collegeID, rollNo, year, session, class, subject string, present bool) error {
	mark := MarkAbsent
	if present {
		mark = MarkPresent
	}
	return s.repo.MarkAttendance(ctx, collegeID, rollNo, year, session, class, subject, mark)
}

// TimetableForStudent resolves the student's enrolled subjects, then returns
// the timetable slots covering them.
func (s *Service) TimetableForStudent(ctx context.Context, collegeID, year, session, rollNo string) ([]TimetableEntry, error) {
	subjects, err := s.repo.ListSubjects(ctx, collegeID, year, session, rollNo)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTimetable(ctx, collegeID, year, session, subjects)
}

// Holiday reports whether the date is a holiday for the college.
func (s *Service) Holiday(ctx context.Context, collegeID, date string) (string, bool, error) {
	return s.repo.CheckHoliday(ctx, collegeID, date)
}

// Rollover runs the daily batch advance and records metrics.
func (s *Service) Rollover(ctx context.Context) (int64, error) {
	start := time.Now()
	rows, err := s.repo.RolloverAll(ctx)
	if err != nil {
		rolloverFailures.Inc()
		return 0, err
	}
	rolloverRuns.Inc()
	rolloverRows.Add(float64(rows))
	log.Printf("rollover advanced %d attendance rows in %s", rows, time.Since(start).Round(time.Millisecond))
	return rows, nil
}

// uniqueStrings keeps the first occurrence of each value.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
