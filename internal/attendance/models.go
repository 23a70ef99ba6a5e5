package attendance

// Mark is the per-row daily attendance flag, reset by every rollover.
type Mark string

const (
	MarkUnset   Mark = "unset"
	MarkPresent Mark = "present"
	MarkAbsent  Mark = "absent"
)

// Roles accepted for a registered user.
const (
	RoleStudent = "Student"
	RoleTeacher = "Teacher"
)

// College is the tenant partition; every other entity is scoped under it.
type College struct {
	ID   string
	Name string
}

// User is a student or teacher, keyed by (college, roll number).
type User struct {
	CollegeID    string
	RollNo       string
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

// Course is one enrollment row; every column is part of the key.
type Course struct {
	CollegeID string
	Year      string
	Session   string
	Class     string
	RollNo    string
	Subject   string
}

// Record is one attendance counter row.
type Record struct {
	CollegeID   string
	Year        string
	Session     string
	Class       string
	Subject     string
	RollNo      string
	TotalDays   int
	DaysPresent int
	Percent     float64
	TodayMarked Mark
}

// TimetableEntry is a reference-data slot in a class timetable.
type TimetableEntry struct {
	CollegeID string
	Year      string
	Session   string
	Class     string
	Day       string
	Time      string
	Duration  string
	Subject   string
	Venue     string
}

// Holiday is a per-college calendar entry, keyed by date string (YYYY-MM-DD).
type Holiday struct {
	CollegeID string
	Date      string
	Occasion  string
}
