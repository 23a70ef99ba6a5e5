package attendance

import "time"

// MarkEvent is the audit payload published to the queue after a successful
// mark and consumed by the worker.
type MarkEvent struct {
	ID        string    `json:"id"`
	CollegeID string    `json:"college_id"`
	RollNo    string    `json:"roll_no"`
	Year      string    `json:"year"`
	Session   string    `json:"session"`
	Class     string    `json:"class"`
	Subject   string    `json:"subject"`
	Present   bool      `json:"present"`
	MarkedAt  time.Time `json:"marked_at"`
}
