package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"rollbook/internal/api"
	"rollbook/internal/attendance"
	"rollbook/internal/queue"
)

type fakeService struct {
	colleges  map[string]string // name -> id
	passwords map[string]string // collegeID|rollNo -> plaintext
	records   []attendance.Record
	classes   []string
	subjects  []string
	timetable []attendance.TimetableEntry
	holidays  map[string]string // collegeID|date -> occasion
	marks     int
}

func newFakeService() *fakeService {
	return &fakeService{
		colleges:  map[string]string{},
		passwords: map[string]string{},
		holidays:  map[string]string{},
	}
}

func (f *fakeService) RegisterCollege(_ context.Context, name string) (string, error) {
	if _, ok := f.colleges[name]; ok {
		return "", attendance.ErrAlreadyExists
	}
	id := "college-" + name
	f.colleges[name] = id
	return id, nil
}

func (f *fakeService) Colleges(context.Context) ([]string, error) {
	var names []string
	for name := range f.colleges {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeService) CollegeID(_ context.Context, name string) (string, error) {
	return f.colleges[name], nil
}

func (f *fakeService) RegisterUser(_ context.Context, collegeID, rollNo, _, _, _, plainPassword string) error {
	key := collegeID + "|" + rollNo
	if _, ok := f.passwords[key]; ok {
		return attendance.ErrAlreadyExists
	}
	f.passwords[key] = plainPassword
	return nil
}

func (f *fakeService) VerifyUser(_ context.Context, collegeID, rollNo, plainPassword string) (bool, error) {
	stored, ok := f.passwords[collegeID+"|"+rollNo]
	return ok && stored == plainPassword, nil
}

func (f *fakeService) SubjectsForStudent(context.Context, string, string, string, string) ([]string, error) {
	return f.subjects, nil
}

func (f *fakeService) ClassesForStudent(context.Context, string, string, string, string) ([]string, error) {
	return f.classes, nil
}

func (f *fakeService) AttendanceForStudent(context.Context, string, string, string, string) ([]attendance.Record, error) {
	return f.records, nil
}

func (f *fakeService) Mark(_ context.Context, collegeID, rollNo, year, session, class, subject string, present bool) error {
	for i, rec := range f.records {
		if rec.CollegeID == collegeID && rec.RollNo == rollNo && rec.Year == year &&
			rec.Session == session && rec.Class == class && rec.Subject == subject {
			mark := attendance.MarkAbsent
			if present {
				mark = attendance.MarkPresent
			}
			f.records[i].TodayMarked = mark
			f.marks++
			return nil
		}
	}
	return attendance.ErrNotFound
}

func (f *fakeService) TimetableForStudent(context.Context, string, string, string, string) ([]attendance.TimetableEntry, error) {
	return f.timetable, nil
}

func (f *fakeService) Holiday(_ context.Context, collegeID, date string) (string, bool, error) {
	occasion, ok := f.holidays[collegeID+"|"+date]
	return occasion, ok, nil
}

func newTestRouter(svc api.Service, q queue.Queue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return api.NewServer(svc, q, nil).Router()
}

func doJSON(t *testing.T, r http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestAddCollegeDuplicate(t *testing.T) {
	svc := newFakeService()
	r := newTestRouter(svc, nil)

	w := doJSON(t, r, http.MethodPost, "/add_college", gin.H{"name": "X"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var first struct {
		Success   bool   `json:"success"`
		CollegeID string `json:"collegeId"`
	}
	decode(t, w, &first)
	if !first.Success || first.CollegeID == "" {
		t.Fatalf("expected success with college id, got %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/add_college", gin.H{"name": "X"})
	var second struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decode(t, w, &second)
	if second.Success || second.Message == "" {
		t.Fatalf("expected duplicate rejection, got %s", w.Body.String())
	}
	if len(svc.colleges) != 1 {
		t.Fatalf("expected college count unchanged, got %d", len(svc.colleges))
	}
}

func TestAddCollegeValidation(t *testing.T) {
	r := newTestRouter(newFakeService(), nil)
	w := doJSON(t, r, http.MethodPost, "/add_college", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", w.Code)
	}
}

func TestGetCollegeIDNotFound(t *testing.T) {
	r := newTestRouter(newFakeService(), nil)
	w := doJSON(t, r, http.MethodPost, "/get_college_id", gin.H{"name": "nowhere"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	decode(t, w, &resp)
	if id, present := resp["collegeId"]; !present || id != nil {
		t.Fatalf("expected null collegeId, got %s", w.Body.String())
	}
	if resp["message"] == "" {
		t.Fatalf("expected a message, got %s", w.Body.String())
	}
}

func TestLoginIndistinguishable(t *testing.T) {
	svc := newFakeService()
	svc.passwords["c1|21CS001"] = "right-password"
	r := newTestRouter(svc, nil)

	wrongPw := doJSON(t, r, http.MethodPost, "/existing_user", gin.H{
		"collegeId": "c1", "rollNo": "21CS001", "plainTextPassword": "wrong",
	})
	noUser := doJSON(t, r, http.MethodPost, "/existing_user", gin.H{
		"collegeId": "c1", "rollNo": "nobody", "plainTextPassword": "wrong",
	})
	if wrongPw.Code != http.StatusOK || noUser.Code != http.StatusOK {
		t.Fatalf("expected 200s, got %d and %d", wrongPw.Code, noUser.Code)
	}
	if wrongPw.Body.String() != noUser.Body.String() {
		t.Fatalf("wrong password and missing user must be indistinguishable: %q vs %q",
			wrongPw.Body.String(), noUser.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
	}
	decode(t, wrongPw, &resp)
	if resp.Success {
		t.Fatalf("expected login failure")
	}
}

func TestMarkAttendanceNotFound(t *testing.T) {
	svc := newFakeService()
	r := newTestRouter(svc, nil)

	w := doJSON(t, r, http.MethodPost, "/mark_attendance", gin.H{
		"collegeId": "c1", "rollNo": "21CS001", "year": "2026", "session": "odd",
		"className": "CS101", "subject": "Networks", "mark": true,
	})
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decode(t, w, &resp)
	if resp.Success || resp.Message != "Record not found" {
		t.Fatalf("expected not-found failure, got %s", w.Body.String())
	}
	if svc.marks != 0 {
		t.Fatalf("expected no mutation on miss, got %d marks", svc.marks)
	}
}

func TestMarkAttendancePublishesEvent(t *testing.T) {
	svc := newFakeService()
	svc.records = []attendance.Record{{
		CollegeID: "c1", Year: "2026", Session: "odd", Class: "CS101",
		Subject: "Networks", RollNo: "21CS001", TodayMarked: attendance.MarkUnset,
	}}
	q := queue.NewInMemory(1)
	r := newTestRouter(svc, q)

	w := doJSON(t, r, http.MethodPost, "/mark_attendance", gin.H{
		"collegeId": "c1", "rollNo": "21CS001", "year": "2026", "session": "odd",
		"className": "CS101", "subject": "Networks", "mark": true,
	})
	var resp struct {
		Success bool `json:"success"`
	}
	decode(t, w, &resp)
	if !resp.Success {
		t.Fatalf("expected mark to succeed, got %s", w.Body.String())
	}
	if svc.records[0].TodayMarked != attendance.MarkPresent {
		t.Fatalf("expected today flag set to present, got %s", svc.records[0].TodayMarked)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume error: %v", err)
	}
	select {
	case msg := <-messages:
		if msg.Type != "mark" {
			t.Fatalf("expected mark message, got %s", msg.Type)
		}
		var evt attendance.MarkEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if evt.RollNo != "21CS001" || !evt.Present || evt.ID == "" {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for mark event")
	}
}

func TestMarkAttendanceMissingFlag(t *testing.T) {
	r := newTestRouter(newFakeService(), nil)
	w := doJSON(t, r, http.MethodPost, "/mark_attendance", gin.H{
		"collegeId": "c1", "rollNo": "21CS001", "year": "2026", "session": "odd",
		"className": "CS101", "subject": "Networks",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing mark flag, got %d", w.Code)
	}
}

func TestViewAttendanceSpansClasses(t *testing.T) {
	svc := newFakeService()
	svc.records = []attendance.Record{
		{Class: "CS101", Subject: "Networks", TotalDays: 10, DaysPresent: 8, Percent: 80},
		{Class: "CS102", Subject: "Databases", TotalDays: 10, DaysPresent: 10, Percent: 100},
	}
	r := newTestRouter(svc, nil)

	w := doJSON(t, r, http.MethodPost, "/view_attendance", gin.H{
		"collegeId": "c1", "rollNo": "21CS001", "year": "2026", "session": "odd",
	})
	var rows []struct {
		Class             string  `json:"Class"`
		Subject           string  `json:"Subject"`
		TotalDays         int     `json:"TotalDays"`
		DaysPresent       int     `json:"DaysPresent"`
		AttendancePercent float64 `json:"AttendancePercent"`
	}
	decode(t, w, &rows)
	if len(rows) != 2 {
		t.Fatalf("expected rows from both classes, got %d", len(rows))
	}
	classes := map[string]bool{rows[0].Class: true, rows[1].Class: true}
	if !classes["CS101"] || !classes["CS102"] {
		t.Fatalf("expected CS101 and CS102, got %s", w.Body.String())
	}
	if rows[0].AttendancePercent != 80 {
		t.Fatalf("expected percent passthrough, got %v", rows[0].AttendancePercent)
	}
}

func TestGetAllClassesShape(t *testing.T) {
	svc := newFakeService()
	svc.classes = []string{"CS101", "CS102"}
	r := newTestRouter(svc, nil)

	w := doJSON(t, r, http.MethodPost, "/get_all_classes", gin.H{
		"collegeId": "c1", "year": "2026", "session": "odd", "rollNo": "21CS001",
	})
	var resp struct {
		Classes []string `json:"classes"`
	}
	decode(t, w, &resp)
	if len(resp.Classes) != 2 {
		t.Fatalf("expected 2 classes, got %v", resp.Classes)
	}
}

func TestViewTimetableShape(t *testing.T) {
	svc := newFakeService()
	svc.timetable = []attendance.TimetableEntry{
		{Day: "Monday", Time: "09:00", Duration: "1h", Subject: "Networks", Venue: "B-204"},
	}
	r := newTestRouter(svc, nil)

	w := doJSON(t, r, http.MethodPost, "/view_timetable", gin.H{
		"collegeId": "c1", "year": "2026", "session": "odd", "rollNo": "21CS001",
	})
	var rows []struct {
		Day      string `json:"Day"`
		Time     string `json:"Time"`
		Duration string `json:"Duration"`
		Subject  string `json:"Subject"`
		Venue    string `json:"Venue"`
	}
	decode(t, w, &rows)
	if len(rows) != 1 || rows[0].Venue != "B-204" || rows[0].Day != "Monday" {
		t.Fatalf("unexpected timetable %s", w.Body.String())
	}
}

func TestIsHoliday(t *testing.T) {
	svc := newFakeService()
	svc.holidays["c1|2026-08-15"] = "Independence Day"
	r := newTestRouter(svc, nil)

	w := doJSON(t, r, http.MethodPost, "/is_holiday", gin.H{"collegeId": "c1", "date": "2026-08-15"})
	var hit struct {
		IsHoliday bool   `json:"isHoliday"`
		Occasion  string `json:"Occasion"`
	}
	decode(t, w, &hit)
	if !hit.IsHoliday || hit.Occasion != "Independence Day" {
		t.Fatalf("expected holiday hit, got %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/is_holiday", gin.H{"collegeId": "c1", "date": "2026-08-16"})
	var miss map[string]any
	decode(t, w, &miss)
	if miss["isHoliday"] != false {
		t.Fatalf("expected holiday miss, got %s", w.Body.String())
	}
	if _, present := miss["Occasion"]; present {
		t.Fatalf("expected no occasion on miss, got %s", w.Body.String())
	}
}

func TestHealthAndRoot(t *testing.T) {
	r := newTestRouter(newFakeService(), nil)

	w := doJSON(t, r, http.MethodGet, "/", nil)
	var root struct {
		Message string `json:"message"`
	}
	decode(t, w, &root)
	if root.Message == "" {
		t.Fatalf("expected a health message, got %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", w.Code)
	}
}
