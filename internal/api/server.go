package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollbook/internal/attendance"
	"rollbook/internal/queue"
)

// Service is the slice of the attendance service the handlers need.
// *attendance.Service satisfies it; tests substitute a fake.
type Service interface {
	RegisterCollege(ctx context.Context, name string) (string, error)
	Colleges(ctx context.Context) ([]string, error)
	CollegeID(ctx context.Context, name string) (string, error)
	RegisterUser(ctx context.Context, collegeID, rollNo, name, email, role, plainPassword string) error
	VerifyUser(ctx context.Context, collegeID, rollNo, plainPassword string) (bool, error)
	SubjectsForStudent(ctx context.Context, collegeID, year, session, rollNo string) ([]string, error)
	ClassesForStudent(ctx context.Context, collegeID, year, session, rollNo string) ([]string, error)
	AttendanceForStudent(ctx context.Context, collegeID, rollNo, year, session string) ([]attendance.Record, error)
	Mark(ctx context.Context, collegeID, rollNo, year, session, class, subject string, present bool) error
	TimetableForStudent(ctx context.Context, collegeID, year, session, rollNo string) ([]attendance.TimetableEntry, error)
	Holiday(ctx context.Context, collegeID, date string) (string, bool, error)
}

// HealthChecker reports backend connectivity for /healthz.
type HealthChecker func(ctx context.Context) (db bool, redis bool)

// Server maps the HTTP surface onto the service. Every endpoint is a
// stateless pass-through to one service call.
type Server struct {
	svc    Service
	q      queue.Queue
	health HealthChecker
}

// NewServer creates a server. The queue may be nil when mark auditing is
// disabled; the health checker may be nil in tests.
func NewServer(svc Service, q queue.Queue, health HealthChecker) *Server {
	return &Server{svc: svc, q: q, health: health}
}

// Router builds the gin handler with all routes attached. Extra middleware
// from the caller is installed before any route so it covers all of them.
func (s *Server) Router(middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(middleware...)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Attendance Backend Running"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.handleHealthz)

	r.POST("/add_college", s.handleAddCollege)
	r.GET("/get_colleges", s.handleGetColleges)
	r.POST("/get_college_id", s.handleGetCollegeID)
	r.POST("/new_user", s.handleNewUser)
	r.POST("/existing_user", s.handleExistingUser)
	r.POST("/view_courses", s.handleViewCourses)
	r.POST("/get_all_classes", s.handleGetAllClasses)
	r.POST("/view_attendance", s.handleViewAttendance)
	r.POST("/mark_attendance", s.handleMarkAttendance)
	r.POST("/view_timetable", s.handleViewTimetable)
	r.POST("/is_holiday", s.handleIsHoliday)

	return r
}

func (s *Server) handleHealthz(c *gin.Context) {
	dbHealthy, redisHealthy := true, true
	if s.health != nil {
		dbHealthy, redisHealthy = s.health(c.Request.Context())
	}
	status := http.StatusOK
	if !dbHealthy || !redisHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
}

func (s *Server) handleAddCollege(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := s.svc.RegisterCollege(c.Request.Context(), req.Name)
	if errors.Is(err, attendance.ErrAlreadyExists) {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "College already exists"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "collegeId": id})
}

func (s *Server) handleGetColleges(c *gin.Context) {
	names, err := s.svc.Colleges(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"colleges": names})
}

func (s *Server) handleGetCollegeID(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := s.svc.CollegeID(c.Request.Context(), req.Name)
	if err != nil {
		internalError(c, err)
		return
	}
	if id == "" {
		c.JSON(http.StatusOK, gin.H{"collegeId": nil, "message": "College not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"collegeId": id})
}

func (s *Server) handleNewUser(c *gin.Context) {
	var req struct {
		CollegeID         string `json:"collegeId" binding:"required"`
		RollNo            string `json:"rollNo" binding:"required"`
		Name              string `json:"name" binding:"required"`
		Email             string `json:"email" binding:"required,email"`
		Role              string `json:"role" binding:"required,oneof=Student Teacher"`
		PlainTextPassword string `json:"plainTextPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.svc.RegisterUser(c.Request.Context(), req.CollegeID, req.RollNo, req.Name, req.Email, req.Role, req.PlainTextPassword)
	if errors.Is(err, attendance.ErrAlreadyExists) {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "User already exists"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User added"})
}

func (s *Server) handleExistingUser(c *gin.Context) {
	var req struct {
		CollegeID         string `json:"collegeId" binding:"required"`
		RollNo            string `json:"rollNo" binding:"required"`
		PlainTextPassword string `json:"plainTextPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ok, err := s.svc.VerifyUser(c.Request.Context(), req.CollegeID, req.RollNo, req.PlainTextPassword)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

type studentScope struct {
	CollegeID string `json:"collegeId" binding:"required"`
	Year      string `json:"year" binding:"required"`
	Session   string `json:"session" binding:"required"`
	RollNo    string `json:"rollNo" binding:"required"`
}

func (s *Server) handleViewCourses(c *gin.Context) {
	var req studentScope
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	subjects, err := s.svc.SubjectsForStudent(c.Request.Context(), req.CollegeID, req.Year, req.Session, req.RollNo)
	if err != nil {
		internalError(c, err)
		return
	}
	if subjects == nil {
		subjects = []string{}
	}
	c.JSON(http.StatusOK, subjects)
}

func (s *Server) handleGetAllClasses(c *gin.Context) {
	var req studentScope
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	classes, err := s.svc.ClassesForStudent(c.Request.Context(), req.CollegeID, req.Year, req.Session, req.RollNo)
	if err != nil {
		internalError(c, err)
		return
	}
	if classes == nil {
		classes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

type attendanceRow struct {
	Class             string  `json:"Class"`
	Subject           string  `json:"Subject"`
	TotalDays         int     `json:"TotalDays"`
	DaysPresent       int     `json:"DaysPresent"`
	AttendancePercent float64 `json:"AttendancePercent"`
}

func (s *Server) handleViewAttendance(c *gin.Context) {
	var req struct {
		CollegeID string `json:"collegeId" binding:"required"`
		RollNo    string `json:"rollNo" binding:"required"`
		Year      string `json:"year" binding:"required"`
		Session   string `json:"session" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	records, err := s.svc.AttendanceForStudent(c.Request.Context(), req.CollegeID, req.RollNo, req.Year, req.Session)
	if err != nil {
		internalError(c, err)
		return
	}
	rows := make([]attendanceRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, attendanceRow{
			Class:             rec.Class,
			Subject:           rec.Subject,
			TotalDays:         rec.TotalDays,
			DaysPresent:       rec.DaysPresent,
			AttendancePercent: rec.Percent,
		})
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleMarkAttendance(c *gin.Context) {
	var req struct {
		CollegeID string `json:"collegeId" binding:"required"`
		RollNo    string `json:"rollNo" binding:"required"`
		Year      string `json:"year" binding:"required"`
		Session   string `json:"session" binding:"required"`
		ClassName string `json:"className" binding:"required"`
		Subject   string `json:"subject" binding:"required"`
		Mark      *bool  `json:"mark" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.svc.Mark(c.Request.Context(), req.CollegeID, req.RollNo, req.Year, req.Session, req.ClassName, req.Subject, *req.Mark)
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Record not found"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	s.publishMarkEvent(c.Request.Context(), attendance.MarkEvent{
		ID:        uuid.NewString(),
		CollegeID: req.CollegeID,
		RollNo:    req.RollNo,
		Year:      req.Year,
		Session:   req.Session,
		Class:     req.ClassName,
		Subject:   req.Subject,
		Present:   *req.Mark,
		MarkedAt:  time.Now().UTC(),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Attendance marked"})
}

type timetableRow struct {
	Day      string `json:"Day"`
	Time     string `json:"Time"`
	Duration string `json:"Duration"`
	Subject  string `json:"Subject"`
	Venue    string `json:"Venue"`
}

func (s *Server) handleViewTimetable(c *gin.Context) {
	var req studentScope
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	entries, err := s.svc.TimetableForStudent(c.Request.Context(), req.CollegeID, req.Year, req.Session, req.RollNo)
	if err != nil {
		internalError(c, err)
		return
	}
	rows := make([]timetableRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, timetableRow{
			Day:      e.Day,
			Time:     e.Time,
			Duration: e.Duration,
			Subject:  e.Subject,
			Venue:    e.Venue,
		})
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleIsHoliday(c *gin.Context) {
	var req struct {
		CollegeID string `json:"collegeId" binding:"required"`
		Date      string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	occasion, found, err := s.svc.Holiday(c.Request.Context(), req.CollegeID, req.Date)
	if err != nil {
		internalError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"isHoliday": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"isHoliday": true, "Occasion": occasion})
}

func (s *Server) publishMarkEvent(ctx context.Context, evt attendance.MarkEvent) {
	if s.q == nil {
		return
	}
	body, err := json.Marshal(evt)
	if err != nil {
		log.Printf("mark event marshal failed: %v", err)
		return
	}
	if err := s.q.Publish(ctx, queue.Message{Type: "mark", Body: body}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
}

func internalError(c *gin.Context, err error) {
	log.Printf("request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
}
