package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/academic/attendance"
	"rollcall/internal/academic/catalog"
	"rollcall/internal/academic/models"
	"rollcall/internal/platform/auth"
	"rollcall/internal/platform/middleware"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
)

// CatalogService is the slice of the catalog service the HTTP layer needs.
type CatalogService interface {
	CreateCourse(ctx context.Context, in catalog.CourseInput) (*models.Course, error)
	UpdateCourse(ctx context.Context, id string, in catalog.CourseInput) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)

	CreateClass(ctx context.Context, in catalog.ClassInput) (*models.Class, error)
	UpdateClass(ctx context.Context, id string, in catalog.ClassInput) (*models.Class, error)
	DeleteClass(ctx context.Context, id string) error
	GetClass(ctx context.Context, id string) (*models.Class, error)
	ListClasses(ctx context.Context) ([]*models.Class, error)

	CreateSchedule(ctx context.Context, in catalog.ScheduleInput) (*models.Schedule, error)
	UpdateSchedule(ctx context.Context, id string, in catalog.ScheduleInput) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context) ([]*models.Schedule, error)
}

// SessionService is the slice of the session service the HTTP layer needs.
type SessionService interface {
	Open(ctx context.Context, principal auth.Principal, scheduleID, sessionDate string) (*models.Session, error)
	Close(ctx context.Context, principal auth.Principal, sessionID string) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]*models.Session, error)
	ListOpen(ctx context.Context) ([]*models.Session, error)
}

// AttendanceService is the slice of the attendance service the HTTP layer needs.
type AttendanceService interface {
	Record(ctx context.Context, in attendance.RecordInput) (*models.Attendance, error)
	SessionRoster(ctx context.Context, sessionID string) ([]attendance.RosterEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Attendance, error)
}

// Handler exposes the academic API. Every route requires a lecturer token.
type Handler struct {
	catalog     CatalogService
	sessions    SessionService
	attendances AttendanceService
	verifier    middleware.TokenVerifier
	logger      *slog.Logger
}

func New(catalogSvc CatalogService, sessions SessionService, attendances AttendanceService, verifier middleware.TokenVerifier, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:     catalogSvc,
		sessions:    sessions,
		attendances: attendances,
		verifier:    verifier,
		logger:      logger,
	}
}

// Register mounts the academic routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.RequireAuth(h.verifier, h.logger))

	router.Post("/courses", h.handleCreateCourse)
	router.Put("/courses/{id}", h.handleUpdateCourse)
	router.Delete("/courses/{id}", h.handleDeleteCourse)
	router.Get("/courses", h.handleListCourses)
	router.Get("/courses/{id}", h.handleGetCourse)

	router.Post("/classes", h.handleCreateClass)
	router.Put("/classes/{id}", h.handleUpdateClass)
	router.Delete("/classes/{id}", h.handleDeleteClass)
	router.Get("/classes", h.handleListClasses)
	router.Get("/classes/{id}", h.handleGetClass)

	router.Post("/schedules", h.handleCreateSchedule)
	router.Put("/schedules/{id}", h.handleUpdateSchedule)
	router.Delete("/schedules/{id}", h.handleDeleteSchedule)
	router.Get("/schedules", h.handleListSchedules)
	router.Get("/schedules/{id}", h.handleGetSchedule)
	router.Get("/schedules/{id}/sessions", h.handleListScheduleSessions)

	router.Post("/sessions", h.handleOpenSession)
	router.Put("/sessions/{id}/close", h.handleCloseSession)
	router.Get("/sessions", h.handleListOpenSessions)
	router.Get("/sessions/{id}", h.handleGetSession)
	router.Get("/sessions/{id}/attendances", h.handleSessionRoster)

	router.Post("/attendances", h.handleRecordAttendance)
	router.Get("/students/{id}/attendances", h.handleStudentAttendance)

	r.Mount("/", router)
}

func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing authentication"))
	}
	return p, ok
}

type courseRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Credits    int    `json:"credits"`
	LecturerID string `json:"lecturer_id"`
}

type courseResponse struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Credits    int       `json:"credits"`
	LecturerID string    `json:"lecturer_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toCourseResponse(c *models.Course) courseResponse {
	return courseResponse{
		ID:         c.ID,
		Code:       c.Code,
		Name:       c.Name,
		Credits:    c.Credits,
		LecturerID: c.LecturerID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (h *Handler) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if req.LecturerID == "" {
		req.LecturerID = p.LecturerID
	}
	course, err := h.catalog.CreateCourse(r.Context(), catalog.CourseInput{
		Code:       req.Code,
		Name:       req.Name,
		Credits:    req.Credits,
		LecturerID: req.LecturerID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCourseResponse(course))
}

func (h *Handler) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	course, err := h.catalog.UpdateCourse(r.Context(), chi.URLParam(r, "id"), catalog.CourseInput{
		Code:       req.Code,
		Name:       req.Name,
		Credits:    req.Credits,
		LecturerID: req.LecturerID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCourseResponse(course))
}

func (h *Handler) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCourse(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourseResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.catalog.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCourseResponse(course))
}

type classRequest struct {
	Semester string `json:"semester"`
	Major    string `json:"major"`
	Group    string `json:"group"`
}

type classResponse struct {
	ID        string    `json:"id"`
	Semester  string    `json:"semester"`
	Major     string    `json:"major"`
	Group     string    `json:"group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toClassResponse(c *models.Class) classResponse {
	return classResponse{
		ID:        c.ID,
		Semester:  c.Semester,
		Major:     c.Major,
		Group:     c.Group,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (h *Handler) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	class, err := h.catalog.CreateClass(r.Context(), catalog.ClassInput(req))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toClassResponse(class))
}

func (h *Handler) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	class, err := h.catalog.UpdateClass(r.Context(), chi.URLParam(r, "id"), catalog.ClassInput(req))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClassResponse(class))
}

func (h *Handler) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteClass(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.catalog.ListClasses(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]classResponse, 0, len(classes))
	for _, c := range classes {
		out = append(out, toClassResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetClass(w http.ResponseWriter, r *http.Request) {
	class, err := h.catalog.GetClass(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClassResponse(class))
}

type scheduleRequest struct {
	ClassID   string `json:"class_id"`
	CourseID  string `json:"course_id"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Room      string `json:"room"`
}

type scheduleResponse struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	CourseID  string    `json:"course_id"`
	DayOfWeek string    `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Room      string    `json:"room,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toScheduleResponse(s *models.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:        s.ID,
		ClassID:   s.ClassID,
		CourseID:  s.CourseID,
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Room:      s.Room,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (h *Handler) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sched, err := h.catalog.CreateSchedule(r.Context(), catalog.ScheduleInput(req))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toScheduleResponse(sched))
}

func (h *Handler) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sched, err := h.catalog.UpdateSchedule(r.Context(), chi.URLParam(r, "id"), catalog.ScheduleInput(req))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toScheduleResponse(sched))
}

func (h *Handler) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteSchedule(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.catalog.ListSchedules(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, toScheduleResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.catalog.GetSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toScheduleResponse(sched))
}

func (h *Handler) handleListScheduleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListBySchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type openSessionRequest struct {
	ScheduleID  string `json:"schedule_id"`
	SessionDate string `json:"session_date"`
}

type sessionResponse struct {
	ID          string     `json:"id"`
	ScheduleID  string     `json:"schedule_id"`
	SessionDate string     `json:"session_date"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	IsOpen      bool       `json:"is_open"`
}

func toSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		ScheduleID:  s.ScheduleID,
		SessionDate: s.SessionDate,
		OpenedAt:    s.OpenedAt,
		ClosedAt:    s.ClosedAt,
		IsOpen:      s.IsOpen,
	}
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	sess, err := h.sessions.Open(r.Context(), p, req.ScheduleID, req.SessionDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	sess, err := h.sessions.Close(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) handleListOpenSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListOpen(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

type attendanceRequest struct {
	SessionID string `json:"session_id"`
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

type attendanceResponse struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	StudentID   string    `json:"student_id"`
	Status      string    `json:"status"`
	RecordedAt  time.Time `json:"recorded_at"`
	StudentNIM  string    `json:"student_nim,omitempty"`
	StudentName string    `json:"student_name,omitempty"`
}

func toAttendanceResponse(a *models.Attendance) attendanceResponse {
	return attendanceResponse{
		ID:         a.ID,
		SessionID:  a.SessionID,
		StudentID:  a.StudentID,
		Status:     string(a.Status),
		RecordedAt: a.RecordedAt,
	}
}

func (h *Handler) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.attendances.Record(r.Context(), attendance.RecordInput(req))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAttendanceResponse(record))
}

func (h *Handler) handleSessionRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.attendances.SessionRoster(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]attendanceResponse, 0, len(roster))
	for _, entry := range roster {
		resp := toAttendanceResponse(&entry.Record)
		resp.StudentNIM = entry.StudentNIM
		resp.StudentName = entry.StudentName
		out = append(out, resp)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleStudentAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := h.attendances.ListByStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]attendanceResponse, 0, len(records))
	for _, a := range records {
		out = append(out, toAttendanceResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
