package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/platform/middleware"
	"rollcall/internal/registry/models"
	"rollcall/internal/registry/service"
	"rollcall/pkg/platform/httputil"
)

// Service is the slice of the registry service the HTTP layer needs.
type Service interface {
	AddStudent(ctx context.Context, in service.AddStudentInput) (*models.Student, error)
	UpdateStudent(ctx context.Context, id string, in service.UpdateStudentInput) (*models.Student, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	GetStudentByNIM(ctx context.Context, nim string) (*models.Student, error)
	ListStudents(ctx context.Context) ([]*models.Student, error)
}

// Handler exposes the student registry API.
type Handler struct {
	students Service
	logger   *slog.Logger
}

func New(students Service, logger *slog.Logger) *Handler {
	return &Handler{students: students, logger: logger}
}

// Register mounts the registry routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))

	router.Post("/students", h.handleAddStudent)
	router.Put("/students/{id}", h.handleUpdateStudent)
	router.Get("/students", h.handleListStudents)
	router.Get("/students/{id}", h.handleGetStudent)
	router.Get("/students/nim/{nim}", h.handleGetStudentByNIM)

	r.Mount("/", router)
}

type studentRequest struct {
	NIM   string `json:"nim"`
	Name  string `json:"name"`
	Major string `json:"major"`
}

type studentResponse struct {
	ID        string    `json:"id"`
	NIM       string    `json:"nim"`
	Name      string    `json:"name"`
	Major     string    `json:"major"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toStudentResponse(s *models.Student) studentResponse {
	return studentResponse{
		ID:        s.ID,
		NIM:       s.NIM,
		Name:      s.Name,
		Major:     s.Major,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (h *Handler) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	student, err := h.students.AddStudent(r.Context(), service.AddStudentInput{
		NIM:   req.NIM,
		Name:  req.Name,
		Major: req.Major,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toStudentResponse(student))
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	student, err := h.students.UpdateStudent(r.Context(), chi.URLParam(r, "id"), service.UpdateStudentInput{
		Name:  req.Name,
		Major: req.Major,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStudentResponse(student))
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.ListStudents(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]studentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.students.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStudentResponse(student))
}

func (h *Handler) handleGetStudentByNIM(w http.ResponseWriter, r *http.Request) {
	student, err := h.students.GetStudentByNIM(r.Context(), chi.URLParam(r, "nim"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStudentResponse(student))
}
