package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/resumebuilder/internal/logging"
	"github.com/HammerMeetNail/resumebuilder/internal/models"
	"github.com/HammerMeetNail/resumebuilder/internal/services"
)

type ResumeHandler struct {
	resumeService services.ResumeServiceInterface
}

func NewResumeHandler(resumeService services.ResumeServiceInterface) *ResumeHandler {
	return &ResumeHandler{resumeService: resumeService}
}

type ResumeResponse struct {
	Resume  *models.Resume   `json:"resume,omitempty"`
	Resumes []*models.Resume `json:"resumes,omitempty"`
}

func (h *ResumeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var content models.ResumeContent
	if err := decodeJSON(w, r, &content); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resume, err := h.resumeService.Create(r.Context(), user.ID, content)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ResumeResponse{Resume: resume})
}

func (h *ResumeHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	resumes, err := h.resumeService.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// always emit an array
	writeJSON(w, http.StatusOK, struct {
		Resumes []*models.Resume `json:"resumes"`
	}{Resumes: resumes})
}

func (h *ResumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	resumeID, err := parseResumeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid resume ID")
		return
	}

	resume, err := h.resumeService.Get(r.Context(), user.ID, resumeID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ResumeResponse{Resume: resume})
}

func (h *ResumeHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	resumeID, err := parseResumeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid resume ID")
		return
	}

	var content models.ResumeContent
	if err := decodeJSON(w, r, &content); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resume, err := h.resumeService.Update(r.Context(), user.ID, resumeID, content)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ResumeResponse{Resume: resume})
}

func (h *ResumeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	resumeID, err := parseResumeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid resume ID")
		return
	}

	if err := h.resumeService.Delete(r.Context(), user.ID, resumeID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Resume deleted"})
}

func (h *ResumeHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrResumeNotFound):
		writeError(w, http.StatusNotFound, "Resume not found")
	case errors.Is(err, services.ErrTitleTooLong):
		writeError(w, http.StatusBadRequest, "Title must be 100 characters or fewer")
	case errors.Is(err, services.ErrInvalidTemplate):
		writeError(w, http.StatusBadRequest, "Template must be one of modern, classic, minimal")
	default:
		logging.FromContext(r.Context()).Error("Resume operation failed", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseResumeID(r *http.Request) (uuid.UUID, error) {
	// Extract resume ID from path: /api/resumes/{id}
	parts := strings.Split(r.URL.Path, "/")
	for i, part := range parts {
		if part == "resumes" && i+1 < len(parts) {
			return uuid.Parse(parts[i+1])
		}
	}
	return uuid.Nil, errors.New("resume ID not found in path")
}
