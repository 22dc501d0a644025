package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/vendorwatch/evidence-api/internal/access"
	"github.com/vendorwatch/evidence-api/internal/promote"
	"github.com/vendorwatch/evidence-api/internal/upload"
)

// defaultMaxUploadBytes caps multipart bodies when no limit is configured.
const defaultMaxUploadBytes = 25 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	gateway        *upload.Gateway
	issuer         *access.Issuer
	workflow       *promote.Workflow
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes bounds the accepted multipart body size.
func WithMaxUploadBytes(limit int64) HandlerOption {
	return func(h *Handlers) {
		if limit > 0 {
			h.maxUploadBytes = limit
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(gateway *upload.Gateway, issuer *access.Issuer, workflow *promote.Workflow, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		gateway:        gateway,
		issuer:         issuer,
		workflow:       workflow,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// UploadEvidence handles POST /evidence/upload requests. The body is
// multipart form data with fields file, complaintId and an optional
// originalFileName and description.
func (h *Handlers) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "Missing file or complaintId", "INVALID_UPLOAD")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file or complaintId", "INVALID_UPLOAD")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("failed to read uploaded file",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "Missing file or complaintId", "INVALID_UPLOAD")
		return
	}

	originalName := r.FormValue("originalFileName")
	if originalName == "" {
		originalName = header.Filename
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.gateway.Upload(r.Context(), upload.Input{
		UserID:           identity.UserID,
		CaseID:           r.FormValue("complaintId"),
		OriginalFileName: originalName,
		ContentType:      contentType,
		Data:             data,
		Description:      r.FormValue("description"),
	})
	if err != nil {
		if errors.Is(err, upload.ErrMissingFile) || errors.Is(err, upload.ErrMissingCaseID) {
			writeError(w, http.StatusBadRequest, "Missing file or complaintId", "INVALID_UPLOAD")
			return
		}
		h.logger.Error("evidence upload failed",
			slog.String("case_id", r.FormValue("complaintId")),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Upload failed", "UPLOAD_FAILED")
		return
	}

	h.logger.Info("evidence uploaded",
		slog.String("case_id", r.FormValue("complaintId")),
		slog.String("file_path", result.FilePath),
		slog.String("user_id", identity.UserID),
	)

	writeJSON(w, http.StatusOK, UploadResponse{
		Success:   true,
		FilePath:  result.FilePath,
		Bucket:    result.Bucket,
		SignedURL: result.SignedURL,
		ExpiresIn: result.ExpiresIn,
	})
}

// CreateSignedURL handles POST /evidence/signed-url requests.
func (h *Handlers) CreateSignedURL(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	var req SignedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	issued, err := h.issuer.IssueGetURL(r.Context(), identity, req.FilePath, req.Bucket)
	if err != nil {
		if errors.Is(err, access.ErrAccessDenied) {
			writeError(w, http.StatusForbidden, "Access denied", "ACCESS_DENIED")
			return
		}
		h.logger.Error("signed URL issuance failed",
			slog.String("file_path", req.FilePath),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create signed URL", "SIGNING_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, SignedURLResponse{
		SignedURL: issued.URL,
		ExpiresIn: issued.ExpiresIn,
	})
}

// ProcessEvidence handles POST /evidence/process requests. Only moderators
// and admins may record a decision.
func (h *Handlers) ProcessEvidence(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}
	if !identity.CanModerate() {
		writeError(w, http.StatusForbidden, "Insufficient permissions", "FORBIDDEN")
		return
	}

	var req ProcessEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "Invalid action", "VALIDATION_ERROR")
		return
	}

	result, err := h.workflow.Process(r.Context(), req.ComplaintID, promote.Decision(req.Action))
	if err != nil {
		switch {
		case errors.Is(err, promote.ErrInvalidDecision):
			writeError(w, http.StatusBadRequest, "Invalid action", "INVALID_ACTION")
		case errors.Is(err, promote.ErrPromotionInProgress):
			writeError(w, http.StatusConflict, "Promotion already in progress", "PROMOTION_IN_PROGRESS")
		default:
			h.logger.Error("evidence processing failed",
				slog.String("case_id", req.ComplaintID),
				slog.String("action", req.Action),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to process evidence", "PROCESSING_FAILED")
		}
		return
	}

	h.logger.Info("evidence processed",
		slog.String("case_id", req.ComplaintID),
		slog.String("action", req.Action),
		slog.Int("promoted", result.Promoted),
		slog.Int("failed", result.Failed),
	)

	writeJSON(w, http.StatusOK, ProcessEvidenceResponse{
		Success: true,
		Message: result.Message,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
