// Package server provides the HTTP server for the evidence API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// UploadResponse is the HTTP response after a successful evidence upload.
type UploadResponse struct {
	// Success reports whether the file landed in the temp bucket.
	Success bool `json:"success"`
	// FilePath is the server-generated storage key.
	FilePath string `json:"filePath"`
	// Bucket is the logical bucket name the file was stored in.
	Bucket string `json:"bucket"`
	// SignedURL is a short-lived preview URL, omitted if presigning failed.
	SignedURL string `json:"signedUrl,omitempty"`
	// ExpiresIn is the preview URL validity window in seconds.
	ExpiresIn int `json:"expiresIn,omitempty"`
}

// SignedURLRequest is the HTTP request body for issuing a signed GET URL.
type SignedURLRequest struct {
	// FilePath is the storage key to read.
	FilePath string `json:"filePath" validate:"required"`
	// Bucket selects the logical bucket; defaults to temp when empty.
	Bucket string `json:"bucket" validate:"omitempty,oneof=temp permanent"`
}

// SignedURLResponse is the HTTP response carrying a signed GET URL.
type SignedURLResponse struct {
	// SignedURL is the time-bounded URL for direct object access.
	SignedURL string `json:"signedUrl"`
	// ExpiresIn is the URL validity window in seconds.
	ExpiresIn int `json:"expiresIn"`
}

// ProcessEvidenceRequest is the HTTP request body for a moderation decision.
type ProcessEvidenceRequest struct {
	// ComplaintID identifies the case whose evidence is being decided.
	ComplaintID string `json:"complaintId" validate:"required"`
	// Action is the moderation decision.
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

// ProcessEvidenceResponse is the HTTP response after a moderation decision.
type ProcessEvidenceResponse struct {
	// Success reports whether the decision was applied.
	Success bool `json:"success"`
	// Message is a human-readable summary of what happened.
	Message string `json:"message"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
