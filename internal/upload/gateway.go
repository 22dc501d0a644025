// Package upload lands evidence files in the temporary bucket under freshly
// minted storage keys and records them for later moderation.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vendorwatch/evidence-api/internal/evidence"
	"github.com/vendorwatch/evidence-api/internal/evidence/key"
	"github.com/vendorwatch/evidence-api/internal/objectstore"
)

// BucketName is the logical name of the upload target reported to callers.
const BucketName = "temp"

// Static errors for upload validation, checked before any storage call.
var (
	// ErrMissingFile is returned when the request carries no file payload.
	ErrMissingFile = errors.New("upload: missing file")
	// ErrMissingCaseID is returned when the complaint ID is absent.
	ErrMissingCaseID = errors.New("upload: missing complaint ID")
)

// Input is one file to upload on behalf of an authenticated caller.
type Input struct {
	// UserID is the verified uploader identity.
	UserID string
	// CaseID is the complaint the file belongs to.
	CaseID string
	// OriginalFileName is kept as metadata only; never part of the key.
	OriginalFileName string
	// ContentType is the declared MIME type.
	ContentType string
	// Data is the raw file payload.
	Data []byte
	// Description is optional free text shown alongside the file.
	Description string
}

// Result reports where the file landed.
type Result struct {
	FilePath  string
	Bucket    string
	SignedURL string
	ExpiresIn int
}

// Gateway uploads evidence to the temp bucket.
type Gateway struct {
	store      objectstore.Store
	records    evidence.Repository
	tempBucket string
	urlTTL     time.Duration
	logger     *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithSignedURLTTL overrides the preview URL validity.
func WithSignedURLTTL(ttl time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.urlTTL = ttl
	}
}

// NewGateway creates an upload gateway targeting tempBucket.
func NewGateway(store objectstore.Store, records evidence.Repository, tempBucket string, logger *slog.Logger, opts ...GatewayOption) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		store:      store,
		records:    records,
		tempBucket: tempBucket,
		urlTTL:     time.Hour,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Upload validates the input, mints a storage key, PUTs the file to the
// temp bucket and records it. The evidence record is only created after the
// PUT succeeds, so a storage failure leaves no partial record. A presigned
// preview URL is attached when signing succeeds.
func (g *Gateway) Upload(ctx context.Context, in Input) (*Result, error) {
	if len(in.Data) == 0 {
		return nil, ErrMissingFile
	}
	if in.CaseID == "" {
		return nil, ErrMissingCaseID
	}

	filePath := key.New(in.CaseID, in.OriginalFileName)

	metadata := map[string]string{
		"originalfilename": in.OriginalFileName,
		"uploadedby":       in.UserID,
		"complaintid":      in.CaseID,
		"uploadedat":       time.Now().UTC().Format(time.RFC3339),
	}

	if err := g.store.Put(ctx, g.tempBucket, filePath, in.Data, in.ContentType, metadata); err != nil {
		return nil, fmt.Errorf("upload: put %s: %w", filePath, err)
	}

	record := &evidence.Record{
		ID:          uuid.NewString(),
		CaseID:      in.CaseID,
		FilePath:    filePath,
		FileName:    in.OriginalFileName,
		MimeType:    in.ContentType,
		SizeBytes:   int64(len(in.Data)),
		Description: in.Description,
		Location:    evidence.LocationTemporary,
		UploadedBy:  in.UserID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := g.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("upload: record %s: %w", filePath, err)
	}

	result := &Result{
		FilePath:  filePath,
		Bucket:    BucketName,
		ExpiresIn: int(g.urlTTL / time.Second),
	}

	signedURL, err := g.store.PresignGet(g.tempBucket, filePath, g.urlTTL)
	if err != nil {
		// The upload itself succeeded; the preview URL is best effort.
		g.logger.Warn("presign preview URL failed",
			slog.String("file_path", filePath),
			slog.String("error", err.Error()),
		)
		result.ExpiresIn = 0
		return result, nil
	}
	result.SignedURL = signedURL

	g.logger.Info("evidence uploaded",
		slog.String("case_id", in.CaseID),
		slog.String("file_path", filePath),
		slog.Int64("size_bytes", record.SizeBytes),
	)

	return result, nil
}
