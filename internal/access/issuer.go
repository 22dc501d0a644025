// Package access mediates every evidence read: a signed URL is only issued
// after an authorization predicate allows the caller to see the file.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendorwatch/evidence-api/internal/auth"
	"github.com/vendorwatch/evidence-api/internal/objectstore"
)

// Bucket names as callers address them on the wire.
const (
	BucketTemp      = "temp"
	BucketPermanent = "permanent"
)

// ErrAccessDenied is the single denial outcome. A nonexistent key and a key
// the caller may not read are deliberately indistinguishable, so existence
// of evidence never leaks through this error.
var ErrAccessDenied = errors.New("access: denied")

// Policy is the authorization predicate, owned by the surrounding
// application. It reports whether the identity may read the file.
type Policy func(ctx context.Context, identity auth.Identity, filePath string) (bool, error)

// IssuedURL is a signed GET URL with its validity window.
type IssuedURL struct {
	URL       string
	ExpiresIn int
}

// Issuer checks the policy and signs GET URLs with a bounded expiry.
type Issuer struct {
	store      objectstore.Store
	policy     Policy
	tempBucket string
	permBucket string
	urlTTL     time.Duration
	logger     *slog.Logger
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithSignedURLTTL overrides the URL validity window.
func WithSignedURLTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.urlTTL = ttl
	}
}

// NewIssuer creates an access-gated URL issuer.
func NewIssuer(store objectstore.Store, policy Policy, tempBucket, permBucket string, logger *slog.Logger, opts ...IssuerOption) *Issuer {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Issuer{
		store:      store,
		policy:     policy,
		tempBucket: tempBucket,
		permBucket: permBucket,
		urlTTL:     time.Hour,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IssueGetURL runs the policy for the caller and, if permitted, returns a
// signed GET URL for filePath in the requested bucket ("temp" by default).
// A policy error or a false verdict both deny: the issuer never fails open.
func (i *Issuer) IssueGetURL(ctx context.Context, identity auth.Identity, filePath, bucket string) (*IssuedURL, error) {
	if i.policy == nil {
		return nil, ErrAccessDenied
	}

	allowed, err := i.policy(ctx, identity, filePath)
	if err != nil {
		i.logger.Warn("authorization predicate failed",
			slog.String("user_id", identity.UserID),
			slog.String("error", err.Error()),
		)
		return nil, ErrAccessDenied
	}
	if !allowed {
		return nil, ErrAccessDenied
	}

	bucketName := i.tempBucket
	if bucket == BucketPermanent {
		bucketName = i.permBucket
	}

	signedURL, err := i.store.PresignGet(bucketName, filePath, i.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("access: presign %s: %w", filePath, err)
	}

	return &IssuedURL{
		URL:       signedURL,
		ExpiresIn: int(i.urlTTL / time.Second),
	}, nil
}
