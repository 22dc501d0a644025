package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vendorwatch/evidence-api/internal/sigv4"
)

// maxPresignExpiry is the provider-side ceiling for presigned URL validity.
const maxPresignExpiry = 7 * 24 * time.Hour

// errorBodyLimit caps how much of an upstream error body is kept for
// diagnostics.
const errorBodyLimit = 2048

// Static errors for client construction.
var (
	// ErrAccountIDRequired is returned when the credentials carry no account ID.
	ErrAccountIDRequired = errors.New("objectstore: account ID is required")
	// ErrKeysRequired is returned when the access key pair is incomplete.
	ErrKeysRequired = errors.New("objectstore: access key ID and secret access key are required")
)

// Compile-time check that Client implements Store.
var _ Store = (*Client)(nil)

// Client is the HTTP implementation of the Store interface. Every request
// is signed with SigV4 and addressed path-style: {endpoint}/{bucket}/{key}.
type Client struct {
	signer     *sigv4.Signer
	endpoint   string
	httpClient *http.Client
	clock      func() time.Time
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithEndpoint overrides the endpoint derived from the account ID.
// Used by tests to point the client at a local server.
func WithEndpoint(endpoint string) ClientOption {
	return func(cl *Client) {
		cl.endpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithClock fixes the signing clock. Used by tests.
func WithClock(now func() time.Time) ClientOption {
	return func(cl *Client) {
		cl.clock = now
	}
}

// NewClient creates an object store client for the given credentials.
// The endpoint defaults to the account-scoped provider host.
func NewClient(creds sigv4.Credentials, opts ...ClientOption) (*Client, error) {
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, ErrKeysRequired
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.endpoint == "" {
		if creds.AccountID == "" {
			return nil, ErrAccountIDRequired
		}
		c.endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", creds.AccountID)
	}

	signerOpts := []sigv4.Option{}
	if c.clock != nil {
		signerOpts = append(signerOpts, sigv4.WithClock(c.clock))
	}
	c.signer = sigv4.New(creds, signerOpts...)

	return c, nil
}

// Put uploads body to bucket/key, signing the body hash into the request.
func (c *Client) Put(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error {
	u, err := c.objectURL(bucket, key)
	if err != nil {
		return err
	}

	headers := http.Header{}
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	for name, value := range metadata {
		headers.Set("x-amz-meta-"+strings.ToLower(name), value)
	}

	signed := c.signer.Sign(http.MethodPut, u, headers, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("objectstore: build PUT request: %w", err)
	}
	applyHeaders(req, signed)

	return c.do(req, "PUT", bucket, key, nil)
}

// PresignGet returns a signed GET URL for bucket/key. The expiry is clamped
// to the provider maximum of 7 days.
func (c *Client) PresignGet(bucket, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = time.Hour
	}
	if expiry > maxPresignExpiry {
		expiry = maxPresignExpiry
	}

	u, err := c.objectURL(bucket, key)
	if err != nil {
		return "", err
	}

	return c.signer.Presign(http.MethodGet, u, expiry).String(), nil
}

// Copy performs a native server-side copy: a PUT against the destination
// with the source encoded in the x-amz-copy-source header. Content type and
// metadata are carried over by the store.
func (c *Client) Copy(ctx context.Context, destBucket, key, sourceBucket string) error {
	u, err := c.objectURL(destBucket, key)
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("x-amz-copy-source", "/"+sourceBucket+"/"+encodeKey(key))

	signed := c.signer.Sign(http.MethodPut, u, headers, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), nil)
	if err != nil {
		return fmt.Errorf("objectstore: build COPY request: %w", err)
	}
	applyHeaders(req, signed)

	return c.do(req, "COPY", destBucket, key, nil)
}

// Delete removes bucket/key. A 404 from the store is treated as success so
// the operation stays idempotent.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	u, err := c.objectURL(bucket, key)
	if err != nil {
		return err
	}

	signed := c.signer.Sign(http.MethodDelete, u, nil, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.String(), nil)
	if err != nil {
		return fmt.Errorf("objectstore: build DELETE request: %w", err)
	}
	applyHeaders(req, signed)

	return c.do(req, "DELETE", bucket, key, []int{http.StatusNotFound})
}

// do executes the request and maps non-2xx responses (minus tolerated
// statuses) to an OperationError.
func (c *Client) do(req *http.Request, op, bucket, key string, tolerated []int) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("objectstore: %s %s/%s: %w", op, bucket, key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	for _, status := range tolerated {
		if resp.StatusCode == status {
			return nil
		}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &OperationError{
		Op:         op,
		Bucket:     bucket,
		Key:        key,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// objectURL builds the path-style URL for bucket/key.
func (c *Client) objectURL(bucket, key string) (*url.URL, error) {
	u, err := url.Parse(c.endpoint + "/" + bucket + "/" + encodeKey(key))
	if err != nil {
		return nil, fmt.Errorf("objectstore: build object URL for %s/%s: %w", bucket, key, err)
	}
	return u, nil
}

// encodeKey escapes each segment of a storage key, preserving slashes.
func encodeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// applyHeaders copies the signed header set onto the outgoing request.
// The Host header must be set via the request field, not the header map.
func applyHeaders(req *http.Request, signed http.Header) {
	for name, values := range signed {
		if http.CanonicalHeaderKey(name) == "Host" {
			req.Host = values[0]
			continue
		}
		for _, v := range values {
			req.Header.Set(name, v)
		}
	}
}
