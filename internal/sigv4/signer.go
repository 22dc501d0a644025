// Package sigv4 implements AWS Signature Version 4 request signing for an
// S3-compatible object store, without an external signing library. It
// produces either an Authorization header (direct requests) or a signed
// query string (presigned URLs).
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// Algorithm is the SigV4 algorithm identifier.
	Algorithm = "AWS4-HMAC-SHA256"

	// UnsignedPayload is the payload-hash sentinel used when the request
	// body is not hashed (presigned URLs, bodiless requests).
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// The credential scope is fixed for this provider: R2 accepts only
	// the literal region token "auto" and the s3 service token.
	region  = "auto"
	service = "s3"

	amzDateFormat   = "20060102T150405Z"
	dateStampFormat = "20060102"
)

// Credentials holds the static key material used to sign requests.
// The secret key must never be logged or persisted.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	AccountID       string
}

// Signer computes SigV4 signatures. It is stateless apart from the
// credentials and clock, and performs no I/O.
type Signer struct {
	creds Credentials
	now   func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the wall clock. Used by tests to fix signing time.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// New creates a Signer for the given credentials.
func New(creds Credentials, opts ...Option) *Signer {
	s := &Signer{
		creds: creds,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign computes header-based SigV4 authentication for a request and returns
// the full header set to send: the caller-supplied headers plus host,
// x-amz-date, x-amz-content-sha256 and Authorization. The body is hashed
// when present; a nil body signs as UNSIGNED-PAYLOAD.
func (s *Signer) Sign(method string, u *url.URL, headers http.Header, body []byte) http.Header {
	now := s.now().UTC()
	amzDate := now.Format(amzDateFormat)
	dateStamp := now.Format(dateStampFormat)

	payloadHash := UnsignedPayload
	if body != nil {
		sum := sha256.Sum256(body)
		payloadHash = hex.EncodeToString(sum[:])
	}

	signed := make(http.Header, len(headers)+4)
	for name, values := range headers {
		signed[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	signed.Set("Host", u.Host)
	signed.Set("X-Amz-Date", amzDate)
	signed.Set("X-Amz-Content-Sha256", payloadHash)

	canonicalHeaders, signedHeaders := canonicalizeHeaders(signed)

	canonicalRequest := strings.Join([]string{
		method,
		canonicalURI(u),
		canonicalQuery(u.Query()),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := credentialScope(dateStamp)
	stringToSign := strings.Join([]string{
		Algorithm,
		amzDate,
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	signature := hexHMAC(s.signingKey(dateStamp), stringToSign)

	signed.Set("Authorization",
		Algorithm+" Credential="+s.creds.AccessKeyID+"/"+scope+
			", SignedHeaders="+signedHeaders+
			", Signature="+signature)

	return signed
}

// Presign returns a copy of u carrying query-string SigV4 authentication
// valid for the given duration. Only the host header is signed and the
// payload hash is UNSIGNED-PAYLOAD, so the URL can be dereferenced by any
// client (e.g. a browser) without further headers.
func (s *Signer) Presign(method string, u *url.URL, expires time.Duration) *url.URL {
	now := s.now().UTC()
	amzDate := now.Format(amzDateFormat)
	dateStamp := now.Format(dateStampFormat)
	scope := credentialScope(dateStamp)

	presigned := *u
	q := presigned.Query()
	q.Set("X-Amz-Algorithm", Algorithm)
	q.Set("X-Amz-Credential", s.creds.AccessKeyID+"/"+scope)
	q.Set("X-Amz-Date", amzDate)
	q.Set("X-Amz-Expires", strconv.Itoa(int(expires/time.Second)))
	q.Set("X-Amz-SignedHeaders", "host")

	canonicalRequest := strings.Join([]string{
		method,
		canonicalURI(&presigned),
		canonicalQuery(q),
		"host:" + presigned.Host + "\n",
		"host",
		UnsignedPayload,
	}, "\n")

	stringToSign := strings.Join([]string{
		Algorithm,
		amzDate,
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	q.Set("X-Amz-Signature", hexHMAC(s.signingKey(dateStamp), stringToSign))
	presigned.RawQuery = encodeQuery(q)

	return &presigned
}

// signingKey derives the scoped key via the four chained HMAC operations.
func (s *Signer) signingKey(dateStamp string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+s.creds.SecretAccessKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

func credentialScope(dateStamp string) string {
	return dateStamp + "/" + region + "/" + service + "/aws4_request"
}

// canonicalizeHeaders lower-cases and sorts header names, producing the
// canonical header block (name:value\n per header) and the semicolon-joined
// signed-header list.
func canonicalizeHeaders(headers http.Header) (canonical, signedList string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)

	var block strings.Builder
	for _, name := range names {
		value := strings.TrimSpace(headers.Get(name))
		block.WriteString(name)
		block.WriteByte(':')
		block.WriteString(value)
		block.WriteByte('\n')
	}
	return block.String(), strings.Join(names, ";")
}

// canonicalURI returns the URI-encoded request path, preserving slashes.
// An empty path canonicalizes to "/".
func canonicalURI(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		return "/"
	}
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, seg := range segments {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			decoded = seg
		}
		segments[i] = uriEncode(decoded)
	}
	return "/" + strings.Join(segments, "/")
}

// canonicalQuery encodes and sorts query parameters. Spaces encode as %20,
// never '+'.
func canonicalQuery(q url.Values) string {
	return encodeQuery(q)
}

// encodeQuery produces the sorted, uri-encoded query string shared by the
// canonical request and the emitted presigned URL: a byte mismatch between
// the two yields a 403 from the store.
func encodeQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		values := append([]string(nil), q[k]...)
		sort.Strings(values)
		for _, v := range values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(uriEncode(k))
			b.WriteByte('=')
			b.WriteString(uriEncode(v))
		}
	}
	return b.String()
}

// uriEncode percent-encodes every byte except the SigV4 unreserved set
// (A-Z, a-z, 0-9, '-', '.', '_', '~').
func uriEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}
	return b.String()
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func hexHMAC(key []byte, data string) string {
	return hex.EncodeToString(hmacSHA256(key, data))
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
