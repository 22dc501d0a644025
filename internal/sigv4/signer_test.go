package sigv4

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{
	AccessKeyID:     "AKIDEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	AccountID:       "acct0123456789",
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testTime() time.Time {
	return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

var signatureRe = regexp.MustCompile(`Signature=([0-9a-f]{64})$`)

func extractSignature(t *testing.T, authorization string) string {
	t.Helper()
	m := signatureRe.FindStringSubmatch(authorization)
	require.Len(t, m, 2, "Authorization header must end with a 64-char hex signature: %s", authorization)
	return m[1]
}

func TestSign_Deterministic(t *testing.T) {
	signer := New(testCreds, WithClock(fixedClock(testTime())))
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/case-1/file.webp")
	body := []byte("evidence bytes")

	headers := http.Header{}
	headers.Set("Content-Type", "image/webp")

	first := signer.Sign(http.MethodPut, u, headers, body)
	second := signer.Sign(http.MethodPut, u, headers, body)

	assert.Equal(t, first.Get("Authorization"), second.Get("Authorization"))
	assert.Equal(t, "20250615T103000Z", first.Get("X-Amz-Date"))
}

func TestSign_AuthorizationShape(t *testing.T) {
	signer := New(testCreds, WithClock(fixedClock(testTime())))
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/k")

	signed := signer.Sign(http.MethodPut, u, nil, []byte("x"))
	auth := signed.Get("Authorization")

	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20250615/auto/s3/aws4_request, "))
	assert.Contains(t, auth, "SignedHeaders=host;x-amz-content-sha256;x-amz-date")
	extractSignature(t, auth)
	// Body hash, not the unsigned sentinel, for PUT with a body.
	assert.NotEqual(t, UnsignedPayload, signed.Get("X-Amz-Content-Sha256"))
	assert.Len(t, signed.Get("X-Amz-Content-Sha256"), 64)
}

func TestSign_NilBodyUsesUnsignedPayload(t *testing.T) {
	signer := New(testCreds, WithClock(fixedClock(testTime())))
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/k")

	signed := signer.Sign(http.MethodDelete, u, nil, nil)
	assert.Equal(t, UnsignedPayload, signed.Get("X-Amz-Content-Sha256"))
}

func TestSign_BodySensitivity(t *testing.T) {
	signer := New(testCreds, WithClock(fixedClock(testTime())))
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/k")

	a := signer.Sign(http.MethodPut, u, nil, []byte("payload-a"))
	b := signer.Sign(http.MethodPut, u, nil, []byte("payload-b"))

	assert.NotEqual(t,
		extractSignature(t, a.Get("Authorization")),
		extractSignature(t, b.Get("Authorization")),
	)
}

func TestSign_ClockSensitivity(t *testing.T) {
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/k")
	body := []byte("same bytes")

	at := New(testCreds, WithClock(fixedClock(testTime())))
	oneSecondLater := New(testCreds, WithClock(fixedClock(testTime().Add(time.Second))))

	a := at.Sign(http.MethodPut, u, nil, body)
	b := oneSecondLater.Sign(http.MethodPut, u, nil, body)

	assert.NotEqual(t, a.Get("X-Amz-Date"), b.Get("X-Amz-Date"))
	assert.NotEqual(t,
		extractSignature(t, a.Get("Authorization")),
		extractSignature(t, b.Get("Authorization")),
	)
}

func TestSign_HeaderCasingInvariance(t *testing.T) {
	signer := New(testCreds, WithClock(fixedClock(testTime())))
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/k")
	body := []byte("bytes")

	lower := http.Header{}
	lower.Set("content-type", "image/webp")
	lower.Set("x-amz-meta-complaintid", "case-1")

	upper := http.Header{}
	upper.Set("CONTENT-TYPE", "image/webp")
	upper.Set("X-AMZ-META-COMPLAINTID", "case-1")

	a := signer.Sign(http.MethodPut, u, lower, body)
	b := signer.Sign(http.MethodPut, u, upper, body)

	assert.Equal(t,
		extractSignature(t, a.Get("Authorization")),
		extractSignature(t, b.Get("Authorization")),
	)
}

func TestPresign_QueryParameters(t *testing.T) {
	signer := New(testCreds, WithClock(fixedClock(testTime())))
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/case-1/1718447400000-ab12cd.webp")

	presigned := signer.Presign(http.MethodGet, u, time.Hour)
	q := presigned.Query()

	assert.Equal(t, Algorithm, q.Get("X-Amz-Algorithm"))
	assert.Equal(t, "AKIDEXAMPLE/20250615/auto/s3/aws4_request", q.Get("X-Amz-Credential"))
	assert.Equal(t, "20250615T103000Z", q.Get("X-Amz-Date"))
	assert.Equal(t, "3600", q.Get("X-Amz-Expires"))
	assert.Equal(t, "host", q.Get("X-Amz-SignedHeaders"))
	assert.Regexp(t, "^[0-9a-f]{64}$", q.Get("X-Amz-Signature"))

	// Original URL is not mutated.
	assert.Empty(t, u.RawQuery)
	// Path is untouched by presigning.
	assert.Equal(t, u.Path, presigned.Path)
}

func TestPresign_Deterministic(t *testing.T) {
	signer := New(testCreds, WithClock(fixedClock(testTime())))
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/k")

	a := signer.Presign(http.MethodGet, u, time.Hour)
	b := signer.Presign(http.MethodGet, u, time.Hour)
	assert.Equal(t, a.String(), b.String())
}

func TestPresign_ExpirySensitivity(t *testing.T) {
	signer := New(testCreds, WithClock(fixedClock(testTime())))
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/k")

	hour := signer.Presign(http.MethodGet, u, time.Hour)
	second := signer.Presign(http.MethodGet, u, time.Second)

	assert.Equal(t, "1", second.Query().Get("X-Amz-Expires"))
	assert.NotEqual(t, hour.Query().Get("X-Amz-Signature"), second.Query().Get("X-Amz-Signature"))
}

func TestPresign_QueryEncoding(t *testing.T) {
	signer := New(testCreds, WithClock(fixedClock(testTime())))
	u := mustParseURL(t, "https://acct0123456789.r2.cloudflarestorage.com/evidence-temp/k")

	presigned := signer.Presign(http.MethodGet, u, time.Hour)

	// Scope slashes are percent-encoded, spaces never become '+'.
	assert.Contains(t, presigned.RawQuery, "X-Amz-Credential=AKIDEXAMPLE%2F20250615%2Fauto%2Fs3%2Faws4_request")
	assert.NotContains(t, presigned.RawQuery, "+")

	// Parameters appear in sorted key order.
	var keys []string
	for _, pair := range strings.Split(presigned.RawQuery, "&") {
		keys = append(keys, strings.SplitN(pair, "=", 2)[0])
	}
	assert.IsIncreasing(t, keys)
}

func TestUriEncode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unreserved passthrough", "abc-XYZ_0.9~", "abc-XYZ_0.9~"},
		{"space", "a b", "a%20b"},
		{"slash", "a/b", "a%2Fb"},
		{"plus", "a+b", "a%2Bb"},
		{"unicode", "é", "%C3%A9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uriEncode(tt.in))
		})
	}
}

func TestCanonicalURI(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"root", "https://example.com", "/"},
		{"plain key", "https://example.com/bucket/case-1/file.webp", "/bucket/case-1/file.webp"},
		{"space in key", "https://example.com/bucket/my%20file.webp", "/bucket/my%20file.webp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalURI(mustParseURL(t, tt.raw)))
		})
	}
}
