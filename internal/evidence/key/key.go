// Package key mints storage keys for uploaded evidence files.
package key

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// DefaultExtension is used when the original filename carries no usable
// extension. The web client converts images to WebP before uploading, so
// most files arrive with it anyway.
const DefaultExtension = "webp"

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// New mints a storage key for a case upload.
// Format: {caseId}/{epochMillis}-{randomAlnum(6)}.{ext}
// Example: case-42/1718447400123-a1b2c3.webp
// The millisecond timestamp plus random suffix keeps keys unique even under
// concurrent uploads for the same case. Keys are always server-generated;
// the original filename is never part of the key.
func New(caseID, originalFileName string) string {
	return NewAt(caseID, originalFileName, time.Now())
}

// NewAt is New with an explicit timestamp, for tests.
func NewAt(caseID, originalFileName string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s.%s",
		caseID, now.UnixMilli(), randomSuffix(6), Extension(originalFileName))
}

// Extension extracts a safe lower-case extension from a filename, falling
// back to DefaultExtension when there is none.
func Extension(fileName string) string {
	dot := strings.LastIndexByte(fileName, '.')
	if dot < 0 || dot == len(fileName)-1 {
		return DefaultExtension
	}
	ext := strings.ToLower(fileName[dot+1:])
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return DefaultExtension
		}
	}
	return ext
}

// randomSuffix returns n random characters from the lower-case alphanumeric
// alphabet. Falls back to a timestamp-derived suffix if crypto/rand fails.
func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%06d", time.Now().Nanosecond()%1000000)
	}
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf)
}
