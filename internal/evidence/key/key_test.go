package key

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewAt_Format(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 123e6, time.UTC)
	k := NewAt("case-42", "receipt.PDF", now)

	assert.Regexp(t, regexp.MustCompile(`^case-42/1749983400123-[a-z0-9]{6}\.pdf$`), k)
}

func TestNew_UniquePerUpload(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		k := New("case-1", "shot.webp")
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "photo.webp", "webp"},
		{"upper-cased", "SCAN.PNG", "png"},
		{"multiple dots", "archive.tar.gz", "gz"},
		{"no extension", "README", "webp"},
		{"empty name", "", "webp"},
		{"trailing dot", "file.", "webp"},
		{"traversal characters rejected", "evil.we/bp", "webp"},
		{"hidden file keeps extension", ".env", "env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.in))
		})
	}
}
