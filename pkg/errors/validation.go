package errors

import (
	"strings"
	"unicode"
)

// maxBasenameLength bounds export file basenames before the timestamp and
// extension are appended.
const maxBasenameLength = 128

// ValidateBasename validates an export file basename for safety.
// It rejects names that could escape the delivery directory or produce
// filenames most filesystems refuse.
//
// Rules:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - No leading dot (hidden files)
//   - Maximum length of 128 characters
func ValidateBasename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "file basename cannot be empty")
	}
	if len(name) > maxBasenameLength {
		return New(ErrCodeInvalidInput, "file basename too long (max %d characters)", maxBasenameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "file basename contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidInput, "file basename cannot contain path separators")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "file basename cannot contain path traversal sequences (..)")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "file basename cannot be a hidden file")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
