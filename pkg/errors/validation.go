package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidatePrefix validates an export filename prefix.
// The prefix becomes the leading part of a generated file name, so it must be a
// plain name without path components.
//
// Validation rules:
//   - Prefix cannot be empty
//   - Maximum length of 64 characters
//   - No control characters
//   - No path separators or traversal sequences
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidPath, "file prefix cannot be empty")
	}

	const maxPrefixLength = 64
	if len(prefix) > maxPrefixLength {
		return New(ErrCodeInvalidPath, "file prefix too long (max %d characters)", maxPrefixLength)
	}

	for _, r := range prefix {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file prefix contains invalid control characters")
		}
	}

	if strings.ContainsAny(prefix, `/\`) {
		return New(ErrCodeInvalidPath, "file prefix cannot contain path separators")
	}

	if strings.Contains(prefix, "..") {
		return New(ErrCodeInvalidPath, "file prefix cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateAssetPath validates a relative asset path requested from the offline cache.
// It prevents path traversal and rejects absolute paths.
func ValidateAssetPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "asset path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "asset path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "asset path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "asset path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "asset path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "asset path cannot contain backslashes")
	}

	return nil
}

// ValidateURL checks that rawURL is an absolute http or https URL with a
// host. Offline assets and the asset base URL must pass it.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme: %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL has no host: %q", rawURL)
	}
	return nil
}
