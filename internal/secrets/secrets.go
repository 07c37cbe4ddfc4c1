// Package secrets resolves secret configuration values. A value is either a
// literal, a string with ${VAR} or ${VAR:-default} references, or a
// "file:" reference to a mounted secret such as /run/secrets/webhook.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
)

// FilePrefix marks a value that names a secret file.
const FilePrefix = "file:"

// Secrets are tokens and passwords, never large files.
const maxSecretFileSize = 64 * 1024

// Resolve returns the secret named by value. Literal values without ${
// references are returned unchanged, so values containing a plain $ survive.
func Resolve(value string) (string, error) {
	switch {
	case value == "":
		return "", nil
	case strings.HasPrefix(value, FilePrefix):
		return ReadFile(strings.TrimPrefix(value, FilePrefix))
	case strings.Contains(value, "${"):
		return ExpandString(value)
	default:
		return value, nil
	}
}

// ExpandString replaces ${VAR} and ${VAR:-default} references with the
// environment. A reference to an unset variable without a default is an
// error naming every missing variable.
func ExpandString(s string) (string, error) {
	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", secretError(fmt.Errorf("missing environment variable(s): %s", strings.Join(missing, ", ")))
	}
	return expanded, nil
}

// ReadFile reads a secret file. Trailing newlines are trimmed and files
// readable by group or others are accepted with a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", secretError(fmt.Errorf("secret file path is empty"))
	}
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", secretError(fmt.Errorf("secret file not found: %s", cleanPath))
		}
		return "", secretError(fmt.Errorf("failed to stat secret file %s: %w", cleanPath, err))
	}
	if !info.Mode().IsRegular() {
		return "", secretError(fmt.Errorf("secret path is not a regular file: %s", cleanPath))
	}
	if info.Size() > maxSecretFileSize {
		return "", secretError(fmt.Errorf("secret file too large (max %d bytes): %s", maxSecretFileSize, cleanPath))
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Global().Module("secrets").Warn("secret file is readable by group or others",
			logger.String("path", cleanPath),
			logger.String("mode", fmt.Sprintf("%04o", perm)))
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", secretError(fmt.Errorf("failed to read secret file %s: %w", cleanPath, err))
	}
	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", secretError(fmt.Errorf("secret file is empty: %s", cleanPath))
	}
	return secret, nil
}

func secretError(err error) error {
	return errors.New(err).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Build()
}
