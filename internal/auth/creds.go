package auth

import (
	"bufio"
	"os"
	"strings"

	apperrors "github.com/openswarm/swarmer/internal/errors"
)

// resolveSecret returns the value of the named environment variable, or the
// first line of the file named by <name>_FILE. The direct value wins when
// both are set. Returns an empty string when neither is set.
func resolveSecret(name string) (string, error) {
	if value := os.Getenv(name); value != "" {
		return value, nil
	}

	path := os.Getenv(name + "_FILE")
	if path == "" {
		return "", nil
	}

	f, err := os.Open(path) // #nosec G304 - path comes from deployment config
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeCredential, "read %s_FILE", name)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", apperrors.Wrapf(err, apperrors.ErrCodeCredential, "read %s_FILE", name)
		}
		return "", apperrors.Credentialf("%s_FILE %s is empty", name, path)
	}

	return strings.TrimSpace(scanner.Text()), nil
}
