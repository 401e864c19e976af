package cg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Command runs the standalone cgc executable.
type Command struct {
	// Path is the executable, looked up in PATH when it has no separator.
	// Empty selects "cgc".
	Path string

	// Args are extra arguments passed before the input file.
	Args []string
}

// Compile writes source to a temporary directory, runs cgc on it, and
// returns the generated assembly.
func (c *Command) Compile(ctx context.Context, source string, profile Profile, entry string) (string, error) {
	if entry == "" {
		entry = "main"
	}
	path := c.Path
	if path == "" {
		path = "cgc"
	}
	bin, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	dir, err := os.MkdirTemp("", "rsxc-cg-")
	if err != nil {
		return "", fmt.Errorf("cg: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "shader.cg")
	output := filepath.Join(dir, "shader.asm")
	if err := os.WriteFile(input, []byte(source), 0o600); err != nil {
		return "", fmt.Errorf("cg: %w", err)
	}

	args := []string{"-quiet", "-profile", profile.String(), "-entry", entry, "-o", output}
	args = append(args, c.Args...)
	args = append(args, input)

	var listing bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec // G204: binary chosen by the caller
	cmd.Stdout = &listing
	cmd.Stderr = &listing
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &UpstreamError{Profile: profile, Entry: entry, Listing: strings.TrimSpace(listing.String())}
		}
		return "", fmt.Errorf("cg: run %s: %w", bin, err)
	}

	text, err := os.ReadFile(output)
	if err != nil {
		return "", &UpstreamError{Profile: profile, Entry: entry, Listing: strings.TrimSpace(listing.String())}
	}
	return string(text), nil
}
