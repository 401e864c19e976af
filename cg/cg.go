// Package cg binds an optional upstream Cg compiler that turns high-level
// shader source into NV40 assembly. The RSX pipeline never depends on it
// directly: drivers pass a Compiler in when they want source compilation.
package cg

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/rsxc/ir"
)

// Profile is a Cg compilation profile.
type Profile int32

// Profiles understood by the NV40 toolchain.
const (
	VP30 Profile = 6148
	FP30 Profile = 6149
	FP40 Profile = 6151
	VP40 Profile = 7001
)

// Cg runtime enums.
const (
	cgSource          = 4112
	cgCompiledProgram = 4106
)

// ProfileFor returns the profile used for a program kind.
func ProfileFor(kind ir.ProgramKind) Profile {
	if kind == ir.KindFragment {
		return FP40
	}
	return VP40
}

// String returns the cgc profile name.
func (p Profile) String() string {
	switch p {
	case VP30:
		return "vp30"
	case FP30:
		return "fp30"
	case FP40:
		return "fp40"
	case VP40:
		return "vp40"
	default:
		return fmt.Sprintf("Profile(%d)", int32(p))
	}
}

// Kind returns the program kind the profile targets.
func (p Profile) Kind() ir.ProgramKind {
	if p == FP30 || p == FP40 {
		return ir.KindFragment
	}
	return ir.KindVertex
}

// Compiler compiles high-level shader source to assembly text.
type Compiler interface {
	Compile(ctx context.Context, source string, profile Profile, entry string) (string, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(ctx context.Context, source string, profile Profile, entry string) (string, error)

// Compile calls f.
func (f CompilerFunc) Compile(ctx context.Context, source string, profile Profile, entry string) (string, error) {
	return f(ctx, source, profile, entry)
}

// ErrUnavailable is returned when no Cg compiler can be loaded or run.
var ErrUnavailable = errors.New("cg: compiler unavailable")

// UpstreamError is a rejection by the upstream compiler. Listing holds its
// diagnostic output verbatim.
type UpstreamError struct {
	Profile Profile
	Entry   string
	Listing string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Listing == "" {
		return fmt.Sprintf("cg: %s program %q failed to compile", e.Profile, e.Entry)
	}
	return fmt.Sprintf("cg: %s program %q failed to compile:\n%s", e.Profile, e.Entry, e.Listing)
}
