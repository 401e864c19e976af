package cg

import (
	"context"
	"fmt"
	"sync"
)

// symbols are the Cg runtime entry points.
type symbols struct {
	createContext  func() uintptr
	createProgram  func(ctx uintptr, programType int32, source string, profile int32, entry string, args uintptr) uintptr
	programString  func(program uintptr, pname int32) string
	lastListing    func(ctx uintptr) string
	destroyContext func(ctx uintptr)
}

// Library is the Cg runtime loaded into the process. The runtime is not
// reentrant, so calls are serialized.
type Library struct {
	mu     sync.Mutex
	path   string
	handle uintptr
	sym    symbols
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Compile compiles source for profile with a fresh Cg context.
func (l *Library) Compile(ctx context.Context, source string, profile Profile, entry string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if entry == "" {
		entry = "main"
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == 0 {
		return "", fmt.Errorf("%w: library %q is closed", ErrUnavailable, l.path)
	}

	cgctx := l.sym.createContext()
	if cgctx == 0 {
		return "", &UpstreamError{Profile: profile, Entry: entry, Listing: "cgCreateContext failed"}
	}
	defer l.sym.destroyContext(cgctx)

	program := l.sym.createProgram(cgctx, cgSource, source, int32(profile), entry, 0)
	if program == 0 {
		return "", &UpstreamError{Profile: profile, Entry: entry, Listing: l.sym.lastListing(cgctx)}
	}
	text := l.sym.programString(program, cgCompiledProgram)
	if text == "" {
		return "", &UpstreamError{Profile: profile, Entry: entry, Listing: l.sym.lastListing(cgctx)}
	}
	return text, nil
}
