//go:build darwin || freebsd || linux

package cg

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

// libraryNames lists the Cg runtime file names tried by Open.
func libraryNames() []string {
	if runtime.GOOS == "darwin" {
		return []string{"Cg.dylib", "/Library/Frameworks/Cg.framework/Cg"}
	}
	return []string{"libCg.so", "/usr/lib/libCg.so", "/usr/local/lib/libCg.so"}
}

// Open loads the Cg runtime from path, or from the platform's usual
// locations when path is empty.
func Open(path string) (*Library, error) {
	candidates := libraryNames()
	if path != "" {
		candidates = []string{path}
	}

	var lastErr error
	for _, name := range candidates {
		handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		lib := &Library{path: name, handle: handle}
		if err := lib.bind(); err != nil {
			_ = purego.Dlclose(handle)
			return nil, err
		}
		return lib, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (l *Library) bind() error {
	for name, fn := range map[string]interface{}{
		"cgCreateContext":    &l.sym.createContext,
		"cgCreateProgram":    &l.sym.createProgram,
		"cgGetProgramString": &l.sym.programString,
		"cgGetLastListing":   &l.sym.lastListing,
		"cgDestroyContext":   &l.sym.destroyContext,
	} {
		sym, err := purego.Dlsym(l.handle, name)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
		}
		purego.RegisterFunc(fn, sym)
	}
	return nil
}

// Close unloads the runtime. Compile fails with ErrUnavailable afterwards.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	l.sym = symbols{}
	return err
}
