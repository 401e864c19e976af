// Command rsxc is the RSX shader compiler CLI.
//
// Usage:
//
//	rsxc compile [-v|-f] [-e entry] [-a] <input> <output>
//	rsxc batch [-j n] [-o dir] <inputs...>
//	rsxc inspect [--json] <container>
//	rsxc dis <container>
//
// Examples:
//
//	rsxc compile -v -a shader.vpa shader.vpo   # Assemble a vertex program
//	rsxc compile -f -e fmain shader.cg out.fpo # Compile Cg through the Cg runtime
//	rsxc inspect --json shader.vpo             # Dump container tables
//
// Settings are read from ~/.rsxc.yaml and RSXC_* environment variables;
// flags win over both.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/rsxc/asm"
)

var version = "dev"

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.root().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", a.red(err.Error()))
		var perr *asm.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintln(os.Stderr, perr.FormatWithContext())
		}
		os.Exit(1)
	}
}
