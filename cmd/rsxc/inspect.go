package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"

	"github.com/gogpu/rsxc/container"
	"github.com/gogpu/rsxc/ir"
	"github.com/gogpu/rsxc/rsx"
)

func (a *app) inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [--json] <container>",
		Short: "Print a container's header and tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := readContainer(args[0])
			if err != nil {
				return err
			}
			if a.v.GetBool("json") {
				return a.printJSON(c)
			}
			printContainer(a.stdout, c)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func (a *app) disCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dis <container>",
		Short: "Disassemble a container's microcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := readContainer(args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(a.stdout, rsx.Disassemble(c.Kind, c.Microcode))
			return err
		},
	}
}

func readContainer(path string) (*container.Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := container.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (a *app) printJSON(c *container.Container) error {
	var out []byte
	var err error
	if color.NoColor {
		out, err = json.MarshalIndent(c, "", "  ")
	} else {
		out, err = prettyjson.Marshal(c)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "%s\n", out)
	return err
}

func printContainer(w io.Writer, c *container.Container) {
	bold := color.New(color.Bold).SprintFunc()
	h := c.Header

	fmt.Fprintf(w, "%s %s program\n", bold("kind:"), c.Kind)
	if c.Kind == ir.KindFragment {
		fmt.Fprintf(w, "  registers: %d  control: %#x\n", h.InputMask, h.OutputMask)
	} else {
		fmt.Fprintf(w, "  inputs: %#06x  outputs: %#06x\n", h.InputMask, h.OutputMask)
	}
	fmt.Fprintf(w, "  instructions: %d at %#x\n", h.NumInsn, h.UcodeOffset)

	fmt.Fprintf(w, "%s %d at %#x\n", bold("attributes:"), h.NumAttrib, h.AttribOffset)
	for _, attr := range c.Attributes {
		fmt.Fprintf(w, "  [%2d] %s\n", attr.Index, attr.Name)
	}

	fmt.Fprintf(w, "%s %d at %#x\n", bold("constants:"), h.NumConst, h.ConstOffset)
	for _, k := range c.Constants {
		name := k.Name
		if k.Internal {
			name = "(internal)"
		}
		fmt.Fprintf(w, "  %5d x%d type %d %-16s %g\n", k.Index, k.Count, k.Type, name, k.Values)
	}
}
