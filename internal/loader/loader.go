// Package loader is the glue between the assembler and the CPU: it turns a
// source file or string into a running machine.
package loader

import (
	"fmt"
	"os"

	"github.com/casl2/comet2emu/internal/casl"
	"github.com/casl2/comet2emu/internal/cpu"
)

// LoadSource assembles source and loads the resulting image into c,
// returning the assembled object for callers that want the symbol table's
// entry address or a disassembly. filename is used only for error
// positions.
func LoadSource(c *cpu.CPU, source, filename string) (*casl.Object, error) {
	obj, errs := casl.Assemble(source, filename)
	if errs.HasErrors() {
		return nil, fmt.Errorf("assembling %s: %w", filename, errs)
	}

	c.Load(obj.Image, obj.Entry)
	return obj, nil
}

// LoadFile reads path, assembles it, and loads it into c.
func LoadFile(c *cpu.CPU, path string) (*casl.Object, error) {
	source, err := os.ReadFile(path) // #nosec G304 -- user-supplied program path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return LoadSource(c, string(source), path)
}
