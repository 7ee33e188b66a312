package casl

import (
	"fmt"

	"github.com/casl2/comet2emu/internal/word"
)

// Symbol is a label bound to an absolute address by pass 1 of the code
// generator.
type Symbol struct {
	Name    string
	Address word.Word
	Pos     Position
}

// SymbolTable maps label names to addresses. CASL II has no forward-declared
// constants distinct from labels and no numeric/local label scoping, so
// unlike an assembler for a richer language this table is deliberately flat.
type SymbolTable struct {
	symbols map[string]*Symbol
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol)}
}

// Define binds name to address at pos. Redefining an existing label is a
// caller error (spec.md §4.G: "duplicate labels are an error").
func (st *SymbolTable) Define(name string, address word.Word, pos Position) (*Error, bool) {
	if existing, ok := st.symbols[name]; ok {
		return newError(pos, ErrorDuplicateLabel,
			fmt.Sprintf("label %q already defined at %s", name, existing.Pos), ""), false
	}
	st.symbols[name] = &Symbol{Name: name, Address: address, Pos: pos}
	return nil, true
}

// Lookup returns the address bound to name, if any.
func (st *SymbolTable) Lookup(name string) (word.Word, bool) {
	sym, ok := st.symbols[name]
	if !ok {
		return 0, false
	}
	return sym.Address, true
}

// All returns every label bound in the table, name to address, for callers
// (the debugger, trace output) that want to resolve addresses back to names
// rather than look a single name up.
func (st *SymbolTable) All() map[string]word.Word {
	result := make(map[string]word.Word, len(st.symbols))
	for name, sym := range st.symbols {
		result[name] = sym.Address
	}
	return result
}
