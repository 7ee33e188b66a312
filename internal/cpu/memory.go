package cpu

import "github.com/casl2/comet2emu/internal/word"

// MemorySize is the number of addressable words (64 KiW, spec.md §3).
const MemorySize = 65536

// Memory is COMET II's flat 64 KiW address space. One address indexes one
// Word; there is no alignment concept and addresses wrap modulo 2^16 simply
// by virtue of being stored in a Word-sized index.
type Memory [MemorySize]word.Word

// Read returns the word at addr.
func (m *Memory) Read(addr word.Word) word.Word {
	return m[addr]
}

// Write stores w at addr.
func (m *Memory) Write(addr word.Word, w word.Word) {
	m[addr] = w
}

// Load copies image into memory starting at base, wrapping addresses modulo
// 2^16 if the image runs past the top of memory.
func (m *Memory) Load(base word.Word, image []word.Word) {
	addr := base
	for _, w := range image {
		m[addr] = w
		addr++
	}
}
