package cpu

import "github.com/casl2/comet2emu/internal/word"

// Registers holds the eight general registers GR0..GR7. They are
// indistinguishable in role (no reserved accumulator), so they are modeled
// as an array rather than eight named fields.
type Registers [8]word.Word

// Get returns GR[i]. i must be 0..7; an out-of-range index is a defect in
// the caller (the decoder and code generator are the only producers of
// register indices and are specified to never emit one outside 0..7), so it
// panics rather than returning an error.
func (r *Registers) Get(i uint8) word.Word {
	if i > 7 {
		panic("cpu: general register index out of range")
	}
	return r[i]
}

// Set stores w into GR[i]. See Get for the out-of-range contract.
func (r *Registers) Set(i uint8, w word.Word) {
	if i > 7 {
		panic("cpu: general register index out of range")
	}
	r[i] = w
}
