package convert

import (
	"github.com/bits-and-blooms/bitset"
)

const addressSpace = 1 << 16

// coverage tracks which 16-bit load addresses a file has already written.
type coverage struct {
	seen *bitset.BitSet
}

func newCoverage() *coverage {
	return &coverage{seen: bitset.New(addressSpace)}
}

// mark records n bytes starting at addr and returns how many of them land on
// an address that was already written.
func (c *coverage) mark(addr uint16, n int) int {
	var aliased int
	for i := 0; i < n; i++ {
		a := uint(addr + uint16(i))
		if c.seen.Test(a) {
			aliased++
			continue
		}
		c.seen.Set(a)
	}
	return aliased
}

func (c *coverage) used() uint {
	return c.seen.Count()
}
