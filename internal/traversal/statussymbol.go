package traversal

import "math"

// symbolAlphabet is the progress-symbol character set, indexed by how far
// through its sibling group a child frame falls.
const symbolAlphabet = " .oO0"

// StatusSymbol maps the zero-based child index i and sibling count total to
// a single progress character: '.' through '0' as i approaches total, and
// 'X' once i runs past it (an overflow marker, e.g. for a sibling that was
// appended after the count was taken).
func StatusSymbol(i, total int) byte {
	n := i + 1
	if n > total {
		return 'X'
	}
	idx := int(math.Ceil(float64(n) / (float64(total) / 4.0)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(symbolAlphabet) {
		idx = len(symbolAlphabet) - 1
	}
	return symbolAlphabet[idx]
}
