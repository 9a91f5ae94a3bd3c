package png

import "fmt"

// FilterType identifies one of the five PNG row filters.
type FilterType uint8

const (
	FilterNone    FilterType = 0
	FilterSub     FilterType = 1
	FilterUp      FilterType = 2
	FilterAverage FilterType = 3
	FilterPaeth   FilterType = 4
)

// filterTypeFromByte validates a filter-type byte read off the wire.
func filterTypeFromByte(b byte) (FilterType, bool) {
	if b > byte(FilterPaeth) {
		return 0, false
	}
	return FilterType(b), true
}

// unfilter reverses one PNG row filter in place. cur holds the row's
// bytes excluding the leading filter-type byte; prev holds the
// previous reconstructed row of the same length (zero-filled for the
// first row of a pass). bpp is the filter stride, i.e. the byte
// distance back to sample a from cur and c from prev (b is the byte
// directly above in prev).
func unfilter(ft FilterType, bpp int, prev, cur []byte) error {
	switch ft {
	case FilterNone:
		// no-op
	case FilterSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case FilterUp:
		for i := range cur {
			cur[i] += prev[i]
		}
	case FilterAverage:
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += byte(int(prev[i]) / 2)
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += byte((int(cur[i-bpp]) + int(prev[i])) / 2)
		}
	case FilterPaeth:
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += paeth(0, prev[i], 0)
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += paeth(cur[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		return FormatError(fmt.Sprintf("invalid filter method (%d)", ft))
	}
	return nil
}

// paeth implements the PNG Paeth predictor: pick whichever of a, b, c
// is closest to p = a + b - c, breaking ties in the order a, b, c.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
