package png

import "io"

// Decoder is the public entry point for decoding a PNG byte stream.
// It defers all chunk parsing and DEFLATE inflation to a Parser, which
// the caller supplies (see internal/stream for the implementation this
// package is tested against end-to-end, and cmd/pngdump for how a
// caller wires the two together).
type Decoder struct {
	r         io.Reader
	d         Parser
	transform Transformations
}

// NewDecoder wraps an upstream byte source and the Parser that will
// drive it, defaulting to EXPAND|STRIP_16|SCALE_16.
func NewDecoder(r io.Reader, d Parser) *Decoder {
	return &Decoder{r: r, d: d, transform: DefaultTransformations}
}

// SetTransform overrides the transformation set NewDecoder defaulted
// to. It must be called before ReadInfo.
func (dec *Decoder) SetTransform(t Transformations) { dec.transform = t }

// ReadInfo advances to the first IDAT chunk, allocates row buffers,
// and returns the shape of the rows the Reader will yield.
func (dec *Decoder) ReadInfo() (OutputInfo, *Reader, error) {
	r, err := newReader(dec.r, dec.d, dec.transform)
	if err != nil {
		return OutputInfo{}, nil, err
	}
	ct, bits := r.OutputColorType()
	info := OutputInfo{
		Width:     r.info.Width,
		Height:    r.info.Height,
		ColorType: ct,
		BitDepth:  bits,
		LineSize:  r.OutputLineSize(r.info.Width),
	}
	return info, r, nil
}
