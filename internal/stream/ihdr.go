package stream

import (
	"fmt"

	pngcore "github.com/nwinter/pngcore"
)

const ihdrLength = 13

// parseIHDR validates and decodes the 13-byte IHDR payload into
// d.info, rejecting any color-type/bit-depth combination the format
// doesn't allow.
func (d *Decoder) parseIHDR() error {
	if len(d.data) != ihdrLength {
		return FormatError(fmt.Sprintf("invalid IHDR length: got %d, want %d", len(d.data), ihdrLength))
	}
	tmp := d.data

	width := beUint32(tmp[0:4])
	if width == 0 {
		return FormatError("invalid width in IHDR")
	}
	height := beUint32(tmp[4:8])
	if height == 0 {
		return FormatError("invalid height in IHDR")
	}

	depth := pngcore.BitDepth(tmp[8])
	colorType := pngcore.ColorType(tmp[9])
	compression := tmp[10]
	filter := tmp[11]
	interlace := tmp[12]

	if compression != 0 {
		return FormatError(fmt.Sprintf("unsupported compression method %d", compression))
	}
	if filter != 0 {
		return FormatError(fmt.Sprintf("unsupported filter method %d", filter))
	}
	if interlace != 0 && interlace != 1 {
		return FormatError(fmt.Sprintf("unsupported interlace method %d", interlace))
	}

	var bitsPerPixel int
	valid := false
	switch colorType {
	case pngcore.Grayscale:
		switch depth {
		case 1, 2, 4, 8, 16:
			valid = true
		}
		bitsPerPixel = int(depth)
	case pngcore.RGB:
		valid = depth == 8 || depth == 16
		bitsPerPixel = int(depth) * 3
	case pngcore.Indexed:
		switch depth {
		case 1, 2, 4, 8:
			valid = true
		}
		bitsPerPixel = int(depth)
	case pngcore.GrayscaleAlpha:
		valid = depth == 8 || depth == 16
		bitsPerPixel = int(depth) * 2
	case pngcore.RGBA:
		valid = depth == 8 || depth == 16
		bitsPerPixel = int(depth) * 4
	default:
		valid = false
	}
	if !valid {
		return FormatError(fmt.Sprintf("invalid color type/bit depth combination: %s/%d", colorType, depth))
	}

	d.info = pngcore.Info{
		Width:        width,
		Height:       height,
		ColorType:    colorType,
		BitDepth:     depth,
		Interlaced:   interlace == 1,
		BitsPerPixel: bitsPerPixel,
	}
	d.haveInfo = true
	return nil
}
