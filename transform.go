package png

// unpackBits expands a row of pass_width packed samples at the given
// bit depth into channelsOut output bytes per sample, via write. It
// walks from the highest sample index down to 0 so that, when buf is
// the same backing array for both the packed source and the unpacked
// destination, writes never clobber source bytes that have not yet
// been read: the destination offset for sample i is always >= the
// source offset for sample i, and every sample with a higher index
// has already been consumed by the time i is written.
func unpackBits(buf []byte, channelsOut int, bitDepth int, write func(sample byte, chunk []byte)) {
	numSamples := len(buf) / channelsOut
	switch bitDepth {
	case 8:
		for i := numSamples - 1; i >= 0; i-- {
			write(buf[i], buf[i*channelsOut:i*channelsOut+channelsOut])
		}
	case 16:
		for i := numSamples - 1; i >= 0; i-- {
			write(buf[2*i], buf[i*channelsOut:i*channelsOut+channelsOut])
		}
	default:
		samplesPerByte := 8 / bitDepth
		mask := byte(1<<uint(bitDepth) - 1)
		for i := numSamples - 1; i >= 0; i-- {
			byteIndex := i / samplesPerByte
			shift := uint(8 - bitDepth*(i%samplesPerByte+1))
			val := (buf[byteIndex] >> shift) & mask
			write(val, buf[i*channelsOut:i*channelsOut+channelsOut])
		}
	}
}

// lineSize returns the pre-STRIP bytes-per-row for width pixels, using
// the post-EXPAND bits-per-pixel when EXPAND is active. 16-bit samples
// count as two bytes per sample at this stage; STRIP_16/SCALE_16 are
// applied afterwards by outputLineSize.
func lineSize(info *Info, t Transformations, width uint32) int {
	trns := len(info.Trns) > 0
	expand := t.Contains(TransformExpand)
	var bitsPerSample int
	switch {
	case info.ColorType == Indexed && trns && expand:
		bitsPerSample = 4 * 8
	case info.ColorType == Indexed && expand:
		bitsPerSample = 3 * 8
	case info.ColorType == RGB && trns && expand:
		bitsPerSample = 4 * 8
	case info.ColorType == Grayscale && trns && expand:
		bitsPerSample = 2 * 8
	case info.ColorType == Grayscale && expand:
		bitsPerSample = 1 * 8
	case info.ColorType == GrayscaleAlpha && expand:
		bitsPerSample = 2 * 8
	default:
		bitsPerSample = info.BitsPerPixel
		if info.BitDepth == BitDepth16 {
			// doubled again below
			bitsPerSample /= 2
		}
	}
	bits := bitsPerSample * int(width)
	if info.BitDepth == BitDepth16 {
		bits *= 2
	}
	return (bits + 7) / 8
}

// outputLineSize is lineSize after the STRIP_16/SCALE_16 reduction.
func outputLineSize(info *Info, t Transformations, width uint32) int {
	size := lineSize(info, t, width)
	if info.BitDepth == BitDepth16 && t.Intersects(TransformStrip16|TransformScale16) {
		return size / 2
	}
	return size
}

// outputColorType returns the color type and bit depth of the rows a
// Reader yields under the given transformation set.
func outputColorType(info *Info, t Transformations) (ColorType, BitDepth) {
	if t == TransformIdentity {
		return info.ColorType, info.BitDepth
	}
	bits := info.BitDepth
	switch {
	case info.BitDepth == BitDepth16 && t.Intersects(TransformStrip16|TransformScale16):
		bits = BitDepth8
	case t.Contains(TransformExpand):
		bits = BitDepth8
	}
	ct := info.ColorType
	if t.Contains(TransformExpand) {
		trns := len(info.Trns) > 0
		switch info.ColorType {
		case Grayscale:
			if trns {
				ct = GrayscaleAlpha
			}
		case RGB:
			if trns {
				ct = RGBA
			}
		case Indexed:
			if trns {
				ct = RGBA
			} else {
				ct = RGB
			}
		}
	}
	return ct, bits
}

// expandPaletted expands one row of packed palette indices into RGB
// (or RGBA, when a tRNS table is present) samples, reading the palette
// and transparency table from info. An index at or beyond the palette
// length is clamped to transparent black rather than failing, since
// PNG leaves out-of-range indices undefined (see DESIGN.md).
func expandPaletted(processed []byte, info *Info) {
	hasTrns := len(info.Trns) > 0
	channelsOut := 3
	if hasTrns {
		channelsOut = 4
	}
	unpackBits(processed, channelsOut, int(info.BitDepth), func(idx byte, chunk []byte) {
		i := int(idx)
		inRange := 3*i+2 < len(info.Palette)
		var r, g, b byte
		if inRange {
			r, g, b = info.Palette[3*i], info.Palette[3*i+1], info.Palette[3*i+2]
		}
		chunk[0], chunk[1], chunk[2] = r, g, b
		if channelsOut == 4 {
			a := byte(0xFF)
			switch {
			case !inRange:
				a = 0
			case i < len(info.Trns):
				a = info.Trns[i]
			}
			chunk[3] = a
		}
	})
}

// expandGrayU8 expands one row of sub-8-bit grayscale samples to
// 8-bit, optionally adding an alpha channel derived from the
// single-sample gray transparency key.
func expandGrayU8(processed []byte, info *Info) {
	d := uint(info.BitDepth)
	scale := byte(255 / ((1 << d) - 1))
	if len(info.Trns) > 0 {
		// The gray key is a big-endian uint16; depths below 8 never set
		// the high byte, so the low byte is the one to compare against.
		key := info.Trns[1]
		unpackBits(processed, 2, int(info.BitDepth), func(v byte, chunk []byte) {
			if v == key {
				chunk[1] = 0
			} else {
				chunk[1] = 0xFF
			}
			chunk[0] = v * scale
		})
	} else {
		unpackBits(processed, 1, int(info.BitDepth), func(v byte, chunk []byte) {
			chunk[0] = v * scale
		})
	}
}

// expandTrnsLine appends an alpha channel to an 8-bit-per-sample
// Grayscale or RGB row by comparing each pixel's channels against the
// transparency key (the low byte of each 2-byte tRNS sample).
func expandTrnsLine(processed []byte, trns []byte, channels int) {
	numPixels := len(processed) / (channels + 1)
	var tmp [4]byte
	for i := numPixels - 1; i >= 0; i-- {
		src := processed[i*channels : i*channels+channels]
		copy(tmp[:channels], src)
		match := true
		for k := 0; k < channels; k++ {
			if tmp[k] != trns[2*k+1] {
				match = false
				break
			}
		}
		dst := processed[i*(channels+1) : i*(channels+1)+channels+1]
		copy(dst[:channels], tmp[:channels])
		if match {
			dst[channels] = 0
		} else {
			dst[channels] = 0xFF
		}
	}
}

// expandTrnsLine16 is expandTrnsLine for 16-bit-per-sample rows: each
// sample is 2 bytes, compared big-endian as they lie in the buffer.
func expandTrnsLine16(processed []byte, trns []byte, channels int) {
	const sampleBytes = 2
	numPixels := len(processed) / ((channels + 1) * sampleBytes)
	var tmp [8]byte
	for i := numPixels - 1; i >= 0; i-- {
		srcOff := i * channels * sampleBytes
		copy(tmp[:channels*sampleBytes], processed[srcOff:srcOff+channels*sampleBytes])
		match := true
		for k := 0; k < channels; k++ {
			if tmp[2*k] != trns[2*k] || tmp[2*k+1] != trns[2*k+1] {
				match = false
				break
			}
		}
		dstOff := i * (channels + 1) * sampleBytes
		dst := processed[dstOff : dstOff+(channels+1)*sampleBytes]
		copy(dst[:channels*sampleBytes], tmp[:channels*sampleBytes])
		if match {
			dst[channels*sampleBytes], dst[channels*sampleBytes+1] = 0, 0
		} else {
			dst[channels*sampleBytes], dst[channels*sampleBytes+1] = 0xFF, 0xFF
		}
	}
}

// reduce16 keeps the high byte of every 16-bit sample in processed,
// halving its length, and returns the shortened slice.
func reduce16(processed []byte) []byte {
	n := len(processed) / 2
	for i := 0; i < n; i++ {
		processed[i] = processed[2*i]
	}
	return processed[:n]
}
