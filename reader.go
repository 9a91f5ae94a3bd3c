package png

import (
	"fmt"
	"io"
)

// chunkReadBufferSize is the fixed size of the read buffer the chunk
// driver refills from the upstream byte source.
const chunkReadBufferSize = 32 * 1024

// PassInfo identifies an Adam7 pass row. It is nil for non-interlaced
// images.
type PassInfo struct {
	Pass  int
	Line  int
	Width int
}

// Reader pulls rows out of a PNG image data stream. It is returned by
// Decoder.ReadInfo once the first IDAT chunk has been located.
type Reader struct {
	r io.Reader
	d Parser

	// chunk driver refill state
	buf [chunkReadBufferSize]byte
	pos int
	end int

	info  Info
	eof   bool
	bpp   int
	rowlen int

	adam7 *Adam7Iterator

	prev      []byte
	current   []byte
	processed []byte

	transform Transformations
}

// newReader constructs a Reader and drives it to the first IDAT chunk,
// reading and validating every chunk in between.
func newReader(r io.Reader, d Parser, t Transformations) (*Reader, error) {
	rd := &Reader{r: r, d: d, transform: t}
	if err := rd.init(); err != nil {
		return nil, err
	}
	return rd, nil
}

func (rd *Reader) init() error {
	for {
		ev, ok, err := rd.decodeNext()
		if err != nil {
			return err
		}
		if !ok {
			return FormatError("IDAT chunk missing")
		}
		if ev.Kind == EventChunkBegin && string(ev.ChunkType[:]) == "IDAT" {
			break
		}
	}
	info, ok := rd.d.Info()
	if !ok {
		return FormatError("IHDR chunk missing")
	}
	rd.info = info
	rd.bpp = info.BytesPerPixel()
	rd.rowlen = info.RawRowLength()
	if info.Interlaced {
		rd.adam7 = NewAdam7Iterator(info.Width, info.Height)
	}
	rd.prev = make([]byte, rd.rowlen)
	rd.processed = make([]byte, lineSize(&rd.info, rd.transform, info.Width))
	if rd.transform.Contains(TransformExpand) && info.ColorType == Indexed && len(info.Palette) == 0 {
		return FormatError("palette required to expand an indexed image")
	}
	return nil
}

// Info returns the immutable image header.
func (rd *Reader) Info() *Info { return &rd.info }

// decodeNext is the chunk driver: it drives the
// Parser with whatever input is already buffered, only refilling the
// fixed read buffer from the upstream reader when the Parser made no
// progress and has nothing left to consume. That ordering matters once
// the Parser has seen IEND: it may still have buffered image data (or
// the terminal event itself) to redeliver with no new input at all,
// and must get the chance to do so before a drained upstream reader is
// ever treated as premature end of file. ok is false once the Parser
// reports EventImageEnd.
func (rd *Reader) decodeNext() (Event, bool, error) {
	for {
		consumed, ev, err := rd.d.Update(rd.buf[rd.pos:rd.end])
		if err != nil {
			return Event{}, false, err
		}
		rd.pos += consumed
		switch ev.Kind {
		case EventNothing:
			if rd.pos == rd.end {
				n, err := rd.r.Read(rd.buf[:])
				if err != nil && err != io.EOF {
					return Event{}, false, err
				}
				if n == 0 {
					return Event{}, false, io.ErrUnexpectedEOF
				}
				rd.pos, rd.end = 0, n
			}
		case EventImageEnd:
			return Event{}, false, nil
		default:
			return ev, true, nil
		}
	}
}

// nextRawInterlacedRow is the row assembly loop: it pulls
// inflated bytes until a full filtered row is available, reverses the
// filter, and returns a view into prev holding the raw pixel bytes of
// the row (excluding the leading filter-type byte). A nil slice with a
// nil error signals a clean end of image data.
func (rd *Reader) nextRawInterlacedRow() ([]byte, *PassInfo, error) {
	if rd.eof {
		return nil, nil, nil
	}
	var rowlen int
	var pass *PassInfo
	if rd.adam7 != nil {
		lastPass := rd.adam7.CurrentPass()
		p, line, width, ok := rd.adam7.Next()
		if !ok {
			rd.eof = true
			return nil, nil, nil
		}
		rowlen = rd.info.RawRowLengthFromWidth(uint32(width))
		if lastPass != p {
			rd.prev = make([]byte, rowlen)
		}
		pass = &PassInfo{Pass: p, Line: line, Width: width}
	} else {
		rowlen = rd.rowlen
	}

	for len(rd.current) < rowlen {
		ev, ok, err := rd.decodeNext()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			if len(rd.current) > 0 {
				return nil, nil, FormatError("file truncated")
			}
			rd.eof = true
			return nil, nil, nil
		}
		if ev.Kind == EventImageData {
			rd.current = append(rd.current, ev.Data...)
		}
	}

	ft, valid := filterTypeFromByte(rd.current[0])
	if !valid {
		return nil, nil, FormatError(fmt.Sprintf("invalid filter method (%d)", rd.current[0]))
	}
	if err := unfilter(ft, rd.bpp, rd.prev[1:rowlen], rd.current[1:rowlen]); err != nil {
		return nil, nil, err
	}
	copy(rd.prev[:rowlen], rd.current[:rowlen])
	rd.current = append([]byte(nil), rd.current[rowlen:]...)
	return rd.prev[1:rowlen], pass, nil
}

// NextInterlacedRow returns the next row after the transformation
// pipeline has run, along with Adam7 pass metadata when the
// image is interlaced. A nil row signals the end of the image.
func (rd *Reader) NextInterlacedRow() ([]byte, *PassInfo, error) {
	if rd.transform == TransformIdentity {
		return rd.nextRawInterlacedRow()
	}
	row, pass, err := rd.nextRawInterlacedRow()
	if err != nil || row == nil {
		return nil, nil, err
	}

	width := rd.info.Width
	if pass != nil {
		width = uint32(pass.Width)
	}
	size := lineSize(&rd.info, rd.transform, width)
	if cap(rd.processed) < size {
		rd.processed = make([]byte, size)
	} else {
		rd.processed = rd.processed[:size]
		for i := range rd.processed {
			rd.processed[i] = 0
		}
	}
	copy(rd.processed, row)

	info := &rd.info
	if rd.transform.Contains(TransformExpand) {
		switch info.ColorType {
		case Indexed:
			expandPaletted(rd.processed, info)
		case Grayscale:
			if info.BitDepth < BitDepth8 {
				expandGrayU8(rd.processed, info)
			} else if len(info.Trns) > 0 {
				if info.BitDepth == BitDepth8 {
					expandTrnsLine(rd.processed, info.Trns, info.ColorType.Samples())
				} else {
					expandTrnsLine16(rd.processed, info.Trns, info.ColorType.Samples())
				}
			}
		case GrayscaleAlpha:
			if info.BitDepth < BitDepth8 {
				expandGrayU8(rd.processed, info)
			}
		case RGB:
			if len(info.Trns) > 0 {
				if info.BitDepth == BitDepth8 {
					expandTrnsLine(rd.processed, info.Trns, info.ColorType.Samples())
				} else {
					expandTrnsLine16(rd.processed, info.Trns, info.ColorType.Samples())
				}
			}
		}
	}

	result := rd.processed
	if info.BitDepth == BitDepth16 && rd.transform.Intersects(TransformStrip16|TransformScale16) {
		result = reduce16(result)
	}
	return result, pass, nil
}

// NextRow returns the next processed row, dropping interlace metadata.
func (rd *Reader) NextRow() ([]byte, error) {
	row, _, err := rd.NextInterlacedRow()
	return row, err
}

// NextFrame decodes the whole image into buf, which must be at least
// OutputBufferSize() bytes.
func (rd *Reader) NextFrame(buf []byte) error {
	if len(buf) < rd.OutputBufferSize() {
		return OtherError("supplied buffer is too small to hold the image")
	}
	width := rd.info.Width
	if rd.info.Interlaced {
		bytesPerPixel := rd.OutputLineSize(1)
		for {
			row, pass, err := rd.NextInterlacedRow()
			if err != nil {
				return err
			}
			if row == nil {
				break
			}
			ExpandPass(buf, int(width)*bytesPerPixel, row, pass.Pass, pass.Line, bytesPerPixel)
		}
	} else {
		pos := 0
		for {
			row, err := rd.NextRow()
			if err != nil {
				return err
			}
			if row == nil {
				break
			}
			pos += copy(buf[pos:], row)
		}
	}
	return nil
}

// OutputColorType returns the color type and bit depth of the rows
// this Reader yields under its active transformation set.
func (rd *Reader) OutputColorType() (ColorType, BitDepth) {
	return outputColorType(&rd.info, rd.transform)
}

// OutputLineSize returns the number of bytes in a deinterlaced row of
// the given pixel width under this Reader's transformation set.
func (rd *Reader) OutputLineSize(width uint32) int {
	return outputLineSize(&rd.info, rd.transform, width)
}

// OutputBufferSize returns the number of bytes required to hold a full
// deinterlaced frame.
func (rd *Reader) OutputBufferSize() int {
	return rd.OutputLineSize(rd.info.Width) * int(rd.info.Height)
}
