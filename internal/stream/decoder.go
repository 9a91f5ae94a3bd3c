package stream

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	pngcore "github.com/nwinter/pngcore"
)

// drainFragmentSize bounds how much inflated image data a single
// Update call redelivers at once, so large images still surface as a
// sequence of "arbitrary-sized fragments" rather than one giant event.
const drainFragmentSize = 8 * 1024

type phase int

const (
	phSignature phase = iota
	phHeader
	phData
	phCRC
)

// Decoder is the chunk-level streaming parser. It implements the
// pngcore.Parser interface structurally: Update and Info have the
// signatures pngcore.Parser requires, but this package never names
// pngcore.Parser itself (it uses only pngcore's Info and Event types);
// callers wire the two together (see cmd/pngdump).
type Decoder struct {
	ph phase

	sig      [8]byte
	sigFilled int

	header       [8]byte
	headerFilled int

	curLength uint32
	curType   [4]byte
	data      []byte
	dataFilled int

	crcBuf    [4]byte
	crcFilled int

	st stage

	info     pngcore.Info
	haveInfo bool

	idatRaw []byte

	inflated   []byte
	drainPos   int
	haveEnd    bool
	endEmitted bool
}

// NewDecoder creates a streaming parser positioned before the PNG
// signature.
func NewDecoder() *Decoder {
	return &Decoder{ph: phSignature}
}

// Info reports the parsed image header, present once IHDR has been
// seen.
func (d *Decoder) Info() (pngcore.Info, bool) { return d.info, d.haveInfo }

// Update consumes a prefix of buf and reports the next semantic event.
// Once IEND has been parsed it ignores buf entirely and redelivers the
// already-inflated image data (see drainNext), so callers must keep
// invoking Update (even with no new bytes) until it reports
// EventImageEnd.
func (d *Decoder) Update(buf []byte) (int, pngcore.Event, error) {
	if d.haveEnd {
		return 0, d.drainNext(), nil
	}

	total := 0
	for {
		switch d.ph {
		case phSignature:
			n := fill(buf[total:], d.sig[:], &d.sigFilled)
			total += n
			if d.sigFilled < len(d.sig) {
				return total, pngcore.Event{Kind: pngcore.EventNothing}, nil
			}
			if d.sig != pngSignature {
				return total, pngcore.Event{}, FormatError("not a PNG file")
			}
			d.ph = phHeader

		case phHeader:
			n := fill(buf[total:], d.header[:], &d.headerFilled)
			total += n
			if d.headerFilled < len(d.header) {
				return total, pngcore.Event{Kind: pngcore.EventNothing}, nil
			}
			d.curLength = beUint32(d.header[:4])
			copy(d.curType[:], d.header[4:8])
			d.headerFilled = 0
			if d.curLength > 0x7fffffff {
				return total, pngcore.Event{}, FormatError(fmt.Sprintf("invalid chunk length %d", d.curLength))
			}
			d.data = make([]byte, d.curLength)
			d.dataFilled = 0
			d.ph = phData
			ev := pngcore.Event{Kind: pngcore.EventChunkBegin, ChunkLength: d.curLength, ChunkType: d.curType}
			return total, ev, nil

		case phData:
			n := fill(buf[total:], d.data, &d.dataFilled)
			total += n
			if d.dataFilled < len(d.data) {
				return total, pngcore.Event{Kind: pngcore.EventNothing}, nil
			}
			d.ph = phCRC
			d.crcFilled = 0

		case phCRC:
			n := fill(buf[total:], d.crcBuf[:], &d.crcFilled)
			total += n
			if d.crcFilled < len(d.crcBuf) {
				return total, pngcore.Event{Kind: pngcore.EventNothing}, nil
			}
			got := beUint32(d.crcBuf[:])
			want := chunkCRC(d.curType, d.data)
			if got != want {
				return total, pngcore.Event{}, FormatError(fmt.Sprintf("invalid checksum for %s chunk", fourCC(d.curType)))
			}
			ev, err := d.dispatchChunk()
			d.ph = phHeader
			if err != nil {
				return total, pngcore.Event{}, err
			}
			if ev.Kind != pngcore.EventNothing {
				return total, ev, nil
			}
		}
	}
}

// drainNext returns the next fragment of already-inflated image data,
// or EventImageEnd once it has all been delivered.
func (d *Decoder) drainNext() pngcore.Event {
	if d.drainPos < len(d.inflated) {
		end := d.drainPos + drainFragmentSize
		if end > len(d.inflated) {
			end = len(d.inflated)
		}
		frag := d.inflated[d.drainPos:end]
		d.drainPos = end
		return pngcore.Event{Kind: pngcore.EventImageData, Data: frag}
	}
	d.endEmitted = true
	return pngcore.Event{Kind: pngcore.EventImageEnd}
}

func (d *Decoder) dispatchChunk() (pngcore.Event, error) {
	kind := fourCC(d.curType)
	switch kind {
	case "IHDR":
		if d.st != stageStart {
			return pngcore.Event{}, chunkOrderError(kind)
		}
		if err := d.parseIHDR(); err != nil {
			return pngcore.Event{}, err
		}
		d.st = stageSeenIHDR
	case "PLTE":
		if d.st != stageSeenIHDR {
			return pngcore.Event{}, chunkOrderError(kind)
		}
		if len(d.data)%3 != 0 {
			return pngcore.Event{}, FormatError("invalid PLTE length")
		}
		d.info.Palette = append([]byte(nil), d.data...)
		d.st = stageSeenPLTE
	case "tRNS":
		if d.st != stageSeenIHDR && d.st != stageSeenPLTE {
			return pngcore.Event{}, chunkOrderError(kind)
		}
		d.info.Trns = append([]byte(nil), d.data...)
	case "IDAT":
		if d.st != stageSeenIHDR && d.st != stageSeenPLTE && d.st != stageSeenIDAT {
			return pngcore.Event{}, chunkOrderError(kind)
		}
		d.idatRaw = append(d.idatRaw, d.data...)
		d.st = stageSeenIDAT
	case "IEND":
		if d.st != stageSeenIDAT {
			return pngcore.Event{}, chunkOrderError(kind)
		}
		if err := d.inflate(); err != nil {
			return pngcore.Event{}, err
		}
		d.st = stageSeenIEND
		d.haveEnd = true
		return d.drainNext(), nil
	default:
		// ancillary chunk the core never needs; already CRC-validated
		// above, just skip it.
	}
	return pngcore.Event{Kind: pngcore.EventNothing}, nil
}

func (d *Decoder) inflate() error {
	zr, err := zlib.NewReader(bytes.NewReader(d.idatRaw))
	if err != nil {
		return err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return err
	}
	d.inflated = out
	return nil
}
