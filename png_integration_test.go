package png_test

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"testing"

	pngcore "github.com/nwinter/pngcore"
	"github.com/nwinter/pngcore/internal/stream"
)

func buildChunk(kind string, data []byte) []byte {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf.Write(lenBuf[:])
	buf.WriteString(kind)
	buf.Write(data)
	h := crc32.NewIEEE()
	h.Write([]byte(kind))
	h.Write(data)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], h.Sum32())
	buf.Write(crcBuf[:])
	return buf.Bytes()
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// buildPNG assembles a minimal single-IDAT-chunk PNG of the given color
// type (with a PLTE chunk when palette is non-nil) whose inflated,
// filtered rows are exactly rawRows.
func buildPNG(t *testing.T, width, height uint32, bitDepth, colorType byte, rawRows []byte, palette []byte) []byte {
	t.Helper()
	return buildInterlacedPNG(t, width, height, bitDepth, colorType, 0, rawRows, palette)
}

// buildInterlacedPNG is buildPNG with an explicit IHDR interlace method,
// letting callers supply raw bytes already laid out as the seven Adam7
// passes.
func buildInterlacedPNG(t *testing.T, width, height uint32, bitDepth, colorType, interlace byte, rawRows []byte, palette []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	out.Write(pngSignature)

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = bitDepth
	ihdr[9] = colorType
	ihdr[12] = interlace
	out.Write(buildChunk("IHDR", ihdr))

	if palette != nil {
		out.Write(buildChunk("PLTE", palette))
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(rawRows); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	out.Write(buildChunk("IDAT", compressed.Bytes()))
	out.Write(buildChunk("IEND", nil))
	return out.Bytes()
}

func TestEndToEndGrayscaleIdentity(t *testing.T) {
	raw := []byte{0, 10, 20, 0, 30, 40} // 2x2, 8-bit grayscale, filter-none rows
	file := buildPNG(t, 2, 2, 8, 0, raw, nil)

	dec := pngcore.NewDecoder(bytes.NewReader(file), stream.NewDecoder())
	dec.SetTransform(pngcore.TransformIdentity)
	info, reader, err := dec.ReadInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 2 || info.Height != 2 {
		t.Fatalf("unexpected dimensions %dx%d", info.Width, info.Height)
	}

	buf := make([]byte, info.BufferSize())
	if err := reader.NextFrame(buf); err != nil {
		t.Fatal(err)
	}
	want := []byte{10, 20, 30, 40}
	if !bytes.Equal(buf, want) {
		t.Errorf("got %v, want %v", buf, want)
	}
}

func TestEndToEndIndexedExpandsToRGB(t *testing.T) {
	palette := []byte{
		255, 0, 0, // index 0: red
		0, 255, 0, // index 1: green
	}
	raw := []byte{0, 0, 1} // 2x1, 8-bit indexed, one filter-none row
	file := buildPNG(t, 2, 1, 8, 3, raw, palette)

	dec := pngcore.NewDecoder(bytes.NewReader(file), stream.NewDecoder())
	info, reader, err := dec.ReadInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.ColorType != pngcore.RGB {
		t.Fatalf("ColorType = %v, want RGB", info.ColorType)
	}

	buf := make([]byte, info.BufferSize())
	if err := reader.NextFrame(buf); err != nil {
		t.Fatal(err)
	}
	want := []byte{255, 0, 0, 0, 255, 0}
	if !bytes.Equal(buf, want) {
		t.Errorf("got %v, want %v", buf, want)
	}
}

func TestEndToEndRejectsTruncatedFile(t *testing.T) {
	raw := []byte{0, 10, 20, 0, 30, 40}
	file := buildPNG(t, 2, 2, 8, 0, raw, nil)
	truncated := file[:len(file)-10]

	dec := pngcore.NewDecoder(bytes.NewReader(truncated), stream.NewDecoder())
	info, reader, err := dec.ReadInfo()
	if err != nil {
		// Truncation inside chunk framing itself is also an acceptable
		// failure point.
		return
	}
	buf := make([]byte, info.BufferSize())
	if err := reader.NextFrame(buf); err == nil {
		t.Error("expected an error decoding a truncated file")
	}
}

// adam7RawRows lays out an 8x8 grayscale image's pixels as the
// filter-none rows of the seven Adam7 passes, in pass order, the same
// byte stream a real interlaced IDAT stream would inflate to.
func adam7RawRows(pix [8][8]byte) []byte {
	type pass struct{ xStart, yStart, xStride, yStride int }
	passes := []pass{
		{0, 0, 8, 8},
		{4, 0, 8, 8},
		{0, 4, 4, 8},
		{2, 0, 4, 4},
		{0, 2, 2, 4},
		{1, 0, 2, 2},
		{0, 1, 1, 2},
	}
	ceilDiv := func(a, b int) int { return (a + b - 1) / b }

	var raw []byte
	for _, p := range passes {
		passWidth := ceilDiv(8-p.xStart, p.xStride)
		passHeight := ceilDiv(8-p.yStart, p.yStride)
		for line := 0; line < passHeight; line++ {
			imgY := p.yStart + line*p.yStride
			raw = append(raw, 0) // filter type none
			for j := 0; j < passWidth; j++ {
				imgX := p.xStart + j*p.xStride
				raw = append(raw, pix[imgY][imgX])
			}
		}
	}
	return raw
}

func TestEndToEndInterlacedReassemblesEveryPixel(t *testing.T) {
	var pix [8][8]byte
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			pix[y][x] = byte(y*8 + x)
		}
	}
	raw := adam7RawRows(pix)
	file := buildInterlacedPNG(t, 8, 8, 8, 0, 1, raw, nil)

	dec := pngcore.NewDecoder(bytes.NewReader(file), stream.NewDecoder())
	dec.SetTransform(pngcore.TransformIdentity)
	info, reader, err := dec.ReadInfo()
	if err != nil {
		t.Fatal(err)
	}
	if !reader.Info().Interlaced {
		t.Fatal("expected Interlaced to be true")
	}

	buf := make([]byte, info.BufferSize())
	if err := reader.NextFrame(buf); err != nil {
		t.Fatal(err)
	}

	want := make([]byte, 0, 64)
	for y := 0; y < 8; y++ {
		want = append(want, pix[y][:]...)
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("got %v, want %v", buf, want)
	}
}
