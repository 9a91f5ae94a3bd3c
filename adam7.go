package png

// adam7Pass describes one of the seven Adam7 interlacing passes: the
// pixel offset and stride of the pass within the full image.
type adam7Pass struct {
	xStart, yStart, xStride, yStride int
}

// adam7Passes is the fixed PNG Adam7 schedule (§8.2 of the PNG spec).
var adam7Passes = [7]adam7Pass{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Adam7Iterator enumerates (pass, line, width) triples for an
// interlaced image. Passes whose width or height reduces to zero are
// skipped entirely; they never appear in the sequence Next() yields.
type Adam7Iterator struct {
	width, height int

	pass       int // 1..7 once started; 0 before the first Next call
	line       int
	passWidth  int
	passHeight int
}

// NewAdam7Iterator creates an iterator over an image of the given
// pixel dimensions.
func NewAdam7Iterator(width, height uint32) *Adam7Iterator {
	return &Adam7Iterator{
		width:  int(width),
		height: int(height),
		pass:   0,
		line:   -1,
	}
}

// CurrentPass returns the pass of the triple last returned by Next, 0
// if Next has not yet been called, or 8 once Next has reported that
// all passes are exhausted.
func (it *Adam7Iterator) CurrentPass() int { return it.pass }

// Next advances to the next (pass, line, width) triple. ok is false
// once all seven passes are exhausted.
func (it *Adam7Iterator) Next() (pass, line, width int, ok bool) {
	for {
		if it.line+1 < it.passHeight {
			it.line++
			return it.pass, it.line, it.passWidth, true
		}
		it.pass++
		if it.pass > 7 {
			return 0, 0, 0, false
		}
		p := adam7Passes[it.pass-1]
		if it.width <= p.xStart || it.height <= p.yStart {
			it.passWidth, it.passHeight, it.line = 0, 0, -1
			continue
		}
		it.passWidth = ceilDiv(it.width-p.xStart, p.xStride)
		it.passHeight = ceilDiv(it.height-p.yStart, p.yStride)
		if it.passWidth == 0 || it.passHeight == 0 {
			it.line = -1
			continue
		}
		it.line = 0
		return it.pass, it.line, it.passWidth, true
	}
}

// ExpandPass scatters one decoded pass row into a full-size output
// buffer. dst is the whole image, laid out rowStride bytes per row;
// row holds bytesPerPixel*width bytes for this pass row, where width
// is the pass width Next returned. Sample j of row lands at image
// column xStart+j*xStride, image row yStart+line*yStride.
func ExpandPass(dst []byte, rowStride int, row []byte, pass int, line int, bytesPerPixel int) {
	p := adam7Passes[pass-1]
	imgY := p.yStart + line*p.yStride
	dBase := imgY*rowStride + p.xStart*bytesPerPixel
	width := len(row) / bytesPerPixel
	for j := 0; j < width; j++ {
		d := dBase + j*p.xStride*bytesPerPixel
		copy(dst[d:d+bytesPerPixel], row[j*bytesPerPixel:(j+1)*bytesPerPixel])
	}
}
