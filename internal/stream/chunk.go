// Package stream implements the chunk-level streaming parser the core
// decoder (package png, at the module root) treats as an external
// collaborator: it recognizes the PNG signature, parses chunk
// headers, validates CRC32s, and inflates IDAT payloads, surfacing
// semantic events through a pull-style Update API that hands back
// control after every chunk instead of reading the whole file up
// front.
package stream

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// FormatError reports a malformed PNG chunk stream: a bad signature, a
// bad chunk CRC, an out-of-order chunk, or invalid IHDR contents.
type FormatError string

func (e FormatError) Error() string { return "png: " + string(e) }

// chunk order, per https://www.w3.org/TR/PNG/#5ChunkOrdering
type stage int

const (
	stageStart stage = iota
	stageSeenIHDR
	stageSeenPLTE
	stageSeenIDAT
	stageSeenIEND
)

// fill copies as many bytes of buf as needed to complete dst, starting
// at *filled, and reports how many bytes of buf it consumed.
func fill(buf []byte, dst []byte, filled *int) int {
	n := copy(dst[*filled:], buf)
	*filled += n
	return n
}

func chunkCRC(kind [4]byte, data []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write(kind[:])
	h.Write(data)
	return h.Sum32()
}

func fourCC(b [4]byte) string { return string(b[:]) }

func beUint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

func chunkOrderError(kind string) error {
	return FormatError(fmt.Sprintf("chunk %s out of order", kind))
}
