// Package png decodes the pixel content of a PNG image.
//
// It implements the reconstruction core only: filter reversal, Adam7
// deinterlacing, and the EXPAND/STRIP_16/SCALE_16 output transforms. Chunk
// parsing and DEFLATE inflation are handled by the stream package and fed
// to this package through the small interface in streaming.go.
package png
