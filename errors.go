package png

// FormatError reports malformed PNG data detected by this core: an
// invalid filter type, a truncated image-data stream, or a missing
// IHDR/IDAT chunk. Errors surfaced unchanged from the streaming parser
// (bad signature, bad CRC, inflate failure) are not FormatErrors; they
// are returned as-is.
type FormatError string

func (e FormatError) Error() string { return "png: invalid format: " + string(e) }

// OtherError reports caller misuse, such as supplying an output buffer
// smaller than OutputInfo.BufferSize().
type OtherError string

func (e OtherError) Error() string { return "png: " + string(e) }
