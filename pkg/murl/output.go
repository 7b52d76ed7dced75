package murl

import "encoding/binary"

// HeaderSize is the length of the payload length header at the start of
// every output buffer.
const HeaderSize = 4

// Output is a view over a caller buffer laid out as a native-endian uint32
// payload length followed by the payload region.
type Output struct {
	buf []byte
}

// NewOutput wraps buf. The buffer must be able to hold the header.
func NewOutput(buf []byte) (*Output, error) {
	if len(buf) < HeaderSize {
		return nil, ErrBufferTooSmall
	}
	return &Output{buf: buf}, nil
}

// Len is the payload length recorded in the header.
func (o *Output) Len() uint32 {
	return binary.NativeEndian.Uint32(o.buf[:HeaderSize])
}

// Capacity is the size of the payload region.
func (o *Output) Capacity() int { return len(o.buf) - HeaderSize }

// Bytes returns the whole underlying buffer, header included.
func (o *Output) Bytes() []byte { return o.buf }

// Payload returns the recorded payload. A header larger than the payload
// region is clamped to it.
func (o *Output) Payload() []byte {
	n := int(o.Len())
	if n > o.Capacity() {
		n = o.Capacity()
	}
	return o.buf[HeaderSize : HeaderSize+n]
}

func (o *Output) setLen(n int) {
	binary.NativeEndian.PutUint32(o.buf[:HeaderSize], uint32(n))
}

// appender returns a write function that appends to the payload region,
// rejecting any chunk that would not fit in full.
func (o *Output) appender(written *int) func(p []byte) int {
	return func(p []byte) int {
		payload := o.buf[HeaderSize:]
		if *written+len(p) > len(payload) {
			return 0
		}
		copy(payload[*written:], p)
		*written += len(p)
		return len(p)
	}
}
