package packet

import "io"

// Writer is a push view over a packet. It shares the packet's buffer.
type Writer struct{ p *Packet }

// Reader is a pull view over a packet. It shares the packet's buffer and cursor.
type Reader struct{ p *Packet }

var (
	_ io.Writer     = Writer{}
	_ io.Reader     = Reader{}
	_ io.ByteReader = Reader{}
)

func (p *Packet) Writer() Writer { return Writer{p: p} }
func (p *Packet) Reader() Reader { return Reader{p: p} }

// Write appends b as raw bytes. It never fails.
func (w Writer) Write(b []byte) (int, error) {
	w.p.Append(b)
	return len(b), nil
}

// WriteValue appends the encoding of v, which must be one of the [Value] types.
func (w Writer) WriteValue(v any) error { return writeAny(w.p, v) }

// Read drains raw bytes from the cursor.
func (r Reader) Read(b []byte) (int, error) {
	if r.p.IsAtEnd() {
		if len(b) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(b, r.p.data[r.p.readPos:])
	r.p.readPos += n
	return n, nil
}

func (r Reader) ReadByte() (byte, error) {
	v, err := r.p.ReadUint8()
	if err != nil {
		return 0, io.EOF
	}
	return v, nil
}

// ReadValue decodes into ptr, which must point to one of the [Value] types.
func (r Reader) ReadValue(ptr any) error { return readAny(r.p, ptr) }
