package core

// serialization.go – canonical, deterministic binary encoding.
//
// Every persisted or hashed value in chainforge goes through the Writer/
// Reader pair defined here. Layout (little-endian throughout):
//
//	fixed-width ints   u8/u16/u32/u64, raw LE bytes
//	var-length length  first byte n; n<0xFD literal; 0xFD->u16; 0xFE->u32; 0xFF->u64 (LE)
//	byte array         var-length count, then payload
//	address            raw 33 bytes, no length prefix
//	BigInt             sign byte (0=zero,1=positive,2=negative), var-length
//	                   count, then big-endian magnitude bytes
//
// Grounded on the prior transactions.go field-by-field hash.Write
// pattern and virtual_machine.go's use of math/big for canonical integers,
// generalised into a reusable codec instead of ad-hoc per-type hashing.

import (
	"encoding/binary"
	"errors"
	"math/big"
)

// ErrTruncated is returned when a Reader runs out of bytes mid-value.
var ErrTruncated = errors.New("serialization: truncated input")

// Writer accumulates a canonical byte stream.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{buf: make([]byte, 0, 64)} }

// Bytes returns the accumulated stream.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteUint8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteVarLen encodes n using the 0xFD/0xFE/0xFF prefix convention.
func (w *Writer) WriteVarLen(n uint64) {
	switch {
	case n < 0xFD:
		w.WriteUint8(uint8(n))
	case n <= 0xFFFF:
		w.WriteUint8(0xFD)
		w.WriteUint16(uint16(n))
	case n <= 0xFFFFFFFF:
		w.WriteUint8(0xFE)
		w.WriteUint32(uint32(n))
	default:
		w.WriteUint8(0xFF)
		w.WriteUint64(n)
	}
}

// WriteBytes writes a var-length count followed by the payload.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteVarLen(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteString writes s as a length-prefixed UTF-8 byte array.
func (w *Writer) WriteString(s string) { w.WriteBytes([]byte(s)) }

// WriteAddress writes the raw 33 bytes of a, with no length prefix.
func (w *Writer) WriteAddress(a Address) { w.buf = append(w.buf, a[:]...) }

// WriteHash writes the raw 32 bytes of h, with no length prefix.
func (w *Writer) WriteHash(h Hash) { w.buf = append(w.buf, h[:]...) }

// WriteBool writes a single 0/1 byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteRaw appends b verbatim, with no length prefix. Used for a trailing
// segment meant to run to the end of the stream.
func (w *Writer) WriteRaw(b []byte) { w.buf = append(w.buf, b...) }

// WriteBigInt writes v as a sign byte followed by a length-prefixed
// big-endian magnitude.
func (w *Writer) WriteBigInt(v *big.Int) {
	if v == nil || v.Sign() == 0 {
		w.WriteUint8(0)
		return
	}
	if v.Sign() > 0 {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(2)
	}
	w.WriteBytes(v.Bytes())
}

// Reader consumes a canonical byte stream produced by Writer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for sequential decoding.
func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Remainder returns every byte not yet consumed, without advancing pos.
// Used where a trailing field has no length prefix because it runs to the
// end of the stream (e.g. a script's code segment after its constant pool).
func (r *Reader) Remainder() []byte { return r.buf[r.pos:] }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, ErrTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadVarLen decodes the 0xFD/0xFE/0xFF prefix convention.
func (r *Reader) ReadVarLen() (uint64, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return 0, err
	}
	switch n {
	case 0xFD:
		v, err := r.ReadUint16()
		return uint64(v), err
	case 0xFE:
		v, err := r.ReadUint32()
		return uint64(v), err
	case 0xFF:
		return r.ReadUint64()
	default:
		return uint64(n), nil
	}
}

// ReadBytes reads a var-length count followed by that many payload bytes.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadVarLen()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) ReadAddress() (Address, error) {
	b, err := r.take(len(Address{}))
	if err != nil {
		return Address{}, err
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

func (r *Reader) ReadHash() (Hash, error) {
	b, err := r.take(len(Hash{}))
	if err != nil {
		return Hash{}, err
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *Reader) ReadBigInt() (*big.Int, error) {
	sign, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if sign == 0 {
		return big.NewInt(0), nil
	}
	mag, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(mag)
	if sign == 2 {
		v.Neg(v)
	}
	return v, nil
}
