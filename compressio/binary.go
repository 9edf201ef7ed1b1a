package compressio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// The functions below give caller-written binary framing a small,
// explicit vocabulary instead of reaching for encoding/gob on every
// primitive: fixed-width integers in either byte order, an unsigned
// LEB128 varint for lengths that are usually small, and a
// varint-length-prefixed UTF-8 string built on top of it. Sort's run
// files and Shard's shard files do not use them; those are written
// through a codec.Codec.

// PutUint32LE / PutUint32BE write a 4-byte integer in the given order.
func PutUint32LE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func PutUint32BE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// GetUint32LE / GetUint32BE read back what PutUint32LE / PutUint32BE wrote.
func GetUint32LE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func GetUint32BE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// PutUint64LE and GetUint64LE do the 8-byte equivalent.
func PutUint64LE(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func GetUint64LE(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// PutUint16LE and GetUint16LE do the 2-byte equivalent.
func PutUint16LE(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func GetUint16LE(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// maxVarintLen32 is the longest a uvarint encoding of a uint32 can be.
const maxVarintLen32 = 5

// WriteVarint32 writes v as an unsigned LEB128 varint, as used by
// protobuf and encoding/binary's own Uvarint family.
func WriteVarint32(w io.Writer, v uint32) error {
	var buf [maxVarintLen32]byte
	n := binary.PutUvarint(buf[:], uint64(v))
	_, err := w.Write(buf[:n])
	return err
}

// ReadVarint32 reads back a value written by WriteVarint32. It reads
// one byte at a time since the varint's length isn't known in advance.
func ReadVarint32(r io.Reader) (uint32, error) {
	var x uint64
	var s uint
	var b [1]byte
	for i := 0; i < maxVarintLen32; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		if b[0] < 0x80 {
			if i == maxVarintLen32-1 && b[0] > 0x0f {
				return 0, fmt.Errorf("compressio: varint32 overflow")
			}
			x |= uint64(b[0]) << s
			return uint32(x), nil
		}
		x |= uint64(b[0]&0x7f) << s
		s += 7
	}
	return 0, fmt.Errorf("compressio: varint32 too long")
}

// WriteString writes a varint-length-prefixed UTF-8 string.
func WriteString(w io.Writer, s string) error {
	if err := WriteVarint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads back a string written by WriteString.
func ReadString(r io.Reader) (string, error) {
	n, err := ReadVarint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
