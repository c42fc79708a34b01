// Package leb128 implements the variable-length integer encoding used for
// immediates in the WebAssembly binary format (LEB128, signed and
// unsigned). The core only ever decodes: encoding is provided for tests
// and for writing trampoline relocation tables that themselves use the
// same varint shape.
package leb128

import "fmt"

const (
	maxVarint32Len = 5
	maxVarint64Len = 10
)

// LoadUint32 decodes an unsigned 32-bit LEB128 varint from buf, returning
// the value, the number of bytes consumed, and an error if buf is
// truncated or the encoding overflows 32 bits.
func LoadUint32(buf []byte) (ret uint32, bytesRead uint32, err error) {
	var shift uint32
	for i := 0; i < maxVarint32Len; i++ {
		if int(bytesRead) >= len(buf) {
			return 0, 0, fmt.Errorf("unexpected EOF decoding uint32 varint")
		}
		b := buf[bytesRead]
		bytesRead++
		if i == maxVarint32Len-1 && b&0x70 != 0 {
			return 0, 0, fmt.Errorf("uint32 varint overflows 32 bits")
		}
		ret |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return ret, bytesRead, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("uint32 varint overflows 32 bits")
}

// LoadInt32 decodes a signed 32-bit LEB128 varint from buf.
func LoadInt32(buf []byte) (ret int32, bytesRead uint32, err error) {
	var result int64
	var shift uint
	var b byte
	for {
		if int(bytesRead) >= len(buf) {
			return 0, 0, fmt.Errorf("unexpected EOF decoding int32 varint")
		}
		b = buf[bytesRead]
		bytesRead++
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 32 {
			return 0, 0, fmt.Errorf("int32 varint overflows 32 bits")
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return int32(result), bytesRead, nil
}

// LoadUint64 decodes an unsigned 64-bit LEB128 varint from buf.
func LoadUint64(buf []byte) (ret uint64, bytesRead uint32, err error) {
	var shift uint
	for i := 0; i < maxVarint64Len; i++ {
		if int(bytesRead) >= len(buf) {
			return 0, 0, fmt.Errorf("unexpected EOF decoding uint64 varint")
		}
		b := buf[bytesRead]
		bytesRead++
		ret |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return ret, bytesRead, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("uint64 varint overflows 64 bits")
}

// LoadInt64 decodes a signed 64-bit LEB128 varint from buf.
func LoadInt64(buf []byte) (ret int64, bytesRead uint32, err error) {
	var result int64
	var shift uint
	var b byte
	for {
		if int(bytesRead) >= len(buf) {
			return 0, 0, fmt.Errorf("unexpected EOF decoding int64 varint")
		}
		b = buf[bytesRead]
		bytesRead++
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, bytesRead, nil
}

// EncodeUint32 encodes v as an unsigned LEB128 varint.
func EncodeUint32(v uint32) []byte {
	return EncodeUint64(uint64(v))
}

// EncodeInt32 encodes v as a signed LEB128 varint.
func EncodeInt32(v int32) []byte {
	return EncodeInt64(int64(v))
}

// EncodeUint64 encodes v as an unsigned LEB128 varint.
func EncodeUint64(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// EncodeInt64 encodes v as a signed LEB128 varint.
func EncodeInt64(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}
