// Package conv holds allocation-free number rendering for hot paths that
// must not go through fmt.
package conv

// Itoa writes the base-10 form of n right-aligned into buf and returns the
// used tail. buf should be at least 20 bytes for int64.
func Itoa(buf []byte, n int64) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	i := len(buf)
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	if u == 0 {
		i--
		buf[i] = '0'
	}
	for u > 0 && i > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg && i > 0 {
		i--
		buf[i] = '-'
	}
	return buf[i:]
}

// Hex32 writes "0x" and 8 upper-case hex digits into buf (>= 10 bytes).
func Hex32(buf []byte, n uint32) []byte {
	if len(buf) < 10 {
		return buf[:0]
	}
	const digits = "0123456789ABCDEF"
	out := buf[:10]
	out[0], out[1] = '0', 'x'
	for j := 9; j >= 2; j-- {
		out[j] = digits[n&0xF]
		n >>= 4
	}
	return out
}
