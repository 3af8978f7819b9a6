package core

// utoa converts an unsigned integer to a string without the fmt package,
// which is too large for the 32 KiB flash
func utoa(n uint32) string {
	var buf [10]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return string(buf[i:])
}

// itoa converts a signed integer to a string. int is 16 bits on AVR.
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-int32(n)))
	}
	return utoa(uint32(n))
}

// valueToString renders a dictionary constant
func valueToString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return itoa(val)
	case uint8:
		return utoa(uint32(val))
	case uint16:
		return utoa(uint32(val))
	case uint32:
		return utoa(val)
	default:
		return ""
	}
}
