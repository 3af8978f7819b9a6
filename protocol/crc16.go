package protocol

// CRC16 is CRC-16/MCRF4XX (reflected CCITT polynomial, initial value
// 0xFFFF, no final xor) over the length, sequence and payload of a frame.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		w := uint16(b)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}
