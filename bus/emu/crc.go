package emu

// crc7 computes the 7-bit command/register CRC (x^7 + x^3 + 1).
func crc7(data []byte) byte {
	var crc byte
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			msb := (crc >> 6) & 1
			crc = (crc << 1) & 0x7F
			if bit^msb != 0 {
				crc ^= 0x09
			}
		}
	}
	return crc
}

// crc16 computes the data block CRC (CCITT x^16 + x^12 + x^5 + 1, zero seed).
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
