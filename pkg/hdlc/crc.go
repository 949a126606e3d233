package hdlc

import (
	"github.com/sigurn/crc16"
)

// CRCSize is the number of CRC bytes trailing each frame.
const CRCSize = 2

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// CRC16 computes the frame check sequence of data.
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// AppendCRC appends the CRC of data to data, low byte first.
func AppendCRC(data []byte) []byte {
	crc := CRC16(data)
	return append(data, byte(crc), byte(crc>>8))
}

// CheckCRC verifies a frame whose last two bytes are its CRC, low byte
// first.
func CheckCRC(frame []byte) bool {
	if len(frame) < CRCSize {
		return false
	}
	n := len(frame) - CRCSize
	return CRC16(frame[:n]) == uint16(frame[n])|uint16(frame[n+1])<<8
}
