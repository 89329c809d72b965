package intelhex

import (
	"encoding/hex"
	"strings"
)

type RecordType uint8

const (
	RecordData RecordType = 0x00
	RecordEOF  RecordType = 0x01
)

// EOFLine is the end-of-file record. It is written verbatim regardless of
// the digit case used for data records.
const EOFLine = ":00000001FF"

// https://en.wikipedia.org/wiki/Intel_HEX#Format
type Record struct {
	Length     uint8      `json:"length" cbor:"length"`
	Offset     uint16     `json:"offset" cbor:"offset"`
	RecType    RecordType `json:"type" cbor:"type"`
	ReadOffset int64      `json:"read_offset" cbor:"read_offset"`
	Body       []byte     `json:"-" cbor:"-"`
}

func NewDataRecord(offset uint16, body []byte, readOffset int64) Record {
	return Record{
		Length:     uint8(len(body)),
		Offset:     offset,
		RecType:    RecordData,
		ReadOffset: readOffset,
		Body:       body,
	}
}

func NewEOFRecord() Record {
	return Record{RecType: RecordEOF}
}

// header returns the byte-count, address and record-type bytes in wire order.
func (r Record) header() [4]byte {
	return [4]byte{r.Length, byte(r.Offset >> 8), byte(r.Offset), byte(r.RecType)}
}

// Checksum is the two's complement of the sum of the header and body bytes.
func (r Record) Checksum() byte {
	var recordSum uint8
	for _, b := range r.header() {
		recordSum += b
	}
	for _, b := range r.Body {
		recordSum += b
	}
	return ^recordSum + 1
}

// Render returns the text line for r (without a line terminator) and the
// checksum byte appended to it.
func (r Record) Render(upper bool) (string, byte) {
	checksum := r.Checksum()
	if r.RecType == RecordEOF && r.Length == 0 && r.Offset == 0 {
		return EOFLine, checksum
	}

	hdr := r.header()
	raw := make([]byte, 0, len(hdr)+len(r.Body)+1)
	raw = append(raw, hdr[:]...)
	raw = append(raw, r.Body...)
	raw = append(raw, checksum)

	line := ":" + hex.EncodeToString(raw)
	if upper {
		line = strings.ToUpper(line)
	}
	return line, checksum
}

func (r Record) String() string {
	line, _ := r.Render(false)
	return line
}
