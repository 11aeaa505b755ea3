package dbpf

import (
	"encoding/binary"
	"io"
)

// Write encodes a minimal DBPF 2.1 package holding entries. Payloads are
// not written; offsets and sizes are taken from the entries as given. The
// index uses no constant fields.
func Write(w io.Writer, entries []Entry) error {
	le := binary.LittleEndian
	indexSize := 4 + 28*len(entries)

	header := make([]byte, HeaderSize)
	copy(header, Magic)
	le.PutUint32(header[offMajor:], supportedMajor)
	le.PutUint32(header[offMajor+4:], 1)
	le.PutUint32(header[offIndexCount:], uint32(len(entries)))
	le.PutUint32(header[offIndexSize:], uint32(indexSize))
	le.PutUint64(header[offIndexPos64:], HeaderSize)

	index := make([]byte, indexSize)
	pos := 4 // flags stay zero
	for _, e := range entries {
		for _, v := range []uint32{
			e.Type, e.Group, uint32(e.Instance >> 32), uint32(e.Instance),
			e.Offset, e.Size &^ (1 << 31), e.Size,
		} {
			le.PutUint32(index[pos:], v)
			pos += 4
		}
	}

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(index)
	return err
}
