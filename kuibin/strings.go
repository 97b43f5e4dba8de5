package kuibin

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
)

// decodeStringTable decodes the string-table section body. If compressed,
// raw is a zstd frame (its first four bytes are the zstd magic number,
// checked by the decoder); otherwise raw is the table itself. The table
// format is uint32 count followed by, per entry, a uint32 byte length and
// the UTF-8 bytes.
func decodeStringTable(raw []byte, compressed bool) ([]string, error) {
	if compressed {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errMalformed(0, "zstd decoder: "+err.Error())
		}
		defer dec.Close()
		out, err := dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, errMalformed(0, "zstd decode string table: "+err.Error())
		}
		raw = out
	}

	if len(raw) < 4 {
		return nil, errTruncated(0, "string table count")
	}
	count := binary.LittleEndian.Uint32(raw)
	raw = raw[4:]

	strs := make([]string, count)
	for i := range strs {
		if len(raw) < 4 {
			return nil, errTruncated(0, "string table entry length")
		}
		n := binary.LittleEndian.Uint32(raw)
		raw = raw[4:]
		if uint32(len(raw)) < n {
			return nil, errTruncated(0, "string table entry bytes")
		}
		if !utf8.Valid(raw[:n]) {
			return nil, errBadUtf8(0, "string table entry is not valid UTF-8")
		}
		strs[i] = string(raw[:n])
		raw = raw[n:]
	}
	return strs, nil
}

// encodeStringTable is the round-trip counterpart of decodeStringTable.
// compress selects zstd for the returned section body.
func encodeStringTable(strs []string, compress bool) ([]byte, error) {
	var body []byte
	body = binary.LittleEndian.AppendUint32(body, uint32(len(strs)))
	for _, s := range strs {
		body = binary.LittleEndian.AppendUint32(body, uint32(len(s)))
		body = append(body, s...)
	}
	if !compress {
		return body, nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(body, nil), nil
}

// stringInterner builds the deduplicated string table an Encoder writes,
// assigning each distinct string a stable index in first-seen order.
type stringInterner struct {
	index map[string]uint32
	list  []string
}

func newStringInterner() *stringInterner {
	return &stringInterner{index: make(map[string]uint32)}
}

// Intern returns s's index, allocating a new one if s hasn't been seen. An
// empty string always interns to noIndex so optional fields can omit it
// without a sentinel scan.
func (si *stringInterner) Intern(s string) uint32 {
	if s == "" {
		return noIndex
	}
	if i, ok := si.index[s]; ok {
		return i
	}
	i := uint32(len(si.list))
	si.index[s] = i
	si.list = append(si.list, s)
	return i
}

func (si *stringInterner) Strings() []string { return si.list }
