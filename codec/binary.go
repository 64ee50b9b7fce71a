package codec

import (
	"bytes"
	"encoding/gob"
)

// Binary is the codec used by storage.Disk. It uses encoding/gob, the
// standard library's own stable binary serialization format — the closest Go
// analogue to the original's bincode::standard() configuration captured once
// at construction. gob writes multi-byte integers high byte first; only the
// journal framing that storage.Disk writes around each payload is
// little-endian.
type Binary struct{}

// NewBinary constructs the binary codec. It carries no state; a value is
// still returned so callers can hold it the same way they hold the JSON
// codec, and so a future configurable variant doesn't change call sites.
func NewBinary() Binary { return Binary{} }

func (Binary) EncodeCommand(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Binary) DecodeCommand(data []byte, out any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
}

func (Binary) EncodeModel(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Binary) DecodeModel(data []byte, out any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
}
