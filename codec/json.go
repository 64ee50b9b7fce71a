package codec

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// JSON is the text codec used by storage.Json. Command payloads are always
// encoded as a JSON object (first byte '{') so a text journal reader can
// locate the identifier/payload boundary without extra framing, per §4.1.
type JSON struct {
	Pretty bool
}

// NewJSON constructs the JSON codec. pretty controls whether EncodeModel
// indents its output (storage.Json uses pretty printing for snapshots only).
func NewJSON(pretty bool) JSON { return JSON{Pretty: pretty} }

func (c JSON) EncodeCommand(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("codec: command payload must encode as a JSON object, got %q", firstByte(data))
	}
	return data, nil
}

func (c JSON) DecodeCommand(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

func (c JSON) EncodeModel(v any) ([]byte, error) {
	if c.Pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func (c JSON) DecodeModel(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

func firstByte(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return string(data[0])
}

// NormalizeIdentifier applies Unicode NFC normalization to a command
// identifier before it is used as a journal key, so visually identical
// identifiers typed with different combining-character sequences collide
// predictably instead of silently registering as distinct commands.
func NormalizeIdentifier(id string) string {
	return norm.NFC.String(id)
}
