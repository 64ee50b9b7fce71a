// Package codec implements §4.1: translating commands and models to and
// from bytes. Two variants exist, one per durable storage.Storage
// implementation: Binary (gob, used by storage.Disk) and JSON (encoding/json,
// used by storage.Json). Both satisfy the Codec interface so storage code
// can stay generic over the wire format.
package codec

// Codec encodes and decodes commands and models for one storage variant.
// Encode failures are programmer errors (an unencodable type) and are
// expected to be surfaced immediately by the caller; decode failures during
// replay are handled by the storage layer per §4.2.
type Codec interface {
	EncodeCommand(v any) ([]byte, error)
	DecodeCommand(data []byte, out any) error
	EncodeModel(v any) ([]byte, error)
	DecodeModel(data []byte, out any) error
}
