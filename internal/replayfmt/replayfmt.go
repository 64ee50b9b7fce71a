// Package replayfmt provides read-only framing helpers for the two journal
// formats defined in spec §6, independent of any command registry. It
// exists for tooling (cmd/origoctl) and tests that need to inspect a
// journal's raw record boundaries without knowing the concrete command
// types registered against it — storage.Disk and storage.Json parse the
// same formats internally, but cannot be used for this because they
// require a RestoreFunc registry to dispatch through.
package replayfmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Record is one raw (identifier, payload) pair read from a journal, with no
// interpretation of payload beyond its byte length.
type Record struct {
	Index     int
	Identifier string
	Payload    []byte
}

// HeaderSize is the binary journal's little-endian record-count header, the
// same constant storage.Disk uses internally.
const HeaderSize = 8

// ReadBinaryHeader reads the 8-byte committed-record count from the start
// of a binary journal.
func ReadBinaryHeader(r io.ReaderAt) (uint64, error) {
	var buf [HeaderSize]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil {
		return 0, fmt.Errorf("replayfmt: reading header: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// IterateBinary reads every record following the header, per spec §6's
// `(u64 total_len, u64 name_len, name_bytes, payload_bytes)` framing. It
// stops at EOF rather than trusting the header count, so a caller can
// compare the two and report a mismatch as corruption.
func IterateBinary(r io.Reader) ([]Record, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("replayfmt: reading header: %w", err)
	}

	var records []Record
	index := 0
	for {
		var lenFields [2 * HeaderSize]byte
		n, err := io.ReadFull(r, lenFields[:])
		if err == io.EOF && n == 0 {
			break
		}
		if err != nil {
			return records, fmt.Errorf("replayfmt: record %d: reading length prefix: %w", index, err)
		}

		totalLen := binary.LittleEndian.Uint64(lenFields[:HeaderSize])
		nameLen := binary.LittleEndian.Uint64(lenFields[HeaderSize:])
		if nameLen > totalLen {
			return records, fmt.Errorf("replayfmt: record %d: name_len %d exceeds total_len %d", index, nameLen, totalLen)
		}
		payloadLen := totalLen - HeaderSize - nameLen

		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return records, fmt.Errorf("replayfmt: record %d: reading name: %w", index, err)
		}
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return records, fmt.Errorf("replayfmt: record %d: reading payload: %w", index, err)
		}

		records = append(records, Record{Index: index, Identifier: string(name), Payload: payload})
		index++
	}
	return records, nil
}

// IterateText reads line-delimited `<identifier><json_payload>\n` records
// per spec §6. A final line with no trailing '\n' is a torn tail: it is
// returned alongside a non-nil error of type *TornTailError so the caller
// can decide whether to treat it as fatal (mid-journal) or recoverable
// (true EOF), matching spec §4.2's distinction.
func IterateText(data []byte) ([]Record, error) {
	var records []Record
	index := 0
	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			return records, &TornTailError{Remaining: data, Index: index}
		}
		line := data[:nl]
		data = data[nl+1:]

		boundary := bytes.IndexByte(line, '{')
		if boundary < 0 {
			return records, fmt.Errorf("replayfmt: record %d: no '{' payload boundary found", index)
		}
		records = append(records, Record{
			Index:      index,
			Identifier: string(line[:boundary]),
			Payload:    append([]byte(nil), line[boundary:]...),
		})
		index++
	}
	return records, nil
}

// TornTailError reports a trailing text record with no terminating '\n'.
// Whether this is recoverable depends on whether the read reached true
// end-of-file (spec §7 kind 5) or not (§7 kind 4); only the caller knows
// which applies to its reader.
type TornTailError struct {
	Remaining []byte
	Index     int
}

func (e *TornTailError) Error() string {
	return fmt.Sprintf("replayfmt: record %d: %d trailing bytes with no terminating newline", e.Index, len(e.Remaining))
}
