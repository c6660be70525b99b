package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	recordFormatVersionCurrent = 2
	recordFormatVersionV1      = 1

	maxFieldLen = 1<<16 - 1
)

// ErrRecordCorrupt is returned when a stored record cannot be decoded.
var ErrRecordCorrupt = errors.New("session record corrupt")

// Encode serializes r. v2 layout: version byte, three uint16-length-prefixed
// strings (access, refresh, api key), big-endian int64 UpdatedAt.
func Encode(r Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(1 + 6 + len(r.AccessToken) + len(r.RefreshToken) + len(r.APIKey) + 8)

	buf.WriteByte(recordFormatVersionCurrent)
	for _, field := range []string{r.AccessToken, r.RefreshToken, r.APIKey} {
		if len(field) > maxFieldLen {
			return nil, errors.New("session record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}
	if err := binary.Write(&buf, binary.BigEndian, r.UpdatedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses data produced by Encode. v1 records (no UpdatedAt) are
// accepted with UpdatedAt left zero.
func Decode(data []byte) (Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return Record{}, ErrRecordCorrupt
	}
	if version != recordFormatVersionCurrent && version != recordFormatVersionV1 {
		return Record{}, ErrRecordCorrupt
	}

	var fields [3]string
	for i := range fields {
		var n uint16
		if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
			return Record{}, ErrRecordCorrupt
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return Record{}, ErrRecordCorrupt
		}
		fields[i] = string(raw)
	}

	r := Record{AccessToken: fields[0], RefreshToken: fields[1], APIKey: fields[2]}
	if version == recordFormatVersionCurrent {
		if err := binary.Read(reader, binary.BigEndian, &r.UpdatedAt); err != nil {
			return Record{}, ErrRecordCorrupt
		}
	}
	if reader.Len() != 0 {
		return Record{}, ErrRecordCorrupt
	}

	return r, nil
}
