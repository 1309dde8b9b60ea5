package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

const recordFormatVersion = 1

// ErrCorruptRecord reports a cached value that cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt session record")

type envelope struct {
	Version int `json:"v"`
	Record
}

// Encode serializes r with a format version prefix field.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil session record")
	}
	return json.Marshal(envelope{Version: recordFormatVersion, Record: *r})
}

// Decode parses data produced by Encode.
func Decode(data []byte) (*Record, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if env.Version != recordFormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptRecord, env.Version)
	}
	if env.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrCorruptRecord)
	}
	rec := env.Record
	return &rec, nil
}
