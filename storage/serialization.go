package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/loamlabs/noteseek/core"
)

// MarshalID serializes an ID to bytes.
// BigEndian so that serialized IDs sort lexicographically.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, ErrTruncatedData
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalDocument serializes a RetrievalDocument to bytes.
func MarshalDocument(document *core.RetrievalDocument) ([]byte, error) {
	data, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalDocument deserializes a RetrievalDocument from bytes.
func UnmarshalDocument(data []byte) (*core.RetrievalDocument, error) {
	var document core.RetrievalDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &document, nil
}
