package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/loamlabs/noteseek/core"
)

// Key prefixes for different data types.
// The source-file index prefix extends the document prefix so a single
// prefix scan covers both, mirroring how documents and their indices
// are co-located.
const (
	documentPrefix       = "docrec"
	documentSourcePrefix = "docrecs"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentSourceKey generates a composite key for the source-file index.
// Format: prefix:sourceFile:id
func makeDocumentSourceKey(sourceFile string, id core.ID) []byte {
	prefix := documentSourcePrefix + ":" + sourceFile + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentSourceKey generates a partial key for per-file scans.
// Format: prefix:sourceFile:
func makePartialDocumentSourceKey(sourceFile string) []byte {
	return []byte(documentSourcePrefix + ":" + sourceFile + ":")
}
