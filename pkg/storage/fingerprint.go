package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vjranagit/gridmapper/pkg/types"
)

// Fingerprint identifies an import request together with the current state
// of its source file. Editing the file changes its size or modification time
// and therefore its fingerprint.
func Fingerprint(req types.ImportRequest) (string, error) {
	abs, err := filepath.Abs(req.SourcePath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}

	buf := make([]byte, 0, len(abs)+19)
	buf = append(buf, abs...)
	buf = append(buf, 0) // Separator
	buf = binary.LittleEndian.AppendUint64(buf, uint64(info.Size()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(info.ModTime().UnixNano()))
	buf = append(buf, flag(req.HasRowHeaders), flag(req.HasColumnHeaders))

	return fmt.Sprintf("%016x", hashBytes(buf)), nil
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// hashBytes computes an FNV-1a hash of data
func hashBytes(data []byte) uint64 {
	var hash uint64 = 14695981039346656037 // FNV-1a offset basis
	for _, b := range data {
		hash ^= uint64(b)
		hash *= 1099511628211 // FNV-1a prime
	}
	return hash
}
