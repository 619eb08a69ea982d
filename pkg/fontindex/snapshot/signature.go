package snapshot

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// SignatureMode selects how file signatures are computed.
type SignatureMode int

const (
	// SignatureStat fingerprints a file by size and modification time only.
	// It never opens the file.
	SignatureStat SignatureMode = iota

	// SignatureContent adds an xxhash64 of the file contents to the stat
	// fingerprint. It reads every byte of the file.
	SignatureContent
)

// String returns the mode name used in configuration.
func (m SignatureMode) String() string {
	switch m {
	case SignatureStat:
		return "stat"
	case SignatureContent:
		return "content"
	default:
		return "unknown"
	}
}

// Signature computes the fingerprint of the file at path described by info.
// Format: "<size>:<mtime-ns>" or "<size>:<mtime-ns>:<xxhash-hex>".
func Signature(path string, info fs.FileInfo, mode SignatureMode) (string, error) {
	base := strconv.FormatInt(info.Size(), 10) + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if mode != SignatureContent {
		return base, nil
	}

	sum, err := contentHash(path)
	if err != nil {
		return "", err
	}
	return base + ":" + strconv.FormatUint(sum, 16), nil
}

// contentHash streams the file through xxhash.
func contentHash(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return h.Sum64(), nil
}
