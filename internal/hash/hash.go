// Package hash provides content digests used to compare installed loader
// files against the packaged resources they were extracted from.
//
// Digests use the OCI digest format ("sha256:<hex>") so they can be printed
// and compared without caring which side produced them.
package hash

import (
	"fmt"
	"os"

	"github.com/opencontainers/go-digest"
)

// Hasher computes content digests.
type Hasher interface {
	// HashFile computes the digest of the file at the given path.
	HashFile(path string) (digest.Digest, error)

	// HashBytes computes the digest of an in-memory payload.
	HashBytes(data []byte) digest.Digest
}

// SHA256Hasher implements Hasher with the canonical sha256 algorithm.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// HashFile computes the sha256 digest of the file at the given path.
func (h *SHA256Hasher) HashFile(path string) (digest.Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	d, err := digest.Canonical.FromReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return d, nil
}

// HashBytes computes the sha256 digest of data.
func (h *SHA256Hasher) HashBytes(data []byte) digest.Digest {
	return digest.Canonical.FromBytes(data)
}
