// Package fingerprint computes configuration fingerprints with xxhash.
package fingerprint

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fingerprinter = (*Hasher)(nil)

// Hasher fingerprints the definition of a configuration, including its direct
// dependencies. When the build script is a path to a file, the file content is part of
// the fingerprint too.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Fingerprint returns the hex encoded xxhash of the configuration definition.
func (h *Hasher) Fingerprint(cfg *domain.BuildConfiguration) string {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(cfg.ID.String())
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.WriteString(cfg.Name.String())
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.WriteString(cfg.BuildScript.String())
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.WriteString(cfg.WorkDir.String())
	_, _ = hasher.Write([]byte{0})

	deps := slices.Clone(cfg.Dependencies)
	slices.Sort(deps)
	for _, dep := range slices.Compact(deps) {
		_, _ = hasher.WriteString(dep.String())
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	if script := cfg.BuildScript.String(); filepath.IsAbs(script) {
		// A vanished script file keeps the definition hash; the build itself will fail.
		if sum, err := h.ComputeFileHash(script); err == nil {
			_ = binary.Write(hasher, binary.LittleEndian, sum)
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64())
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}
