package fingerprint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/fingerprint"
	"go.trai.ch/forge/internal/core/domain"
)

func configuration(script string, deps ...domain.ConfigurationID) *domain.BuildConfiguration {
	return &domain.BuildConfiguration{
		ID:           "core",
		Name:         domain.NewInternedString("Core"),
		BuildScript:  domain.NewInternedString(script),
		Dependencies: deps,
	}
}

func TestHasher_Fingerprint(t *testing.T) {
	h := fingerprint.NewHasher()

	base := h.Fingerprint(configuration("make", "a", "b"))
	assert.Len(t, base, 16)

	t.Run("stable", func(t *testing.T) {
		assert.Equal(t, base, h.Fingerprint(configuration("make", "a", "b")))
	})

	t.Run("dependency order is irrelevant", func(t *testing.T) {
		assert.Equal(t, base, h.Fingerprint(configuration("make", "b", "a", "b")))
	})

	t.Run("script changes the fingerprint", func(t *testing.T) {
		assert.NotEqual(t, base, h.Fingerprint(configuration("make all", "a", "b")))
	})

	t.Run("working directory changes the fingerprint", func(t *testing.T) {
		cfg := configuration("make", "a", "b")
		cfg.WorkDir = domain.NewInternedString("/srv/core")
		assert.NotEqual(t, base, h.Fingerprint(cfg))
	})

	t.Run("dependencies change the fingerprint", func(t *testing.T) {
		assert.NotEqual(t, base, h.Fingerprint(configuration("make", "a")))
	})

	t.Run("separators prevent ambiguity", func(t *testing.T) {
		assert.NotEqual(t,
			h.Fingerprint(configuration("make", "ab")),
			h.Fingerprint(configuration("make", "a", "b")),
		)
	})
}

func TestHasher_ScriptFileContent(t *testing.T) {
	h := fingerprint.NewHasher()
	script := filepath.Join(t.TempDir(), "build.sh")

	require.NoError(t, os.WriteFile(script, []byte("echo one"), 0o600))
	first := h.Fingerprint(configuration(script))

	require.NoError(t, os.WriteFile(script, []byte("echo two"), 0o600))
	second := h.Fingerprint(configuration(script))

	assert.NotEqual(t, first, second)

	sum, err := h.ComputeFileHash(script)
	require.NoError(t, err)
	assert.NotZero(t, sum)

	_, err = h.ComputeFileHash(filepath.Join(t.TempDir(), "missing.sh"))
	require.Error(t, err)
}
