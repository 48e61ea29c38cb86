package idgen_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/idgen"
	"go.trai.ch/forge/internal/core/domain"
)

func TestUUID(t *testing.T) {
	gen := idgen.NewUUID()

	id := gen.NewTaskID()
	parsed, err := uuid.Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())

	assert.NotEqual(t, gen.NewTaskID(), gen.NewTaskID())
	assert.NotEqual(t, gen.NewRecordID(), gen.NewRecordID())
	assert.NotEqual(t, gen.NewBuildSetID(), gen.NewBuildSetID())
}

func TestSequence(t *testing.T) {
	gen := idgen.NewSequence("")
	assert.Equal(t, domain.TaskID("task-1"), gen.NewTaskID())
	assert.Equal(t, "record-2", gen.NewRecordID())
	assert.Equal(t, domain.BuildSetID("set-3"), gen.NewBuildSetID())

	prefixed := idgen.NewSequence("ci")
	assert.Equal(t, domain.TaskID("ci-task-1"), prefixed.NewTaskID())
}

func TestSequence_Concurrent(t *testing.T) {
	gen := idgen.NewSequence("")

	var (
		mu   sync.Mutex
		seen = map[domain.TaskID]bool{}
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id := gen.NewTaskID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}
