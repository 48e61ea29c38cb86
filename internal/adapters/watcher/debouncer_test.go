package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/watcher"
)

type batches struct {
	mu    sync.Mutex
	calls [][]string
}

func (b *batches) add(paths []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, paths)
}

func (b *batches) snapshot() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.calls...)
}

func TestDebouncer_CoalescesAndSorts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got batches
		d := watcher.NewDebouncer(100*time.Millisecond, got.add)

		d.Add("/repo/forge.yaml")
		d.Add("/repo/b.yaml")
		d.Add("/repo/forge.yaml")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		calls := got.snapshot()
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"/repo/b.yaml", "/repo/forge.yaml"}, calls[0])
	})
}

func TestDebouncer_TimerReset(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got batches
		d := watcher.NewDebouncer(100*time.Millisecond, got.add)

		d.Add("/repo/forge.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("/repo/forge.yaml")
		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, got.snapshot())

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, got.snapshot(), 1)
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got batches
		d := watcher.NewDebouncer(100*time.Millisecond, got.add)

		d.Flush()
		assert.Empty(t, got.snapshot())

		d.Add("/repo/forge.yaml")
		d.Flush()
		require.Len(t, got.snapshot(), 1)

		// The stopped timer must not fire a second batch.
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, got.snapshot(), 1)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got batches
		d := watcher.NewDebouncer(100*time.Millisecond, got.add)

		d.Add("/repo/forge.yaml")
		d.Stop()
		d.Add("/repo/forge.yaml")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, got.snapshot())
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watcher.NewDebouncer(50*time.Millisecond, nil)
		d.Add("/repo/forge.yaml")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		d.Flush()
	})
}
