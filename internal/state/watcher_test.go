// internal/state/watcher_test.go
package state

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/user/chathub/internal/workflow"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	store := NewDefinitionStore(filepath.Join(t.TempDir(), "workflows.yaml"))

	var mu sync.Mutex
	var loads [][]*workflow.Workflow
	w, err := NewWatcher(store, func(wfs []*workflow.Workflow) {
		mu.Lock()
		loads = append(loads, wfs)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitLoads := func(n int) []*workflow.Workflow {
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			mu.Lock()
			if len(loads) >= n {
				last := loads[len(loads)-1]
				mu.Unlock()
				return last
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
		}
		t.Fatalf("timed out waiting for %d loads", n)
		return nil
	}

	if initial := waitLoads(1); len(initial) != 0 {
		t.Errorf("expected empty initial load, got %d", len(initial))
	}

	if _, err := store.Add(refundDefinition()); err != nil {
		t.Fatal(err)
	}
	if reloaded := waitLoads(2); len(reloaded) != 1 || reloaded[0].Name != "Refunds" {
		t.Errorf("expected reloaded Refunds workflow, got %+v", reloaded)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
