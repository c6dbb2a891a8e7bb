package system

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

// ShutdownSignals stop long running commands such as sync --watch.
var ShutdownSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
}

// CleanupManager runs the callbacks registered by a command once it
// finishes, e.g. flushing traces or closing file watchers.
type CleanupManager struct {
	wg sync.WaitGroup

	mu      sync.Mutex
	fns     []func(context.Context) error
	fnsDone bool
}

func NewCleanupManager() *CleanupManager {
	return &CleanupManager{}
}

// RegisterCallback registers a clean-up function.
func (cm *CleanupManager) RegisterCallback(fn func() error) {
	cm.RegisterCallbackWithContext(func(context.Context) error { return fn() })
}

func (cm *CleanupManager) RegisterCallbackWithContext(fn func(context.Context) error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.fnsDone {
		log.Error().Msg("CleanupManager: RegisterCallback called after Cleanup")
		return
	}
	cm.wg.Add(1)
	cm.fns = append(cm.fns, fn)
}

// Cleanup runs all registered callbacks concurrently and waits for them.
// Calling it twice is a no-op.
func (cm *CleanupManager) Cleanup(ctx context.Context) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.fnsDone {
		log.Ctx(ctx).Warn().Msg("CleanupManager: Cleanup called again after already called")
		return
	}

	for _, fn := range cm.fns {
		go func(fn func(context.Context) error) {
			defer cm.wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Ctx(ctx).Error().Err(err).Msg("Error during clean-up callback")
			}
		}(fn)
	}

	cm.wg.Wait()
	cm.fnsDone = true
}
