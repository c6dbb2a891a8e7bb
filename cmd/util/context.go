package util

import (
	"context"

	"github.com/B3Pay/ic-reactor-sub004/pkg/system"
)

type contextKey struct {
	name string
}

var cleanupManagerKey = contextKey{name: "context key for the cleanup manager"}

func WithCleanupManager(ctx context.Context, cm *system.CleanupManager) context.Context {
	return context.WithValue(ctx, cleanupManagerKey, cm)
}

// CleanupManager returns the manager of the running command. Outside a
// command a new manager is returned so callers can always register.
func CleanupManager(ctx context.Context) *system.CleanupManager {
	if cm, ok := ctx.Value(cleanupManagerKey).(*system.CleanupManager); ok {
		return cm
	}
	return system.NewCleanupManager()
}
