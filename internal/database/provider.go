package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kozaktomas/facegate/internal/config"
)

// Opener connects to a backend, applies its schema and returns a ready Store.
type Opener func(ctx context.Context, cfg *config.DatabaseConfig) (Store, error)

var (
	drivers   = make(map[string]Opener)
	driversMu sync.RWMutex
)

// RegisterDriver registers a backend constructor under name.
// Backends are registered by the cmd package to avoid import cycles.
func RegisterDriver(name string, open Opener) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = open
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	driversMu.RLock()
	open, ok := drivers[cfg.Driver]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownDriver, cfg.Driver, Drivers())
	}

	store, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Driver, err)
	}
	return store, nil
}
