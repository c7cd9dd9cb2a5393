package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"bitbucket.org/mmdatafocus/billing_recon/models"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Adapter{}
)

// Register installs an adapter under its provider code. Called from adapter
// init() functions; a duplicate code is a programming error.
func Register(a Adapter) {
	code := strings.ToLower(strings.TrimSpace(a.Code()))
	if code == "" {
		panic("providers: adapter with empty code")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[code]; dup {
		panic(fmt.Sprintf("providers: duplicate adapter for code %q", code))
	}
	registry[code] = a
}

// Resolve returns the adapter for a provider code.
func Resolve(code string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := registry[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedProvider, code)
	}
	return a, nil
}

// Codes lists the registered provider codes, sorted.
func Codes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for code := range registry {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
