// Package factory is the self-registering loader registry: each format
// adapter package calls RegisterLoader from its own init(), and the
// application layer resolves a ports.Loader by ports.Format without
// importing any adapter package directly. Lifted from the teacher's output
// generator registry (internal/adapters/factory/generator_factory.go) and
// inverted from "generator by output extension" to "loader by input
// extension".
package factory

import (
	"fmt"
	"sync"

	"github.com/hailam/gdsview/internal/ports"
	"github.com/sirupsen/logrus"
)

var (
	loaderRegistry = make(map[ports.Format]ports.Loader)
	registryMutex  sync.RWMutex
)

// RegisterLoader is called by format adapter packages during their init()
// phase.
func RegisterLoader(format ports.Format, loader ports.Loader) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if _, exists := loaderRegistry[format]; exists {
		logrus.WithField("format", format).Warn("duplicate loader registration, overwriting existing one")
	}
	loaderRegistry[format] = loader
}

// DynamicLoaderFactory uses the registry populated by RegisterLoader.
type DynamicLoaderFactory struct{}

// NewLoaderFactory creates a new factory that uses the global registry.
func NewLoaderFactory() ports.LoaderFactory {
	return &DynamicLoaderFactory{}
}

// For returns the appropriate Loader for the given Format from the registry.
func (f *DynamicLoaderFactory) For(t ports.Format) (ports.Loader, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	loader, ok := loaderRegistry[t]
	if !ok {
		return nil, fmt.Errorf("unsupported format: '%s' (no loader registered or check file extension)", t)
	}
	return loader, nil
}

// RegisteredFormats lists every format currently registered, used by the
// CLI to print supported extensions.
func RegisteredFormats() []ports.Format {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	formats := make([]ports.Format, 0, len(loaderRegistry))
	for t := range loaderRegistry {
		formats = append(formats, t)
	}
	return formats
}
