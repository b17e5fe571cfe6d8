package factory

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/hailam/gdsview/internal/geometry"
	"github.com/hailam/gdsview/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLoader struct{ id string }

func (m *mockLoader) Load(ctx context.Context, data []byte, filename string, onProgress ports.ProgressFunc) (*geometry.Document, ports.Stats, []geometry.Warning, error) {
	return nil, ports.Stats{}, nil, nil
}

var testRegistryMutex sync.Mutex

func resetRegistry() {
	testRegistryMutex.Lock()
	defer testRegistryMutex.Unlock()
	loaderRegistry = make(map[ports.Format]ports.Loader)
}

func TestNewLoaderFactory(t *testing.T) {
	f := NewLoaderFactory()
	require.NotNil(t, f)
	_, ok := f.(*DynamicLoaderFactory)
	assert.True(t, ok)
}

func TestDynamicLoaderFactory_For(t *testing.T) {
	resetRegistry()
	gdsLoader := &mockLoader{id: "gds"}
	dxfLoader := &mockLoader{id: "dxf"}
	RegisterLoader(ports.FormatGDSII, gdsLoader)
	RegisterLoader(ports.FormatDXF, dxfLoader)

	f := NewLoaderFactory()

	got, err := f.For(ports.FormatGDSII)
	require.NoError(t, err)
	assert.Same(t, gdsLoader, got)

	got, err = f.For(ports.FormatDXF)
	require.NoError(t, err)
	assert.Same(t, dxfLoader, got)

	_, err = f.For(ports.Format("svg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: 'svg'")
}

func TestRegisterLoader_Overwrite(t *testing.T) {
	resetRegistry()
	first := &mockLoader{id: "first"}
	second := &mockLoader{id: "second"}

	RegisterLoader(ports.FormatGDSII, first)
	f := NewLoaderFactory()
	got, err := f.For(ports.FormatGDSII)
	require.NoError(t, err)
	assert.Same(t, first, got)

	RegisterLoader(ports.FormatGDSII, second)
	got, err = f.For(ports.FormatGDSII)
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestRegisteredFormats(t *testing.T) {
	resetRegistry()
	RegisterLoader(ports.FormatGDSII, &mockLoader{id: "gds"})
	RegisterLoader(ports.FormatDXF, &mockLoader{id: "dxf"})

	got := RegisteredFormats()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	assert.Equal(t, []ports.Format{ports.FormatDXF, ports.FormatGDSII}, got)

	resetRegistry()
	assert.Empty(t, RegisteredFormats())
}
