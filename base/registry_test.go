package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	// Use an out-of-range device type so the test never collides with the
	// real backend registrations.
	fake := DeviceType(100)
	require.False(t, Registered(fake))

	_, err := Lookup(fake)
	require.Error(t, err)
	require.Equal(t, Unsupported, CodeOf(err))

	Register(fake, &Backend{Name: "fake"})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, fake)
		registryMu.Unlock()
	})

	require.True(t, Registered(fake))
	backend, err := Lookup(fake)
	require.NoError(t, err)
	require.Equal(t, "fake", backend.Name)

	// Re-registering replaces.
	Register(fake, &Backend{Name: "fake2"})
	backend, err = Lookup(fake)
	require.NoError(t, err)
	require.Equal(t, "fake2", backend.Name)
}
