package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(GatewayMock, discardLogger())
	r.Register(NewMockGateway())

	gw, err := r.Resolve(GatewayMock)
	require.NoError(t, err)
	assert.Equal(t, GatewayMock, gw.Name())

	_, err = r.Resolve("stripe")
	assert.ErrorIs(t, err, ErrUnknownGateway)
}

func TestRegistryDefaultFallsBackToMock(t *testing.T) {
	// paymob configured as default but never registered (no credentials)
	r := NewRegistry(GatewayPaymob, discardLogger())
	r.Register(NewMockGateway())

	gw, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, GatewayMock, gw.Name())
}

func TestRegistryDefaultPrefersConfigured(t *testing.T) {
	r := NewRegistry(GatewayPaymob, discardLogger())
	r.Register(NewMockGateway())
	r.Register(NewPaymobGateway(PaymobConfig{APIKey: "k"}, discardLogger()))

	gw, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, GatewayPaymob, gw.Name())
}
