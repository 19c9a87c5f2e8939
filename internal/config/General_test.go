package config

import (
	"os"
	"testing"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-fi/harvester/internal/types"
)

// setValidEnv sets every required variable with valid values. Individual tests
// override single keys to probe validation.
func setValidEnv(t *testing.T) {
	t.Helper()

	addr := func(seed string) string {
		return sdk.AccAddress([]byte(seed)).String()
	}

	t.Setenv("BECH32_PREFIX", "cosmos")
	t.Setenv("PRINCIPAL_DENOM", "uhal")
	t.Setenv("AUX_DENOM", "uaxl")
	t.Setenv("PRINCIPAL_PRECISION", "6")
	t.Setenv("STRATEGY_ADDRESS", addr("cfg-test-strategy-01"))
	t.Setenv("VAULT_ADDRESS", addr("cfg-test-vault-00001"))
	t.Setenv("OWNER_ADDRESS", addr("cfg-test-owner-00001"))
	t.Setenv("BURN_ADDRESS", addr("cfg-test-burn-000001"))
	t.Setenv("FARM_ADDRESS", addr("cfg-test-farm-000001"))
	t.Setenv("ROUTER_ADDRESS", addr("cfg-test-router-0001"))
	t.Setenv("FARM_POOL_ID", "7")
	t.Setenv("ROUTE_TO_AUX", "uhal,uhub,uaxl")
	t.Setenv("ROUTE_TO_PRINCIPAL", "uaxl,uhub,uhal")
	t.Setenv("HARVEST_INTERVAL_SECONDS", "3600")
	t.Setenv("NODE_GRPC", "localhost:9090")
	t.Setenv("GATEWAY_RPC", "http://localhost:9650")
}

func TestLoadConfig(t *testing.T) {
	t.Run("loads a complete environment", func(t *testing.T) {
		setValidEnv(t)
		require.NoError(t, LoadConfig())

		require.Equal(t, "uhal", PrincipalDenom)
		require.Equal(t, "uaxl", AuxDenom)
		require.Equal(t, 6, PrincipalPrecision)
		require.Equal(t, uint64(7), FarmPoolID)
		require.Equal(t, types.Route{"uhal", "uhub", "uaxl"}, RouteToAux)
		require.Equal(t, types.Route{"uaxl", "uhub", "uhal"}, RouteToPrincipal)
		require.Equal(t, time.Hour, HarvestInterval)
		require.Equal(t, "localhost:9090", NodeGRPC)
		require.Equal(t, "http://localhost:9650", GatewayRPC)
		require.False(t, StrategyAddress.Empty())
		require.False(t, VaultAddress.Empty())
	})

	t.Run("routes tolerate spaces around commas", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("ROUTE_TO_AUX", " uhal , uhub , uaxl ")
		require.NoError(t, LoadConfig())
		require.Equal(t, types.Route{"uhal", "uhub", "uaxl"}, RouteToAux)
	})

	t.Run("missing variable fails", func(t *testing.T) {
		setValidEnv(t)
		unsetEnv(t, "VAULT_ADDRESS")
		require.Error(t, LoadConfig())
	})

	t.Run("matching denoms rejected", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("AUX_DENOM", "uhal")
		require.Error(t, LoadConfig())
	})

	t.Run("precision out of range rejected", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("PRINCIPAL_PRECISION", "19")
		require.Error(t, LoadConfig())

		t.Setenv("PRINCIPAL_PRECISION", "-1")
		require.Error(t, LoadConfig())
	})

	t.Run("malformed address rejected", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("BURN_ADDRESS", "not-a-bech32-address")
		require.Error(t, LoadConfig())
	})

	t.Run("wrong bech32 prefix rejected", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("BECH32_PREFIX", "osmo")
		// All addresses were rendered under the cosmos prefix.
		require.Error(t, LoadConfig())
	})

	t.Run("route with wrong endpoints rejected", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("ROUTE_TO_AUX", "uaxl,uhub,uhal")
		require.Error(t, LoadConfig())
	})

	t.Run("zero harvest interval rejected", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("HARVEST_INTERVAL_SECONDS", "0")
		require.Error(t, LoadConfig())
	})

	t.Run("non-numeric pool ID rejected", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("FARM_POOL_ID", "seven")
		require.Error(t, LoadConfig())
	})
}

// unsetEnv removes a variable for the duration of the test. The preceding
// t.Setenv registers the restore, os.Unsetenv then clears the value.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
}
