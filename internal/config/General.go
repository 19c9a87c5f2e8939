package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"os"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog/log"

	"github.com/halcyon-fi/harvester/internal/types"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// Bech32Prefix is the account address prefix of the target network.
	Bech32Prefix string

	// PrincipalDenom is the micro denom of the token the strategy accumulates.
	PrincipalDenom string
	// AuxDenom is the micro denom of the intermediate settlement token used
	// only during fee distribution.
	AuxDenom string
	// PrincipalPrecision is the decimal precision of the principal token,
	// used when rendering micro amounts for the dashboard.
	PrincipalPrecision int

	// StrategyAddress is the account the strategy custodies funds under.
	StrategyAddress sdk.AccAddress
	// VaultAddress is the single authorized caller for withdraw/retire.
	VaultAddress sdk.AccAddress
	// OwnerAddress controls lifecycle transitions and triggers harvests.
	OwnerAddress sdk.AccAddress
	// BurnAddress receives the buy-back swap output; tokens sent there are
	// unrecoverable.
	BurnAddress sdk.AccAddress
	// FarmAddress is the staking facility account (allowance spender).
	FarmAddress sdk.AccAddress
	// RouterAddress is the swap router account (allowance spender).
	RouterAddress sdk.AccAddress

	// FarmPoolID is the staking facility pool the strategy deposits into.
	FarmPoolID uint64

	// RouteToAux is the fixed swap path from principal to auxiliary token.
	RouteToAux types.Route
	// RouteToPrincipal is the fixed swap path from auxiliary token back to
	// principal, used for the buy-back-and-burn leg.
	RouteToPrincipal types.Route

	// HarvestInterval is how often the daemon triggers a harvest.
	HarvestInterval time.Duration
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Bech32Prefix, err = getEnv("BECH32_PREFIX")
	if err != nil {
		return err
	}

	PrincipalDenom, err = getEnv("PRINCIPAL_DENOM")
	if err != nil {
		return err
	}

	AuxDenom, err = getEnv("AUX_DENOM")
	if err != nil {
		return err
	}
	if AuxDenom == PrincipalDenom {
		return errors.New("AUX_DENOM must differ from PRINCIPAL_DENOM")
	}

	PrincipalPrecision, err = getEnvAsInt("PRINCIPAL_PRECISION")
	if err != nil {
		return err
	}
	if PrincipalPrecision < 0 || PrincipalPrecision > 18 {
		return errors.New("PRINCIPAL_PRECISION must be between 0 and 18")
	}

	StrategyAddress, err = getEnvAsAddress("STRATEGY_ADDRESS")
	if err != nil {
		return err
	}
	VaultAddress, err = getEnvAsAddress("VAULT_ADDRESS")
	if err != nil {
		return err
	}
	OwnerAddress, err = getEnvAsAddress("OWNER_ADDRESS")
	if err != nil {
		return err
	}
	BurnAddress, err = getEnvAsAddress("BURN_ADDRESS")
	if err != nil {
		return err
	}
	FarmAddress, err = getEnvAsAddress("FARM_ADDRESS")
	if err != nil {
		return err
	}
	RouterAddress, err = getEnvAsAddress("ROUTER_ADDRESS")
	if err != nil {
		return err
	}

	FarmPoolID, err = getEnvAsUint64("FARM_POOL_ID")
	if err != nil {
		return err
	}

	RouteToAux, err = getEnvAsRoute("ROUTE_TO_AUX")
	if err != nil {
		return err
	}
	if err := RouteToAux.Validate(PrincipalDenom, AuxDenom); err != nil {
		return errors.Join(errors.New("ROUTE_TO_AUX is invalid"), err)
	}

	RouteToPrincipal, err = getEnvAsRoute("ROUTE_TO_PRINCIPAL")
	if err != nil {
		return err
	}
	if err := RouteToPrincipal.Validate(AuxDenom, PrincipalDenom); err != nil {
		return errors.Join(errors.New("ROUTE_TO_PRINCIPAL is invalid"), err)
	}

	harvestIntervalSeconds, err := getEnvAsUint64("HARVEST_INTERVAL_SECONDS")
	if err != nil {
		return err
	}
	if harvestIntervalSeconds == 0 {
		return errors.New("HARVEST_INTERVAL_SECONDS must be positive")
	}
	HarvestInterval = time.Duration(harvestIntervalSeconds) * time.Second

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("PrincipalDenom", PrincipalDenom).
		Str("AuxDenom", AuxDenom).
		Uint64("FarmPoolID", FarmPoolID).
		Str("RouteToAux", RouteToAux.String()).
		Str("RouteToPrincipal", RouteToPrincipal.String()).
		Dur("HarvestInterval", HarvestInterval).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an int. Returns error if not set or invalid.
func getEnvAsInt(key string) (int, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid integer, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsAddress retrieves an environment variable as a bech32 account address
// under the configured prefix.
func getEnvAsAddress(key string) (sdk.AccAddress, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return nil, err
	}
	bz, err := sdk.GetFromBech32(valueStr, Bech32Prefix)
	if err != nil {
		return nil, errors.New("environment variable " + key + " must be a valid " + Bech32Prefix + " bech32 address, got: " + valueStr)
	}
	return sdk.AccAddress(bz), nil
}

// getEnvAsRoute retrieves an environment variable as a comma-separated denom route.
func getEnvAsRoute(key string) (types.Route, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(valueStr, ",")
	route := make(types.Route, 0, len(parts))
	for _, p := range parts {
		route = append(route, strings.TrimSpace(p))
	}
	return route, nil
}
