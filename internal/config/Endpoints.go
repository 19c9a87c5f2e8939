package config

import (
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// NodeGRPC is the gRPC endpoint of the chain node, used for balance queries.
	NodeGRPC string
	// GatewayRPC is the JSON-RPC endpoint of the strategy execution gateway,
	// which signs and submits transfers, farm operations and swaps on the
	// strategy account's behalf.
	GatewayRPC string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	NodeGRPC, err = getEnv("NODE_GRPC")
	if err != nil {
		return err
	}

	GatewayRPC, err = getEnv("GATEWAY_RPC")
	if err != nil {
		return err
	}

	log.Debug().
		Str("NodeGRPC", NodeGRPC).
		Str("GatewayRPC", GatewayRPC).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
