package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/halcyon-fi/harvester/internal/chain"
	"github.com/halcyon-fi/harvester/internal/config"
	"github.com/halcyon-fi/harvester/internal/farm"
	"github.com/halcyon-fi/harvester/internal/harvester"
	"github.com/halcyon-fi/harvester/internal/ledger"
	"github.com/halcyon-fi/harvester/internal/logger"
	"github.com/halcyon-fi/harvester/internal/router"
	"github.com/halcyon-fi/harvester/internal/state"
	"github.com/halcyon-fi/harvester/internal/strategy"
	"github.com/halcyon-fi/harvester/internal/types"
	"github.com/halcyon-fi/harvester/internal/web"
)

// main is the entry point for the harvester daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Harvester daemon starting...")

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := chain.ConfigureSDK(config.Bech32Prefix); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure SDK bech32 prefix")
	}

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting harvester web dashboard")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 2. Chain Connectivity ---
	grpcClient, err := chain.DialNode(config.NodeGRPC)
	if err != nil {
		log.Fatal().Err(err).Msg("gRPC connection error")
	}
	defer grpcClient.Close()
	log.Info().Str("endpoint", config.NodeGRPC).Msg("gRPC connected")

	gateway, err := chain.NewGatewayClient(config.GatewayRPC)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize execution gateway client")
	}
	log.Info().Str("endpoint", config.GatewayRPC).Msg("Execution gateway client ready")

	// --- 3. Adapter Initialization (with Safety Switch) ---
	mode := os.Getenv("HARVESTER_MODE")
	if mode != "live" {
		log.Fatal().Msg("HARVESTER_MODE is not set to 'live'. Halting to prevent accidental execution. Set HARVESTER_MODE=live to run.")
	}
	log.Warn().Msg("Initializing harvester in LIVE mode. Real transactions will be submitted.")

	liveLedger, err := ledger.NewLiveLedger(config.StrategyAddress, grpcClient, gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger adapter")
	}
	liveFarm, err := farm.NewLiveFarm(config.StrategyAddress, config.FarmPoolID, gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize farm adapter")
	}
	liveRouter, err := router.NewLiveRouter(config.StrategyAddress, gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize router adapter")
	}

	// --- 4. Strategy Core with Dependency Injection ---
	strategyCfg := strategy.Config{
		PrincipalDenom:   config.PrincipalDenom,
		AuxDenom:         config.AuxDenom,
		Self:             config.StrategyAddress,
		Vault:            config.VaultAddress,
		Owner:            config.OwnerAddress,
		Burn:             config.BurnAddress,
		Farm:             config.FarmAddress,
		Router:           config.RouterAddress,
		RouteToAux:       config.RouteToAux,
		RouteToPrincipal: config.RouteToPrincipal,
	}

	strat, err := strategy.New(strategyCfg, liveLedger, liveFarm, liveRouter, state.NewRecorder())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create strategy instance")
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Farm and router approvals must be in place before the first deposit.
	if err := strat.GrantAllowances(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to grant farm and router allowances")
	}

	// --- 5. Start Harvest Loop ---
	loop, err := harvester.New(harvester.Config{
		Strategy: strat,
		Caller:   types.Caller{Address: config.OwnerAddress},
		Interval: config.HarvestInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create harvester instance")
	}

	log.Info().Str("interval", config.HarvestInterval.String()).Msg("Starting harvest loop")
	loop.RunLoop(ctx)

	log.Info().Msg("Harvester daemon stopped")
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
