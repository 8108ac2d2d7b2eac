package main

import (
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/automoto/doomerang-fuse/server/core"
	"github.com/automoto/doomerang-fuse/server/telemetry"
	"github.com/automoto/doomerang-fuse/shared/protocol"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	port := flag.Uint("port", uint(getEnvInt("BOMB_SERVER_PORT", 7373)), "Server port")
	tickRate := flag.Int("tickrate", getEnvInt("BOMB_SERVER_TICKRATE", 0), "Server tick rate, 0 keeps the config value")
	name := flag.String("name", getEnv("BOMB_SERVER_NAME", ""), "Server display name, empty keeps the config value")
	version := flag.String("version", getEnv("BOMB_SERVER_VERSION", ""), "Required client version (empty = accept any)")
	configPath := flag.String("config", getEnv("FUSE_CONFIG", ""), "YAML tuning file")
	natsURL := flag.String("nats", getEnv("NATS_URL", ""), "NATS URL for detonation telemetry (empty = disabled)")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *tickRate > 0 {
		cfg.TickRate = *tickRate
	}
	if *name != "" {
		cfg.Name = *name
	}
	cfg.Version = *version

	if err := protocol.RegisterComponents(); err != nil {
		log.Fatal().Err(err).Msg("failed to register components")
	}

	var publisher telemetry.Publisher = telemetry.NopPublisher{}
	if *natsURL != "" {
		p, err := telemetry.ConnectNATS(*natsURL, cfg.Name, log.Logger.With().Str("component", "telemetry").Logger())
		if err != nil {
			log.Fatal().Err(err).Str("nats_url", *natsURL).Msg("failed to connect telemetry")
		}
		publisher = p
	}

	server, err := core.NewServer(cfg,
		core.WithLogger(log.Logger.With().Str("component", "server").Logger()),
		core.WithPublisher(publisher),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid server config")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down server")
		server.Stop()
		os.Exit(0)
	}()

	log.Info().
		Str("name", cfg.Name).
		Uint("port", *port).
		Int("tick_rate", cfg.TickRate).
		Str("version", cfg.Version).
		Bool("telemetry", *natsURL != "").
		Msg("starting bomb server")
	if err := server.Start(*port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("ignoring non-numeric environment value")
		return fallback
	}
	return n
}
