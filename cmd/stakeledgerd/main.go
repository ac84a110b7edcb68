package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakeledger/config"
	"stakeledger/core/events"
	"stakeledger/core/genesis"
	"stakeledger/native/bank"
	"stakeledger/native/rewardpool"
	"stakeledger/observability/logging"
	"stakeledger/rpc"
	"stakeledger/storage"
)

const envVar = "STAKELEDGER_ENV"

// logEmitter forwards ledger events into the structured log.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(event events.Event) {
	attrs := make([]any, 0, 2*len(event.Attributes()))
	for key, value := range event.Attributes() {
		attrs = append(attrs, slog.String(key, value))
	}
	l.logger.Info(event.EventType(), attrs...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("stakeledgerd", env, cfg.LogFile)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	ledger := bank.NewLedger(db)
	if strings.TrimSpace(cfg.GenesisFile) != "" {
		applied, err := genesis.Applied(db)
		if err != nil {
			logger.Error("Failed to check genesis state", slog.Any("error", err))
			os.Exit(1)
		}
		if !applied {
			gen, err := genesis.Load(cfg.GenesisFile)
			if err != nil {
				logger.Error("Failed to load genesis file", slog.Any("error", err))
				os.Exit(1)
			}
			if err := gen.Apply(db, ledger, cfg.VaultAccount); err != nil {
				logger.Error("Failed to apply genesis", slog.Any("error", err))
				os.Exit(1)
			}
			logger.Info("Genesis balances applied", slog.String("file", cfg.GenesisFile))
		}
	}

	rate, err := cfg.ParseRate()
	if err != nil {
		logger.Error("Invalid reward rate", slog.Any("error", err))
		os.Exit(1)
	}
	engine, err := rewardpool.NewEngine(rate)
	if err != nil {
		logger.Error("Failed to construct engine", slog.Any("error", err))
		os.Exit(1)
	}
	vault := bank.NewVault(ledger, cfg.VaultAccount)
	engine.SetLedger(vault, vault.Address())
	engine.SetEmitter(logEmitter{logger: logger})
	if err := engine.SetStore(rewardpool.NewStore(db)); err != nil {
		logger.Error("Failed to restore pool state", slog.Any("error", err))
		os.Exit(1)
	}

	go serveOps(cfg.OpsAddress, engine, logger)

	server := rpc.NewServer(engine, ledger)
	server.SetRateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	logger.Info("Starting JSON-RPC server", slog.String("addr", cfg.RPCAddress))
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func serveOps(addr string, engine *rewardpool.Engine, logger *slog.Logger) {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := engine.CheckInvariants(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	logger.Info("Starting ops server", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Error("Ops server stopped", slog.Any("error", err))
	}
}
