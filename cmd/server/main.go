package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ledgergames/splitsecond/pkg/api"
	"github.com/ledgergames/splitsecond/pkg/auth"
	"github.com/ledgergames/splitsecond/pkg/clock"
	"github.com/ledgergames/splitsecond/pkg/events"
	"github.com/ledgergames/splitsecond/pkg/ledger"
	"github.com/ledgergames/splitsecond/pkg/log"
	"github.com/ledgergames/splitsecond/pkg/queue"
	"github.com/ledgergames/splitsecond/pkg/repositories"
	"github.com/ledgergames/splitsecond/pkg/version"
	"github.com/ledgergames/splitsecond/pkg/workers"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	dbDriver := flag.String("db-driver", "sqlite", "Database driver (sqlite or postgres)")
	dbPath := flag.String("db-path", "splitsecond.db", "SQLite database path")
	saveInterval := flag.Duration("save-interval", 10*time.Second, "Ledger snapshot interval")
	certFile := flag.String("cert-file", "", "TLS certificate file")
	tlsKeyFile := flag.String("tls-key-file", "", "TLS key file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting splitsecond server version %s", version.Get())

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repository, err := newRepository(ctx, *dbDriver, *dbPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(context.Background())

	eventQueue := queue.NewInMemoryQueue(1024)
	l := ledger.NewLedger(ledger.NewLedgerOptions{
		Clock:      clock.NewSystemClock(),
		EventQueue: eventQueue,
	})

	snapshots, err := repository.LoadObjects(ctx)
	if err != nil {
		panic(fmt.Sprintf("Failed to load ledger snapshot: %v", err))
	}
	if len(snapshots) > 0 {
		if err := l.Restore(snapshots); err != nil {
			panic(fmt.Sprintf("Failed to restore ledger: %v", err))
		}
		log.Info("Restored %d objects from repository", len(snapshots))
	}

	hub := events.NewHub()
	broadcastWorker := workers.NewEventBroadcastWorker(workers.NewEventBroadcastWorkerOptions{
		EventQueue: eventQueue,
		Hub:        hub,
		Interval:   100 * time.Millisecond,
	})
	go broadcastWorker.Start(ctx)

	saveObjectCh := make(chan workers.SaveObjectRequest, 100)
	saveWorker := workers.NewSaveLedgerWorker(workers.NewSaveLedgerWorkerOptions{
		Repository:   repository,
		Ledger:       l,
		SaveObjectCh: saveObjectCh,
		Interval:     *saveInterval,
	})
	go saveWorker.Start(ctx)

	var tlsConfig *api.TLSConfig
	if *certFile != "" && *tlsKeyFile != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: *certFile,
			KeyFile:  *tlsKeyFile,
		}
	}

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         *port,
		TLS:          tlsConfig,
		Ledger:       l,
		Verifier:     auth.NewVerifier(),
		Hub:          hub,
		SaveObjectCh: saveObjectCh,
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}

	// final snapshot so nothing is lost between save ticks
	finalSnapshots, err := l.Snapshot()
	if err != nil {
		log.Error("Failed to snapshot ledger on shutdown: %v", err)
		return
	}
	if err := repository.SaveObjects(shutdownCtx, time.Now().UnixMilli(), finalSnapshots); err != nil {
		log.Error("Failed to save ledger on shutdown: %v", err)
	}
}

func newRepository(ctx context.Context, driver, path string) (repositories.Repository, error) {
	switch driver {
	case "sqlite":
		return repositories.NewSQLiteRepository(ctx, path)
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable must be set for the postgres driver")
		}
		return repositories.NewPostgresRepository(ctx, connStr)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", driver)
	}
}
