package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"baterysul.com.br/ledger/internal/bootstrap"
	"baterysul.com.br/ledger/internal/router"
	"baterysul.com.br/ledger/pkg/ai"
	"baterysul.com.br/ledger/pkg/global"
	"baterysul.com.br/ledger/pkg/ledger"
)

func main() {
	logger := global.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}
	global.ConfigureLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	backend := global.GetStoreBackend()
	openCtx, cancel := global.GetDefaultTimer()
	kv, err := bootstrap.OpenStore(openCtx, backend)
	cancel()
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", backend, err)
	}
	defer kv.Close()

	loadCtx, cancel := global.GetDefaultTimer()
	engine, err := ledger.Open(loadCtx, ledger.Options{
		Store:             kv,
		DefaultScrapPrice: global.GetEnvFloatOrDefault("DEFAULT_SCRAP_PRICE", ledger.DefaultScrapPrice),
		Logger:            logger,
	})
	cancel()
	if err != nil {
		logger.Fatalf("Failed to load ledger state: %v", err)
	}
	defer engine.Close()

	router.InitEngine()
	router.InitializeRoutes(router.NewHandler(engine, ai.InitializeAIService(), backend))

	port := global.GetEnvOrDefault("PORT", "8000")
	srv := &http.Server{Addr: ":" + port, Handler: router.Router}

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Infof("Server is running on port %s", port)
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			global.LogError("main", "main", "server shutdown", nil, err)
		}
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			global.LogError("main", "main", "server", port, err)
		}
	}
}
