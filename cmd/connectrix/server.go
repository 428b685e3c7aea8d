package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kpreslar/connectrix/internal/auth"
	"github.com/kpreslar/connectrix/internal/catalog"
	"github.com/kpreslar/connectrix/internal/config"
	"github.com/kpreslar/connectrix/internal/conntest"
	"github.com/kpreslar/connectrix/internal/db"
	"github.com/kpreslar/connectrix/internal/secrets"
	"github.com/kpreslar/connectrix/internal/server"
	"github.com/kpreslar/connectrix/internal/template"
	"github.com/kpreslar/connectrix/internal/transport"
)

var serverFlags struct {
	dbPath     string
	apiPort    int
	secretsKey string
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the admin API server",
	Long: `Start the connectrix admin API server.

The server exposes connection testing and auth schema validation endpoints,
protected by admin API keys (see 'connectrix keygen'). Stored credentials
are decrypted with the secrets key, which must match the key used when the
credentials were written.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverFlags.dbPath, "db", "", "database path")
	serverCmd.Flags().IntVar(&serverFlags.apiPort, "api-port", 0, "API port to listen on")
	serverCmd.Flags().StringVar(&serverFlags.secretsKey, "secrets-key", "", "key for decrypting stored credentials")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cmd.Flags().Changed("db") {
		cfg.DBPath = serverFlags.dbPath
	}
	if cmd.Flags().Changed("api-port") {
		cfg.APIPort = serverFlags.apiPort
	}
	if cmd.Flags().Changed("secrets-key") {
		cfg.SecretsKey = serverFlags.secretsKey
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()
	store := db.NewStore(database)

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load auth type catalog: %w", err)
	}

	secretsSvc := secrets.New(cfg.SecretsKey)
	tmpl := template.New(secretsSvc, logger.Named("template"))
	manager := auth.NewManager(auth.Deps{
		Transport: transport.New(logger.Named("transport")),
		Template:  tmpl,
		Decryptor: secretsSvc,
		Logger:    logger.Named("auth"),
	})
	tester := conntest.New(store, cat, manager, tmpl, logger.Named("conntest"))

	apiSrv := &server.APIServer{
		Store:  store,
		Tester: tester,
		Logger: logger.Named("api"),
	}

	apiErrLog, _ := zap.NewStdLogAt(logger.Named("api"), zapcore.ErrorLevel)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           apiSrv.Handler(),
		ErrorLog:          apiErrLog,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		logger.Info("starting api server", zap.Int("port", cfg.APIPort))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	apiServer.Shutdown(ctx)

	return nil
}
