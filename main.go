package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"seibi/auth"
	"seibi/config"
	"seibi/database"
	"seibi/loader"
	"seibi/logging"
	"seibi/mailer"
)

var version = "1.0.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "seibi",
	Short: "整備工場向けの顧客・車両・請求書管理",
	Long: `seibi は整備工場の事務作業 (顧客・車両の管理、見積書・請求書の作成、
CSV取り込み、バックアップ) をローカルのブラウザから行うためのサーバーです。

引数なしで起動するとサーバーを立ち上げます。`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTPサーバーを起動します",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.ConfigFilePath, "設定ファイルのパス")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	config.ConfigFilePath = configPath
	cfg, err := config.LoadConfig()
	logging.Setup(cfg)
	if err != nil {
		log.Warnf("Failed to load config file: %v. Using defaults.", err)
	}
	return nil
}

// openDatabase opens the configured database and applies the schema.
func openDatabase() (*sqlx.DB, error) {
	cfg := config.GetConfig()
	log.Printf("Connecting to database %s...", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := loader.InitDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("Database initialization complete.")
	return db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	cfg := config.GetConfig()
	sender := mailer.New(db)
	authSvc := auth.NewService(db, sender)

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./static/index.html")
	})
	SetupRoutes(mux, db, authSvc, sender)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           logging.Middleware(authSvc.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if cfg.OpenBrowser {
		openBrowser(browserURL(cfg.ListenAddr))
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("Server stopped.")
	return nil
}

func browserURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		log.Printf("failed to open browser: %v", err)
	}
}
