package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kayz/tomo/internal/agent"
	"github.com/kayz/tomo/internal/logger"
	"github.com/kayz/tomo/internal/rag"
	"github.com/kayz/tomo/internal/server"
	"github.com/kayz/tomo/internal/store"
)

var (
	servePort int
	memOnly   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the onboarding server",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	serveCmd.Flags().BoolVar(&memOnly, "memory", false, "Keep sessions in memory only, skip SQLite")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	retriever, err := rag.NewDefaultStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading knowledge base: %v\n", err)
		os.Exit(1)
	}

	a := agent.New(retriever)
	if cfg.Server.AI.APIKey != "" {
		rephraser, err := agent.NewOpenAIRephraser(agent.OpenAIConfig{
			APIKey:  cfg.Server.AI.APIKey,
			BaseURL: cfg.Server.AI.BaseURL,
			Model:   cfg.Server.AI.Model,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error configuring rephraser: %v\n", err)
			os.Exit(1)
		}
		a = a.WithRephraser(rephraser)
		logger.Infof("reply rephrasing enabled (model %s)", cfg.Server.AI.Model)
	}

	var db *store.Store
	if !memOnly && cfg.Server.DataPath != "" {
		db, err = store.NewStore(cfg.Server.DataPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening session store: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	srv := server.NewServer(a, server.NewSessions(db))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("onboarding server listening on http://127.0.0.1:%d", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}
