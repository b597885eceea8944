package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nexbill/payments/internal/config"
	"github.com/nexbill/payments/internal/db"
	"github.com/nexbill/payments/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if migrateOnlyFlag != nil && *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(); err != nil {
			log.Fatalf("migrate-only failed: %v", err)
		}
		log.Println("migrations completed; exiting as requested")
		return
	}

	cfg := config.Load()
	dbConn, err := db.ConnectAndMigrate()
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	log.Printf("Starting server env=%s port=%s", cfg.Env, cfg.Port)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: server.New(dbConn)}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
