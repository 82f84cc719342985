package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-cvassist-client/internal/mockbackend"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	backend := mockbackend.NewBackend()
	if email, password := os.Getenv("MOCK_USER_EMAIL"), os.Getenv("MOCK_USER_PASSWORD"); email != "" && password != "" {
		backend.AddUser(email, password)
		log.Printf("👤 Seeded user %s", email)
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("🧪 Mock CV assistant backend listening on port %s", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
