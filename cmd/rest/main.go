package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/bootstrap"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/config"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/server"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/tracer"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// Tracer is a no-op unless OTEL_ENABLED=true
	shutdownTracer := tracer.InitTracer(cfg.Tracing, cfg.App.Environment)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	if err := container.EmailDispatchService.Consume(ctx); err != nil {
		log.Fatalf("Email dispatcher failed to start: %v", err)
	}
	if n, err := container.EmailDispatchService.RedeliverPending(ctx); err != nil {
		log.Printf("[WARN] Failed to re-queue unsent emails: %v", err)
	} else if n > 0 {
		log.Printf("Re-queued %d unsent withdrawal emails", n)
	}
	if err := container.NotificationService.Start(); err != nil {
		log.Printf("[WARN] In-app notifications disabled: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
