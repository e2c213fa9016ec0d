package main

import (
	"log"
	"os"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/model"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	log.Println("Step 1: Setting up Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	models := []interface{}{
		&model.User{},
		&model.CruManagementArea{},
		&model.Premises{},
		&model.Application{},
		&model.Assessment{},
		&model.PlacementApplication{},
		&model.PlacementRequest{},
		&model.SpaceBooking{},
		&model.EmailNotification{}, // withdrawal email outbox
		&model.Notification{},
	}
	log.Printf("Step 2: Running AutoMigrate for %d Tables...", len(models))

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating Indexes and Functions...")
	postMigrationSQL := []string{
		`CREATE OR REPLACE FUNCTION set_current_timestamp_updated_at() RETURNS trigger LANGUAGE plpgsql AS $$
		DECLARE _new_value TIMESTAMP WITH TIME ZONE;
		BEGIN
		  _new_value := now();
		  IF NEW.updated_at IS DISTINCT FROM _new_value THEN NEW.updated_at = _new_value; END IF;
		  RETURN NEW;
		END; $$;`,

		// Redelivery scan at dispatcher start-up.
		`CREATE INDEX IF NOT EXISTS idx_email_notifications_unsent ON email_notifications (created_at) WHERE status <> 'sent';`,

		// A booking has at most one outcome.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'space_bookings_single_outcome') THEN
		    ALTER TABLE space_bookings ADD CONSTRAINT space_bookings_single_outcome
		      CHECK (NOT (actual_arrival_at IS NOT NULL AND non_arrival_confirmed_at IS NOT NULL));
		  END IF;
		END $$;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
