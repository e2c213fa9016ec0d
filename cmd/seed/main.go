package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/model"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/serverutils"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

// main seeds one application with a full placement tree so the withdrawal endpoints
// have something to act on, then prints bearer tokens for the applicant and a workflow manager.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("🚀 Seeding demo application tree\n")

	var ids seeded
	if err := db.Transaction(func(tx *gorm.DB) error {
		ids, err = seedTree(tx)
		return err
	}); err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}

	color.Green("Application:           %s", ids.application)
	color.Green("Placement application: %s", ids.placementApplication)
	color.Green("Placement request:     %s", ids.placementRequest)
	color.Green("Space booking:         %s", ids.spaceBooking)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		color.Yellow("\nJWT_SECRET not set, skipping tokens")
		return
	}
	applicantToken, err := serverutils.SignToken(secret, ids.applicant, []entity.UserRole{entity.UserRoleApplicant})
	if err != nil {
		color.Red("Failed to sign token: %v", err)
		os.Exit(1)
	}
	managerToken, err := serverutils.SignToken(secret, ids.manager, []entity.UserRole{entity.UserRoleWorkflowManager})
	if err != nil {
		color.Red("Failed to sign token: %v", err)
		os.Exit(1)
	}
	color.Yellow("\nApplicant token:        %s", applicantToken)
	color.Yellow("Workflow manager token: %s", managerToken)
}

type seeded struct {
	applicant, manager   uuid.UUID
	application          uuid.UUID
	placementApplication uuid.UUID
	placementRequest     uuid.UUID
	spaceBooking         uuid.UUID
}

func seedTree(tx *gorm.DB) (seeded, error) {
	now := time.Now().UTC()
	suffix := uuid.NewString()[:8]

	applicant := model.User{Id: uuid.New(), DeliusUsername: "applicant-" + suffix, Name: "Demo Applicant", Email: "applicant-" + suffix + "@example.com"}
	manager := model.User{Id: uuid.New(), DeliusUsername: "manager-" + suffix, Name: "Demo Workflow Manager", Email: "manager-" + suffix + "@example.com"}
	area := model.CruManagementArea{Id: uuid.New(), Name: "North East", EmailAddress: "cru.northeast@example.com"}
	premises := model.Premises{Id: uuid.New(), Name: "Demo House", ApCode: "AP" + suffix, EmailAddress: "demo.house@example.com"}

	arrival := now.AddDate(0, 1, 0).Truncate(24 * time.Hour)
	app := model.Application{
		Id:                     uuid.New(),
		Crn:                    fmt.Sprintf("X%06d", now.Unix()%1000000),
		CreatedByUserId:        applicant.Id,
		CaseManagerIsApplicant: true,
		CruManagementAreaId:    &area.Id,
		Status:                 string(entity.ApplicationStatusPlacementAllocated),
		ArrivalDate:            &arrival,
		Duration:               ptr(84),
		SubmittedAt:            ptr(now.AddDate(0, 0, -14)),
	}
	assessment := model.Assessment{
		Id:                uuid.New(),
		ApplicationId:     app.Id,
		AllocatedToUserId: &manager.Id,
		Decision:          ptr(string(entity.AssessmentDecisionAccepted)),
		SubmittedAt:       ptr(now.AddDate(0, 0, -7)),
	}
	later := arrival.AddDate(0, 4, 0)
	pa := model.PlacementApplication{
		Id:              uuid.New(),
		ApplicationId:   app.Id,
		CreatedByUserId: applicant.Id,
		Dates: datatypes.JSON([]byte(fmt.Sprintf(`[{"start":%q,"end":%q}]`,
			later.Format("2006-01-02"), later.AddDate(0, 0, 28).Format("2006-01-02")))),
		Decision:    ptr(string(entity.PlacementApplicationDecisionAccepted)),
		SubmittedAt: ptr(now.AddDate(0, 0, -3)),
	}
	pr := model.PlacementRequest{
		Id:                     uuid.New(),
		ApplicationId:          app.Id,
		AssessmentId:           assessment.Id,
		PlacementApplicationId: &pa.Id,
		ExpectedArrival:        later,
		Duration:               28,
	}
	booking := model.SpaceBooking{
		Id:                    uuid.New(),
		ApplicationId:         app.Id,
		PlacementRequestId:    &pr.Id,
		PremisesId:            premises.Id,
		ExpectedArrivalDate:   later,
		ExpectedDepartureDate: later.AddDate(0, 0, 28),
	}

	for _, row := range []interface{}{&applicant, &manager, &area, &premises, &app, &assessment, &pa, &pr, &booking} {
		if err := tx.Create(row).Error; err != nil {
			return seeded{}, err
		}
	}

	return seeded{
		applicant:            applicant.Id,
		manager:              manager.Id,
		application:          app.Id,
		placementApplication: pa.Id,
		placementRequest:     pr.Id,
		spaceBooking:         booking.Id,
	}, nil
}
