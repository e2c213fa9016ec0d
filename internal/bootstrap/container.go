package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/config"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/controller"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/handler"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/lock"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/logger"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/mailer"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/unitofwork"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/service"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/websocket"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/events"
	pktNats "github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/juju/clock"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	WithdrawalController   controller.IWithdrawalController
	SpaceBookingController controller.ISpaceBookingController

	// Background Services (Exposed for main.go to run)
	EmailDispatchService service.IEmailDispatchService
	NotificationService  service.INotificationService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Logger logger.ILogger

	// Dependencies reports which optional brokers were reachable at start-up.
	Dependencies Dependencies

	closers []func()
}

// Dependencies is surfaced on /health. Both are optional: without NATS no domain events
// or in-app notifications flow, without Redis locking relies on row locks alone.
type Dependencies struct {
	Nats  bool `json:"nats"`
	Redis bool `json:"redis"`
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	clk := clock.WallClock

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		fmt.Sprintf("%s <%s>", cfg.SMTP.SenderName, cfg.SMTP.Email),
		cfg.App.BaseURL,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS
	var eventPublisher events.Publisher
	var eventSubscriber service.EventSubscriber
	var closers []func()

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		closers = append(closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		eventSubscriber = natsSub
		closers = append(closers, natsSub.Close)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Withdrawal locking falls back to row locks only", err)
		rdb.Close()
		rdb = nil
	}

	locker := lock.NewRedisLocker(rdb, clk, lock.Options{
		TTL:        cfg.Withdrawal.LockTTL,
		Retries:    cfg.Withdrawal.LockRetries,
		RetryDelay: cfg.Withdrawal.LockRetryDelay,
	})

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.NotificationLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()
	closers = append(closers, wsHub.Close)

	// 4. Services
	emailPublisher := service.NewPublisherService(cfg.Keys.EmailTopicName, pubSub)
	emailDispatchService := service.NewEmailDispatchService(
		pubSub,
		cfg.Keys.EmailTopicName,
		uowFactory,
		emailService,
		emailPublisher,
		clk,
		service.DispatchOptions{
			DedupWindow: cfg.Withdrawal.EmailDedupWindow,
			MaxAttempts: cfg.Withdrawal.EmailMaxAttempts,
		},
		sysLogger,
	)

	withdrawalService := service.NewWithdrawalService(uowFactory, locker, clk, emailPublisher, eventPublisher, sysLogger)
	spaceBookingService := service.NewSpaceBookingService(uowFactory, locker, clk, eventPublisher, sysLogger)

	// Notification Domain. Hub implements NotificationDelivery.
	notifService := service.NewNotificationService(uowFactory, eventSubscriber, wsHub, clk, wsLogger)
	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	closers = append(closers, func() { pubSub.Close() })
	if rdb != nil {
		closers = append(closers, func() { rdb.Close() })
	}

	// 5. Controllers
	return &Container{
		WithdrawalController:   controller.NewWithdrawalController(withdrawalService),
		SpaceBookingController: controller.NewSpaceBookingController(spaceBookingService),

		EmailDispatchService: emailDispatchService,
		NotificationService:  notifService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,

		Logger: sysLogger,
		Dependencies: Dependencies{
			Nats:  eventPublisher != nil && eventSubscriber != nil,
			Redis: rdb != nil,
		},
		closers: closers,
	}
}

// Close releases broker and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
