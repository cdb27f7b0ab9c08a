package main

import (
	"context"

	adminhandler "sessly/internal/admin/handler"
	adminservice "sessly/internal/admin/service"
	bookingshandler "sessly/internal/bookings/handler"
	bookingsrepo "sessly/internal/bookings/repository"
	bookingsservice "sessly/internal/bookings/service"
	bookingsvalidator "sessly/internal/bookings/validator"
	identityhandler "sessly/internal/identity/handler"
	identityrepo "sessly/internal/identity/repository"
	identityservice "sessly/internal/identity/service"
	plansrepo "sessly/internal/plans/repository"
	plansservice "sessly/internal/plans/service"
	"sessly/pkg/app"
	"sessly/pkg/auth"
	"sessly/pkg/config"
	"sessly/pkg/kafka"

	"github.com/joho/godotenv"
)

const ServiceName = "api"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting API service")

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	verifier := auth.NewGoogleVerifier(cfg.GoogleClientID)

	userRepo := identityrepo.NewMongoUserRepository(cfg)
	planRepo := plansrepo.NewMongoPlanRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	ensureIndexes(cfg, userRepo, planRepo)

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaBookingTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	identitySvc := identityservice.NewIdentityService(userRepo, verifier, tokens, cfg)
	planSvc := plansservice.NewPlanService(planRepo, cfg)
	bookingSvc := bookingsservice.NewBookingService(
		bookingRepo,
		planSvc,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		bookingsservice.NewReceiptRenderer(cfg.ReceiptSecret),
		cfg,
	)
	adminSvc := adminservice.NewAdminService(bookingRepo, userRepo, producer, cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		identityhandler.NewIdentityHandler(identitySvc, tokens, cfg.Log),
		bookingshandler.NewBookingHandler(bookingSvc, tokens, cfg.Log),
		adminhandler.NewAdminHandler(adminSvc, planSvc, tokens, identitySvc.AuthorizeAdmin, cfg.Log),
	)
	serverApp.Run()
}

func ensureIndexes(cfg *config.Config, userRepo identityrepo.UserRepository, planRepo plansrepo.PlanRepository) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		cfg.Log.Fatal("Failed to create user indexes", "error", err)
	}
	if err := planRepo.EnsureIndexes(ctx); err != nil {
		cfg.Log.Fatal("Failed to create plan indexes", "error", err)
	}

	cfg.Log.Info("Database indexes ensured")
}
