package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	httpadapter "github.com/kehillahub/gemach-directory/internal/adapter/http"
	"github.com/kehillahub/gemach-directory/internal/adapter/messaging/nats"
	"github.com/kehillahub/gemach-directory/internal/adapter/repository/cache"
	"github.com/kehillahub/gemach-directory/internal/adapter/repository/mongodb"
	"github.com/kehillahub/gemach-directory/internal/adapter/storage/s3"
	"github.com/kehillahub/gemach-directory/internal/config"
	"github.com/kehillahub/gemach-directory/internal/directory/usecase"
	"github.com/kehillahub/gemach-directory/internal/mailer"
	"github.com/kehillahub/gemach-directory/internal/platform/logger"
	"github.com/kehillahub/gemach-directory/internal/platform/tracer"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err.Error())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, "gemach-directory", cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("Tracer initialization failed, continuing without traces", "error", err.Error())
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Error("Tracer shutdown failed", "error", err.Error())
			}
		}()
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Error("Failed to connect to MongoDB", "error", err.Error())
		return
	}
	defer mongoClient.Disconnect(context.Background())
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Error("MongoDB ping failed", "error", err.Error())
		return
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	listingRepo := mongodb.NewListingRepository(db, log)
	imageRepo := mongodb.NewImageRepository(db, log)
	ownerRepo := mongodb.NewOwnerRepository(db, log)

	storageClient, err := s3.NewS3Storage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, log)
	if err != nil {
		log.Error("Failed to initialize object storage", "error", err.Error())
		return
	}

	natsPublisher, err := nats.NewPublisher(cfg.NATSURL)
	if err != nil {
		log.Error("Failed to connect to NATS", "error", err.Error())
		return
	}
	defer natsPublisher.Close()

	// The cache is an optimization; the service runs without it.
	listingCache, err := cache.NewListingCache(cfg.RedisAddress)
	if err != nil {
		log.Warn("Redis unavailable, continuing without listing cache", "error", err.Error())
		listingCache = nil
	}

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)

	directoryUC := usecase.NewDirectoryUsecase(listingRepo, imageRepo, storageClient, natsPublisher, smtpMailer, ownerRepo, log)
	imageUC := usecase.NewImageUsecase(storageClient, imageRepo, listingRepo, log)

	handler := httpadapter.NewHandler(directoryUC, imageUC, listingCache, log)
	router := httpadapter.NewRouter(handler, cfg.JWTSecret, log)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err.Error())
	}
}
