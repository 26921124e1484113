package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"dealvault/internal/adapter/api"
	"dealvault/internal/adapter/api/handler"
	apimiddleware "dealvault/internal/adapter/api/middleware"
	"dealvault/internal/adapter/api/router"
	"dealvault/internal/adapter/repository"
	"dealvault/internal/domain/service"
	"dealvault/internal/infrastructure/firebase"
	"dealvault/internal/infrastructure/ratelimit"
	"dealvault/internal/infrastructure/storage"
	"dealvault/internal/usecase"
	"dealvault/pkg/config"
	"dealvault/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Environment)
	defer logger.Sync()

	ctx := context.Background()

	var opt option.ClientOption
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")

	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
		serviceAccountPath = ""
	} else if serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	var firebaseOpts []option.ClientOption
	if opt != nil {
		firebaseOpts = append(firebaseOpts, opt)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, firebaseOpts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, firebaseOpts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	var blobStore service.BlobStorageService
	switch cfg.StorageDriver {
	case "s3":
		blobStore, err = storage.NewS3Client(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.StorageBucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
	default:
		blobStore, err = storage.NewCloudStorageClient(ctx, cfg.StorageBucket, serviceAccountPath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize blob storage (%s): %v", cfg.StorageDriver, err)
	}
	defer blobStore.Close()

	dealRepo := repository.NewFirestoreDealRepository(firestoreClient)
	fileRepo := repository.NewFirestoreFileRecordRepository(firestoreClient)

	documentUseCase := usecase.NewDocumentUseCase(dealRepo, fileRepo, blobStore)
	documentHandler := handler.NewDocumentHandler(documentUseCase, cfg.MaxUploadSize)

	firebaseAuthClient := firebase.NewAuthClient(authClient)
	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)

	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine()
	rateLimitMiddleware := apimiddleware.NewRateLimitMiddleware(limiter)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.Validator = api.NewValidator()

	router.Setup(e, documentHandler, authMiddleware, rateLimitMiddleware)

	logger.Info("Starting server on port %s (storage driver: %s)", cfg.ServerPort, cfg.StorageDriver)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
