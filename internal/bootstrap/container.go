package bootstrap

import (
	"context"
	"log"

	"ai-knowledge-hub/internal/config"
	"ai-knowledge-hub/internal/controller"
	"ai-knowledge-hub/internal/pkg/logger"
	"ai-knowledge-hub/internal/pkg/mailer"
	"ai-knowledge-hub/internal/repository/memory"
	"ai-knowledge-hub/internal/repository/unitofwork"
	"ai-knowledge-hub/internal/service"
	"ai-knowledge-hub/pkg/completion"
	pktNats "ai-knowledge-hub/pkg/nats"
	"ai-knowledge-hub/pkg/storage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	OAuthController    controller.IOAuthController
	UserController     controller.IUserController
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background services (run from main.go)
	ConsumerService service.IConsumerService

	// Shared infrastructure
	Logger        logger.ILogger
	NatsPublisher *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Event bus (in-process extraction queue)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Blob storage
	blobStore := newBlobStore(cfg)

	// 4. NATS domain events (best effort, nil publisher disables)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// 5. Upstream completion client
	completionClient := completion.NewClient(
		cfg.OpenRouter.APIKey,
		cfg.OpenRouter.BaseURL,
		cfg.OpenRouter.Model,
		cfg.OpenRouter.SiteURL,
		cfg.OpenRouter.SiteTitle,
		cfg.OpenRouter.MaxTokens,
		cfg.OpenRouter.Temperature,
	)

	// 6. In-memory extraction tracking
	extractionStatus := memory.NewExtractionStatusRepository()

	// 7. Services
	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)
	userService := service.NewUserService(uowFactory, blobStore, sysLogger)

	publisherService := service.NewPublisherService(cfg.App.UploadTopic, pubSub)
	documentService := service.NewDocumentService(
		uowFactory,
		blobStore,
		publisherService,
		extractionStatus,
		natsPub,
		sysLogger,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.UploadTopic,
		uowFactory,
		blobStore,
		extractionStatus,
		sysLogger,
	)

	chatService := service.NewChatService(
		uowFactory,
		completionClient,
		cfg.OpenRouter.Model,
		natsPub,
		sysLogger,
	)

	// 8. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		OAuthController:    controller.NewOAuthController(oauthService),
		UserController:     controller.NewUserController(userService),
		DocumentController: controller.NewDocumentController(documentService),
		ChatController:     controller.NewChatController(chatService),

		ConsumerService: consumerService,

		Logger:        sysLogger,
		NatsPublisher: natsPub,
	}
}

func newBlobStore(cfg *config.Config) storage.Store {
	if cfg.Storage.Driver == "s3" {
		store, err := storage.NewS3Store(context.Background(), storage.S3Config{
			Region:    cfg.Storage.AwsRegion,
			AccessKey: cfg.Storage.AwsAccessKey,
			SecretKey: cfg.Storage.AwsSecretKey,
			Bucket:    cfg.Storage.BucketName,
		})
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize S3 storage: %v", err)
		}
		log.Printf("[INFO] Using blob storage: S3 (%s)", cfg.Storage.BucketName)
		return store
	}

	store, err := storage.NewLocalStore(cfg.Storage.LocalDir)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize local storage: %v", err)
	}
	log.Printf("[INFO] Using blob storage: local (%s)", cfg.Storage.LocalDir)
	return store
}
