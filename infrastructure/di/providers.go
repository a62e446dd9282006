// Package di builds the object graph by hand: providers for the shared
// clients plus a Container tying services and handlers together for the
// entrypoints.
package di

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awssesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/application/services"
	"holdthatthought-backend/infrastructure/ai"
	"holdthatthought-backend/infrastructure/config"
	"holdthatthought-backend/infrastructure/email"
	"holdthatthought-backend/infrastructure/messaging/eventbridge"
	"holdthatthought-backend/infrastructure/persistence/dynamodb"
	"holdthatthought-backend/infrastructure/storage/s3"
	"holdthatthought-backend/interfaces/http/rest"
	"holdthatthought-backend/interfaces/http/rest/handlers"
	"holdthatthought-backend/pkg/auth"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// Container holds the wired application dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Store         *dynamodb.Store
	Comments      ports.CommentRepository
	Reactions     ports.ReactionRepository
	Conversations ports.ConversationRepository
	Profiles      ports.ProfileRepository
	Letters       ports.LetterRepository
	Media         ports.MediaStore
	EventBus      ports.EventBus
	Emails        ports.EmailSender
	Extractor     ports.Extractor

	CommentService   *services.CommentService
	ReactionService  *services.ReactionService
	MessageService   *services.MessageService
	ProfileService   *services.ProfileService
	LetterService    *services.LetterService
	MediaService     *services.MediaService
	IngestionService *services.IngestionService

	ActivityService     *services.ActivityService
	NotificationService *services.NotificationService

	Router *rest.Router
}

// InitializeContainer wires the full object graph from configuration
func InitializeContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger}

	dynamoClient := awsdynamodb.NewFromConfig(awsCfg)
	c.Store = dynamodb.NewStore(dynamoClient, cfg.DynamoDBTable, cfg.IndexName, logger)
	c.Comments = dynamodb.NewCommentRepository(c.Store, logger)
	c.Reactions = dynamodb.NewReactionRepository(c.Store, logger)
	c.Conversations = dynamodb.NewConversationRepository(c.Store, logger)
	c.Profiles = dynamodb.NewProfileRepository(c.Store, logger)
	c.Letters = dynamodb.NewLetterRepository(c.Store, logger)

	c.Media = s3.NewMediaStore(awss3.NewFromConfig(awsCfg), cfg.MediaBucket, logger)
	c.EventBus = eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
	c.Emails = email.NewSESSender(awssesv2.NewFromConfig(awsCfg), cfg.SESFromEmail, logger)
	c.Extractor = ai.NewExtractor(
		openai.NewClient(cfg.OpenAIAPIKey),
		cfg.OpenAIModel,
		cfg.ExtractAttempts,
		cfg.ExtractAttemptTimeout,
		logger,
	)

	lock := dynamodb.NewIngestLock(c.Store, cfg.IngestLockTTL, logger)

	// Ingestion is the expensive path; the cap holds across invocations
	// because its state lives in the table
	ingestLimiter := auth.NewDistributedRateLimiter(dynamoClient, cfg.DynamoDBTable, 20, time.Hour, "ingest")

	c.CommentService = services.NewCommentService(c.Comments, c.EventBus, logger)
	c.ReactionService = services.NewReactionService(c.Reactions, c.Comments, c.EventBus, logger)
	c.MessageService = services.NewMessageService(c.Conversations, c.EventBus, logger)
	c.ProfileService = services.NewProfileService(c.Profiles, logger)
	c.LetterService = services.NewLetterService(c.Letters, logger)
	c.MediaService = services.NewMediaService(c.Media, cfg.StagingPrefix, logger)
	c.IngestionService = services.NewIngestionService(
		c.Media,
		c.Extractor,
		c.Letters,
		c.EventBus,
		lock,
		services.IngestionLimits{
			MaxFiles:      cfg.IngestMaxFiles,
			MaxFileBytes:  cfg.IngestMaxFileBytes,
			MaxTotalBytes: cfg.IngestMaxTotalBytes,
		},
		logger,
	)

	c.ActivityService = services.NewActivityService(c.Profiles, logger)
	c.NotificationService = services.NewNotificationService(
		c.Profiles, c.Comments, c.Conversations, c.Emails, cfg.BaseURL, logger,
	)

	c.Router = rest.NewRouter(rest.Handlers{
		Comments:  handlers.NewCommentHandler(c.CommentService, logger),
		Reactions: handlers.NewReactionHandler(c.ReactionService, logger),
		Messages:  handlers.NewMessageHandler(c.MessageService, logger),
		Profiles:  handlers.NewProfileHandler(c.ProfileService, logger),
		Letters:   handlers.NewLetterHandler(c.LetterService, logger),
		Media:     handlers.NewMediaHandler(c.MediaService, logger),
		Admin:     handlers.NewAdminHandler(c.LetterService, c.IngestionService, c.MediaService, ingestLimiter, logger),
	}, cfg.AllowedOrigins, logger)

	return c, nil
}
