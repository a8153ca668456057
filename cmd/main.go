package main

import (
	"context"

	"visa-portal-backend/config"
	"visa-portal-backend/middleware"
	"visa-portal-backend/token"
	"visa-portal-backend/utils"
	"visa-portal-backend/workflow"

	// Repositories
	applications_repositories "visa-portal-backend/applications/repositories"
	documents_repositories "visa-portal-backend/documents/repositories"
	interviews_repositories "visa-portal-backend/interviews/repositories"
	messages_repositories "visa-portal-backend/messages/repositories"
	search_repositories "visa-portal-backend/search/repositories"

	// Services
	applications_services "visa-portal-backend/applications/services"
	documents_services "visa-portal-backend/documents/services"
	interviews_services "visa-portal-backend/interviews/services"
	messages_services "visa-portal-backend/messages/services"
	search_services "visa-portal-backend/search/services"

	// Routes
	application_routes "visa-portal-backend/applications/routes"
	document_routes "visa-portal-backend/documents/routes"
	interview_routes "visa-portal-backend/interviews/routes"
	message_routes "visa-portal-backend/messages/routes"
	search_routes "visa-portal-backend/search/routes"

	"visa-portal-backend/tasks"
	"visa-portal-backend/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	config.InitLogger()

	if err := godotenv.Load(".env"); err != nil {
		config.Logger.Warn("No .env file found, relying on environment", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // document uploads
	})

	middleware.InitCors(app)

	db := config.ConfigureDatabase()
	port := config.GetEnv("PORT")
	if port == "" {
		port = "8080"
	}
	ctx := context.Background()

	redisAddr := config.GetEnv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
		config.Logger.Warn("REDIS_ADDRESS not set, using default: localhost:6379")
	}

	redisClient := config.InitRedisServer(ctx)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: config.GetEnv("REDIS_PASSWORD"),
		DB:       0,
	}

	asynqClient := asynq.NewClient(asynqRedisOpt)
	defer asynqClient.Close()

	tokenKey := config.GetEnv("TOKEN_SYMMETRIC_KEY")
	tokenMaker, err := token.NewPasetoMaker(tokenKey)
	if err != nil {
		config.Logger.Fatal("Cannot create token maker", zap.Error(err))
	}

	indexPath := config.GetEnv("BLEVE_INDEX_PATH")
	if indexPath == "" {
		indexPath = "./bleve_data"
		config.Logger.Warn("BLEVE_INDEX_PATH not set, using default: ./bleve_data")
	}

	utils.InitializeMailer()

	uploadPath := config.GetEnv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	fileStorage := utils.NewLocalFileStorage(uploadPath)

	// WebSocket hub for live case updates
	wsHub := websocket.NewHub()
	go wsHub.Run()

	app.Static("/uploads", uploadPath)

	// Repositories
	indexingService := search_services.NewIndexingService(config.Logger, indexPath)
	_, searchRepo := search_repositories.NewSearchRepository(indexingService)
	applicationRepo := applications_repositories.NewApplicationRepository(db)
	documentRepo := documents_repositories.NewDocumentRepository(db)
	interviewRepo := interviews_repositories.NewInterviewRepository(db)
	messageRepo := messages_repositories.NewMessageRepository(db)

	// One dispatch guard across all case workflows; keys are
	// (operation, entity id) pairs.
	guard := workflow.NewInFlightGuard()

	// Services
	statusService := applications_services.NewStatusService(applicationRepo, guard)
	caseService := applications_services.NewCaseService(applicationRepo, wsHub)
	verificationService := documents_services.NewVerificationService(documentRepo, guard)
	requestService := documents_services.NewRequestService(documentRepo, fileStorage, guard)
	schedulerService := interviews_services.NewSchedulerService(interviewRepo, guard)
	threadService := messages_services.NewThreadService(messageRepo, wsHub, guard)

	appCtx := &middleware.AppContext{
		PasetoMaker: tokenMaker,
		Ctx:         ctx,
		RedisClient: redisClient,
	}

	// Routes
	application_routes.ApplicationRouterInit(app, appCtx, db, applicationRepo, statusService, caseService, searchRepo, wsHub)
	document_routes.DocumentRouterInit(app, appCtx, documentRepo, verificationService, requestService, caseService, wsHub)
	interview_routes.InterviewRouterInit(app, appCtx, interviewRepo, schedulerService, caseService, asynqClient)
	message_routes.MessageRouterInit(app, appCtx, messageRepo, threadService)
	search_routes.SearchRouterInit(app, appCtx, searchRepo)

	wsHandler := websocket.NewWsHandler(wsHub, tokenMaker)
	app.Get("/ws", wsHandler.HandleWebSocket)

	if config.GetEnv("REINDEX_ON_START") == "true" {
		go reindexApplications(applicationRepo, searchRepo)
	}

	// Background work: asynq worker plus the cron enqueuers
	taskHandler := tasks.NewTaskHandler(fileStorage, documentRepo, interviewRepo, applicationRepo)
	go tasks.StartWorker(asynqRedisOpt, taskHandler)
	tasks.StartScheduler(asynqClient, interviewRepo)

	if err := config.SeedInitialAdmin(db); err != nil {
		config.Logger.Fatal("Failed to seed initial admin", zap.Error(err))
	}

	config.Logger.Info("Starting server", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		config.Logger.Fatal("Server stopped", zap.Error(err))
	}
}

// reindexApplications rebuilds the search index from the database,
// paging so a large backlog does not load everything at once.
func reindexApplications(repo applications_repositories.ApplicationRepository, searchRepo search_repositories.SearchRepositoryInterface) {
	const pageSize = 200
	offset := 0
	total := 0
	for {
		batch, _, err := repo.GetFilteredApplications(pageSize, offset, nil)
		if err != nil {
			config.Logger.Error("Reindex aborted", zap.Error(err))
			return
		}
		if len(batch) == 0 {
			break
		}
		docs := make([]search_repositories.ApplicationSearchDoc, 0, len(batch))
		for i := range batch {
			docs = append(docs, search_repositories.NewApplicationSearchDoc(&batch[i]))
		}
		if err := searchRepo.IndexExistingApplications(docs); err != nil {
			config.Logger.Error("Reindex batch failed", zap.Error(err))
			return
		}
		total += len(batch)
		offset += pageSize
	}
	config.Logger.Info("Application index rebuilt", zap.Int("count", total))
}
