package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
	config "github.com/ulot2/postflow/configs"
	"github.com/ulot2/postflow/internal/api/handlers"
	"github.com/ulot2/postflow/internal/api/middleware"
	job "github.com/ulot2/postflow/internal/jobs"
	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/publisher"
	"github.com/ulot2/postflow/internal/queue"
	"github.com/ulot2/postflow/internal/repository"
	"github.com/ulot2/postflow/internal/scheduler"
	"github.com/ulot2/postflow/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)

	r2Service := service.NewR2Service(*cfg)
	postService := service.NewPostService(db, postRepo, workspaceRepo, mediaAssetRepo, postMediaRepo, *r2Service)
	accountService := service.NewAccountService(*cfg, socialAccountRepo, workspaceRepo)
	workspaceService := service.NewWorkspaceService(workspaceRepo)

	// publishing pipeline
	registry := publisher.NewRegistry()
	registry.Register(models.PlatformLinkedIn, publisher.NewLinkedInPublisher(*cfg, socialAccountRepo))

	reconciler := publisher.NewStatusReconciler(postRepo)
	queueW := queue.NewQueue(registry, reconciler)
	enqueuer := queue.NewEnqueuer(client)
	postScheduler := scheduler.NewScheduler(postRepo, postMediaRepo, mediaAssetRepo, r2Service, registry, enqueuer)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	account := handlers.NewAccountHandler(accountService, *cfg)
	app.Get("/auth/:platform", account.AddSocialAccount)
	app.Get("/auth/:platform/callback", account.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/reschedule", post.ReschedulePost)
	api.Post("/posts/remove", post.RemovePost)

	// social accounts api routes
	api.Get("/accounts", account.ListSocialAccounts)
	api.Post("/accounts/remove", account.DeleteSocialAccount)

	workspace := handlers.NewWorkspaceHandler(workspaceService)
	api.Get("/workspaces", workspace.ListWorkspaces)
	api.Post("/workspaces/create", workspace.CreateWorkspace)
	api.Post("/workspaces/remove", workspace.RemoveWorkspace)

	// cron jobs
	expiryJob := job.NewAccountExpiryJob(socialAccountRepo)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", postScheduler.Run)
	c.AddFunc("@every 00h10m00s", expiryJob.ExpireAccounts)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
