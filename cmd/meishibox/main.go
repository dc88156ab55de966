package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/meishibox/meishibox/app/controllers"
	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/analyzer"
	"github.com/meishibox/meishibox/internal/pkg/billing"
	"github.com/meishibox/meishibox/internal/pkg/cache"
	"github.com/meishibox/meishibox/internal/pkg/database"
	"github.com/meishibox/meishibox/internal/pkg/env"
	"github.com/meishibox/meishibox/internal/pkg/firebaseauth"
	"github.com/meishibox/meishibox/internal/pkg/jobqueue"
	"github.com/meishibox/meishibox/internal/pkg/openai"
	"github.com/meishibox/meishibox/internal/pkg/router"
	"github.com/meishibox/meishibox/internal/pkg/storage"
	"github.com/meishibox/meishibox/internal/pkg/viewmodel"
	"github.com/meishibox/meishibox/internal/pkg/vision"
)

func main() {
	app, queue := NewApplication()

	// graceful shutdown: drain the job queue before the process exits
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down...")
		queue.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *jobqueue.Queue) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	repos := repository.GetGlobalRepositories()

	store, err := storage.NewClient(storage.LoadConfig())
	if err != nil {
		panic(fmt.Errorf("storage setup: %w", err))
	}

	ocr, err := vision.NewClient(context.Background(), env.GetEnv("GOOGLE_VISION_API_KEY", ""))
	if err != nil {
		panic(fmt.Errorf("vision setup: %w", err))
	}
	llm := openai.NewClient(env.GetEnv("OPENAI_API_KEY", ""))

	cardAnalyzer := analyzer.New(repos.BusinessCard, store, ocr, analyzer.NewOpenAIFieldExtractor(llm))

	workers, err := strconv.Atoi(env.GetEnv("QUEUE_WORKERS", "2"))
	if err != nil || workers < 1 {
		workers = 2
	}
	queue := jobqueue.NewQueue(workers, cardAnalyzer, store)
	queue.Start()

	verifier := firebaseauth.NewVerifier(firebaseauth.NewHTTPKeyFetcher())
	billingService := billing.NewService(repos.Billing, billing.NewStripeAPI(env.GetEnv("STRIPE_SECRET_KEY", "")))

	controllers.Initialize(controllers.Dependencies{
		Verifier: verifier,
		Store:    store,
		Queue:    queue,
		Billing:  billingService,
		Cards:    viewmodel.NewCardSerializer(store),
	})

	app := fiber.New(fiber.Config{
		BodyLimit:    20 * 1024 * 1024, // card images
		ErrorHandler: router.ErrorHandler,
	})

	app.Use(recover.New(), logger.New())

	router.InstallRouter(app, verifier)

	return app, queue
}
