package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/meishibox/meishibox/app/controllers"
	"github.com/meishibox/meishibox/internal/pkg/cache"
	"github.com/meishibox/meishibox/internal/pkg/env"
	"github.com/meishibox/meishibox/internal/pkg/firebaseauth"
	"github.com/meishibox/meishibox/internal/pkg/middleware"
)

type ApiRouter struct {
	verifier *firebaseauth.Verifier
}

func NewApiRouter(verifier *firebaseauth.Verifier) *ApiRouter {
	return &ApiRouter{verifier: verifier}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    newLimiterStorage(),
	}))

	v1 := api.Group("/v1")

	// Public endpoints: sign-in carries its own token, webhooks are
	// authenticated by signature.
	v1.Post("/signin", controllers.HandleSignIn)
	v1.Post("/webhooks/stripe", controllers.HandleStripeWebhook)

	auth := middleware.FirebaseAuth(h.verifier)

	cards := v1.Group("/business_cards", auth)
	cards.Get("/", controllers.HandleBusinessCardList)
	cards.Post("/", controllers.HandleBusinessCardCreate)
	// The export route must precede the :code wildcard.
	cards.Get("/export", controllers.HandleBusinessCardExport)
	cards.Get("/:code", controllers.HandleBusinessCardShow)
	cards.Put("/:code", controllers.HandleBusinessCardUpdate)
	cards.Delete("/:code", controllers.HandleBusinessCardDelete)

	tags := v1.Group("/tags", auth)
	tags.Get("/", controllers.HandleTagList)
	tags.Get("/:id", controllers.HandleTagShow)
	tags.Put("/:id", controllers.HandleTagUpdate)
	tags.Delete("/:id", controllers.HandleTagDelete)

	subs := v1.Group("/subscriptions", auth)
	subs.Post("/", controllers.HandleSubscriptionCreate)
	subs.Get("/current", controllers.HandleSubscriptionCurrent)
	subs.Post("/cancel", controllers.HandleSubscriptionCancel)
	subs.Post("/reactivate", controllers.HandleSubscriptionReactivate)
	subs.Post("/change_plan", controllers.HandleSubscriptionChangePlan)
	subs.Post("/cancel_downgrade", controllers.HandleSubscriptionCancelDowngrade)
}

// newLimiterStorage backs the rate limiter with redis so limits hold across
// instances. Connection details come from the shared cache client, database 1
// keeps limiter keys away from the cache.
func newLimiterStorage() fiber.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
	})
}
