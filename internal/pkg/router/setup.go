package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meishibox/meishibox/internal/pkg/firebaseauth"
)

// Router installs a set of routes on the fiber app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers all route groups on the app.
func InstallRouter(app *fiber.App, verifier *firebaseauth.Verifier) {
	setup(app, NewApiRouter(verifier))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
