package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/apperror"
	"github.com/meishibox/meishibox/internal/pkg/firebaseauth"
	"github.com/meishibox/meishibox/internal/pkg/middleware"
	"github.com/meishibox/meishibox/internal/pkg/viewmodel"
)

// HandleSignIn verifies the Firebase ID token and upserts the local user.
// Repeated sign-ins converge the stored name, email and provider list.
func HandleSignIn(c *fiber.Ctx) error {
	token := c.Get(middleware.TokenHeader)
	if token == "" {
		return apperror.Unauthenticated(nil)
	}

	identity, err := deps.Verifier.Verify(c.Context(), token)
	if err != nil {
		return apperror.Unauthenticated(err)
	}

	user, err := firebaseauth.SyncUser(repository.GetGlobalRepositories().User, identity)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(viewmodel.User(user))
}
