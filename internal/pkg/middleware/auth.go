package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/apperror"
	"github.com/meishibox/meishibox/internal/pkg/firebaseauth"
	"github.com/meishibox/meishibox/internal/pkg/usercontext"
)

// TokenHeader carries the Firebase ID token on every authenticated request.
const TokenHeader = "x-firebase-token"

// FirebaseAuth verifies the request's Firebase ID token, resolves the local
// user and stores the user context. Requests without a valid token get 401.
func FirebaseAuth(verifier *firebaseauth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(TokenHeader)
		if token == "" {
			return apperror.Unauthenticated(nil)
		}

		identity, err := verifier.Verify(c.Context(), token)
		if err != nil {
			return apperror.Unauthenticated(err)
		}

		user, err := firebaseauth.SyncUser(repository.GetGlobalRepositories().User, identity)
		if err != nil {
			return err
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID: user.ID,
			UID:    user.UID,
			Email:  user.Email,
			Name:   user.Name,
		})
		return c.Next()
	}
}
