package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/meishibox/meishibox/internal/pkg/apperror"
	"github.com/meishibox/meishibox/internal/pkg/billing"
	"github.com/meishibox/meishibox/internal/pkg/firebaseauth"
	"github.com/meishibox/meishibox/internal/pkg/jobqueue"
	"github.com/meishibox/meishibox/internal/pkg/storage"
	"github.com/meishibox/meishibox/internal/pkg/usercontext"
	"github.com/meishibox/meishibox/internal/pkg/viewmodel"
)

// Dependencies bundles the collaborators the handlers need.
type Dependencies struct {
	Verifier *firebaseauth.Verifier
	Store    storage.BlobStore
	Queue    *jobqueue.Queue
	Billing  *billing.Service
	Cards    *viewmodel.CardSerializer
}

var deps Dependencies

// Initialize wires the controller dependencies once at startup
func Initialize(d Dependencies) {
	deps = d
}

// requireUser returns the authenticated user context or an auth error.
func requireUser(c *fiber.Ctx) (usercontext.UserContext, error) {
	uc, ok := usercontext.Get(c)
	if !ok {
		return usercontext.UserContext{}, apperror.Unauthenticated(nil)
	}
	return uc, nil
}

// notFoundIfMissing converts a gorm record miss into a 404 for owned lookups.
func notFoundIfMissing(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource)
	}
	return err
}

// parseDateParam parses a YYYY-MM-DD query or body value.
func parseDateParam(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apperror.BadParameter(name)
	}
	return &t, nil
}
