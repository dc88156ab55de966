package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meishibox/meishibox/internal/pkg/apperror"
)

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/unauthenticated", func(c *fiber.Ctx) error {
		return apperror.Unauthenticated(errors.New("bad token"))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperror.NotFound("business_card")
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return apperror.Validation(errors.New("name too long"))
	})
	app.Get("/badparam", func(c *fiber.Ctx) error {
		return apperror.BadParameter("page")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("database exploded")
	})
	return app
}

func TestErrorHandlerStatusMapping(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		path   string
		status int
	}{
		{"/unauthenticated", fiber.StatusUnauthorized},
		{"/missing", fiber.StatusNotFound},
		{"/invalid", fiber.StatusUnprocessableEntity},
		{"/badparam", fiber.StatusBadRequest},
		{"/boom", fiber.StatusInternalServerError},
	}

	for _, tc := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)
	}
}

func TestErrorHandlerUnauthenticatedBodyIsEmptyObject(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/unauthenticated", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(body))
}

func TestErrorHandlerEmptyErrorsArray(t *testing.T) {
	app := newTestApp()

	for _, path := range []string{"/missing", "/invalid", "/badparam", "/boom"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)

		var payload struct {
			Errors []string `json:"errors"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.NotNil(t, payload.Errors, path)
		assert.Empty(t, payload.Errors, path)
	}
}

func TestErrorHandlerHidesInternalDetail(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "database exploded")
}

func TestErrorHandlerFiberErrorPassthrough(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
}
