package controllers

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/usercontext"
)

var (
	tagDBOnce sync.Once
	tagDB     *gorm.DB
)

// tagTestDB opens a shared in-memory database and wires it into the global
// repository factory once per test binary.
func tagTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	tagDBOnce.Do(func() {
		db, err := gorm.Open(sqlite.Open("file:tagcontroller?mode=memory&cache=shared"), &gorm.Config{})
		if err != nil {
			panic(err)
		}
		if err := db.AutoMigrate(
			&models.User{},
			&models.BusinessCard{},
			&models.Tag{},
			&models.BusinessCardTag{},
		); err != nil {
			panic(err)
		}
		repository.InitializeFactory(db)
		tagDB = db
	})
	return tagDB
}

func tagTestApp(user *models.User) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.Set(c, usercontext.UserContext{UserID: user.ID, UID: user.UID, Email: user.Email})
		return c.Next()
	})
	app.Put("/tags/:id", HandleTagUpdate)
	app.Delete("/tags/:id", HandleTagDelete)
	return app
}

func TestHandleTagUpdateOverwritesAllFields(t *testing.T) {
	db := tagTestDB(t)
	user := &models.User{UID: "uid-tag-update", Email: "tag-update@example.com"}
	require.NoError(t, db.Create(user).Error)
	tag := &models.Tag{UserID: user.ID, Name: "old_name", Color: "#111111", Description: "old description"}
	require.NoError(t, db.Create(tag).Error)

	app := tagTestApp(user)

	req := httptest.NewRequest(fiber.MethodPut, fmt.Sprintf("/tags/%d", tag.ID),
		strings.NewReader(`{"name":"clients","color":"#ff0000","description":"key accounts"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.Tag
	require.NoError(t, db.First(&stored, tag.ID).Error)
	assert.Equal(t, "clients", stored.Name)
	assert.Equal(t, "#ff0000", stored.Color)
	assert.Equal(t, "key accounts", stored.Description)

	// Updates are full overwrites, omitting the description clears it.
	req = httptest.NewRequest(fiber.MethodPut, fmt.Sprintf("/tags/%d", tag.ID),
		strings.NewReader(`{"name":"clients","color":"#ff0000"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&stored, tag.ID).Error)
	assert.Empty(t, stored.Description)
}

func TestHandleTagDeleteRespondsEmptyObject(t *testing.T) {
	db := tagTestDB(t)
	user := &models.User{UID: "uid-tag-delete", Email: "tag-delete@example.com"}
	require.NoError(t, db.Create(user).Error)
	tag := &models.Tag{UserID: user.ID, Name: "obsolete", Color: "#222222"}
	require.NoError(t, db.Create(tag).Error)

	app := tagTestApp(user)

	req := httptest.NewRequest(fiber.MethodDelete, fmt.Sprintf("/tags/%d", tag.ID), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(body))

	var stored models.Tag
	err = db.First(&stored, tag.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
