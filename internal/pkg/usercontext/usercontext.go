package usercontext

import "github.com/gofiber/fiber/v2"

// Locals key under which the authenticated user context is stored.
const ContextKey = "USER_CONTEXT"

// UserContext represents the authenticated user for a request
type UserContext struct {
	UserID uint   `json:"user_id"`
	UID    string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Set stores the user context in the fiber context
func Set(c *fiber.Ctx, uc UserContext) {
	c.Locals(ContextKey, uc)
}

// Get retrieves the user context from the fiber context. The second return
// value is false for unauthenticated requests.
func Get(c *fiber.Ctx) (UserContext, bool) {
	if ctx := c.Locals(ContextKey); ctx != nil {
		if uc, ok := ctx.(UserContext); ok && uc.UserID != 0 {
			return uc, true
		}
	}
	return UserContext{}, false
}

// GetUserID returns the current user's ID, or 0 if not authenticated
func GetUserID(c *fiber.Ctx) uint {
	uc, _ := Get(c)
	return uc.UserID
}
