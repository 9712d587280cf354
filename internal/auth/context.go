package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const (
	RoleManager  = "manager"
	RoleCustomer = "customer"

	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

type UserContext struct {
	UserID string
	Role   string
}

func (u UserContext) IsManager() bool {
	return u.Role == RoleManager
}

type ctxKey struct{}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the caller placed there by Middleware, or the zero value.
func FromContext(ctx context.Context) UserContext {
	if u, ok := ctx.Value(ctxKey{}).(UserContext); ok {
		return u
	}
	return UserContext{}
}

// Middleware trusts the identity headers forwarded by the gateway.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(HeaderUserID)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Access token required"})
		}
		u := UserContext{UserID: userID, Role: c.Get(HeaderUserRole, RoleCustomer)}
		c.SetUserContext(WithUser(c.UserContext(), u))
		return c.Next()
	}
}

func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !FromContext(c.UserContext()).IsManager() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Manager access required"})
		}
		return c.Next()
	}
}
