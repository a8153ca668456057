package middleware

import (
	"context"
	"visa-portal-backend/token"

	"github.com/redis/go-redis/v9"
)

// AppContext bundles the dependencies the auth middleware needs
type AppContext struct {
	PasetoMaker token.Maker
	Ctx         context.Context
	RedisClient *redis.Client
}
