package token

import (
	"time"

	"visa-portal-backend/db/models"

	"github.com/google/uuid"
)

// Maker is the contract for anything that can create and verify session
// tokens. Keeping it behind an interface lets the token scheme change
// without touching the middleware or controllers.
type Maker interface {
	CreateToken(userID uuid.UUID, email string, role models.Role, duration time.Duration) (string, error)

	VerifyToken(token string) (*Payload, error)
}
