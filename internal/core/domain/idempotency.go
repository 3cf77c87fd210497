package domain

import (
	"github.com/google/uuid"
)

// BuildIdempotencyKey scopes a client supplied Idempotency-Key to one actor,
// wallet and operation, so a deposit key never replays as a withdrawal.
func BuildIdempotencyKey(actorID string, walletID uuid.UUID, operation, key string) string {
	return actorID + ":" + walletID.String() + ":" + operation + ":" + key
}
