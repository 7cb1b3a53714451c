package domain

import "github.com/google/uuid"

// BuildIdempotencyKey constructs the cache key for a client-supplied
// transfer reference. Format: "sender_user_id:reference".
func BuildIdempotencyKey(senderID uuid.UUID, reference string) string {
	return senderID.String() + ":" + reference
}
