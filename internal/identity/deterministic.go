package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must prefix keys by domain so different entities never collide.
// Keys are hashed verbatim: storage keys are case sensitive.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(false))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// StorageItemUUID returns the row id used to persist a storage area item.
func StorageItemUUID(area, key string) uuid.UUID {
	return UUID("go-sitecontent:storage_item:" + strings.TrimSpace(area) + ":" + key)
}
