package identity

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordIDPrefix marks ids generated by the local content store.
const RecordIDPrefix = "local_"

const randomSuffixLength = 9

// NewRecordID returns an id shaped as local_<unix millis>_<random alnum>.
func NewRecordID(now time.Time) string {
	return RecordIDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + randomSuffix()
}

// NewOrigin returns an identifier for a store instance. Storage events carry
// it so a store can tell its own writes apart from writes made elsewhere.
func NewOrigin() string {
	return "origin_" + randomSuffix()
}

// IsRecordID reports whether value has the shape produced by NewRecordID.
func IsRecordID(value string) bool {
	rest, ok := strings.CutPrefix(value, RecordIDPrefix)
	if !ok {
		return false
	}
	millis, suffix, ok := strings.Cut(rest, "_")
	if !ok || millis == "" || suffix == "" {
		return false
	}
	for _, r := range millis {
		if r < '0' || r > '9' {
			return false
		}
	}
	for _, r := range suffix {
		if !isAlnum(r) {
			return false
		}
	}
	return true
}

func randomSuffix() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:randomSuffixLength]
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
