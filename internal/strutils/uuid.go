package strutils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const STRIPPED_UUID_LENGTH = 32

// NormalizeUUID accepts dashed or stripped UUIDs in any case and returns the lowercase dashed form
func NormalizeUUID(rawUUID string) (string, error) {
	stripped := strings.ReplaceAll(rawUUID, "-", "")
	if len(stripped) != STRIPPED_UUID_LENGTH {
		return "", fmt.Errorf("normalized UUID has incorrect length. input: '%s'", rawUUID)
	}

	parsed, err := uuid.Parse(stripped)
	if err != nil {
		return "", fmt.Errorf("invalid character in UUID. input: '%s'", rawUUID)
	}

	return parsed.String(), nil
}

func UUIDIsNormalized(rawUUID string) bool {
	normalized, err := NormalizeUUID(rawUUID)
	if err != nil {
		return false
	}
	return normalized == rawUUID
}
