package batch

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a random UUID, or a timestamp-plus-random composite when the
// system entropy source is unavailable. It never fails.
func NewID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fallbackID(time.Now())
	}
	return id.String()
}

func fallbackID(now time.Time) string {
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return fmt.Sprintf("batch-%d-%s", now.UnixMilli(), b.String())
}

// ShortID is the tail printed on labels for quick visual matching.
func ShortID(id string) string {
	clean := strings.ReplaceAll(id, "-", "")
	if len(clean) <= 4 {
		return strings.ToUpper(clean)
	}
	return strings.ToUpper(clean[len(clean)-4:])
}
