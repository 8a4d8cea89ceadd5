package sales

import (
	"fmt"
	"math/rand"
	"time"
)

const saleIDPrefix = "WSALE"

// newSaleID builds a human-readable sale identifier: prefix, millisecond
// timestamp, four-digit random suffix. Uniqueness is statistical only; the
// unique index on saleId is the real arbiter, and the engine retries with a
// fresh id when an insert collides.
func newSaleID() string {
	return formatSaleID(time.Now(), rand.Intn(10000))
}

func formatSaleID(now time.Time, suffix int) string {
	return fmt.Sprintf("%s-%d-%04d", saleIDPrefix, now.UnixMilli(), suffix)
}
