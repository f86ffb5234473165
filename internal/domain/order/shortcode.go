package order

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ShortCode derives the customer-facing numeric reference from the order id.
// It uses the first 12 hex digits of the UUID so the code is stable for the
// life of the order and reproducible from the id alone; always 10 digits.
func ShortCode(id uuid.UUID) string {
	h := hex.EncodeToString(id[:6])
	n, _ := strconv.ParseUint(h, 16, 64)
	return fmt.Sprintf("%010d", n%10_000_000_000)
}

// ShortCode returns the order's customer-facing reference.
func (o *Order) ShortCode() string {
	return ShortCode(o.ID)
}
