package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CodeGenerator produces a candidate ticket code. Uniqueness is checked by the caller.
type CodeGenerator func(now time.Time) string

// NewTicketCode returns TKT-YYYYMMDD-XXXXXXXX with a random hex suffix
func NewTicketCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "TKT-" + now.UTC().Format("20060102") + "-" + suffix
}
