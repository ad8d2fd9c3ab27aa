package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ReferenceGenerator generates unique, sortable reference codes for
// deposits, withdrawals, reward claims and audit records.
type ReferenceGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *ReferenceGenerator) generateULID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return id.String()
}

// Generate produces a prefixed reference code.
// Format: PREFIX-{ULID}
// Example: DEP-01ARZ3NDEKTSV4RRFFQ69G5FAV
func (g *ReferenceGenerator) Generate(prefix string) string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(prefix), g.generateULID())
}

// GenerateDepositRef generates a deposit reference code.
// Format: DEP-{ULID}
func (g *ReferenceGenerator) GenerateDepositRef() string {
	return g.Generate("DEP")
}

// GenerateWithdrawalRef generates a withdrawal reference code.
// Format: WDR-{ULID}
func (g *ReferenceGenerator) GenerateWithdrawalRef() string {
	return g.Generate("WDR")
}

// GenerateClaimRef generates a reward claim reference code.
// Format: CLM-{ULID}
func (g *ReferenceGenerator) GenerateClaimRef() string {
	return g.Generate("CLM")
}

// GenerateAuditID generates an audit record identifier.
// Format: AUD-{ULID}
func (g *ReferenceGenerator) GenerateAuditID() string {
	return g.Generate("AUD")
}

// ValidateReference checks that a reference code has a known prefix and a
// parseable ULID body.
func ValidateReference(ref string) bool {
	parts := strings.SplitN(ref, "-", 2)
	if len(parts) != 2 || len(parts[0]) < 2 {
		return false
	}
	if len(parts[1]) != 26 {
		return false
	}
	_, err := ulid.Parse(parts[1])
	return err == nil
}
