package utils

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/SscSPs/ledger_sync/internal/core/ports"
	"github.com/google/uuid"
)

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a UUID based id generator.
func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

var _ ports.IDGenerator = UUIDGenerator{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequentialGenerator issues prefix-1, prefix-2, ... and is safe for
// concurrent use. Tests use it for predictable ids.
type SequentialGenerator struct {
	prefix string
	next   atomic.Int64
}

// NewSequentialGenerator creates a generator whose ids start with prefix.
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	return &SequentialGenerator{prefix: prefix}
}

var _ ports.IDGenerator = (*SequentialGenerator)(nil)

func (g *SequentialGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.next.Add(1))
}

// SKUFromID derives a product SKU from an id: "SKU-" plus its first eight
// alphanumeric characters, upper-cased.
func SKUFromID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if b.Len() == 8 {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return "SKU-" + strings.ToUpper(b.String())
}
