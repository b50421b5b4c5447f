package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/commercekit/commerce-core/internal/domain"
)

// maxIDAttempts bounds the uniqueness retry loop for generated identifiers.
// Exhausting it indicates a collision-rate anomaly or an exhausted namespace
// and is a hard failure.
const maxIDAttempts = 10

// Clock abstracts time.Now so identifier generation is deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// idGenerator produces timestamp+random identifier candidates from injected
// sources.
type idGenerator struct {
	clock Clock
	rand  *rand.Rand
}

func newIDGenerator(clock Clock, rnd *rand.Rand) *idGenerator {
	if clock == nil {
		clock = SystemClock{}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &idGenerator{clock: clock, rand: rnd}
}

func (g *idGenerator) orderNumberCandidate() string {
	return fmt.Sprintf("ORD-%s-%04d", g.clock.Now().Format("20060102150405"), g.rand.Intn(10000))
}

func (g *idGenerator) skuCandidate(category domain.Category, brand string) string {
	return fmt.Sprintf("%s-%s-%s-%04d",
		shortCode(string(category)),
		shortCode(brand),
		g.clock.Now().Format("060102150405"),
		g.rand.Intn(10000))
}

// shortCode derives a 3-letter code: the first letter followed by the next
// consonants, padded with X. "Electronics" -> "ELC", "Acme" -> "ACM".
func shortCode(s string) string {
	upper := strings.ToUpper(s)
	var code []byte
	for i := 0; i < len(upper) && len(code) < 3; i++ {
		c := upper[i]
		if c < 'A' || c > 'Z' {
			continue
		}
		if len(code) == 0 {
			code = append(code, c)
			continue
		}
		switch c {
		case 'A', 'E', 'I', 'O', 'U':
		default:
			code = append(code, c)
		}
	}
	for len(code) < 3 {
		code = append(code, 'X')
	}
	return string(code)
}

// generateUnique retries candidate generation against the taken check up to
// maxIDAttempts times.
func generateUnique(ctx context.Context, candidate func() string, taken func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		value := candidate()
		inUse, err := taken(ctx, value)
		if err != nil {
			return "", fmt.Errorf("uniqueness check: %w", err)
		}
		if !inUse {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", domain.ErrGenerationExhausted, maxIDAttempts)
}
