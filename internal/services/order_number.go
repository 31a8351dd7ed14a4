package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// OrderNumberPrefix starts every order number
const OrderNumberPrefix = "ORD"

// OrderNumberGenerator issues order numbers of the form
// ORD<13-digit unix millis><2-digit sequence><2 random digits>.
// The millis+sequence part strictly increases within a process; the random
// tail separates processes numbering in the same millisecond. The unique
// index on orders catches what is left.
type OrderNumberGenerator struct {
	mu     sync.Mutex
	last   int64
	now    func() time.Time
	random func() int
}

// NewOrderNumberGenerator creates a generator driven by the wall clock
func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{
		now:    time.Now,
		random: func() int { return rand.Intn(100) },
	}
}

// Next returns the next order number
func (g *OrderNumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := g.now().UnixMilli() * 100
	if v <= g.last {
		v = g.last + 1
	}
	g.last = v

	return fmt.Sprintf("%s%015d%02d", OrderNumberPrefix, v, g.random())
}
