// Package ident generates identifiers of catalog records.
//
// Records with a natural code get UUIDv5 made from the table name and the
// code, so the same code always gets the same ID. Other records get ULIDs
// that sort in order of creation.
package ident

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gnames/gnuuid"
	"github.com/oklog/ulid/v2"
)

// CodeID returns UUIDv5 for a code of a table.
func CodeID(table, code string) string {
	return gnuuid.New(table + "|" + code).String()
}

// Generator creates monotonic ULIDs. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	clock   func() time.Time
	entropy *ulid.MonotonicEntropy
}

// NewGenerator creates a Generator that takes timestamps from clock.
func NewGenerator(clock func() time.Time) *Generator {
	if clock == nil {
		clock = time.Now
	}
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Generator{clock: clock, entropy: ulid.Monotonic(src, 0)}
}

// New returns the next ULID.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.clock()), g.entropy).String()
}
