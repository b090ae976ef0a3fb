package blobs

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// revisionSource hands out monotonically increasing ULIDs. ulid's monotonic
// entropy is not safe for concurrent use, hence the mutex.
type revisionSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newRevisionSource() *revisionSource {
	return &revisionSource{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (r *revisionSource) next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
}
