package identity

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewSortableID returns a ULID. IDs minted within the same millisecond stay increasing,
// which is what orders lock-log rows written back to back.
func NewSortableID(at time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(at.UTC()), mono)
	if err != nil {
		// Monotonic entropy only fails when a millisecond is exhausted or the clock goes backwards.
		return ulid.MustNew(ulid.Timestamp(at.UTC()), cryptoRand.Reader).String()
	}
	return id.String()
}
