// Package ident generates sortable identifiers for DOM nodes.
package ident

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// ULIDs are 26-character Crockford Base32 strings: 48 bits of milliseconds
// followed by 80 bits where the first 16 carry a per-millisecond sequence.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	mu      sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

// New returns a fresh ULID. IDs minted within one process are unique and
// sort in creation order.
func New() string {
	return newAt(time.Now())
}

// WithPrefix returns prefix + "-" + a fresh ULID, for use as an HTML id.
func WithPrefix(prefix string) string {
	return prefix + "-" + New()
}

func newAt(now time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	ts := uint64(now.UnixMilli())
	if ts <= lastTS {
		ts = lastTS
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	b[0] = byte(ts >> 40)
	b[1] = byte(ts >> 32)
	b[2] = byte(ts >> 24)
	b[3] = byte(ts >> 16)
	b[4] = byte(ts >> 8)
	b[5] = byte(ts)
	rand.Read(b[8:])
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encode(b)
}

// encode writes the 128 bits as 26 base32 digits, most significant first.
// The leading digit only carries the top 3 bits.
func encode(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[0:8])
	lo := binary.BigEndian.Uint64(b[8:16])

	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
