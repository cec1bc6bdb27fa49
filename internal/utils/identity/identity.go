// Package identity derives stable, content-based identifiers for ledger records and
// time-sortable identifiers for append-only log rows.
package identity

import (
	"encoding/binary"
	"hash"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Kind scopes a derived identifier so equal seeds of different record types never collide.
type Kind string

const (
	KindTransaction Kind = "txn"
	KindLine        Kind = "line"
	KindPeriod      Kind = "period"
	KindIdempotency Kind = "idem"
)

// uuidVersion8 marks the identifier as a custom-hash UUID (RFC 9562).
const uuidVersion8 = 8

var rootNamespace = uuid.MustParse("5b0c1f0e-7d1a-4e55-9a3c-2f6f0d8e4b17")

// DeriveID hashes kind and the ordered components into a UUID string. Components are
// length-prefixed, so ("ab","c") and ("a","bc") produce different ids.
func DeriveID(kind Kind, components ...string) string {
	return uuid.NewHash(newHash(), namespaceFor(kind), encode(components), uuidVersion8).String()
}

// ShortID returns the first eight hex characters of a derived id.
func ShortID(id string) string {
	compact := make([]byte, 0, 8)
	for i := 0; i < len(id) && len(compact) < 8; i++ {
		if id[i] != '-' {
			compact = append(compact, id[i])
		}
	}
	return string(compact)
}

func namespaceFor(kind Kind) uuid.UUID {
	return uuid.NewHash(newHash(), rootNamespace, []byte(kind), uuidVersion8)
}

func newHash() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only a key longer than 64 bytes can fail; no key is used.
		panic(err)
	}
	return h
}

func encode(components []string) []byte {
	var buf []byte
	var lenBuf [binary.MaxVarintLen64]byte
	for _, c := range components {
		n := binary.PutUvarint(lenBuf[:], uint64(len(c)))
		buf = append(buf, lenBuf[:n]...)
		buf = append(buf, c...)
	}
	return buf
}
