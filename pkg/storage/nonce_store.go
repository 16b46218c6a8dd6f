package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cockroachdb/pebble"
)

// ErrNonceExhausted is returned once an account has used every 32-bit order
// nonce.
var ErrNonceExhausted = errors.New("order nonce space exhausted")

// NonceStore persists the last order nonce issued per account so that a
// restarted process never reuses one.
type NonceStore struct {
	mu sync.Mutex
	db *pebble.DB
}

func NewNonceStore(path string) (*NonceStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open nonce store: %w", err)
	}
	return &NonceStore{db: db}, nil
}

func (s *NonceStore) Close() error { return s.db.Close() }

// keys: n:<8-byte-account-id>
func kNonce(accountID uint64) []byte {
	var k [10]byte
	copy(k[:], "n:")
	binary.BigEndian.PutUint64(k[2:], accountID)
	return k[:]
}

// Next issues the next nonce for accountID, starting at 1.
func (s *NonceStore) Next(accountID uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, _, err := s.current(accountID)
	if err != nil {
		return 0, err
	}
	if last >= math.MaxUint32 {
		return 0, fmt.Errorf("%w: account %d", ErrNonceExhausted, accountID)
	}
	next := last + 1
	if err := s.put(accountID, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Current returns the last issued nonce, if any.
func (s *NonceStore) Current(accountID uint64) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(accountID)
}

// Advance raises the stored nonce to at least floor, e.g. after learning
// that nonces were spent by another client. It never lowers it.
func (s *NonceStore) Advance(accountID, floor uint64) error {
	if floor > math.MaxUint32 {
		return fmt.Errorf("%w: floor %d", ErrNonceExhausted, floor)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	last, _, err := s.current(accountID)
	if err != nil {
		return err
	}
	if floor <= last {
		return nil
	}
	return s.put(accountID, floor)
}

func (s *NonceStore) current(accountID uint64) (uint64, bool, error) {
	val, closer, err := s.db.Get(kNonce(accountID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read nonce: %w", err)
	}
	defer closer.Close()
	if len(val) != 8 {
		return 0, false, fmt.Errorf("corrupt nonce record for account %d", accountID)
	}
	return binary.BigEndian.Uint64(val), true, nil
}

func (s *NonceStore) put(accountID, nonce uint64) error {
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], nonce)
	if err := s.db.Set(kNonce(accountID), v[:], pebble.Sync); err != nil {
		return fmt.Errorf("save nonce: %w", err)
	}
	return nil
}
