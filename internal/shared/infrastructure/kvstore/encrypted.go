package kvstore

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/crypto"
)

// EncryptedStore seals values before they reach next. Keys stay in the clear.
type EncryptedStore struct {
	next Store
	enc  crypto.Encrypter
}

// NewEncryptedStore wraps next.
func NewEncryptedStore(next Store, enc crypto.Encrypter) *EncryptedStore {
	return &EncryptedStore{next: next, enc: enc}
}

func (s *EncryptedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	value, err := s.enc.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("kvstore: decrypt %s: %w", key, err)
	}
	return value, nil
}

func (s *EncryptedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.enc.Encrypt(value)
	if err != nil {
		return fmt.Errorf("kvstore: encrypt %s: %w", key, err)
	}
	return s.next.Set(ctx, key, sealed)
}

func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, key)
}

// Ping forwards to the wrapped store when it supports pinging.
func (s *EncryptedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
