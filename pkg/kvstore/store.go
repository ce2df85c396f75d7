package kvstore

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go KVStore

import "context"

// KVStore is the persistence collaborator the tool registry and auth
// manager depend on. *Store implements it; mocks/mock_store.go holds a
// generated mock of it, which the current tests do not use.
type KVStore interface {
	Write(ctx context.Context, key string, value []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
}
