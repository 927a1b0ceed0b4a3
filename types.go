package goBearer

import "context"

// TokenStore abstracts the key-value persistence backing the token pair.
//
// Implementations must tolerate concurrent calls from multiple in-flight
// requests; reads and writes are independent per key and no cross-key
// transaction is required. Backend failures should be wrapped in
// [ErrStoreUnavailable] so the pipeline can classify them.
type TokenStore interface {
	// Get returns the value stored under key. The second return reports
	// presence; a missing key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}
