package enrichment

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// ErrDuplicateKey is returned when the key generator produces the same key twice.
var ErrDuplicateKey = errors.New("join key generator produced a duplicate key")

// KeyGenerator produces one random join key.
type KeyGenerator func() (uuid.UUID, error)

// AssignKeys generates n distinct join keys sorted ascending.
// Key i belongs to row i, so ordering rows by key restores the caller's order.
func AssignKeys(n int, generate KeyGenerator) ([]string, error) {
	if generate == nil {
		generate = uuid.NewRandom
	}

	keys := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for range n {
		id, err := generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate join key: %w", err)
		}
		key := id.String()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys, nil
}
