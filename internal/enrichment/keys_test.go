package enrichment_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/UnknownOlympus/groundhog/internal/enrichment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignKeys(t *testing.T) {
	t.Run("distinct sorted keys", func(t *testing.T) {
		keys, err := enrichment.AssignKeys(200, nil)
		require.NoError(t, err)
		require.Len(t, keys, 200)

		assert.True(t, slices.IsSorted(keys))
		assert.Len(t, slices.Compact(slices.Clone(keys)), 200)
		for _, key := range keys {
			_, errParse := uuid.Parse(key)
			assert.NoError(t, errParse)
		}
	})

	t.Run("no rows", func(t *testing.T) {
		keys, err := enrichment.AssignKeys(0, nil)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("duplicate key fails", func(t *testing.T) {
		fixed := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
		generator := func() (uuid.UUID, error) { return fixed, nil }

		keys, err := enrichment.AssignKeys(3, generator)
		require.ErrorIs(t, err, enrichment.ErrDuplicateKey)
		assert.Nil(t, keys)
	})

	t.Run("generator error", func(t *testing.T) {
		errEntropy := errors.New("entropy exhausted")
		generator := func() (uuid.UUID, error) { return uuid.Nil, errEntropy }

		_, err := enrichment.AssignKeys(1, generator)
		require.ErrorIs(t, err, errEntropy)
	})
}
