package elevation_test

import (
	"testing"

	"github.com/UnknownOlympus/groundhog/internal/elevation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	t.Run("records with geo points", func(t *testing.T) {
		table, err := elevation.ParseResponse([]byte(sampleResponse))

		require.NoError(t, err)
		require.Len(t, table.Rows, 2)
		assert.ElementsMatch(t,
			[]string{"bearing", "elevation", "latitude", "longitude", "slope", "stride"},
			table.Columns,
		)
		assert.NotContains(t, table.Columns, "geo_point.lat")
		assert.NotContains(t, table.Columns, "unique_key")
	})

	t.Run("flat latitude and longitude", func(t *testing.T) {
		body := `[{"latitude":45.0,"longitude":-110.0,"unique_key":"foo","elevation":"1234.5","slope":0.2}]`

		table, err := elevation.ParseResponse([]byte(body))

		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "foo", table.Rows[0].Key)
		assert.InEpsilon(t, 1234.5, *table.Rows[0].Value("elevation"), 1e-9)
		assert.InEpsilon(t, -110.0, *table.Rows[0].Value("longitude"), 1e-9)
	})

	t.Run("single record", func(t *testing.T) {
		body := `{"geo_point":{"lat":45.2,"lon":-101.3},"unique_key":"only","elevation":700}`

		table, err := elevation.ParseResponse([]byte(body))

		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.InEpsilon(t, 45.2, *table.Rows[0].Value("latitude"), 1e-9)
	})

	t.Run("column oriented object", func(t *testing.T) {
		body := `{"unique_key":["a","b"],"elevation":[1,2],"slope":[0.1,null]}`

		table, err := elevation.ParseResponse([]byte(body))

		require.NoError(t, err)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "b", table.Rows[1].Key)
		assert.InEpsilon(t, 2.0, *table.Rows[1].Value("elevation"), 1e-9)
		assert.Nil(t, table.Rows[1].Value("slope"))
	})

	t.Run("non numeric values are ignored", func(t *testing.T) {
		body := `[{"unique_key":"a","elevation":10,"source":"srtm","valid":true}]`

		table, err := elevation.ParseResponse([]byte(body))

		require.NoError(t, err)
		assert.Equal(t, []string{"elevation"}, table.Columns)
	})

	t.Run("null document", func(t *testing.T) {
		table, err := elevation.ParseResponse([]byte(`null`))

		require.NoError(t, err)
		assert.Empty(t, table.Rows)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := elevation.ParseResponse([]byte(`[{"elevation":10}]`))

		require.ErrorIs(t, err, elevation.ErrMalformedResponse)
		assert.Contains(t, err.Error(), "row 0 has no unique_key")
	})

	t.Run("array of scalars", func(t *testing.T) {
		_, err := elevation.ParseResponse([]byte(`[1, 2]`))

		require.ErrorIs(t, err, elevation.ErrMalformedResponse)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := elevation.ParseResponse([]byte(`{"unique_key":`))

		require.ErrorIs(t, err, elevation.ErrMalformedResponse)
	})
}
