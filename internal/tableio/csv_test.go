package tableio_test

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/groundhog/internal/models"
	"github.com/UnknownOlympus/groundhog/internal/tableio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTrace = `assetId,dateTime,latitude,longitude,driver,bearing
truck-1,2024-05-01T08:00:00Z,41.5,-89.1,alice,90
truck-1,2024-05-01 08:01:00,41.51,-89.11,alice,
truck-2,2024-05-01T08:00:00Z,,-88,bob,45.5
`

func TestRead(t *testing.T) {
	defer filet.CleanUp(t)

	file := filet.TmpFile(t, "", sampleTrace)
	input, err := os.Open(file.Name())
	require.NoError(t, err)
	defer input.Close()

	table, err := tableio.Read(input)
	require.NoError(t, err)

	require.NoError(t, table.Validate())
	assert.True(t, table.Has(models.ColumnBearing))
	assert.Equal(t, []string{"driver"}, table.Extra)
	require.Equal(t, 3, table.Len())

	first := table.Points[0]
	assert.Equal(t, "truck-1", first.AssetID)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), first.DateTime)
	assert.InDelta(t, 41.5, *first.Latitude, 1e-9)
	assert.InDelta(t, 90.0, *first.Bearing, 1e-9)
	assert.Equal(t, []string{"alice"}, first.Extra)

	assert.Equal(t, time.Date(2024, 5, 1, 8, 1, 0, 0, time.UTC), table.Points[1].DateTime)
	assert.Nil(t, table.Points[1].Bearing)
	assert.Nil(t, table.Points[2].Latitude)
}

func TestRead_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := tableio.Read(strings.NewReader(""))
		require.ErrorContains(t, err, "failed to read header")
	})

	t.Run("invalid number", func(t *testing.T) {
		_, err := tableio.Read(strings.NewReader("assetId,dateTime,latitude,longitude\ntruck-1,2024-05-01T08:00:00Z,north,-89.1\n"))
		require.ErrorIs(t, err, tableio.ErrInvalidCell)
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("invalid time", func(t *testing.T) {
		_, err := tableio.Read(strings.NewReader("assetId,dateTime,latitude,longitude\ntruck-1,yesterday,41.5,-89.1\n"))
		require.ErrorIs(t, err, tableio.ErrInvalidCell)
	})

	t.Run("missing columns surface on validation", func(t *testing.T) {
		table, err := tableio.Read(strings.NewReader("assetId,latitude\ntruck-1,41.5\n"))
		require.NoError(t, err)
		require.ErrorIs(t, table.Validate(), models.ErrMissingColumns)
	})
}

func TestWrite(t *testing.T) {
	table, err := tableio.Read(strings.NewReader(sampleTrace))
	require.NoError(t, err)
	table.Points[0].Elevation = models.Float(201.25)
	table.AddColumn(models.ColumnElevation)

	var out bytes.Buffer
	require.NoError(t, tableio.Write(&out, table))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "assetId,dateTime,latitude,longitude,bearing,elevation,driver", lines[0])
	assert.Equal(t, "truck-1,2024-05-01T08:00:00Z,41.5,-89.1,90,201.25,alice", lines[1])
	assert.Equal(t, "truck-1,2024-05-01T08:01:00Z,41.51,-89.11,,,alice", lines[2])
	assert.Equal(t, "truck-2,2024-05-01T08:00:00Z,,-88,45.5,,bob", lines[3])
}

func TestWrite_KeepsTimeLayout(t *testing.T) {
	t.Run("layout of the input is reused", func(t *testing.T) {
		input := "assetId,dateTime,latitude,longitude\n" +
			"truck-1,2024-05-01 08:00:00,41.5,-89.1\n" +
			"truck-1,2024-05-01 08:01:30,41.51,-89.11\n"
		table, err := tableio.Read(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, "2006-01-02 15:04:05", table.TimeLayout)

		var out bytes.Buffer
		require.NoError(t, tableio.Write(&out, table))
		assert.Equal(t, input, out.String())
	})

	t.Run("layout survives splitting by asset", func(t *testing.T) {
		input := "assetId,dateTime,latitude,longitude\ntruck-1,2024-05-01 08:00:00,41.5,-89.1\n"
		table, err := tableio.Read(strings.NewReader(input))
		require.NoError(t, err)

		parts := table.SplitByAsset()
		require.Len(t, parts, 1)
		var out bytes.Buffer
		require.NoError(t, tableio.Write(&out, parts[0]))
		assert.Equal(t, input, out.String())
	})

	t.Run("table without layout falls back to RFC 3339", func(t *testing.T) {
		table := &models.Table{
			Columns: []models.Column{models.ColumnDateTime},
			Points:  []models.TrackPoint{{DateTime: time.Date(2024, 5, 1, 8, 0, 0, 500, time.UTC)}},
		}

		var out bytes.Buffer
		require.NoError(t, tableio.Write(&out, table))
		assert.Equal(t, "dateTime\n2024-05-01T08:00:00.0000005Z\n", out.String())
	})
}
