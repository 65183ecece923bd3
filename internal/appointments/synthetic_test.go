package appointments

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syntheticNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func TestSynthetic_Deterministic(t *testing.T) {
	opts := SyntheticOptions{Seed: 7, Visits: 200, Now: syntheticNow}

	assert.Equal(t, Synthetic(opts), Synthetic(opts))
	assert.NotEqual(t, Synthetic(opts), Synthetic(SyntheticOptions{Seed: 8, Visits: 200, Now: syntheticNow}))
}

func TestSynthetic_RowsAreReadable(t *testing.T) {
	rows := Synthetic(SyntheticOptions{Visits: 300, Now: syntheticNow})
	require.Len(t, rows, 300)

	for _, appt := range Clean(rows) {
		assert.NotEmpty(t, appt.PatientID)
		assert.True(t, appt.HasVisitTime())
		assert.False(t, appt.VisitTime.After(syntheticNow))
		assert.False(t, appt.VisitTime.Before(syntheticNow.AddDate(-1, 0, -1)))
		assert.GreaterOrEqual(t, appt.Age, 0.0)
		assert.Less(t, appt.Age, 91.0)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	rows := Synthetic(SyntheticOptions{Visits: 50, Now: syntheticNow})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	read, err := ReadCSV(context.Background(), &buf)
	require.NoError(t, err)
	require.Len(t, read, len(rows))
	assert.Equal(t, Clean(rows), Clean(read))
}
