package brokerclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAggregator_AcceptsUntilCapacity(t *testing.T) {
	rec := Record{Value: []byte("x")}
	size := rec.ApproxSize()
	agg := NewRecordAggregator(size * 2)

	tag0, ok, err := agg.TryPush(rec)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Tag(0), tag0)

	tag1, ok, err := agg.TryPush(rec)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Tag(1), tag1)

	// Third push overflows the 2x-size budget.
	_, ok, err = agg.TryPush(rec)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordAggregator_TooLarge(t *testing.T) {
	rec := Record{Value: []byte("this record is too big for the aggregator")}
	agg := NewRecordAggregator(rec.ApproxSize() / 2)

	_, ok, err := agg.TryPush(rec)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrTooLarge)

	// State is unchanged: a subsequent flush still yields nothing.
	records, deagg := agg.Flush()
	assert.Nil(t, records)
	assert.Nil(t, deagg)
}

func TestRecordAggregator_FlushResetsState(t *testing.T) {
	rec := Record{Value: []byte("v")}
	agg := NewRecordAggregator(1024)

	_, _, err := agg.TryPush(rec)
	require.NoError(t, err)

	records, deagg := agg.Flush()
	require.Len(t, records, 1)
	require.NotNil(t, deagg)

	status, err := deagg.Deaggregate([]int64{100}, Tag(0))
	require.NoError(t, err)
	assert.Equal(t, int64(100), status)

	// Flushing an empty aggregator yields no records and no deaggregator.
	records, deagg = agg.Flush()
	assert.Nil(t, records)
	assert.Nil(t, deagg)
}

func TestRecordAggregator_DeaggregateOutOfRange(t *testing.T) {
	d := recordOffsetDeaggregator{}
	_, err := d.Deaggregate([]int64{1, 2}, Tag(5))
	assert.Error(t, err)
}

func TestRecordAggregator_RejectsWrongInputType(t *testing.T) {
	agg := NewRecordAggregator(1024)
	_, ok, err := agg.TryPush("not a record")
	assert.False(t, ok)
	assert.Error(t, err)
}
