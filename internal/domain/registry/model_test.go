package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
)

func TestLotNumber(t *testing.T) {
	assert.Equal(t, "200/1", LotNumber("200", 1))
	assert.Equal(t, "200/12", LotNumber("200", 12))
}

func TestSplitLotNo(t *testing.T) {
	cases := []struct {
		lotNo     string
		wantRef   string
		wantIndex int
	}{
		{"200/1", "200", 1},
		{"200/12", "200", 12},
		// Batch references containing slashes split on the last one.
		{"AB/200/3", "AB/200", 3},
		// Malformed numbers degrade to the whole string and index zero.
		{"200", "200", 0},
		{"200/x", "200/x", 0},
		{"", "", 0},
	}

	for _, tc := range cases {
		ref, idx := SplitLotNo(tc.lotNo)
		assert.Equal(t, tc.wantRef, ref, "lotNo %q", tc.lotNo)
		assert.Equal(t, tc.wantIndex, idx, "lotNo %q", tc.lotNo)
	}
}

func TestLotNumberRoundTrip(t *testing.T) {
	ref, idx := SplitLotNo(LotNumber("AB/200", 7))
	assert.Equal(t, "AB/200", ref)
	assert.Equal(t, 7, idx)
}

func TestMinStatus(t *testing.T) {
	assert.Equal(t, StatusOrdered, MinStatus(StatusReceived, StatusOrdered))
	assert.Equal(t, StatusKnitted, MinStatus(StatusKnitted, StatusDyed))
	assert.Equal(t, StatusDyed, MinStatus(StatusDyed, StatusDyed))
}

func TestStatusRank_Ordering(t *testing.T) {
	assert.Less(t, StatusOrdered.Rank(), StatusKnitted.Rank())
	assert.Less(t, StatusKnitted.Rank(), StatusDyed.Rank())
	assert.Less(t, StatusDyed.Rank(), StatusReceived.Rank())
}

func TestNewBatch_Defaults(t *testing.T) {
	b := NewBatch("200", id.New(), "Single Jersey", 4, "100% cotton")

	assert.Equal(t, StatusOrdered, b.Status)
	assert.False(t, id.IsNil(b.ID))
	require.NoError(t, b.Validate(context.Background()))
}

func TestBatchValidate_RequiresRefAndFabricator(t *testing.T) {
	b := NewBatch("", id.New(), "", 0, "")
	err := b.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	b = NewBatch("200", id.Nil(), "", 0, "")
	err = b.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestNewLot_NumbersFromBatch(t *testing.T) {
	batchID := id.New()
	l := NewLot(batchID, "200", 3)

	assert.Equal(t, "200/3", l.LotNo)
	assert.Equal(t, 3, l.LotIndex)
	assert.Equal(t, batchID, l.BatchID)
	assert.Equal(t, StatusOrdered, l.Status)
	assert.True(t, l.WeightKg.IsZero())
}
