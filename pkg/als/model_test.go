package als

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clusteredFeedback() *CSR {
	var entries []Entry
	for u := 1; u <= 4; u++ {
		for _, i := range []int{1, 2, 3} {
			entries = append(entries, Entry{Row: u, Col: i, Value: 1})
		}
	}
	entries = append(entries, Entry{Row: 5, Col: 1, Value: 1}, Entry{Row: 5, Col: 2, Value: 1})
	for u := 6; u <= 8; u++ {
		entries = append(entries, Entry{Row: u, Col: 4, Value: 1}, Entry{Row: u, Col: 5, Value: 1})
	}
	// user 9 exists but never gave feedback
	return NewCSR(10, 6, entries)
}

func testParams() Params {
	return Params{Factors: 2, Regularization: 0.1, Iterations: 30, Alpha: 1, Seed: 7}
}

func TestNewCSR_SumsDuplicatesAndGrowsShape(t *testing.T) {
	m := NewCSR(1, 1, []Entry{
		{Row: 2, Col: 3, Value: 1},
		{Row: 0, Col: 1, Value: -1},
		{Row: 2, Col: 3, Value: 1},
	})

	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, 4, m.Cols)
	assert.Equal(t, 2, m.NNZ())

	cols, vals := m.Row(2)
	assert.Equal(t, []int{3}, cols)
	assert.Equal(t, []float64{2}, vals)

	cols, _ = m.Row(1)
	assert.Empty(t, cols)
	cols, _ = m.Row(42)
	assert.Empty(t, cols)
}

func TestCSR_Transpose(t *testing.T) {
	m := NewCSR(0, 0, []Entry{{Row: 1, Col: 4, Value: 1}, {Row: 2, Col: 4, Value: -1}})
	tr := m.Transpose()

	assert.Equal(t, 5, tr.Rows)
	assert.Equal(t, 3, tr.Cols)
	cols, vals := tr.Row(4)
	assert.Equal(t, []int{1, 2}, cols)
	assert.Equal(t, []float64{1, -1}, vals)
}

func TestModel_FitRecommendsCoOccurringItem(t *testing.T) {
	m := NewModel(testParams())
	require.NoError(t, m.Fit(context.Background(), clusteredFeedback()))
	require.NoError(t, m.Validate())

	recs, err := m.Recommend(5, 3, map[int]struct{}{1: {}, 2: {}})
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, 3, recs[0].ItemID)
	for _, r := range recs {
		assert.NotEqual(t, 1, r.ItemID)
		assert.NotEqual(t, 2, r.ItemID)
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestModel_UserWithoutFeedbackGetsNothing(t *testing.T) {
	m := NewModel(testParams())
	require.NoError(t, m.Fit(context.Background(), clusteredFeedback()))

	recs, err := m.Recommend(9, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestModel_RecommendUnknownUser(t *testing.T) {
	m := NewModel(testParams())
	_, err := m.Recommend(3, 5, nil)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestModel_PartialFitUsersGrowsAndLearnsNewUser(t *testing.T) {
	m := NewModel(testParams())
	require.NoError(t, m.Fit(context.Background(), clusteredFeedback()))

	fb := NewCSR(12, 6, []Entry{{Row: 11, Col: 4, Value: 1}})
	require.NoError(t, m.PartialFitUsers(context.Background(), fb, []int{11}))
	assert.Equal(t, 12, m.Users)

	recs, err := m.Recommend(11, 1, map[int]struct{}{4: {}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 5, recs[0].ItemID)
}

func TestModel_PartialFitItemsOnEmptyModel(t *testing.T) {
	m := NewModel(testParams())
	fb := NewCSR(0, 0, []Entry{{Row: 1, Col: 2, Value: 1}, {Row: 3, Col: 2, Value: -1}})

	require.NoError(t, m.PartialFitItems(context.Background(), fb.Transpose(), []int{2}))
	assert.Equal(t, 4, m.Users)
	assert.Equal(t, 3, m.Items)
	// user factors are still zero, so the item row solves to zero as well
	assert.Equal(t, []float64{0, 0}, m.ItemVector(2))
}

func TestModel_FitHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewModel(testParams())
	assert.ErrorIs(t, m.Fit(ctx, clusteredFeedback()), context.Canceled)
}

func TestModel_CloneIsIndependent(t *testing.T) {
	m := NewModel(testParams())
	m.Grow(2, 2)
	c := m.Clone()
	c.UserFactors[0] = 1

	assert.Equal(t, 0.0, m.UserFactors[0])
}

func TestEncodeDecode(t *testing.T) {
	m := NewModel(testParams())
	require.NoError(t, m.Fit(context.Background(), clusteredFeedback()))

	blob, err := Encode(m)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, m.Users, decoded.Users)
	assert.Equal(t, m.Items, decoded.Items)
	assert.InDeltaSlice(t, m.ItemFactors, decoded.ItemFactors, 1e-12)
}

func TestDecode_RejectsShapeMismatch(t *testing.T) {
	_, err := Decode([]byte(`{"params":{"factors":2},"users":2,"items":0,"user_factors":[1,2,3]}`))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
