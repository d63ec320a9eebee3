package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMeters(t *testing.T) {
	t.Run("identical points", func(t *testing.T) {
		d, err := DistanceMeters(6.40, 2.62, 6.40, 2.62)
		require.NoError(t, err)
		assert.Equal(t, 0.0, d)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		d, err := DistanceMeters(0, 0, 1, 0)
		require.NoError(t, err)
		// 6371 km * pi / 180
		assert.InDelta(t, 111194.93, d, 0.5)
	})

	t.Run("cotonou to porto-novo", func(t *testing.T) {
		d, err := DistanceMeters(6.3703, 2.3912, 6.4969, 2.6289)
		require.NoError(t, err)
		assert.InDelta(t, 29800, d, 500)
	})

	t.Run("symmetric", func(t *testing.T) {
		a, _ := DistanceMeters(6.40, 2.62, 6.41, 2.63)
		b, _ := DistanceMeters(6.41, 2.63, 6.40, 2.62)
		assert.InDelta(t, a, b, 1e-9)
	})

	t.Run("non-finite input", func(t *testing.T) {
		_, err := DistanceMeters(math.NaN(), 0, 0, 0)
		assert.ErrorIs(t, err, ErrNonFinite)
		_, err = DistanceMeters(0, 0, 0, math.Inf(1))
		assert.ErrorIs(t, err, ErrNonFinite)
	})
}

func TestWithinRadiusKm(t *testing.T) {
	ok, d := WithinRadiusKm(6.40, 2.62, 6.41, 2.63, 5)
	assert.True(t, ok)
	assert.Greater(t, d, 0.0)

	ok, _ = WithinRadiusKm(6.40, 2.62, 6.60, 2.62, 5)
	assert.False(t, ok)

	ok, _ = WithinRadiusKm(6.40, 2.62, math.NaN(), 2.62, 5)
	assert.False(t, ok)
}
