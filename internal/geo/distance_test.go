package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKM(t *testing.T) {
	t.Parallel()

	t.Run("same point is zero", func(t *testing.T) {
		t.Parallel()
		p := Point{Lat: 40.7589, Lng: 30.3425}
		assert.InDelta(t, 0, HaversineKM(p, p), 0.0001)
	})

	t.Run("symmetric", func(t *testing.T) {
		t.Parallel()
		a := Point{Lat: 40.7589, Lng: 30.3425}
		b := Point{Lat: 40.7808, Lng: 30.4034}
		assert.InDelta(t, HaversineKM(a, b), HaversineKM(b, a), 0.0001)
	})

	t.Run("known fixture Serdivan-Adapazari", func(t *testing.T) {
		t.Parallel()
		a := Point{Lat: 40.7589, Lng: 30.3425}
		b := Point{Lat: 40.7808, Lng: 30.4034}
		assert.InDelta(t, 5.68, HaversineKM(a, b), 0.05)
	})

	t.Run("known fixture Austin-Dallas", func(t *testing.T) {
		t.Parallel()
		a := Point{Lat: 30.2672, Lng: -97.7431}
		b := Point{Lat: 32.7767, Lng: -96.7970}
		assert.InDelta(t, 293, HaversineKM(a, b), 2)
	})
}

func TestPointValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Point{Lat: 0, Lng: 0}.Valid())
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.True(t, Point{Lat: 90, Lng: -180}.Valid())
	assert.False(t, Point{Lat: 90.01, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -180.01}.Valid())
}
