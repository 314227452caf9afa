package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Bournemouth pier to Boscombe pier, roughly 2.3 km
	d := HaversineDistance(50.7155, -1.8748, 50.7185, -1.8430)
	assert.InDelta(t, 2260, d, 100)

	assert.Zero(t, HaversineDistance(50.72, -1.88, 50.72, -1.88))
}

func TestHaversineDistanceIsSymmetric(t *testing.T) {
	a := HaversineDistance(50.72, -1.88, 51.50, -0.12)
	b := HaversineDistance(51.50, -0.12, 50.72, -1.88)

	assert.InDelta(t, a, b, 1e-6)
}

func TestMidpoint(t *testing.T) {
	lat, lon := Midpoint(50.72, -1.88, 50.72, -1.86)

	assert.InDelta(t, 50.72, lat, 1e-3)
	assert.InDelta(t, -1.87, lon, 1e-6)
}

func TestMidpointOfIdenticalPoints(t *testing.T) {
	lat, lon := Midpoint(50.72, -1.88, 50.72, -1.88)

	assert.InDelta(t, 50.72, lat, 1e-9)
	assert.InDelta(t, -1.88, lon, 1e-9)
}
