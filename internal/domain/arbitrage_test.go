package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFairValue_ZeroDaysIsIdentity(t *testing.T) {
	assert.Equal(t, 0.47, FairValue(0.47, 0, 0.045))
	assert.Equal(t, 0.47, FairValue(0.47, -10, 0.045)) // expirado cuenta como 0 días
}

func TestFairValue_GrowsWithTimeAndRate(t *testing.T) {
	base := FairValue(0.50, 30, 0.045)
	further := FairValue(0.50, 90, 0.045)
	higherRate := FairValue(0.50, 30, 0.10)

	assert.Greater(t, base, 0.50)
	assert.Greater(t, further, base)
	assert.Greater(t, higherRate, base)
}

func TestFairValue_CappedAtOne(t *testing.T) {
	// 0.95 · (1 + 0.10) = 1.045 → tope 1.0
	assert.Equal(t, 1.0, FairValue(0.95, 365, 0.10))
}

func TestSpread_ArbScenario(t *testing.T) {
	// Probabilidad base 50%, venue a 47¢, 45 días, r = 4.5%
	// fair = 0.50 · (1 + 0.045·45/365) = 0.502774
	spread := Spread(0.50, 0.47, 45, 0.045)
	assert.InDelta(t, 0.0328, spread, 0.0005)
	assert.Greater(t, spread, 0.02) // supera el threshold por defecto
}

func TestSpread_Identity(t *testing.T) {
	// Mismo precio en ambos venues: sin yield no hay spread
	assert.Equal(t, 0.0, Spread(0.50, 0.50, 45, 0))
	assert.Equal(t, 0.0, Spread(0.50, 0.50, 0, 0.045))

	// Con yield y tiempo por delante el fair value sube sobre el precio
	assert.Greater(t, Spread(0.50, 0.50, 45, 0.045), 0.0)
}

func TestSpread_NegativeWhenVenueRich(t *testing.T) {
	spread := Spread(0.50, 0.55, 45, 0.045)
	assert.Less(t, spread, 0.0)
}

func TestBoostProbability(t *testing.T) {
	// Sentiment positivo sube, negativo baja
	up := BoostProbability(0.50, 1.0, 1.0, 0.20)
	down := BoostProbability(0.50, -1.0, 1.0, 0.20)
	assert.InDelta(t, 0.60, up, 1e-9)
	assert.InDelta(t, 0.40, down, 1e-9)

	// Score o confianza 0 = sin cambio
	assert.Equal(t, 0.50, BoostProbability(0.50, 0, 1.0, 0.20))
	assert.Equal(t, 0.50, BoostProbability(0.50, 1.0, 0, 0.20))
}

func TestBoostProbability_Clamped(t *testing.T) {
	assert.Equal(t, 1.0, BoostProbability(0.95, 1.0, 1.0, 0.20))
	assert.GreaterOrEqual(t, BoostProbability(0.01, -1.0, 1.0, 5.0), 0.0)
}
