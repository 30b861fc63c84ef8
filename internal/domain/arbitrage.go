package domain

import "math"

// FairValue calcula el fair value ajustado por yield de un contrato binario.
//
// Fórmula: p · (1 + r · días / 365), con tope en 1.0 — una probabilidad no
// puede superar el 100%. daysToExpiry negativo se trata como 0.
//
// El ajuste hace comparable la probabilidad del mercado base con el precio
// de un venue que liquida en una fecha distinta (time value of money).
func FairValue(pBase float64, daysToExpiry int, r float64) float64 {
	if daysToExpiry < 0 {
		daysToExpiry = 0
	}
	fair := pBase * (1 + r*float64(daysToExpiry)/365)
	return math.Min(fair, 1.0)
}

// Spread calcula el arb spread: fair value ajustado menos el precio observado
// en el segundo venue. Positivo = el venue está infravalorado respecto a la
// probabilidad base ajustada → oportunidad de compra allí.
func Spread(pBase, pMarket float64, daysToExpiry int, r float64) float64 {
	return FairValue(pBase, daysToExpiry, r) - pMarket
}

// BoostProbability aplica el boost de confianza del sentiment a una
// probabilidad base.
//
// Fórmula: boosted = p · (1 + score · confidence · maxBoost), recortado a [0, 1].
//   - score ∈ [-1, 1]: sentiment medio de los artículos
//   - confidence ∈ [0, 1]: acuerdo entre artículos
//   - maxBoost: multiplicador máximo configurado (p.ej. 0.20)
func BoostProbability(pBase, score, confidence, maxBoost float64) float64 {
	boosted := pBase * (1 + score*confidence*maxBoost)
	return math.Max(0, math.Min(1, boosted))
}

// SentimentResult es el resultado agregado del scoring de artículos.
type SentimentResult struct {
	AverageSentiment float64 // [-1, 1]
	Confidence       float64 // [0, 1]
	ArticleCount     int
}
