package domain

// ContractRight distingue el contrato Yes (call) del No (put).
type ContractRight string

const (
	RightYes ContractRight = "YES"
	RightNo  ContractRight = "NO"
)

// Contract identifica un contrato binario en el venue de ejecución.
// Valor pequeño y explícito: sustituye a los objetos duck-typed del broker.
type Contract struct {
	Venue      string
	SymbolRoot string
	Strike     float64
	Expiry     string // YYYYMMDD
	Right      ContractRight
}

// Quote es una cotización de dos lados del venue.
type Quote struct {
	Bid float64
	Ask float64
}

// TwoSided devuelve true si ambos lados tienen precio válido.
func (q Quote) TwoSided() bool {
	return q.Bid > 0 && q.Ask > 0
}

// Midpoint devuelve el punto medio de la cotización, o 0 si no es de dos lados.
func (q Quote) Midpoint() float64 {
	if !q.TwoSided() {
		return 0
	}
	return (q.Bid + q.Ask) / 2
}
