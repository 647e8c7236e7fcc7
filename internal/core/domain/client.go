package domain

import "time"

type ComplexityTier string

const (
	ComplexitySimple  ComplexityTier = "simple"
	ComplexityAverage ComplexityTier = "average"
	ComplexityComplex ComplexityTier = "complex"
)

func (t ComplexityTier) Valid() bool {
	switch t {
	case ComplexitySimple, ComplexityAverage, ComplexityComplex:
		return true
	default:
		return false
	}
}

type Client struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Complexity ComplexityTier `json:"complexity"`
	CreatedAt  time.Time      `json:"created_at"`
}
