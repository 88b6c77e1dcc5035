package models

import (
	"bytes"
	"encoding/json"
	"math"
)

// OptFloat represents a float64 that may be absent. Missing, NaN and
// infinite values are all normalized to the invalid state so that the
// fallback chains downstream can detect absence reliably instead of
// letting NaN propagate through arithmetic.
type OptFloat struct {
	Float float64
	Valid bool
}

// Float64 creates an OptFloat from a raw value, treating NaN and Inf as absent.
func Float64(v float64) OptFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return OptFloat{}
	}
	return OptFloat{Float: v, Valid: true}
}

// NoFloat returns the absent value.
func NoFloat() OptFloat {
	return OptFloat{}
}

// Positive reports whether the value is present, finite and strictly positive.
func (o OptFloat) Positive() bool {
	return o.Valid && o.Float > 0
}

// Or returns the value if present, otherwise the fallback.
func (o OptFloat) Or(fallback float64) float64 {
	if o.Valid {
		return o.Float
	}
	return fallback
}

// MarshalJSON encodes absent values as null.
func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Float)
}

// UnmarshalJSON accepts a number or null. Non-finite numbers arriving as
// strings ("NaN") are treated as absent rather than rejected.
func (o *OptFloat) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`"NaN"`)) {
		*o = OptFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*o = Float64(v)
	return nil
}
