package mapview

import (
	"errors"
	"fmt"
	"math"

	"linkmap/core-go/internal/geo"
)

const (
	DefaultSeparationMeters = 18.0
	DefaultOffsetMeters     = 25.0

	MinSeparationMeters = 5.0
	MaxSeparationMeters = 50.0
	MinOffsetMeters     = 10.0
	MaxOffsetMeters     = 100.0
)

var ErrInvalidOptions = errors.New("invalid map options")

// OptionError names the offending option. It matches ErrInvalidOptions.
type OptionError struct {
	Field  string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *OptionError) Is(target error) bool {
	return target == ErrInvalidOptions
}

type Options struct {
	ClientID          *int64  `json:"client_id,omitempty"`
	SeparationEnabled bool    `json:"separation_enabled"`
	SeparationMeters  float64 `json:"separation_m"`
	OffsetMeters      float64 `json:"offset_m"`
	ArrowPosition     float64 `json:"arrow_t"`
}

func DefaultOptions() Options {
	return Options{
		SeparationEnabled: true,
		SeparationMeters:  DefaultSeparationMeters,
		OffsetMeters:      DefaultOffsetMeters,
		ArrowPosition:     geo.DefaultArrowPosition,
	}
}

// Validate checks the ranges exposed to users. The geometry functions accept
// any value; these bounds only keep the rendered map legible.
func (o Options) Validate() error {
	if err := inRange("separation_m", o.SeparationMeters, MinSeparationMeters, MaxSeparationMeters); err != nil {
		return err
	}
	if err := inRange("offset_m", o.OffsetMeters, MinOffsetMeters, MaxOffsetMeters); err != nil {
		return err
	}
	if err := inRange("arrow_t", o.ArrowPosition, 0, 1); err != nil {
		return err
	}
	if o.ClientID != nil && *o.ClientID <= 0 {
		return &OptionError{Field: "client_id", Reason: "must be a positive integer"}
	}
	return nil
}

func inRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < lo || v > hi {
		return &OptionError{Field: field, Reason: fmt.Sprintf("must be between %g and %g", lo, hi)}
	}
	return nil
}
