package rng

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged random draws.
// All draws are logged at debug level with the draw kind and value, giving a
// full audit trail for any resolved round.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn returns a random int in [0, n), logging the draw.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("rng draw",
		zap.String("kind", "intn"),
		zap.Int("bound", n),
		zap.Int("value", v),
	)
	return v
}

// Float64 returns a random value in [0, 1), logging the draw.
func (r *Roller) Float64() float64 {
	v := r.src.Float64()
	r.logger.Debug("rng draw",
		zap.String("kind", "float64"),
		zap.Float64("value", v),
	)
	return v
}

// Chance draws once and reports whether the draw fell under p.
// A p <= 0 never succeeds; a p >= 1 always succeeds (still consuming a draw,
// keeping replay sequences aligned).
//
// Postcondition: exactly one Float64 draw is consumed.
func (r *Roller) Chance(p float64) bool {
	v := r.src.Float64()
	hit := v < p
	r.logger.Debug("rng draw",
		zap.String("kind", "chance"),
		zap.Float64("p", p),
		zap.Float64("value", v),
		zap.Bool("hit", hit),
	)
	return hit
}
