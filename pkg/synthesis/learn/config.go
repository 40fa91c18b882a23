// Package learn infers the unknown parameters of constraint templates from
// example data.
//
// The default learner is noise tolerant: it fits each template by least
// squares, derives confidence intervals for the unknown parameters,
// enumerates the plausible exact rationals inside those intervals (Farey
// members for multipliers, integers for offsets), and scores each candidate
// by a Bayesian posterior combining a simplicity prior (Stern-Brocot depth)
// with the regression likelihood. Templates whose data does not look linear
// at all are rejected outright.
//
// Learning is independent per template and fans out across a worker pool;
// results are joined and re-ordered by template index so output is
// deterministic.
package learn

// Config tunes the learners. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	// SampleCount is the number of examples the data was extracted from.
	SampleCount int

	// AAlpha and BAlpha set the (1 - alpha) confidence level used for the
	// multiplier and offset intervals.
	AAlpha float64
	BAlpha float64

	// CutoffFit rejects templates whose goodness-of-fit p-value falls below
	// it.
	CutoffFit float64

	// CutoffSpread rejects templates whose residual standard deviation
	// exceeds it (in layout units).
	CutoffSpread float64

	// MaxDenominator bounds the Farey order used to enumerate multiplier
	// candidates.
	MaxDenominator int

	// MaxOffset clamps offset candidates to [-MaxOffset, MaxOffset].
	MaxOffset int64

	// ExpectedDepth centers the Stern-Brocot simplicity prior.
	ExpectedDepth float64

	// TopK truncates each template's candidate list; 0 keeps all.
	TopK int
}

// DefaultConfig returns the paper defaults for the given sample count.
func DefaultConfig(sampleCount int) Config {
	return Config{
		SampleCount:    sampleCount,
		AAlpha:         0.005,
		BAlpha:         0.005,
		CutoffFit:      0.05,
		CutoffSpread:   3,
		MaxDenominator: 100,
		MaxOffset:      1000,
		ExpectedDepth:  5,
	}
}
