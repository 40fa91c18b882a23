package learn

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// NoiseTolerant learns template parameters by regression with confidence
// intervals, tolerating measurement noise in the examples.
type NoiseTolerant struct {
	templates []constraint.Constraint
	examples  []*layout.View
	cfg       Config

	// Workers bounds the parallel fan-out; 0 means GOMAXPROCS.
	Workers int
}

// NewNoiseTolerant builds the default learner.
func NewNoiseTolerant(templates []constraint.Constraint, examples []*layout.View, cfg Config) *NoiseTolerant {
	return &NoiseTolerant{templates: templates, examples: examples, cfg: cfg}
}

// Learn fits every template and returns one candidate list per template,
// index-aligned with the input. Rejected templates yield empty lists.
// Templates learn independently on a worker pool; the only error Learn
// itself returns is context cancellation.
func (l *NoiseTolerant) Learn(ctx context.Context) ([][]constraint.Candidate, error) {
	results := make([][]constraint.Candidate, len(l.templates))

	g, ctx := errgroup.WithContext(ctx)
	workers := l.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, tpl := range l.templates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = l.learnTemplate(i, tpl)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// learnTemplate runs the full fit-enumerate-score pipeline for one
// template. A nil result means the template was rejected.
func (l *NoiseTolerant) learnTemplate(idx int, tpl constraint.Constraint) []constraint.Candidate {
	xs, ys, ok := extract(tpl, l.examples)
	if !ok {
		return nil
	}
	xs, ys = synthesizeSecondPoint(tpl.Kind, xs, ys)
	jitter(idx, ys)

	var res fitResult
	var err error
	switch {
	case tpl.Kind.IsConstantForm():
		res, err = fitConstant(ys, l.cfg.BAlpha)
	case tpl.Kind.IsAddOnlyForm():
		res, err = fitAddOnly(xs, ys, l.cfg.BAlpha)
	case tpl.Kind.IsMulOnlyForm():
		res, err = fitMulOnly(xs, ys, l.cfg.AAlpha)
	case tpl.Kind.IsGeneralForm():
		res, err = fitGeneral(xs, ys, l.cfg.AAlpha, l.cfg.BAlpha)
	default:
		// Fully fixed forms (centering) have nothing to learn; accept them
		// as-is when the data agrees.
		return l.learnFixed(tpl, xs, ys)
	}
	if err != nil {
		return nil
	}
	if l.rejected(tpl.Kind, res) {
		return nil
	}

	cands := l.enumerate(tpl, res, xs, ys)
	return finalize(cands, l.cfg.TopK)
}

// rejected applies the three rejection rules: bad fit, excessive spread,
// and degenerate or runaway confidence intervals.
func (l *NoiseTolerant) rejected(kind constraint.Kind, res fitResult) bool {
	if res.pFit < l.cfg.CutoffFit {
		return true
	}
	if res.sigma > l.cfg.CutoffSpread {
		return true
	}
	hasA := kind.IsMulOnlyForm() || kind.IsGeneralForm()
	hasB := kind.IsConstantForm() || kind.IsAddOnlyForm() || kind.IsGeneralForm()
	if hasA {
		if math.IsNaN(res.aLo) || math.IsNaN(res.aHi) || math.IsInf(res.aLo, 0) || math.IsInf(res.aHi, 0) {
			return true
		}
		if res.aHi-res.aLo > 2*float64(l.cfg.MaxDenominator) {
			return true
		}
	}
	if hasB {
		if math.IsNaN(res.bLo) || math.IsNaN(res.bHi) || math.IsInf(res.bLo, 0) || math.IsInf(res.bHi, 0) {
			return true
		}
		if res.bHi-res.bLo > 2*float64(l.cfg.MaxOffset) {
			return true
		}
	}
	return false
}

// enumerate walks the exact parameter values inside the confidence
// intervals and scores each one.
func (l *NoiseTolerant) enumerate(tpl constraint.Constraint, res fitResult, xs, ys []float64) []constraint.Candidate {
	sigma := math.Max(res.sigma, 1e-9)
	sampleCount := len(l.examples)

	switch {
	case tpl.Kind.IsConstantForm():
		ints := num.IntsIn(res.bLo, res.bHi, l.cfg.MaxOffset)
		if len(ints) == 0 && tpl.Kind == constraint.KindSizeConstant {
			return l.boundCandidates(tpl, res, sampleCount)
		}
		var out []constraint.Candidate
		for _, b := range ints {
			mse := meanSquaredError(ys, func(y float64) float64 { return y - float64(b) })
			out = append(out, constraint.Candidate{
				Constraint: tpl.Subst(nil, num.Int(b), sampleCount),
				Score:      math.Exp(-mse / (2 * sigma * sigma)),
			})
		}
		return out

	case tpl.Kind.IsAddOnlyForm():
		ints := num.IntsIn(res.bLo, res.bHi, l.cfg.MaxOffset)
		var out []constraint.Candidate
		for _, b := range ints {
			mse := meanSquaredErrorXY(xs, ys, func(x, y float64) float64 { return y - x - float64(b) })
			out = append(out, constraint.Candidate{
				Constraint: tpl.Subst(nil, num.Int(b), sampleCount),
				Score:      math.Exp(-mse / (2 * sigma * sigma)),
			})
		}
		return out

	case tpl.Kind.IsMulOnlyForm():
		ratios := num.RatsIn(num.ExtFarey(l.cfg.MaxDenominator),
			num.FromFloat(res.aLo), num.FromFloat(res.aHi))
		var out []constraint.Candidate
		for _, a := range ratios {
			af := num.Float(a)
			mse := meanSquaredErrorXY(xs, ys, func(x, y float64) float64 { return y - af*x })
			out = append(out, constraint.Candidate{
				Constraint: tpl.Subst(a, nil, sampleCount),
				Score:      l.depthPrior(a) * math.Exp(-mse/(2*sigma*sigma)),
			})
		}
		return out

	case tpl.Kind.IsGeneralForm():
		ratios := num.RatsIn(num.ExtFarey(l.cfg.MaxDenominator),
			num.FromFloat(res.aLo), num.FromFloat(res.aHi))
		ints := num.IntsIn(res.bLo, res.bHi, l.cfg.MaxOffset)
		var out []constraint.Candidate
		for _, a := range ratios {
			af := num.Float(a)
			for _, b := range ints {
				mse := meanSquaredErrorXY(xs, ys, func(x, y float64) float64 { return y - af*x - float64(b) })
				out = append(out, constraint.Candidate{
					Constraint: tpl.Subst(a, num.Int(b), sampleCount),
					Score:      l.depthPrior(a) * math.Exp(-mse/(2*sigma*sigma)),
				})
				if len(out) >= maxGeneralCandidates {
					return out
				}
			}
		}
		return out
	}
	return nil
}

// maxGeneralCandidates caps the cartesian enumeration of general forms.
const maxGeneralCandidates = 256

// boundCandidates emits the one-sided inequality fallbacks for a size
// constant whose interval straddles no integer.
func (l *NoiseTolerant) boundCandidates(tpl constraint.Constraint, res fitResult, sampleCount int) []constraint.Candidate {
	lo := int64(math.Floor(res.bLo))
	hi := int64(math.Ceil(res.bHi))
	if lo < -l.cfg.MaxOffset || hi > l.cfg.MaxOffset {
		return nil
	}
	bound := tpl
	bound.Kind = constraint.KindSizeConstantBound
	return []constraint.Candidate{
		{Constraint: bound.WithOp(constraint.OpGE).Subst(nil, num.Int(lo), sampleCount), Score: 1},
		{Constraint: bound.WithOp(constraint.OpLE).Subst(nil, num.Int(hi), sampleCount), Score: 1},
	}
}

// learnFixed handles forms with zero free parameters: the template is its
// own candidate when every example satisfies it exactly (up to the spread
// cutoff).
func (l *NoiseTolerant) learnFixed(tpl constraint.Constraint, xs, ys []float64) []constraint.Candidate {
	var sse float64
	for i := range ys {
		d := ys[i] - xs[i]
		sse += d * d
	}
	sd := math.Sqrt(sse / float64(len(ys)))
	if sd > l.cfg.CutoffSpread {
		return nil
	}
	c := tpl
	c.SampleCount = len(l.examples)
	return []constraint.Candidate{{Constraint: c, Score: 1}}
}

// depthPrior is the simplicity prior over rational multipliers:
// exp(-|sb_depth(v) - expected_depth|).
func (l *NoiseTolerant) depthPrior(a num.Rat) float64 {
	return math.Exp(-math.Abs(float64(num.SBDepth(a)) - l.cfg.ExpectedDepth))
}

// finalize normalizes scores so the best candidate scores 1, sorts by score
// descending (stable, preserving enumeration order among ties) and applies
// the top-K truncation.
func finalize(cands []constraint.Candidate, topK int) []constraint.Candidate {
	if len(cands) == 0 {
		return nil
	}
	best := 0.0
	for _, c := range cands {
		if c.Score > best {
			best = c.Score
		}
	}
	if best > 0 {
		for i := range cands {
			cands[i].Score /= best
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
	if topK > 0 && len(cands) > topK {
		cands = cands[:topK]
	}
	return cands
}

// extract pulls the (x, y) sample pairs for a template out of the examples.
// Values arrive as exact rationals and drop to floats only here, at the
// boundary of the statistical machinery.
func extract(tpl constraint.Constraint, examples []*layout.View) (xs, ys []float64, ok bool) {
	for _, ex := range examples {
		ya, found := ex.FindAnchor(tpl.YID)
		if !found {
			return nil, nil, false
		}
		ys = append(ys, num.Float(ya.Value()))
		if tpl.XID != nil {
			xa, found := ex.FindAnchor(*tpl.XID)
			if !found {
				return nil, nil, false
			}
			xs = append(xs, num.Float(xa.Value()))
		}
	}
	if tpl.XID == nil {
		xs = make([]float64, len(ys))
	}
	return xs, ys, true
}

// synthesizeSecondPoint fabricates the artificial second sample used when
// only a single example is available: (0, y-x) for add-only forms, (0, 0)
// for ratios, (0, y) for constants.
func synthesizeSecondPoint(kind constraint.Kind, xs, ys []float64) ([]float64, []float64) {
	if len(ys) != 1 {
		return xs, ys
	}
	switch {
	case kind.IsAddOnlyForm():
		return append(xs, 0), append(ys, ys[0]-xs[0])
	case kind.IsMulOnlyForm():
		return append(xs, 0), append(ys, 0)
	case kind.IsConstantForm():
		return append(xs, 0), append(ys, ys[0])
	}
	return xs, ys
}

// jitter perturbs the samples by at most one part in a million to avoid
// zero-variance regression pathologies. The perturbation is seeded by the
// template index so runs are reproducible.
func jitter(seed int, ys []float64) {
	rng := rand.New(rand.NewSource(int64(seed) + 1))
	for i := range ys {
		mag := math.Max(1, math.Abs(ys[i]))
		ys[i] += (2*rng.Float64() - 1) * 1e-6 * mag
	}
}

// meanSquaredError averages the squared residuals of a one-argument model.
func meanSquaredError(ys []float64, resid func(float64) float64) float64 {
	var sum float64
	for _, y := range ys {
		r := resid(y)
		sum += r * r
	}
	return sum / float64(len(ys))
}

// meanSquaredErrorXY averages the squared residuals of a paired model.
func meanSquaredErrorXY(xs, ys []float64, resid func(x, y float64) float64) float64 {
	var sum float64
	for i := range ys {
		r := resid(xs[i], ys[i])
		sum += r * r
	}
	return sum / float64(len(ys))
}
