package synthesis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/anchorsynth/anchorsynth/pkg/cache"
	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/errors"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
	"github.com/anchorsynth/anchorsynth/pkg/observability"
	"github.com/anchorsynth/anchorsynth/pkg/smt"
	"github.com/anchorsynth/anchorsynth/pkg/smt/native"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis/instantiate"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis/learn"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis/prune"
)

// resultCacheTTL bounds how long finished runs stay cached.
const resultCacheTTL = 30 * 24 * time.Hour

// Runner executes synthesis runs with caching.
// Both CLI and API use this to avoid duplicating pipeline logic.
//
// The Runner is stateless except for the cache and logger - multiple
// goroutines can safely share one Runner.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Factory smt.Factory
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil factory
// selects the native MaxSMT backend, and a nil logger selects the default
// logger.
func NewRunner(c cache.Cache, factory smt.Factory, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if factory == nil {
		factory = native.Factory()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   cache.NewDefaultKeyer(),
		Factory: factory,
		Logger:  logger,
	}
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ExampleCount    int
	TemplateCount   int
	CandidateCount  int
	ConstraintCount int

	LoadTime        time.Duration
	InstantiateTime time.Duration
	LearnTime       time.Duration
	PruneTime       time.Duration
}

// Result contains the outputs of a synthesis run.
type Result struct {
	RunID string

	// Constraints is the selected constraint set.
	Constraints []constraint.Constraint

	// ValuationsMin and ValuationsMax hold anchor values at the extremal
	// test conformances.
	ValuationsMin map[string]string
	ValuationsMax map[string]string

	// Debug artifacts, populated per the emit toggles.
	VisibilityPairs []string
	Templates       []constraint.Constraint
	Candidates      []constraint.Candidate

	Stats    Stats
	CacheHit bool
}

// Document is the JSON output contract.
type Document struct {
	Constraints   []constraint.Constraint `json:"constraints"`
	Axioms        []string                `json:"axioms"`
	ValuationsMin map[string]string       `json:"valuations_min"`
	ValuationsMax map[string]string       `json:"valuations_max"`
}

// Document renders the result in the output contract shape.
func (r *Result) Document() Document {
	doc := Document{
		Constraints:   r.Constraints,
		Axioms:        []string{},
		ValuationsMin: r.ValuationsMin,
		ValuationsMax: r.ValuationsMax,
	}
	if doc.Constraints == nil {
		doc.Constraints = []constraint.Constraint{}
	}
	if doc.ValuationsMin == nil {
		doc.ValuationsMin = map[string]string{}
	}
	if doc.ValuationsMax == nil {
		doc.ValuationsMax = map[string]string{}
	}
	return doc
}

// inputDoc is the union of both input document shapes.
type inputDoc struct {
	Examples []json.RawMessage `json:"examples"`
	Train    []json.RawMessage `json:"train"`
}

// Synthesize runs the full pipeline over one input document.
//
// Errors follow the taxonomy: invalid input and options surface
// immediately; a global timeout returns the partial result alongside a
// TIMEOUT error; everything else is soaked per-subproblem inside the
// stages.
func (r *Runner) Synthesize(ctx context.Context, input []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	if opts.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	result := &Result{RunID: uuid.NewString()}
	runStart := time.Now()

	// Cache lookup keyed by input and options.
	optsData, _ := json.Marshal(opts)
	key := r.Keyer.ResultKey(cache.Hash(input), cache.Hash(optsData))
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var doc Document
		if err := json.Unmarshal(data, &doc); err == nil {
			observability.Cache().OnCacheHit(ctx, "result")
			result.Constraints = doc.Constraints
			result.ValuationsMin = doc.ValuationsMin
			result.ValuationsMax = doc.ValuationsMax
			result.CacheHit = true
			r.Logger.Debug("synthesis cache hit", "run", result.RunID)
			return result, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "result")

	// Stage 1: Load
	loadStart := time.Now()
	examples, err := r.load(input, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.ExampleCount = len(examples)
	observability.Synthesis().OnRunStart(ctx, result.RunID, len(examples))
	r.Logger.Info("loaded examples", "count", len(examples), "duration", result.Stats.LoadTime)

	// Stage 2: Instantiate
	instStart := time.Now()
	observability.Synthesis().OnStageStart(ctx, "instantiate", len(examples))
	if opts.InstantiationMethod == InstantiationProlog {
		r.Logger.Warn("prolog instantiation is obsolete; using the sweep-line engine")
	}
	inst := instantiate.New(examples)
	templates := inst.Instantiate()
	result.Stats.InstantiateTime = time.Since(instStart)
	result.Stats.TemplateCount = len(templates)
	observability.Synthesis().OnStageComplete(ctx, "instantiate", len(templates), result.Stats.InstantiateTime, nil)
	r.Logger.Info("instantiated templates", "count", len(templates), "duration", result.Stats.InstantiateTime)

	if opts.EmitVisibility {
		for _, p := range inst.Visibility().Pairs() {
			result.VisibilityPairs = append(result.VisibilityPairs, p[0].String()+" | "+p[1].String())
		}
	}
	if opts.EmitTemplates {
		result.Templates = templates
	}

	// Stage 3: Learn
	learnStart := time.Now()
	observability.Synthesis().OnStageStart(ctx, "learn", len(templates))
	candidates, err := r.learn(ctx, templates, examples, opts)
	result.Stats.LearnTime = time.Since(learnStart)
	observability.Synthesis().OnStageComplete(ctx, "learn", len(candidates), result.Stats.LearnTime, err)
	if err != nil {
		return result, errors.Wrap(errors.ErrCodeTimeout, err, "learning interrupted")
	}
	result.Stats.CandidateCount = len(candidates)
	r.Logger.Info("learned candidates", "count", len(candidates), "duration", result.Stats.LearnTime)
	if opts.EmitCandidates {
		result.Candidates = candidates
	}

	// Stage 4: Prune
	pruneStart := time.Now()
	observability.Synthesis().OnStageStart(ctx, "prune", len(candidates))
	pruner := r.pruner(examples, opts)
	selection, pruneErr := pruner.Prune(ctx, candidates)
	result.Stats.PruneTime = time.Since(pruneStart)
	observability.Synthesis().OnStageComplete(ctx, "prune", len(selection.Constraints), result.Stats.PruneTime, pruneErr)

	result.Constraints = selection.Constraints
	result.ValuationsMin = formatValuations(selection.MinValues)
	result.ValuationsMax = formatValuations(selection.MaxValues)
	result.Stats.ConstraintCount = len(selection.Constraints)
	r.Logger.Info("pruned constraints", "selected", len(selection.Constraints), "duration", result.Stats.PruneTime)

	observability.Synthesis().OnRunComplete(ctx, result.RunID, len(result.Constraints), time.Since(runStart), pruneErr)
	if pruneErr != nil {
		// Deadline exhaustion: the partial accumulation is still returned.
		return result, pruneErr
	}

	if data, err := json.Marshal(result.Document()); err == nil {
		if err := r.Cache.Set(ctx, key, data, resultCacheTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "result", len(data))
		}
	}
	return result, nil
}

// load parses and validates the example trees.
func (r *Runner) load(input []byte, opts Options) ([]*layout.View, error) {
	var doc inputDoc
	if err := json.Unmarshal(input, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed input document")
	}

	docs := doc.Examples
	if layout.Format(opts.InputFormat) == layout.FormatBench {
		docs = doc.Train
	}
	loader := layout.NewLoader(layout.Format(opts.InputFormat), layout.Domain(opts.NumericType))
	examples, err := loader.LoadAll(docs)
	if err != nil {
		return nil, err
	}
	if opts.NumExamples > 0 && opts.NumExamples < len(examples) {
		examples = examples[:opts.NumExamples]
	}
	return examples, nil
}

// learn runs the configured learner and flattens its per-template lists.
func (r *Runner) learn(ctx context.Context, templates []constraint.Constraint,
	examples []*layout.View, opts Options) ([]constraint.Candidate, error) {

	cfg := opts.learnConfig(examples)
	var learner learn.Learner
	switch learn.Method(opts.LearningMethod) {
	case learn.MethodSimple:
		learner = learn.NewSimple(templates, examples, cfg)
	case learn.MethodHeuristic:
		learner = learn.NewHeuristic(templates, examples, cfg)
	default:
		nt := learn.NewNoiseTolerant(templates, examples, cfg)
		nt.Workers = opts.Workers
		learner = nt
	}

	lists, err := learner.Learn(ctx)
	if err != nil {
		return nil, err
	}
	var out []constraint.Candidate
	for _, list := range lists {
		out = append(out, list...)
	}
	return out, nil
}

// pruner builds the configured pruning strategy.
func (r *Runner) pruner(examples []*layout.View, opts Options) prune.Pruner {
	bounds := opts.pruneBounds()
	switch prune.Method(opts.PruningMethod) {
	case prune.MethodNone:
		return prune.PassThrough{}
	case prune.MethodBaseline:
		return prune.NewBlackBox(examples, bounds, r.Factory, r.Logger)
	default:
		return prune.NewHierarchical(examples, bounds, r.Factory, r.Logger)
	}
}

func formatValuations(vals map[string]num.Rat) map[string]string {
	out := make(map[string]string, len(vals))
	for k, v := range vals {
		out[k] = num.Format(v)
	}
	return out
}
