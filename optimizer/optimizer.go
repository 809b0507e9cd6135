package optimizer

import (
	"github.com/cockroachdb/errors"
	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/cost"
	serrors "github.com/go-sif/sifplan/errors"
	"github.com/go-sif/sifplan/internal/stats"
	iutil "github.com/go-sif/sifplan/internal/util"
	"github.com/go-sif/sifplan/logging"
	"github.com/go-sif/sifplan/metrics"
	"github.com/go-sif/sifplan/plan"
	"github.com/go-sif/sifplan/platform"
	"github.com/google/btree"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Options configures a plan enumeration
type Options struct {
	Config           *config.Configuration // defaults to config.Default()
	Converter        *cost.Converter       // defaults to a Converter built from Config
	ChannelCacheSize int                   // defaults to the optimizer.channel_cache.size property
}

// Result is the outcome of a successful plan enumeration
type Result struct {
	Plan       *plan.Plan           // the FullyBound plan
	Cost       sifplan.LoadEstimate // the estimated cost of running Plan
	Steps      int                  // the number of replacements applied, including those of loop bodies
	Statistics sifplan.EnumerationStatistics
}

// enumerator holds the state of one enumeration. It is never shared across goroutines.
type enumerator struct {
	snapshot *platform.Snapshot
	conf     *config.Configuration
	conv     *cost.Converter
	channels *lru.Cache[channelKey, *plan.Channel]
}

// Optimize binds every logical Operator of a Plan to an execution platform of a Snapshot,
// modifying the Plan in place. Loop bodies are optimized before their heads. Each step applies
// the globally cheapest candidate replacement, so the Plan becomes FullyBound within at most as
// many steps as it has logical Operators, or Optimize fails with an UnsatisfiableError.
func Optimize(p *plan.Plan, snapshot *platform.Snapshot, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	conf := opts.Config
	if conf == nil {
		conf = config.Default()
	}
	conv := opts.Converter
	if conv == nil {
		conv = cost.NewConverter(conf)
	}
	size := opts.ChannelCacheSize
	if size <= 0 {
		size = int(conf.GetInt64("optimizer.channel_cache.size", 1024))
	}
	channels, err := lru.New[channelKey, *plan.Channel](size)
	if err != nil {
		return nil, err
	}
	e := &enumerator{snapshot: snapshot, conf: conf, conv: conv, channels: channels}
	st := &stats.EnumerationStatistics{}
	st.Start()
	err = e.enumerate(p, st)
	elapsed := st.Finish()
	metrics.EnumerationLatency.Observe(elapsed.Seconds())
	if err != nil {
		return nil, err
	}
	total, err := e.planCost(p)
	if err != nil {
		return nil, err
	}
	logging.Logger().Debug("optimized plan",
		zap.Int("steps", st.GetSteps()), zap.Int("candidates", st.GetCandidates()),
		zap.Float64("cost", total.Value), zap.Duration("elapsed", elapsed))
	return &Result{Plan: p, Cost: total, Steps: st.GetSteps(), Statistics: st}, nil
}

func (e *enumerator) enumerate(p *plan.Plan, st *stats.EnumerationStatistics) error {
	for _, op := range p.LogicalOperators() {
		body := op.Body()
		if body == nil || body.BindingState() == plan.FullyBound {
			continue
		}
		nested := &stats.EnumerationStatistics{}
		if err := e.enumerate(body, nested); err != nil {
			return err
		}
		st.Merge(nested)
	}
	remaining := len(p.LogicalOperators())
	for remaining > 0 {
		st.StartStep()
		chosen, err := e.step(p, st)
		if err != nil {
			return err
		}
		left := len(p.LogicalOperators())
		if left >= remaining {
			return errors.AssertionFailedf("applying %s left %d logical operators instead of fewer than %d", chosen, left, remaining)
		}
		remaining = left
		if err := e.resolveChannels(p); err != nil {
			return err
		}
		st.EndStep()
		metrics.OptimizerStepsCounter.WithLabelValues(chosen.platform()).Inc()
		logging.Logger().Debug("applied replacement",
			zap.String("candidate", chosen.String()), zap.Int("logical", remaining), zap.String("state", string(p.BindingState())))
	}
	if err := e.resolveChannels(p); err != nil {
		return err
	}
	e.refineChannels(p)
	if state := p.BindingState(); state != plan.FullyBound {
		return serrors.NotFullyBoundError{State: string(state)}
	}
	return nil
}

// step applies the cheapest applicable replacement to a Plan
func (e *enumerator) step(p *plan.Plan, st *stats.EnumerationStatistics) (*candidate, error) {
	cards := cost.EstimateCardinalities(p, e.conf)
	queue := btree.NewG[*candidate](2, lessCandidate)
	covered := make(map[int64]bool)
	var rejected error
	for mi, m := range e.snapshot.MappingsFor(p) {
		for _, match := range m.Match(p) {
			for _, op := range match.Operators() {
				covered[op.ID()] = true
			}
			subplans, err := m.Candidates(match, e.conf)
			if err != nil {
				rejected = multierror.Append(rejected, errors.Wrapf(err, "mapping %s", m))
				e.reject(st, metrics.FactoryErrorReason)
				continue
			}
			for ci, sp := range subplans {
				c := &candidate{
					mapping:        m,
					match:          match,
					subplan:        sp,
					platformIndex:  e.snapshot.Index(m.Platform()),
					mappingIndex:   mi,
					candidateIndex: ci,
				}
				st.AddCandidates(1)
				metrics.OptimizerCandidatesCounter.WithLabelValues(m.Platform()).Inc()
				if err := e.estimate(c, cards); err != nil {
					rejected = multierror.Append(rejected, errors.Wrapf(err, "candidate %d of mapping %s at %s", ci, m, match.Anchor()))
					var incompatible serrors.NoCompatibleChannelError
					if errors.As(err, &incompatible) {
						e.reject(st, metrics.NoCompatibleChannelReason)
					} else {
						e.reject(st, metrics.FactoryErrorReason)
					}
					continue
				}
				queue.ReplaceOrInsert(c)
			}
		}
	}
	var chosen *candidate
	queue.Ascend(func(c *candidate) bool {
		if err := p.ReplaceSubplan(c.match.Operators(), c.subplan); err != nil {
			rejected = multierror.Append(rejected, errors.Wrapf(err, "candidate %s", c))
			e.reject(st, metrics.ReplacementErrorReason)
			return true
		}
		chosen = c
		return false
	})
	if chosen == nil {
		return nil, e.unsatisfiable(p, covered, rejected)
	}
	return chosen, nil
}

func (e *enumerator) reject(st *stats.EnumerationStatistics, reason string) {
	st.AddRejection()
	metrics.OptimizerRejectionsCounter.WithLabelValues(reason).Inc()
}

// unsatisfiable names the first logical Operator which no mapping matched, or the first logical
// Operator if every one was matched but all of their candidates were rejected
func (e *enumerator) unsatisfiable(p *plan.Plan, covered map[int64]bool, rejected error) error {
	logical := p.LogicalOperators()
	stranded := logical[0]
	for _, op := range logical {
		if !covered[op.ID()] {
			stranded = op
			break
		}
	}
	if merr, ok := rejected.(*multierror.Error); ok {
		merr.ErrorFormat = iutil.FormatMultiError
		logging.Logger().Debug("every candidate was rejected", zap.Int("rejections", merr.Len()))
	}
	return serrors.UnsatisfiableError{OperatorID: stranded.ID(), Operator: stranded.String(), Cause: rejected}
}
