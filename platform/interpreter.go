package platform

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/datasource/file"
	"github.com/go-sif/sifplan/datasource/parser/jsonl"
	"github.com/go-sif/sifplan/datasource/parser/text"
	"github.com/go-sif/sifplan/datasource/parser/tsv"
	iutil "github.com/go-sif/sifplan/internal/util"
	"github.com/go-sif/sifplan/logging"
	"github.com/go-sif/sifplan/plan"
	"go.uber.org/zap"
)

// Interpreter runs execution Operators one at a time on behalf of an Executor. Sources and
// operators without user functions are evaluated directly, while everything else is delegated
// to the OperatorRunner of the Job.
type Interpreter struct {
	job *Job
}

// NewInterpreter creates an Interpreter for a Job
func NewInterpreter(job *Job) *Interpreter {
	return &Interpreter{job: job}
}

// Run evaluates one Operator of a Stage, reading its inputs from and publishing its outputs
// to the Exchange of the Job
func (it *Interpreter) Run(ctx context.Context, op *plan.Operator) error {
	inputs, err := it.job.Exchange.Inputs(op)
	if err != nil {
		return err
	}
	outputs, err := it.Apply(ctx, op, inputs)
	if err != nil {
		return err
	}
	return it.job.Exchange.Outputs(op, outputs)
}

// Apply evaluates one Operator on the given input datasets, producing one dataset per output slot
func (it *Interpreter) Apply(ctx context.Context, op *plan.Operator, inputs [][]interface{}) ([][]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	props := op.Properties()
	switch op.Kind() {
	case sifplan.CollectionSourceKind:
		return single(props.Collection), nil
	case sifplan.TextFileSourceKind:
		var parser file.Parser
		if props.Format == "jsonl" {
			parser = jsonl.CreateParser(&jsonl.ParserConf{Fields: props.Fields})
		} else {
			parser = text.CreateParser(&text.ParserConf{})
		}
		values, err := file.CreateDataSource(props.Path).Load(parser)
		return single(values), err
	case sifplan.TsvFileSourceKind:
		parser := tsv.CreateParser(&tsv.ParserConf{Element: op.Output(0).Type().Element})
		values, err := file.CreateDataSource(props.Path).Load(parser)
		return single(values), err
	case sifplan.CountKind:
		return single([]interface{}{int64(len(inputs[0]))}), nil
	case sifplan.UnionAllKind:
		res := make([]interface{}, 0, len(inputs[0])+len(inputs[1]))
		return single(append(append(res, inputs[0]...), inputs[1]...)), nil
	case sifplan.CartesianKind:
		res := make([]interface{}, 0, len(inputs[0])*len(inputs[1]))
		for _, l := range inputs[0] {
			for _, r := range inputs[1] {
				res = append(res, sifplan.Record{l, r})
			}
		}
		return single(res), nil
	case sifplan.DistinctKind:
		return single(distinct(inputs[0])), nil
	case sifplan.SampleKind:
		return single(it.sample(op, inputs[0])), nil
	case sifplan.LoopKind, sifplan.DoWhileKind:
		res, err := it.runLoop(ctx, op, inputs[0])
		return single(res), err
	default:
		return it.delegate(ctx, op, inputs)
	}
}

func single(values []interface{}) [][]interface{} {
	return [][]interface{}{values}
}

// delegate hands an Operator with user functions to the OperatorRunner of the Job
func (it *Interpreter) delegate(ctx context.Context, op *plan.Operator, inputs [][]interface{}) ([][]interface{}, error) {
	if it.job.Runner == nil {
		return nil, fmt.Errorf("%s needs an OperatorRunner to apply its user functions", op)
	}
	var outputs [][]interface{}
	err := iutil.SafeOperation(op, func() (err error) {
		outputs, err = it.job.Runner.Run(ctx, op, inputs)
		return
	})
	return outputs, err
}

// sample draws SampleSize elements. Bernoulli and random samplers use the sample.seed property,
// and every other sampler takes the leading elements.
func (it *Interpreter) sample(op *plan.Operator, values []interface{}) []interface{} {
	size := int(op.Properties().SampleSize)
	if size < 0 || size >= len(values) {
		return values
	}
	rng := rand.New(rand.NewSource(it.job.Config.GetInt64("sample.seed", 42)))
	impl := op.Implementation()
	switch {
	case strings.HasSuffix(impl, "bernoulli_sample"):
		fraction := float64(size) / float64(len(values))
		var res []interface{}
		for _, v := range values {
			if rng.Float64() < fraction {
				res = append(res, v)
			}
		}
		return res
	case strings.HasSuffix(impl, "random_sample"):
		res := make([]interface{}, size)
		for i, idx := range rng.Perm(len(values))[:size] {
			res[i] = values[idx]
		}
		return res
	default:
		return append([]interface{}(nil), values[:size]...)
	}
}

// runLoop repeats the body of a loop head, feeding the output of each iteration into the next.
// A do-while head asks the OperatorRunner to evaluate its condition after every iteration, as
// a single boolean element.
func (it *Interpreter) runLoop(ctx context.Context, head *plan.Operator, input []interface{}) ([]interface{}, error) {
	body := head.Body()
	if body == nil {
		return nil, fmt.Errorf("%s has no body", head)
	}
	order := body.TopologicalOrder()
	ins, outs := plan.ExternalSlots(order)
	if len(ins) != 1 || len(outs) != 1 {
		return nil, fmt.Errorf("the body of %s must have exactly one open input and one open output", head)
	}
	maxIterations := int(it.job.Config.GetInt64("loop.max_iterations", 10000))
	current := input
	for i := 0; ; i++ {
		if head.Kind() == sifplan.LoopKind && i >= head.Properties().Iterations {
			return current, nil
		}
		if i >= maxIterations {
			return nil, fmt.Errorf("%s exceeded %d iterations", head, maxIterations)
		}
		produced := make(map[*plan.OutputSlot][]interface{}, len(order))
		for _, op := range order {
			inputs := make([][]interface{}, op.NumInputs())
			for j, in := range op.Inputs() {
				if in == ins[0] {
					inputs[j] = current
				} else {
					inputs[j] = produced[in.Occupant()]
				}
			}
			outputs, err := it.Apply(ctx, op, inputs)
			if err != nil {
				return nil, err
			}
			if len(outputs) != op.NumOutputs() {
				return nil, fmt.Errorf("%s produced %d datasets for %d outputs", op, len(outputs), op.NumOutputs())
			}
			for j, out := range op.Outputs() {
				produced[out] = outputs[j]
			}
		}
		current = produced[outs[0]]
		logging.Logger().Debug("finished loop iteration", zap.String("loop", head.String()), zap.Int("iteration", i+1), zap.Int("records", len(current)))
		if head.Kind() == sifplan.DoWhileKind {
			proceed, err := it.condition(ctx, head, current)
			if err != nil {
				return nil, err
			}
			if !proceed {
				return current, nil
			}
		}
	}
}

func (it *Interpreter) condition(ctx context.Context, head *plan.Operator, current []interface{}) (bool, error) {
	outputs, err := it.delegate(ctx, head, single(current))
	if err != nil {
		return false, err
	}
	if len(outputs) != 1 || len(outputs[0]) != 1 {
		return false, fmt.Errorf("the condition of %s must produce a single element", head)
	}
	proceed, ok := outputs[0][0].(bool)
	if !ok {
		return false, fmt.Errorf("the condition of %s produced %T instead of a bool", head, outputs[0][0])
	}
	return proceed, nil
}
