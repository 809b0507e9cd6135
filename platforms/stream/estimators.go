package stream

import (
	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/cost"
	"github.com/go-sif/sifplan/datasource/file"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/plan"
)

// cpuModel is the CPU load of a stream operator: constant + per-input + per-output cycles
type cpuModel struct {
	constant float64
	in       []float64
	out      []float64
}

var cpuModels = map[sifplan.OperatorKind]cpuModel{
	sifplan.CollectionSourceKind:    {constant: 50000, out: []float64{400}},
	sifplan.TextFileSourceKind:      {constant: 600000, out: []float64{1000}},
	sifplan.MapKind:                 {in: []float64{700}},
	sifplan.FlatMapKind:             {in: []float64{800}, out: []float64{300}},
	sifplan.FilterKind:              {in: []float64{500}},
	sifplan.ReduceKind:              {in: []float64{1200}},
	sifplan.GlobalReduceKind:        {in: []float64{600}},
	sifplan.ReduceByKind:            {in: []float64{2500}},
	sifplan.GroupByKind:             {in: []float64{2000}},
	sifplan.MaterializedGroupByKind: {in: []float64{2200}},
	sifplan.CountKind:               {in: []float64{100}},
	sifplan.DistinctKind:            {in: []float64{1800}},
	sifplan.SortKind:                {in: []float64{3000}},
	sifplan.UnionAllKind:            {in: []float64{100, 100}},
	sifplan.CartesianKind:           {out: []float64{300}},
	sifplan.JoinKind:                {in: []float64{2000, 2000}, out: []float64{500}},
	sifplan.SampleKind:              {in: []float64{100}},
	sifplan.LoopKind:                {constant: 10000, in: []float64{50}},
	sifplan.DoWhileKind:             {constant: 10000, in: []float64{150}},
	sifplan.LocalCallbackSinkKind:   {in: []float64{300}},
}

// estimatorFor returns the estimator of the stream implementation of a kind
func estimatorFor(kind sifplan.OperatorKind) mapping.EstimatorFunc {
	return func(logical *plan.Operator, conf *config.Configuration) sifplan.ProfileEstimator {
		m := cpuModels[kind]
		confidence := conf.GetFloat64("stream.estimator.confidence", 0.9)
		cpu := cost.MustLinear(cost.LinearConf{
			EstimatorConf:      cost.EstimatorConf{Confidence: confidence},
			Constant:           m.constant,
			InputCoefficients:  m.in,
			OutputCoefficients: m.out,
		})
		if kind == sifplan.TextFileSourceKind {
			return cost.NewProfileEstimator(cpu, fileSize(logical.Properties().Path), nil)
		}
		return cost.NewProfileEstimator(cpu, nil, nil)
	}
}

// tsvEstimator estimates reading a TSV file. Its CPU load has not been measured.
func tsvEstimator(logical *plan.Operator, conf *config.Configuration) sifplan.ProfileEstimator {
	cpu := cost.MustLinear(cost.LinearConf{
		EstimatorConf:      cost.EstimatorConf{Confidence: conf.GetFloat64("stream.estimator.tsv.confidence", 0.99)},
		Constant:           1400000,
		OutputCoefficients: []float64{1500},
	})
	return cost.NewProfileEstimator(cpu, fileSize(logical.Properties().Path), nil)
}

// fileSize estimates the disk load of reading the files at a path from their total size
func fileSize(path string) sifplan.LoadEstimator {
	e, err := cost.NewFileSizeEstimator(cost.FileSizeConf{
		EstimatorConf: cost.EstimatorConf{Confidence: 1},
		Path:          path,
		Probe:         file.Size,
	})
	if err != nil {
		// the configuration above is constant and valid
		panic(err)
	}
	return e
}
