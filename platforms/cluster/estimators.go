package cluster

import (
	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/cost"
	"github.com/go-sif/sifplan/datasource/file"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/plan"
)

// loadModel is the load of a cluster operator: per-element CPU cycles, spread over the
// workers, plus the bytes shuffled over the network per element
type loadModel struct {
	cpuIn   []float64
	cpuOut  []float64
	shuffle []float64 // bytes per input element
}

var loadModels = map[sifplan.OperatorKind]loadModel{
	sifplan.CollectionSourceKind:    {cpuOut: []float64{100}},
	sifplan.TextFileSourceKind:      {cpuOut: []float64{250}},
	sifplan.MapKind:                 {cpuIn: []float64{175}},
	sifplan.FlatMapKind:             {cpuIn: []float64{200}, cpuOut: []float64{75}},
	sifplan.FilterKind:              {cpuIn: []float64{125}},
	sifplan.GlobalReduceKind:        {cpuIn: []float64{150}, shuffle: []float64{10}},
	sifplan.ReduceByKind:            {cpuIn: []float64{600}, shuffle: []float64{100}},
	sifplan.MaterializedGroupByKind: {cpuIn: []float64{550}, shuffle: []float64{100}},
	sifplan.CountKind:               {cpuIn: []float64{25}},
	sifplan.DistinctKind:            {cpuIn: []float64{450}, shuffle: []float64{100}},
	sifplan.SortKind:                {cpuIn: []float64{750}, shuffle: []float64{100}},
	sifplan.UnionAllKind:            {cpuIn: []float64{25, 25}},
	sifplan.CartesianKind:           {cpuOut: []float64{75}, shuffle: []float64{100, 100}},
	sifplan.LoopKind:                {cpuIn: []float64{15}},
	sifplan.DoWhileKind:             {cpuIn: []float64{40}},
	sifplan.LocalCallbackSinkKind:   {cpuIn: []float64{300}},
}

// sampleModels distinguishes the sampling strategies: a Bernoulli sample scans every element,
// a random sample also counts them first, and a shuffle sample only reads a prefix
var sampleModels = map[string]loadModel{
	"bernoulli_sample": {cpuIn: []float64{30}},
	"random_sample":    {cpuIn: []float64{50}},
	"shuffle_sample":   {cpuIn: []float64{5}, cpuOut: []float64{20}, shuffle: []float64{10}},
}

func linear(confidence float64, in []float64, out []float64) sifplan.LoadEstimator {
	if len(in) == 0 && len(out) == 0 {
		return nil
	}
	return cost.MustLinear(cost.LinearConf{
		EstimatorConf:      cost.EstimatorConf{Confidence: confidence},
		InputCoefficients:  in,
		OutputCoefficients: out,
	})
}

func (m loadModel) estimator(path string, conf *config.Configuration) sifplan.ProfileEstimator {
	confidence := conf.GetFloat64("cluster.estimator.confidence", 0.7)
	var disk sifplan.LoadEstimator
	if path != "" {
		disk = fileSize(path)
	}
	return cost.NewProfileEstimator(
		linear(confidence, m.cpuIn, m.cpuOut),
		disk,
		linear(confidence, m.shuffle, nil),
		cost.WithOverhead(conf.GetFloat64("cluster.estimator.overhead", 3000000)),
	)
}

// estimatorFor returns the estimator of the cluster implementation of a kind
func estimatorFor(kind sifplan.OperatorKind) mapping.EstimatorFunc {
	return func(logical *plan.Operator, conf *config.Configuration) sifplan.ProfileEstimator {
		path := ""
		if kind == sifplan.TextFileSourceKind {
			path = logical.Properties().Path
		}
		return loadModels[kind].estimator(path, conf)
	}
}

func sampleEstimator(strategy string) mapping.EstimatorFunc {
	return func(_ *plan.Operator, conf *config.Configuration) sifplan.ProfileEstimator {
		return sampleModels[strategy].estimator("", conf)
	}
}

func fileSize(path string) sifplan.LoadEstimator {
	e, err := cost.NewFileSizeEstimator(cost.FileSizeConf{
		EstimatorConf: cost.EstimatorConf{Confidence: 1},
		Path:          path,
		Probe:         file.Size,
	})
	if err != nil {
		panic(err)
	}
	return e
}
