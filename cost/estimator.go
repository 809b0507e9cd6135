package cost

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/errors"
	"github.com/go-sif/sifplan/logging"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// EstimatorConf holds the parameters shared by every LoadEstimator
type EstimatorConf struct {
	CorrectionFactor float64 // multiplies every estimated value. Defaults to 1. Must not be negative.
	Confidence       float64 // confidence in [0,1] attached to every estimate
}

func (c EstimatorConf) validate() error {
	if c.CorrectionFactor < 0 {
		return errors.InvalidEstimatorError{Reason: fmt.Sprintf("correction factor %f is negative", c.CorrectionFactor)}
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return errors.InvalidEstimatorError{Reason: fmt.Sprintf("confidence %f is not in [0,1]", c.Confidence)}
	}
	return nil
}

func (c EstimatorConf) correction() float64 {
	if c.CorrectionFactor == 0 {
		return 1
	}
	return c.CorrectionFactor
}

// ConstantEstimator estimates the same load regardless of cardinalities
type ConstantEstimator struct {
	value float64
	conf  EstimatorConf
}

// NewConstantEstimator creates a ConstantEstimator
func NewConstantEstimator(value float64, conf EstimatorConf) (*ConstantEstimator, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	if value < 0 {
		return nil, errors.InvalidEstimatorError{Reason: fmt.Sprintf("constant load %f is negative", value)}
	}
	return &ConstantEstimator{value: value, conf: conf}, nil
}

// Estimate implements sifplan.LoadEstimator
func (e *ConstantEstimator) Estimate(inputCards []int64, outputCards []int64) sifplan.LoadEstimate {
	return sifplan.LoadEstimate{Value: e.value * e.conf.correction(), Confidence: e.conf.Confidence}
}

// LinearConf configures a LinearEstimator, which estimates
// Constant + sum(InputCoefficients[i] * in[i]) + sum(OutputCoefficients[j] * out[j])
type LinearConf struct {
	EstimatorConf
	Constant           float64
	InputCoefficients  []float64 // per input slot. Cardinalities without a coefficient are ignored.
	OutputCoefficients []float64 // per output slot. Cardinalities without a coefficient are ignored.
}

// LinearEstimator estimates a load which is linear in the input and output cardinalities
type LinearEstimator struct {
	conf LinearConf
}

// NewLinearEstimator creates a LinearEstimator. Coefficients must not be negative.
func NewLinearEstimator(conf LinearConf) (*LinearEstimator, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	if conf.Constant < 0 {
		return nil, errors.InvalidEstimatorError{Reason: fmt.Sprintf("constant term %f is negative", conf.Constant)}
	}
	for _, coefficients := range [][]float64{conf.InputCoefficients, conf.OutputCoefficients} {
		for i, c := range coefficients {
			if c < 0 {
				return nil, errors.InvalidEstimatorError{Reason: fmt.Sprintf("coefficient %d (%f) is negative", i, c)}
			}
		}
	}
	conf.InputCoefficients = append([]float64(nil), conf.InputCoefficients...)
	conf.OutputCoefficients = append([]float64(nil), conf.OutputCoefficients...)
	return &LinearEstimator{conf: conf}, nil
}

// MustLinear creates a LinearEstimator, panicking on invalid parameters.
// It is intended for static estimator tables.
func MustLinear(conf LinearConf) *LinearEstimator {
	e, err := NewLinearEstimator(conf)
	if err != nil {
		panic(err)
	}
	return e
}

// Estimate implements sifplan.LoadEstimator
func (e *LinearEstimator) Estimate(inputCards []int64, outputCards []int64) sifplan.LoadEstimate {
	value := e.conf.Constant + weightedSum(e.conf.InputCoefficients, inputCards) + weightedSum(e.conf.OutputCoefficients, outputCards)
	return sifplan.LoadEstimate{Value: value * e.conf.correction(), Confidence: e.conf.Confidence}
}

func weightedSum(coefficients []float64, cards []int64) float64 {
	sum := 0.0
	for i, c := range coefficients {
		if i < len(cards) {
			sum += c * float64(nonNegative(cards[i]))
		}
	}
	return sum
}

func nonNegative(card int64) int64 {
	if card < 0 {
		return 0
	}
	return card
}

// SizeProbe determines the size in bytes of the data at a path
type SizeProbe func(path string) (int64, error)

// StatSize is the default SizeProbe, which stats a local file
func StatSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// FileSizeConf configures a FileSizeEstimator
type FileSizeConf struct {
	EstimatorConf
	Path               string    // the file whose size is estimated
	Probe              SizeProbe // determines the size of Path. Defaults to StatSize.
	BytesPerRecord     float64   // fallback bytes per output record. Defaults to 100.
	FallbackConfidence float64   // confidence of the fallback estimate. Defaults to 0.5.
}

// FileSizeEstimator estimates the load of reading a file from its size. When the size
// cannot be determined, it falls back to an estimate derived from the output cardinality,
// with a lower confidence.
type FileSizeEstimator struct {
	conf      FileSizeConf
	probeOnce sync.Once
	size      int64
	probeErr  error
}

// warnedPaths remembers the paths whose size could not be determined, so that each one is
// reported once at Warn level
var warnedPaths, _ = lru.New[string, struct{}](1024)

// NewFileSizeEstimator creates a FileSizeEstimator
func NewFileSizeEstimator(conf FileSizeConf) (*FileSizeEstimator, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	if conf.Probe == nil {
		conf.Probe = StatSize
	}
	if conf.BytesPerRecord == 0 {
		conf.BytesPerRecord = 100
	}
	if conf.BytesPerRecord < 0 {
		return nil, errors.InvalidEstimatorError{Reason: fmt.Sprintf("bytes per record %f is negative", conf.BytesPerRecord)}
	}
	if conf.FallbackConfidence == 0 {
		conf.FallbackConfidence = 0.5
	}
	if conf.FallbackConfidence < 0 || conf.FallbackConfidence > 1 {
		return nil, errors.InvalidEstimatorError{Reason: fmt.Sprintf("fallback confidence %f is not in [0,1]", conf.FallbackConfidence)}
	}
	return &FileSizeEstimator{conf: conf}, nil
}

// Estimate implements sifplan.LoadEstimator
// The size is probed on first use only.
func (e *FileSizeEstimator) Estimate(inputCards []int64, outputCards []int64) sifplan.LoadEstimate {
	e.probeOnce.Do(func() {
		e.size, e.probeErr = e.conf.Probe(e.conf.Path)
		if e.probeErr == nil && e.size < 0 {
			e.probeErr = fmt.Errorf("negative size %d", e.size)
		}
		if e.probeErr == nil {
			return
		}
		if seen, _ := warnedPaths.ContainsOrAdd(e.conf.Path, struct{}{}); seen {
			logging.Logger().Debug("unable to determine file size, estimating from cardinality",
				zap.String("path", e.conf.Path), zap.Error(e.probeErr))
			return
		}
		logging.Logger().Warn("unable to determine file size, estimating from cardinality",
			zap.String("path", e.conf.Path), zap.Error(e.probeErr))
	})
	if e.probeErr == nil {
		return sifplan.LoadEstimate{Value: float64(e.size) * e.conf.correction(), Confidence: e.conf.Confidence}
	}
	var records int64
	for _, card := range outputCards {
		records += nonNegative(card)
	}
	return sifplan.LoadEstimate{
		Value:      float64(records) * e.conf.BytesPerRecord * e.conf.correction(),
		Confidence: e.conf.FallbackConfidence,
	}
}
