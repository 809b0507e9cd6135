// Package metrics holds the prometheus collectors of the optimizer and the executor driver.
// They are registered on a private registry, which embedding applications may expose or gather.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "sifplan"

	optimizerSubsystem = "optimizer"
	executorSubsystem  = "executor"

	platformLabelName = "platform"
	reasonLabelName   = "reason"
	statusLabelName   = "status"

	// SuccessStatusLabel marks a Stage which completed
	SuccessStatusLabel = "success"
	// FailStatusLabel marks a Stage which returned an error
	FailStatusLabel = "fail"

	// NoCompatibleChannelReason marks candidates whose boundary edges could not be negotiated
	NoCompatibleChannelReason = "no_compatible_channel"
	// FactoryErrorReason marks mappings whose factory failed
	FactoryErrorReason = "factory_error"
	// ReplacementErrorReason marks candidates the plan refused to substitute
	ReplacementErrorReason = "replacement_error"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
	buckets      = prometheus.ExponentialBuckets(0.0001, 2, 18)

	// OptimizerStepsCounter counts the replacements applied to plans, by platform of the replacement
	OptimizerStepsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: optimizerSubsystem,
			Name:      "steps_total",
			Help:      "replacements applied to plans",
		}, []string{platformLabelName})

	// OptimizerCandidatesCounter counts the candidate replacements costed, by platform
	OptimizerCandidatesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: optimizerSubsystem,
			Name:      "candidates_total",
			Help:      "candidate replacements costed",
		}, []string{platformLabelName})

	// OptimizerRejectionsCounter counts the candidate replacements discarded, by reason
	OptimizerRejectionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: optimizerSubsystem,
			Name:      "rejections_total",
			Help:      "candidate replacements discarded",
		}, []string{reasonLabelName})

	// EnumerationLatency observes the duration of whole plan enumerations, in seconds
	EnumerationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: optimizerSubsystem,
			Name:      "enumeration_latency_seconds",
			Help:      "duration of plan enumerations",
			Buckets:   buckets,
		})

	// StagesCounter counts executed Stages, by platform and status
	StagesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: executorSubsystem,
			Name:      "stages_total",
			Help:      "executed stages",
		}, []string{platformLabelName, statusLabelName})

	// StageLatency observes the duration of Stages, in seconds, by platform
	StageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: executorSubsystem,
			Name:      "stage_latency_seconds",
			Help:      "duration of stages",
			Buckets:   buckets,
		}, []string{platformLabelName})
)

// Registry returns the registry holding every collector of this package
func Registry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(OptimizerStepsCounter)
		registry.MustRegister(OptimizerCandidatesCounter)
		registry.MustRegister(OptimizerRejectionsCounter)
		registry.MustRegister(EnumerationLatency)
		registry.MustRegister(StagesCounter)
		registry.MustRegister(StageLatency)
	})
	return registry
}
