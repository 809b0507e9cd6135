package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/channel/filechannel"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/logging"
	"github.com/go-sif/sifplan/plan"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// Job is the context in which a FullyBound Plan is executed
type Job struct {
	ID       uuid.UUID
	Name     string
	Config   *config.Configuration
	UDFPaths []string // paths of the artifacts containing the user functions, shipped to distributed platforms
	Runner   OperatorRunner
	Exchange *Exchange
}

// JobOption configures a Job
type JobOption func(j *Job)

// WithUDFPaths declares the artifacts containing the Job's user functions
func WithUDFPaths(paths ...string) JobOption {
	return func(j *Job) {
		j.UDFPaths = append(j.UDFPaths, paths...)
	}
}

// NewJob creates a Job. Datasets crossing file channels are spilled to a directory named after
// the Job, under the job.spill.dir property (the system temporary directory by default).
func NewJob(name string, conf *config.Configuration, runner OperatorRunner, opts ...JobOption) (*Job, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	if conf == nil {
		conf = config.Default()
	}
	job := &Job{ID: id, Name: name, Config: conf, Runner: runner}
	for _, opt := range opts {
		opt(job)
	}
	spillRoot, ok := conf.GetOptionalString("job.spill.dir")
	if !ok {
		spillRoot = os.TempDir()
	}
	codec := filechannel.Codec(conf.GetStringOrDefault("job.spill.codec", string(filechannel.LZ4Codec)))
	store, err := filechannel.NewStore(filepath.Join(spillRoot, fmt.Sprintf("sifplan-%s", id.String())), codec)
	if err != nil {
		return nil, err
	}
	job.Exchange = NewExchange(store)
	return job, nil
}

// Close removes any data spilled by this Job
func (j *Job) Close() error {
	if err := os.RemoveAll(j.Exchange.files.Dir()); err != nil {
		return errors.Wrapf(err, "unable to remove spilled data of job %s", j.ID)
	}
	return nil
}

// Exchange hands datasets from producing Operators to consuming Operators, across Stages.
// Edges with a file channel go through a file channel Store, and all other edges stay in memory.
type Exchange struct {
	lock   sync.Mutex
	memory map[*plan.OutputSlot][]interface{}
	files  *filechannel.Store
}

// NewExchange creates an Exchange spilling file channels to a Store
func NewExchange(files *filechannel.Store) *Exchange {
	return &Exchange{memory: make(map[*plan.OutputSlot][]interface{}), files: files}
}

func fileKey(out *plan.OutputSlot) string {
	return fmt.Sprintf("op%d-%s", out.Owner().ID(), out.Name())
}

func isFileChannel(out *plan.OutputSlot) bool {
	c := out.Channel()
	return c != nil && c.Medium == string(channel.FileMedium)
}

// Put publishes the dataset produced on an OutputSlot
func (e *Exchange) Put(out *plan.OutputSlot, values []interface{}) error {
	if isFileChannel(out) {
		logging.Logger().Debug("spilling dataset to file channel",
			zap.String("slot", out.String()), zap.String("channel", out.Channel().Descriptor), zap.Int("records", len(values)))
		return e.files.Put(fileKey(out), values)
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	e.memory[out] = values
	return nil
}

// Get retrieves the dataset flowing into an InputSlot
func (e *Exchange) Get(in *plan.InputSlot) ([]interface{}, error) {
	out := in.Occupant()
	if out == nil {
		return nil, fmt.Errorf("input %s is not connected", in)
	}
	if isFileChannel(out) {
		return e.files.Get(fileKey(out))
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	values, ok := e.memory[out]
	if !ok {
		return nil, fmt.Errorf("no dataset has been produced for %s yet", out)
	}
	return values, nil
}

// Inputs retrieves the datasets flowing into every input slot of an Operator
func (e *Exchange) Inputs(op *plan.Operator) ([][]interface{}, error) {
	res := make([][]interface{}, op.NumInputs())
	for i, in := range op.Inputs() {
		values, err := e.Get(in)
		if err != nil {
			return nil, err
		}
		res[i] = values
	}
	return res, nil
}

// Outputs publishes the datasets produced on every output slot of an Operator
func (e *Exchange) Outputs(op *plan.Operator, outputs [][]interface{}) error {
	if len(outputs) != op.NumOutputs() {
		return fmt.Errorf("%s produced %d datasets for %d outputs", op, len(outputs), op.NumOutputs())
	}
	for i, out := range op.Outputs() {
		if err := e.Put(out, outputs[i]); err != nil {
			return err
		}
	}
	return nil
}
