package cluster

import (
	"strings"
	"sync"

	"github.com/go-sif/sifplan/logging"
	"github.com/go-sif/sifplan/platform"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

var requiredProperties = []string{
	"cluster.master",
	"cluster.app.name",
}

var optionalProperties = []string{
	"cluster.executor.memory",
	"cluster.executor.options",
	"cluster.event_log.enabled",
	"cluster.event_log.dir",
	"cluster.serializer",
	"cluster.local.dir",
	"cluster.log_conf",
}

// Session is the connection to a cluster. There is at most one open Session per process, shared
// by every executor. It is configured by the Job which creates it, and only that Job closes it.
type Session struct {
	id         uuid.UUID
	creator    uuid.UUID
	properties map[string]string
	udfPaths   []string
	closed     bool
}

var (
	sessionLock sync.Mutex
	session     *Session
)

// AcquireSession returns the open Session, creating it from the configuration of the Job if
// there is none. The configuration of a Job reusing an open Session is ignored. Non-local
// Sessions ship the user function artifacts of the Job to the cluster.
func AcquireSession(job *platform.Job) (*Session, error) {
	sessionLock.Lock()
	defer sessionLock.Unlock()
	if session != nil {
		logging.Logger().Warn("there is already a cluster session, which will be reused. Not all settings might be effective.",
			zap.String("session", session.id.String()), zap.String("master", session.properties["cluster.master"]))
	} else {
		s, err := createSession(job)
		if err != nil {
			return nil, err
		}
		session = s
	}
	session.udfPaths = nil
	if !session.isLocal() {
		if len(job.UDFPaths) == 0 {
			logging.Logger().Warn("non-local cluster session but no UDF artifacts have been declared", zap.String("job", job.ID.String()))
		} else {
			session.udfPaths = append(session.udfPaths, job.UDFPaths...)
		}
	}
	return session, nil
}

func createSession(job *platform.Job) (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	s := &Session{id: id, creator: job.ID, properties: make(map[string]string)}
	for _, property := range requiredProperties {
		val, err := job.Config.GetString(property)
		if err != nil {
			return nil, err
		}
		s.properties[property] = val
	}
	for _, property := range optionalProperties {
		if val, ok := job.Config.GetOptionalString(property); ok {
			s.properties[property] = val
		}
	}
	logging.Logger().Info("created cluster session",
		zap.String("session", id.String()), zap.String("master", s.properties["cluster.master"]), zap.String("app", s.properties["cluster.app.name"]))
	return s, nil
}

// ReleaseSession closes a Session if the Job created it. The next AcquireSession creates a new one.
func ReleaseSession(job *platform.Job, s *Session) {
	sessionLock.Lock()
	defer sessionLock.Unlock()
	if session != s || s.creator != job.ID {
		return
	}
	s.closed = true
	session = nil
	logging.Logger().Info("closed cluster session", zap.String("session", s.id.String()))
}

// CurrentSession returns the open Session, or nil
func CurrentSession() *Session {
	sessionLock.Lock()
	defer sessionLock.Unlock()
	return session
}

// ID returns the unique ID of this Session
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Property returns a property this Session was configured with
func (s *Session) Property(key string) (string, bool) {
	sessionLock.Lock()
	defer sessionLock.Unlock()
	val, ok := s.properties[key]
	return val, ok
}

// UDFPaths returns the user function artifacts shipped to the cluster for the current Job
func (s *Session) UDFPaths() []string {
	sessionLock.Lock()
	defer sessionLock.Unlock()
	return append([]string(nil), s.udfPaths...)
}

// IsClosed returns true iff this Session has been closed
func (s *Session) IsClosed() bool {
	sessionLock.Lock()
	defer sessionLock.Unlock()
	return s.closed
}

func (s *Session) isLocal() bool {
	return strings.HasPrefix(s.properties["cluster.master"], "local")
}
