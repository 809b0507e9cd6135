package filechannel

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/docker/docker/pkg/locker"
)

// Store keeps the contents of file channels in a directory, one file per key.
// Keys are locked individually, so different channels may be written concurrently.
type Store struct {
	dir   string
	codec Codec
	locks *locker.Locker
}

// NewStore creates a Store, creating dir if necessary
func NewStore(dir string, codec Codec) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "unable to create file channel directory %s", dir)
	}
	return &Store{dir: dir, codec: codec, locks: locker.New()}, nil
}

// Dir returns the directory of this Store
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+"."+string(s.codec))
}

// Put writes the values of a channel, replacing any previous contents
func (s *Store) Put(key string, values []interface{}) (err error) {
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	f, err := os.Create(s.path(key))
	if err != nil {
		return errors.Wrapf(err, "unable to create file channel %s", key)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "unable to close file channel %s", key)
		}
	}()
	w, err := NewWriter(f, s.codec)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := w.Write(v); err != nil {
			_ = w.Close()
			return errors.Wrapf(err, "unable to write file channel %s", key)
		}
	}
	return w.Close()
}

// Get reads back all values of a channel
func (s *Store) Get(key string) ([]interface{}, error) {
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file channel %s", key)
	}
	defer f.Close()
	r, err := NewReader(f, s.codec)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	values, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read file channel %s", key)
	}
	return values, nil
}

// Delete removes the file of a channel, if it exists
func (s *Store) Delete(key string) error {
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "unable to delete file channel %s", key)
	}
	return nil
}
