package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-sif/sifplan/logging"
	"go.uber.org/zap"
)

// Parser reads every element of a stream of data. path is only used to describe errors.
type Parser interface {
	ReadAll(r io.Reader, path string) ([]interface{}, error)
}

// DataSource is a set of files containing the elements of a dataset
type DataSource struct {
	glob string
}

// CreateDataSource is a factory for DataSources. The glob may also name a directory, in which
// case every visible regular file directly inside it is read.
func CreateDataSource(glob string) *DataSource {
	return &DataSource{glob: glob}
}

// Analyze returns the paths of the files making up this DataSource, in lexical order
func (fs *DataSource) Analyze() ([]string, error) {
	matches, err := filepath.Glob(fs.glob)
	if err != nil {
		return nil, err
	}
	var toRead []string
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			toRead = append(toRead, path)
			continue
		}
		files, err := listDir(path)
		if err != nil {
			return nil, err
		}
		toRead = append(toRead, files...)
	}
	if len(toRead) == 0 {
		return nil, fmt.Errorf("glob %s produced 0 files", fs.glob)
	}
	sort.Strings(toRead)
	return toRead, nil
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") && !strings.HasPrefix(e.Name(), "_") {
			res = append(res, filepath.Join(dir, e.Name()))
		}
	}
	return res, nil
}

// Load reads every element of every file of this DataSource
func (fs *DataSource) Load(parser Parser) ([]interface{}, error) {
	paths, err := fs.Analyze()
	if err != nil {
		return nil, err
	}
	var res []interface{}
	for _, path := range paths {
		values, err := loadFile(parser, path)
		if err != nil {
			return nil, err
		}
		res = append(res, values...)
	}
	return res, nil
}

func loadFile(parser Parser, path string) ([]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Logger().Warn("couldn't close file", zap.String("path", path), zap.Error(err))
		}
	}()
	return parser.ReadAll(f, path)
}

// Size returns the total size in bytes of the files of this DataSource
func (fs *DataSource) Size() (int64, error) {
	paths, err := fs.Analyze()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// Size returns the total size in bytes of the files named by a glob or directory
func Size(glob string) (int64, error) {
	return CreateDataSource(glob).Size()
}
