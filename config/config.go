package config

import (
	"bytes"
	_ "embed" // embeds defaults.properties
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	serrors "github.com/go-sif/sifplan/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

//go:embed defaults.properties
var defaultProperties []byte

// Configuration is a set of properties controlling cost estimation, platforms and jobs.
// Configurations are safe for concurrent use.
type Configuration struct {
	lock sync.RWMutex
	v    *viper.Viper
}

var (
	defaultConf     *Configuration
	defaultConfOnce sync.Once
)

// Default returns the process-wide default Configuration, loading the core defaults on first use.
// Platforms merge their own defaults into it when they are first initialized.
func Default() *Configuration {
	defaultConfOnce.Do(func() {
		defaultConf = New()
	})
	return defaultConf
}

// New creates a Configuration holding only the core defaults
func New() *Configuration {
	c := &Configuration{v: viper.New()}
	if err := c.LoadProperties(bytes.NewReader(defaultProperties)); err != nil {
		// the embedded defaults are part of the build, so this is a programming error
		panic(err)
	}
	return c
}

// LoadProperties merges properties in Java .properties format into this Configuration
func (c *Configuration) LoadProperties(r io.Reader) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.v.SetConfigType("properties")
	if err := c.v.MergeConfig(r); err != nil {
		return errors.Wrap(err, "unable to load properties")
	}
	return nil
}

// LoadFile merges a configuration file (properties, yaml, json or toml, by extension) into this Configuration
func (c *Configuration) LoadFile(path string) error {
	fileConf := viper.New()
	fileConf.SetConfigFile(path)
	if err := fileConf.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "unable to read configuration file %s", path)
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.v.MergeConfigMap(fileConf.AllSettings())
}

// Fork returns an independent copy of this Configuration, e.g. to customize it for one job
func (c *Configuration) Fork() *Configuration {
	c.lock.RLock()
	defer c.lock.RUnlock()
	forked := &Configuration{v: viper.New()}
	_ = forked.v.MergeConfigMap(c.v.AllSettings())
	return forked
}

// Set overrides the value of a property
func (c *Configuration) Set(key string, value interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.v.Set(key, value)
}

// IsSet returns true iff a value exists for the given property
func (c *Configuration) IsSet(key string) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.v.IsSet(key)
}

// GetString returns a required string property
func (c *Configuration) GetString(key string) (string, error) {
	val, ok := c.GetOptionalString(key)
	if !ok {
		return "", serrors.MissingPropertyError{Key: key}
	}
	return val, nil
}

// GetOptionalString returns a string property, and whether or not it was set
func (c *Configuration) GetOptionalString(key string) (string, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if !c.v.IsSet(key) {
		return "", false
	}
	val, err := cast.ToStringE(c.v.Get(key))
	if err != nil {
		return "", false
	}
	return val, true
}

// GetStringOrDefault returns a string property, or def if it is not set
func (c *Configuration) GetStringOrDefault(key string, def string) string {
	if val, ok := c.GetOptionalString(key); ok {
		return val
	}
	return def
}

// GetInt64 returns an integer property, or def if it is not set or not an integer
func (c *Configuration) GetInt64(key string, def int64) int64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if !c.v.IsSet(key) {
		return def
	}
	val, err := cast.ToInt64E(c.v.Get(key))
	if err != nil {
		return def
	}
	return val
}

// GetFloat64 returns a floating-point property, or def if it is not set or not a number
func (c *Configuration) GetFloat64(key string, def float64) float64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if !c.v.IsSet(key) {
		return def
	}
	val, err := cast.ToFloat64E(c.v.Get(key))
	if err != nil {
		return def
	}
	return val
}

// GetBool returns a boolean property, or def if it is not set or not a boolean
func (c *Configuration) GetBool(key string, def bool) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if !c.v.IsSet(key) {
		return def
	}
	val, err := cast.ToBoolE(c.v.Get(key))
	if err != nil {
		return def
	}
	return val
}
