package pool

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// Default configuration values
const (
	DefaultMaxSize       = 20
	DefaultInitialSize   = 8
	DefaultIncrementSize = 8
)

// Configs for pool
type Options struct {
	// Pool identifier, used in log lines and events
	Name string

	// The method to build a fresh session
	Factory Factory

	// Max connection number in the pool
	MaxSize int

	// The number of the connections created when the pool initiates
	InitialSize int

	// Idle expiry for connections created at init time, 0 = never
	InitialExpiry time.Duration

	// How many connections to add when the pool grows on demand
	IncrementSize int

	// Idle expiry for connections created by growth, 0 = never
	IncrementExpiry time.Duration

	// Skip the pre-use liveness probe. Health checking is on by default.
	DisableHealthCheck bool

	// Logger to use; defaults to the logrus standard logger
	Logger log.FieldLogger
}

// withDefaults fills zero fields and validates the rest.
func (o *Options) withDefaults() (*Options, error) {
	opts := *o

	if opts.Factory == nil {
		return nil, errors.New("invalid factory func settings")
	}
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.InitialSize == 0 {
		opts.InitialSize = DefaultInitialSize
	}
	if opts.IncrementSize == 0 {
		opts.IncrementSize = DefaultIncrementSize
	}
	if opts.MaxSize < 1 || opts.InitialSize < 0 || opts.IncrementSize < 1 {
		return nil, errors.New("invalid capacity settings")
	}
	if opts.InitialSize > opts.MaxSize {
		return nil, errors.New("invalid capacity settings")
	}
	if opts.InitialExpiry < 0 || opts.IncrementExpiry < 0 {
		return nil, errors.New("invalid expiry settings")
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}

	return &opts, nil
}
