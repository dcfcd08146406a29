package strategy

import (
	"sort"
	"sync"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-gridsim/internal/config"
	"github.com/rxtech-lab/argo-gridsim/internal/logger"
	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

// Constructor builds a strategy instance from a run configuration.
type Constructor func(cfg config.Config, log *logger.Logger) (Strategy, error)

// Registry maps strategy names to constructors and tracks the single active
// strategy instance. The registry is an explicit owned object: callers inject
// it where needed rather than sharing process-wide state.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	active       Strategy
	log          *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Registry{
		constructors: make(map[string]Constructor),
		log:          log.Named("registry"),
	}
}

// RegisterBuiltins registers the built-in strategies: the default grid +
// trailing strategy and the moving average crossover.
func (r *Registry) RegisterBuiltins() {
	r.Register(StrategyNameDefault, func(cfg config.Config, log *logger.Logger) (Strategy, error) {
		return NewGridStrategy(cfg, log)
	})
	r.Register(StrategyNameMACrossover, func(cfg config.Config, log *logger.Logger) (Strategy, error) {
		return NewMovingAverageCrossover(cfg, log)
	})
}

// Register adds a constructor under the given name. Re-registering an
// existing name overwrites the prior constructor; this is logged as a warning
// but never fatal, and it does not affect an already-instantiated active
// strategy.
func (r *Registry) Register(name string, constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[name]; exists {
		r.log.Warn("strategy already registered, overwriting",
			zap.String("strategy", name),
		)
	}

	r.constructors[name] = constructor
	r.log.Info("registered strategy", zap.String("strategy", name))
}

// Unregister removes the constructor for the given name. Unknown names are
// ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[name]; exists {
		delete(r.constructors, name)
		r.log.Info("unregistered strategy", zap.String("strategy", name))
	}
}

// List returns the registered strategy names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Load constructs the named strategy and sets it as the single active
// strategy, replacing any previous one. It is mutually exclusive with any
// in-flight evaluation proxied through the registry.
func (r *Registry) Load(name string, cfg config.Config) (Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	constructor, exists := r.constructors[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "strategy %q not found", name)
	}

	instance, err := constructor(cfg, r.log)
	if err != nil {
		r.log.Error("failed to load strategy",
			zap.String("strategy", name),
			zap.Error(err),
		)

		return nil, errors.Wrapf(errors.ErrCodeStrategyInitFailed, err, "failed to load strategy %q", name)
	}

	r.active = instance
	r.log.Info("loaded strategy", zap.String("strategy", name))

	return instance, nil
}

// Reload re-invokes Load for the given name and configuration.
func (r *Registry) Reload(name string, cfg config.Config) (Strategy, error) {
	r.log.Info("reloading strategy", zap.String("strategy", name))

	return r.Load(name, cfg)
}

// GetActive returns the currently active strategy, if any.
func (r *Registry) GetActive() optional.Option[Strategy] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == nil {
		return optional.None[Strategy]()
	}

	return optional.Some(r.active)
}

// WithActive runs fn against the active strategy while holding the registry
// read lock, so a concurrent Load cannot swap the instance mid-evaluation.
// It returns ErrCodeStrategyNotLoaded when no strategy is active.
func (r *Registry) WithActive(fn func(Strategy) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == nil {
		return errors.New(errors.ErrCodeStrategyNotLoaded, "no active strategy")
	}

	return fn(r.active)
}
