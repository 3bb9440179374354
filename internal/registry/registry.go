// Package registry provides lazily constructed, named singletons.
//
// A service is registered with a Constructor that resolves its own
// collaborators through the Resolver it receives. A request for a service
// that is already under construction on the same resolution chain (A→A or
// A→B→A) returns nil with a warning instead of recursing, so the outer
// construction still completes. Services that need a reference back to
// something that depends on them implement Wirer and receive it in a
// second phase via Wire.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"sofia/internal/logger"
)

// Resolver looks up other services from inside a Constructor.
type Resolver interface {
	Get(name string) any
}

// Constructor builds a service instance.
type Constructor func(r Resolver) (any, error)

// Wirer is implemented by services that resolve late collaborators once
// every service has been constructed.
type Wirer interface {
	Wire(r Resolver) error
}

// Stats describes the registry contents.
type Stats struct {
	TotalServices int      `json:"total_services"`
	Services      []string `json:"services"`
	Initializing  []string `json:"initializing"`
}

// Registry holds constructors and cached instances.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	instances    map[string]any

	// buildMu serializes construction so two goroutines never build the
	// same service twice.
	buildMu      sync.Mutex
	initializing map[string]bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		instances:    make(map[string]any),
		initializing: make(map[string]bool),
	}
}

// Register adds or replaces the constructor for name. A cached instance of
// a replaced service is dropped.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = ctor
	delete(r.instances, name)
}

// Get returns the instance for name, constructing it on first use. It
// returns nil for unknown names, re-entrant requests and failed
// constructions.
func (r *Registry) Get(name string) any {
	r.mu.RLock()
	inst, ok := r.instances[name]
	r.mu.RUnlock()
	if ok {
		return inst
	}

	r.buildMu.Lock()
	defer r.buildMu.Unlock()
	return r.resolve(name, nil)
}

// resolve must be called with buildMu held.
func (r *Registry) resolve(name string, chain []string) any {
	log := logger.Named("registry")

	r.mu.RLock()
	inst, cached := r.instances[name]
	ctor, known := r.constructors[name]
	r.mu.RUnlock()
	if cached {
		return inst
	}
	if !known {
		log.Warnw("Service not registered", "service", name)
		return nil
	}
	if r.initializing[name] {
		log.Warnw("Circular dependency detected, returning nil",
			"service", name, "chain", append(chain, name))
		return nil
	}

	r.initializing[name] = true
	defer delete(r.initializing, name)

	inst, err := r.construct(name, ctor, &chainResolver{reg: r, chain: append(chain, name)})
	if err != nil {
		log.Errorw("Service construction failed", "service", name, "error", err)
		return nil
	}
	if inst == nil {
		log.Warnw("Service constructor returned nil", "service", name)
		return nil
	}

	r.mu.Lock()
	r.instances[name] = inst
	r.mu.Unlock()
	log.Debugw("Service initialized", "service", name)
	return inst
}

func (r *Registry) construct(name string, ctor Constructor, res Resolver) (inst any, err error) {
	defer func() {
		if p := recover(); p != nil {
			inst, err = nil, fmt.Errorf("constructor for %s panicked: %v", name, p)
		}
	}()
	return ctor(res)
}

// chainResolver tracks the services under construction for one outer Get.
type chainResolver struct {
	reg   *Registry
	chain []string
}

func (c *chainResolver) Get(name string) any {
	chain := make([]string, len(c.chain))
	copy(chain, c.chain)
	return c.reg.resolve(name, chain)
}

// Wire constructs every registered service and then calls Wire on each
// instance implementing Wirer. It returns the first wiring error.
func (r *Registry) Wire() error {
	for _, name := range r.names() {
		r.Get(name)
	}

	r.mu.RLock()
	wirers := make(map[string]Wirer)
	for name, inst := range r.instances {
		if w, ok := inst.(Wirer); ok {
			wirers[name] = w
		}
	}
	r.mu.RUnlock()

	names := make([]string, 0, len(wirers))
	for name := range wirers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := wirers[name].Wire(r); err != nil {
			return fmt.Errorf("wire %s: %w", name, err)
		}
	}
	return nil
}

// Has reports whether a constructor is registered for name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[name]
	return ok
}

// ClearAll drops every cached instance. Constructors stay registered.
func (r *Registry) ClearAll() {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]any)
}

// Stats reports the constructed services and any in flight.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	services := make([]string, 0, len(r.instances))
	for name := range r.instances {
		services = append(services, name)
	}
	r.mu.RUnlock()
	sort.Strings(services)

	// initializing is only mutated under buildMu; a concurrent build is
	// reported as idle rather than blocking.
	var initializing []string
	if r.buildMu.TryLock() {
		for name := range r.initializing {
			initializing = append(initializing, name)
		}
		r.buildMu.Unlock()
	}
	sort.Strings(initializing)

	return Stats{
		TotalServices: len(services),
		Services:      services,
		Initializing:  initializing,
	}
}

func (r *Registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the named service asserted to T.
func Resolve[T any](r Resolver, name string) (T, bool) {
	var zero T
	inst := r.Get(name)
	if inst == nil {
		return zero, false
	}
	t, ok := inst.(T)
	if !ok {
		logger.Named("registry").Warnw("Service has unexpected type",
			"service", name, "type", fmt.Sprintf("%T", inst))
		return zero, false
	}
	return t, true
}

// MustResolve is Resolve for constructors: a missing or mistyped service
// becomes an error.
func MustResolve[T any](r Resolver, name string) (T, error) {
	t, ok := Resolve[T](r, name)
	if !ok {
		return t, fmt.Errorf("service %q unavailable", name)
	}
	return t, nil
}
