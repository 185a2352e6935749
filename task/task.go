// Package task is a small named-task registry with aliases, boolean flags and an
// extensible compilation sequence. Plugins only see the Host interface.
package task

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Args carries the boolean flags passed to one task run. Absent flags are unset, which is
// distinct from false.
type Args map[string]bool

// Bool returns the flag value, false when unset.
func (a Args) Bool(name string) bool {
	return a[name]
}

// Lookup returns the flag value and whether it was passed at all.
func (a Args) Lookup(name string) (value, ok bool) {
	value, ok = a[name]
	return value, ok
}

type Flag struct {
	Name  string
	Usage string
}

type Action func(ctx context.Context, args Args) error

// Definition describes one task.
type Definition struct {
	Name        string
	Aliases     []string
	Description string
	Flags       []Flag
	Action      Action
}

// CompilationHook rewrites the ordered list of tasks run by the compilation sequence.
type CompilationHook func(ctx context.Context, tasks []string) []string

// Host is what a plugin needs from the task graph it extends.
type Host interface {
	Register(def Definition) error
	ExtendCompilationTasks(hook CompilationHook)
}

// Registry is the in-process Host implementation.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]*Definition
	names map[string]string
	base  []string
	hooks []CompilationHook
}

var _ Host = (*Registry)(nil)

// NewRegistry returns a registry whose compilation sequence starts from base.
func NewRegistry(base ...string) *Registry {
	return &Registry{
		defs:  make(map[string]*Definition),
		names: make(map[string]string),
		base:  base,
	}
}

// ErrUnknownTask is returned when a name resolves to no task.
var ErrUnknownTask = errors.New("unknown task")

func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return errors.New("task name must not be empty")
	}
	if def.Action == nil {
		return errors.Errorf("task %q has no action", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range append([]string{def.Name}, def.Aliases...) {
		if owner, ok := r.names[n]; ok {
			return errors.Errorf("task name %q already registered by %q", n, owner)
		}
	}

	d := def
	r.defs[def.Name] = &d
	r.names[def.Name] = def.Name
	for _, alias := range def.Aliases {
		r.names[alias] = def.Name
	}
	return nil
}

func (r *Registry) ExtendCompilationTasks(hook CompilationHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// Lookup resolves a task name or alias.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.names[name]
	if !ok {
		return Definition{}, false
	}
	return *r.defs[canonical], true
}

// Definitions returns every task sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run executes the named task.
func (r *Registry) Run(ctx context.Context, name string, args Args) error {
	def, ok := r.Lookup(name)
	if !ok {
		return errors.Wrap(ErrUnknownTask, name)
	}
	if args == nil {
		args = Args{}
	}
	if err := def.Action(ctx, args); err != nil {
		return errors.Wrapf(err, "task %s", def.Name)
	}
	return nil
}

// CompilationTasks returns the compilation sequence after every hook has been applied, in
// registration order.
func (r *Registry) CompilationTasks(ctx context.Context) []string {
	r.mu.RLock()
	tasks := append([]string(nil), r.base...)
	hooks := append([]CompilationHook(nil), r.hooks...)
	r.mu.RUnlock()

	for _, hook := range hooks {
		tasks = hook(ctx, tasks)
	}
	return tasks
}

// RunCompilation runs the compilation sequence, stopping at the first failure. Each task
// receives only the flags it declares.
func (r *Registry) RunCompilation(ctx context.Context, args Args) error {
	for _, name := range r.CompilationTasks(ctx) {
		def, ok := r.Lookup(name)
		if !ok {
			return errors.Wrap(ErrUnknownTask, name)
		}
		if err := r.Run(ctx, name, filterArgs(def, args)); err != nil {
			return err
		}
	}
	return nil
}

func filterArgs(def Definition, args Args) Args {
	out := Args{}
	for _, f := range def.Flags {
		if v, ok := args[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}
