package registry

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Issue reports a malformed module that was skipped during a build.
type Issue struct {
	// Namespace is the module's declared namespace, if any.
	Namespace string

	// Reason describes why the module was skipped.
	Reason string
}

func (i Issue) String() string {
	if i.Namespace == "" {
		return i.Reason
	}
	return fmt.Sprintf("%s: %s", i.Namespace, i.Reason)
}

// Snapshot is an immutable view of the registered capabilities.
// It is safe for unlimited concurrent readers.
type Snapshot struct {
	namespaces map[string]map[string]*Descriptor
}

// Build scans the given modules and produces an immutable Snapshot.
//
// Modules that declare no namespace or an empty export list are skipped
// and reported in the returned issues; the build succeeds for the
// remaining modules. A duplicate namespace across modules, or an export
// whose schema does not compile, fails the whole build.
func Build(modules []Module) (*Snapshot, []Issue, error) {
	snap := &Snapshot{namespaces: make(map[string]map[string]*Descriptor, len(modules))}
	var issues []Issue

	for _, m := range modules {
		if m == nil {
			issues = append(issues, Issue{Reason: "nil module"})
			continue
		}
		ns := m.Namespace()
		if ns == "" {
			issues = append(issues, Issue{Reason: "module declares no namespace"})
			continue
		}
		exports := m.Exports()
		if len(exports) == 0 {
			issues = append(issues, Issue{Namespace: ns, Reason: "module declares no exports"})
			continue
		}
		if _, exists := snap.namespaces[ns]; exists {
			return nil, issues, fmt.Errorf("%w: %s", ErrDuplicateNamespace, ns)
		}

		ops := make(map[string]*Descriptor, len(exports))
		for _, op := range exports {
			if op.Name == "" || op.Handler == nil {
				issues = append(issues, Issue{Namespace: ns, Reason: "export missing name or handler"})
				continue
			}
			if _, exists := ops[op.Name]; exists {
				return nil, issues, fmt.Errorf("%w: %s.%s", ErrDuplicateNamespace, ns, op.Name)
			}
			compiled, err := compileSchema(op.InputSchema)
			if err != nil {
				return nil, issues, fmt.Errorf("%w: %s.%s: %v", ErrInvalidSchema, ns, op.Name, err)
			}
			ops[op.Name] = &Descriptor{
				Namespace:   ns,
				Operation:   op.Name,
				Description: op.Description,
				InputSchema: op.InputSchema,
				Handler:     op.Handler,
				compiled:    compiled,
			}
		}
		if len(ops) == 0 {
			issues = append(issues, Issue{Namespace: ns, Reason: "module has no usable exports"})
			continue
		}
		snap.namespaces[ns] = ops
	}

	return snap, issues, nil
}

// Resolve looks up a namespace.operation pair.
func (s *Snapshot) Resolve(namespace, operation string) (*Descriptor, error) {
	ops, ok := s.namespaces[namespace]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNamespaceNotFound, namespace)
	}
	d, ok := ops[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrOperationNotFound, namespace, operation)
	}
	return d, nil
}

// Namespaces returns the registered namespace names, sorted for
// deterministic output.
func (s *Snapshot) Namespaces() []string {
	out := make([]string, 0, len(s.namespaces))
	for ns := range s.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Operations returns the exported operation descriptors of a namespace,
// sorted by operation name. Returns nil for an unknown namespace.
func (s *Snapshot) Operations(namespace string) []*Descriptor {
	ops, ok := s.namespaces[namespace]
	if !ok {
		return nil
	}
	out := make([]*Descriptor, 0, len(ops))
	for _, d := range ops {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Registry holds the current Snapshot and supports wholesale reload.
// The zero value is not usable; call New.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// New builds an initial snapshot from the given modules and returns a
// Registry holding it.
func New(modules []Module) (*Registry, []Issue, error) {
	snap, issues, err := Build(modules)
	if err != nil {
		return nil, issues, err
	}
	r := &Registry{}
	r.current.Store(snap)
	return r, issues, nil
}

// Current returns the current snapshot. The returned snapshot remains
// valid and consistent even if Reload swaps in a newer one.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Reload rebuilds the registry from scratch and atomically swaps the
// snapshot. Readers never observe a partially-built registry: they hold
// either the old snapshot or the new one. On build failure the previous
// snapshot stays in place.
func (r *Registry) Reload(modules []Module) (*Snapshot, []Issue, error) {
	snap, issues, err := Build(modules)
	if err != nil {
		return nil, issues, err
	}
	r.current.Store(snap)
	return snap, issues, nil
}
