package core

import "fmt"

// Kind selects one of the store's namespaces.
type Kind int

const (
	Input Kind = iota
	Output
	Residual
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Output:
		return "output"
	case Residual:
		return "residual"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type namespace struct {
	order []string
	vals  map[string]Value
}

func newNamespace() *namespace {
	return &namespace{vals: make(map[string]Value)}
}

// Store maps variable names to values. Inputs and outputs live in separate
// namespaces; an output is wired to the input of the same name by Propagate.
type Store struct {
	spaces [3]*namespace
}

func NewStore() *Store {
	return &Store{spaces: [3]*namespace{newNamespace(), newNamespace(), newNamespace()}}
}

func (s *Store) space(k Kind) *namespace {
	if k < Input || k > Residual {
		panic(fmt.Sprintf("core: invalid kind %d", int(k)))
	}
	return s.spaces[k]
}

// Declare registers name in namespace k. Declaring a name again with the same
// shape is a no-op that keeps the current value; a different shape fails.
func (s *Store) Declare(k Kind, name string, v Value) error {
	if name == "" || name == Wildcard {
		return &VariableError{Op: "declare", Kind: k, Name: name, Err: fmt.Errorf("invalid name")}
	}
	if v.Size() == 0 {
		return &VariableError{Op: "declare", Kind: k, Name: name, Err: fmt.Errorf("empty value")}
	}
	ns := s.space(k)
	if cur, ok := ns.vals[name]; ok {
		if cur.SameShape(v) {
			return nil
		}
		return &VariableError{Op: "declare", Kind: k, Name: name,
			Err: fmt.Errorf("%w: declared %s, got %s", ErrDuplicateName, cur.shape, v.shape)}
	}
	ns.vals[name] = v.Clone()
	ns.order = append(ns.order, name)
	return nil
}

func (s *Store) Has(k Kind, name string) bool {
	_, ok := s.space(k).vals[name]
	return ok
}

// Get returns a copy of the stored value.
func (s *Store) Get(k Kind, name string) (Value, error) {
	v, ok := s.space(k).vals[name]
	if !ok {
		return Value{}, &VariableError{Op: "get", Kind: k, Name: name, Err: ErrUnknownVariable}
	}
	return v.Clone(), nil
}

// Set overwrites a declared value. The shape must match exactly.
func (s *Store) Set(k Kind, name string, v Value) error {
	ns := s.space(k)
	cur, ok := ns.vals[name]
	if !ok {
		return &VariableError{Op: "set", Kind: k, Name: name, Err: ErrUnknownVariable}
	}
	if !cur.SameShape(v) || cur.Size() != v.Size() {
		return &ShapeError{Op: "set " + k.String(), Name: name, Want: cur.shape, Got: v.shape}
	}
	copy(cur.data, v.data)
	return nil
}

// SetData overwrites the flattened values of a declared variable.
func (s *Store) SetData(k Kind, name string, data []float64) error {
	cur, ok := s.space(k).vals[name]
	if !ok {
		return &VariableError{Op: "set", Kind: k, Name: name, Err: ErrUnknownVariable}
	}
	if len(data) != len(cur.data) {
		return &ShapeError{Op: "set " + k.String(), Name: name, Want: cur.shape, Got: Shape{len(data)}}
	}
	copy(cur.data, data)
	return nil
}

func (s *Store) Size(k Kind, name string) (int, error) {
	v, ok := s.space(k).vals[name]
	if !ok {
		return 0, &VariableError{Op: "size", Kind: k, Name: name, Err: ErrUnknownVariable}
	}
	return v.Size(), nil
}

// Names returns the names of namespace k in declaration order.
func (s *Store) Names(k Kind) []string {
	ns := s.space(k)
	out := make([]string, len(ns.order))
	copy(out, ns.order)
	return out
}

// Propagate copies output name into the input slot of the same name.
// It reports whether such an input exists.
func (s *Store) Propagate(name string) (bool, error) {
	out, ok := s.spaces[Output].vals[name]
	if !ok {
		return false, &VariableError{Op: "propagate", Kind: Output, Name: name, Err: ErrUnknownVariable}
	}
	in, ok := s.spaces[Input].vals[name]
	if !ok {
		return false, nil
	}
	if !in.SameShape(out) {
		return false, &ShapeError{Op: "propagate", Name: name, Want: in.shape, Got: out.shape}
	}
	copy(in.data, out.data)
	return true, nil
}

// Mark records how many names each namespace holds.
type Mark [3]int

func (s *Store) Mark() Mark {
	var m Mark
	for k, ns := range s.spaces {
		m[k] = len(ns.order)
	}
	return m
}

// Rollback forgets every name declared after m was taken. Names that existed
// at the mark keep their values.
func (s *Store) Rollback(m Mark) {
	for k, ns := range s.spaces {
		if m[k] >= len(ns.order) {
			continue
		}
		for _, name := range ns.order[m[k]:] {
			delete(ns.vals, name)
		}
		ns.order = ns.order[:m[k]]
	}
}

// Snapshot is a deep copy of every namespace.
type Snapshot [3]map[string]Value

func (s *Store) Snapshot() Snapshot {
	var snap Snapshot
	for k, ns := range s.spaces {
		snap[k] = make(map[string]Value, len(ns.vals))
		for name, v := range ns.vals {
			snap[k][name] = v.Clone()
		}
	}
	return snap
}

// Restore writes a snapshot back. Names declared after the snapshot keep their values.
func (s *Store) Restore(snap Snapshot) {
	for k, vals := range snap {
		ns := s.spaces[k]
		for name, v := range vals {
			if cur, ok := ns.vals[name]; ok && cur.SameShape(v) {
				copy(cur.data, v.data)
			}
		}
	}
}
