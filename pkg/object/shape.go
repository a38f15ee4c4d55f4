package object

import "sync"

// Field is one slot in a Shape's layout: a property key plus its
// storage offset and attribute bits, per §4.3's hidden-class contract.
type Field struct {
	Key    PropertyKey
	Offset int
	Attrs  Attributes
}

// Shape is a node in the hidden-class transition tree. Every object
// with the same own-property set, insertion order, and attributes
// shares one Shape; adding, removing, or reconfiguring a property
// walks to a different Shape rather than mutating this one in place.
type Shape struct {
	parent      *Shape
	fields      []Field
	transitions map[string]*Shape
	mu          sync.RWMutex
	version     uint32
}

// RootShape is the empty shape every fresh ordinary object starts from.
var RootShape = &Shape{transitions: make(map[string]*Shape)}

// FieldCount returns how many storage slots this shape's objects need.
func (s *Shape) FieldCount() int { return len(s.fields) }

// Lookup finds a field by key, searching this shape's own fields only
// (shapes don't chain prototype lookups -- PlainObject.Get does that).
func (s *Shape) Lookup(key PropertyKey) (Field, bool) {
	for i := len(s.fields) - 1; i >= 0; i-- {
		if s.fields[i].Key.Equal(key) {
			return s.fields[i], true
		}
	}
	return Field{}, false
}

// Version changes whenever a shape's own layout is replaced by a
// transition; inline caches can use it as a cheap staleness check
// alongside the shape pointer itself.
func (s *Shape) Version() uint32 { return s.version }

// transitionAdd returns the shape reached by appending a new field,
// memoizing the result so objects that add the same property in the
// same order converge on one shared Shape (the point of hidden
// classes: "obj.x = 1; obj.y = 2" on two objects built the same way
// ends up with both sharing a shape).
func (s *Shape) transitionAdd(key PropertyKey, attrs Attributes) *Shape {
	// The attribute bits are part of the transition key: adding the same
	// key with different attributes must reach a different shape.
	h := string(rune(attrs)) + key.hash()
	s.mu.RLock()
	if next, ok := s.transitions[h]; ok {
		s.mu.RUnlock()
		return next
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if next, ok := s.transitions[h]; ok {
		return next
	}
	fields := make([]Field, len(s.fields)+1)
	copy(fields, s.fields)
	fields[len(s.fields)] = Field{Key: key, Offset: len(s.fields), Attrs: attrs}
	next := &Shape{parent: s, fields: fields, transitions: make(map[string]*Shape), version: s.version + 1}
	s.transitions[h] = next
	return next
}

// transitionReconfigure returns a shape identical to s except that the
// field at key carries newAttrs. Reconfiguration is rare (defineProperty
// changing flags) so it is not memoized in the transition table --
// doing so would let unrelated reconfigurations collide on one hash slot.
func (s *Shape) transitionReconfigure(key PropertyKey, newAttrs Attributes) *Shape {
	fields := make([]Field, len(s.fields))
	copy(fields, s.fields)
	for i := range fields {
		if fields[i].Key.Equal(key) {
			fields[i].Attrs = newAttrs
		}
	}
	return &Shape{parent: s.parent, fields: fields, transitions: make(map[string]*Shape), version: s.version + 1}
}

// transitionDelete returns a shape with key removed and every later
// field's offset shifted down by one, per §4.3's delete contract.
func (s *Shape) transitionDelete(key PropertyKey) *Shape {
	fields := make([]Field, 0, len(s.fields))
	removedOffset := -1
	for _, f := range s.fields {
		if f.Key.Equal(key) {
			removedOffset = f.Offset
			continue
		}
		fields = append(fields, f)
	}
	if removedOffset < 0 {
		return s
	}
	for i := range fields {
		if fields[i].Offset > removedOffset {
			fields[i].Offset--
		}
	}
	return &Shape{parent: s.parent, fields: fields, transitions: make(map[string]*Shape), version: s.version + 1}
}
