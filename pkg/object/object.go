package object

import (
	"math"
	"unsafe"

	"suzaku/pkg/cell"
	"suzaku/pkg/value"
)

// PlainObject is the ordinary ECMAScript object: a shape (hidden class)
// plus a parallel slice of values, one per field offset. Accessors
// live out-of-line in getters/setters since they're rare and would
// otherwise double every object's per-property storage cost.
type PlainObject struct {
	cell.Header
	Class      string
	shape      *Shape
	proto      value.Value
	values     []value.Value
	getters    map[string]value.Value
	setters    map[string]value.Value
	extensible bool
}

// NewPlainObject allocates an object with the given prototype (pass
// value.Null for none) and class tag ("Object", "Array", "Error", ...).
func NewPlainObject(proto value.Value, class string) *PlainObject {
	return &PlainObject{
		Header:     cell.Header{Kind: cell.KindObject},
		Class:      class,
		shape:      RootShape,
		proto:      proto,
		extensible: true,
	}
}

// ScanEdges traces every Value and prototype link this object holds, so
// the collector can follow them.
func (o *PlainObject) ScanEdges(visit func(*cell.Header)) {
	if h := o.proto.HeapHeader(); h != nil {
		visit(h)
	}
	for _, v := range o.values {
		if h := v.HeapHeader(); h != nil {
			visit(h)
		}
	}
	for _, v := range o.getters {
		if h := v.HeapHeader(); h != nil {
			visit(h)
		}
	}
	for _, v := range o.setters {
		if h := v.HeapHeader(); h != nil {
			visit(h)
		}
	}
}

func (o *PlainObject) Shape() *Shape          { return o.shape }
func (o *PlainObject) Prototype() value.Value { return o.proto }
func (o *PlainObject) Extensible() bool       { return o.extensible }

// SetPrototype changes the object's [[Prototype]] internal slot. Fails
// (returns false) when proto's chain loops back to o, the cycle check
// required by §9's [[SetPrototypeOf]].
func (o *PlainObject) SetPrototype(proto value.Value) bool {
	for cur := protoObject(proto); cur != nil; cur = protoObject(cur.proto) {
		if cur == o {
			return false
		}
	}
	o.proto = proto
	return true
}

// PreventExtensions clears the extensible flag; once cleared it can
// never be set again, per §9.
func (o *PlainObject) PreventExtensions() { o.extensible = false }

// GetOwn looks up a direct (own) data property, ignoring accessors and
// the prototype chain. Returns (value, true) if present and a data
// property; accessors and absent keys both report false.
func (o *PlainObject) GetOwn(key PropertyKey) (value.Value, bool) {
	f, ok := o.shape.Lookup(key)
	if !ok || f.Attrs.IsAccessor() {
		return value.Undefined, false
	}
	return o.values[f.Offset], true
}

// GetOwnField reports the field record (offset + attributes) for a key,
// regardless of whether it's a data or accessor property. Used by the
// VM's inline-cache path to capture (shape, offset) together.
func (o *PlainObject) GetOwnField(key PropertyKey) (Field, bool) {
	return o.shape.Lookup(key)
}

// FastGetByOffset reads a value directly by storage offset, bypassing
// shape lookup entirely -- the inline-cache hit path.
func (o *PlainObject) FastGetByOffset(offset int) value.Value {
	return o.values[offset]
}

// FastSetByOffset writes a value directly by storage offset -- the
// inline-cache hit path for a known-writable data property.
func (o *PlainObject) FastSetByOffset(offset int, v value.Value) {
	o.values[offset] = v
}

// Get implements [[Get]]: own property, walking the prototype chain,
// invoking an accessor's getter via inv when one is found. Returns
// undefined (not an error) when the key is absent anywhere on the chain.
func (o *PlainObject) Get(key PropertyKey, receiver value.Value, inv Invoker) (value.Value, error) {
	cur := o
	for cur != nil {
		if f, ok := cur.shape.Lookup(key); ok {
			if f.Attrs.IsAccessor() {
				getter, hasGetter := cur.getters[key.hash()]
				if !hasGetter || getter.IsUndefined() {
					return value.Undefined, nil
				}
				return inv.Call(getter, receiver, nil)
			}
			return cur.values[f.Offset], nil
		}
		cur = protoObject(cur.proto)
	}
	return value.Undefined, nil
}

// Set implements [[Set]]: an own writable data property is updated in
// place (same shape); an own accessor invokes its setter; otherwise the
// property is created on receiver (not on a prototype), per §9's
// CreateDataProperty fallback for unshadowed assignment.
func (o *PlainObject) Set(key PropertyKey, v value.Value, receiver *PlainObject, inv Invoker) error {
	cur := o
	for cur != nil {
		if f, ok := cur.shape.Lookup(key); ok {
			if f.Attrs.IsAccessor() {
				setter, hasSetter := cur.setters[key.hash()]
				if !hasSetter || setter.IsUndefined() {
					return nil // no setter: silently does nothing, per non-strict semantics
				}
				_, err := inv.Call(setter, value.FromHeapPointer(unsafe.Pointer(&receiver.Header)), []value.Value{v})
				return err
			}
			if cur == receiver {
				if !f.Attrs.Writable() {
					return nil
				}
				receiver.values[f.Offset] = v
				return nil
			}
			break // shadow the inherited data property on receiver below
		}
		cur = protoObject(cur.proto)
	}
	receiver.DefineData(key, v, DefaultDataAttrs)
	return nil
}

// DefineData creates or overwrites an own data property, transitioning
// to a new shape when the key is new. Reconfiguring an existing key's
// attrs (without changing it to/from accessor) updates in place.
func (o *PlainObject) DefineData(key PropertyKey, v value.Value, attrs Attributes) {
	if f, ok := o.shape.Lookup(key); ok {
		if f.Attrs.IsAccessor() {
			delete(o.getters, key.hash())
			delete(o.setters, key.hash())
			o.shape = o.shape.transitionReconfigure(key, attrs&^AttrAccessor)
			o.values[f.Offset] = v
			return
		}
		if f.Attrs != attrs {
			o.shape = o.shape.transitionReconfigure(key, attrs)
		}
		o.values[f.Offset] = v
		return
	}
	o.shape = o.shape.transitionAdd(key, attrs)
	o.values = append(o.values, v)
}

// DefineAccessor creates or overwrites an own accessor property.
func (o *PlainObject) DefineAccessor(key PropertyKey, getter, setter value.Value, attrs Attributes) {
	attrs |= AttrAccessor
	if f, ok := o.shape.Lookup(key); !ok || !f.Attrs.IsAccessor() {
		if ok {
			o.shape = o.shape.transitionReconfigure(key, attrs)
		} else {
			o.shape = o.shape.transitionAdd(key, attrs)
			o.values = append(o.values, value.Undefined)
		}
	} else if f.Attrs != attrs {
		o.shape = o.shape.transitionReconfigure(key, attrs)
	}
	if o.getters == nil {
		o.getters = make(map[string]value.Value)
		o.setters = make(map[string]value.Value)
	}
	if !getter.IsUndefined() {
		o.getters[key.hash()] = getter
	}
	if !setter.IsUndefined() {
		o.setters[key.hash()] = setter
	}
}

// DefineOwnProperty implements the §9 defineOwnProperty truth table: a
// non-extensible receiver rejects new keys; a non-configurable existing
// property rejects attribute changes (value changes to a non-writable
// data property are also rejected, except setting the same value, which
// SameValue allows through untouched).
func (o *PlainObject) DefineOwnProperty(key PropertyKey, desc Descriptor) bool {
	f, exists := o.shape.Lookup(key)
	if !exists {
		if !o.extensible {
			return false
		}
		attrs := descAttrs(desc, AttrWritable|AttrEnumerable|AttrConfigurable)
		if desc.HasGet || desc.HasSet {
			o.DefineAccessor(key, desc.Get, desc.Set, attrs)
		} else {
			o.DefineData(key, desc.Value, attrs)
		}
		return true
	}
	if !f.Attrs.Configurable() {
		if desc.HasConfigurable && desc.Attrs.Configurable() {
			return false
		}
		if desc.HasEnumerable && desc.Attrs.Enumerable() != f.Attrs.Enumerable() {
			return false
		}
		if !f.Attrs.IsAccessor() && !f.Attrs.Writable() {
			if desc.HasWritable && desc.Attrs.Writable() {
				return false
			}
			old := o.values[f.Offset]
			// SameValue: SameValueZero plus telling +0 from -0.
			if desc.HasValue && (!value.SameValueZero(desc.Value, old) ||
				math.Signbit(desc.Value.AsDouble()) != math.Signbit(old.AsDouble())) {
				return false
			}
		}
	}
	attrs := descAttrs(desc, f.Attrs)
	if desc.HasGet || desc.HasSet {
		o.DefineAccessor(key, desc.Get, desc.Set, attrs)
	} else {
		o.DefineData(key, desc.Value, attrs&^AttrAccessor)
	}
	return true
}

func descAttrs(desc Descriptor, base Attributes) Attributes {
	attrs := base
	if desc.HasWritable {
		attrs = setBit(attrs, AttrWritable, desc.Attrs.Writable())
	}
	if desc.HasEnumerable {
		attrs = setBit(attrs, AttrEnumerable, desc.Attrs.Enumerable())
	}
	if desc.HasConfigurable {
		attrs = setBit(attrs, AttrConfigurable, desc.Attrs.Configurable())
	}
	return attrs
}

func setBit(a Attributes, bit Attributes, on bool) Attributes {
	if on {
		return a | bit
	}
	return a &^ bit
}

// DeleteOwn removes an own property, failing if it's non-configurable.
func (o *PlainObject) DeleteOwn(key PropertyKey) bool {
	f, ok := o.shape.Lookup(key)
	if !ok {
		return true
	}
	if !f.Attrs.Configurable() {
		return false
	}
	values := make([]value.Value, 0, len(o.values)-1)
	for _, field := range o.shape.fields {
		if field.Key.Equal(key) {
			continue
		}
		values = append(values, o.values[field.Offset])
	}
	delete(o.getters, key.hash())
	delete(o.setters, key.hash())
	o.shape = o.shape.transitionDelete(key)
	o.values = values
	return true
}

// OwnKeys returns own property keys in insertion order, per §9's
// enumeration order (integer-index keys first is an Array concern,
// handled by the Array wrapper, not here).
func (o *PlainObject) OwnKeys() []PropertyKey {
	keys := make([]PropertyKey, len(o.shape.fields))
	for _, f := range o.shape.fields {
		keys[f.Offset] = f.Key
	}
	return keys
}

func protoObject(proto value.Value) *PlainObject {
	h := proto.HeapHeader()
	if h == nil || h.Kind != cell.KindObject {
		return nil
	}
	return (*PlainObject)(unsafe.Pointer(h))
}
