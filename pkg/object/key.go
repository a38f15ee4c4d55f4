// Package object implements the property-map / shape model: hidden
// class transitions, attribute bits, and the inline-cache contract the
// bytecode VM's property instructions rely on.
package object

import (
	"fmt"

	"suzaku/pkg/value"
)

// KeyKind discriminates how a PropertyKey is stored.
type KeyKind uint8

const (
	KeyString KeyKind = iota
	KeySymbol
)

// Symbol is an interned identifier: either an array-like index key or a
// string-backed name. Two symbols compare equal iff they denote the
// same name -- enforced by always handing out the same *Symbol for a
// given name from the intern table in vm.Realm.
type Symbol struct {
	Name        string
	Description string
}

// PropertyKey is either a string or a symbol; fast-pathed as a plain Go
// string for the overwhelmingly common case.
type PropertyKey struct {
	Kind KeyKind
	Str  string
	Sym  *Symbol
}

// StringKey builds a string-named key.
func StringKey(s string) PropertyKey { return PropertyKey{Kind: KeyString, Str: s} }

// SymbolKey builds a symbol-named key.
func SymbolKey(s *Symbol) PropertyKey { return PropertyKey{Kind: KeySymbol, Sym: s} }

// Equal reports whether two keys denote the same property.
func (k PropertyKey) Equal(o PropertyKey) bool {
	if k.Kind != o.Kind {
		return false
	}
	if k.Kind == KeyString {
		return k.Str == o.Str
	}
	return k.Sym == o.Sym
}

// hash is the map key used by a Shape's transition table.
func (k PropertyKey) hash() string {
	if k.Kind == KeyString {
		return "s:" + k.Str
	}
	return fmt.Sprintf("y:%p", k.Sym)
}

func (k PropertyKey) String() string {
	if k.Kind == KeyString {
		return k.Str
	}
	return "Symbol(" + k.Sym.Description + ")"
}

// Attributes packs the three ECMAScript property flags plus the
// engine-internal accessor bit, per §4.3.
type Attributes uint8

const (
	AttrWritable     Attributes = 1 << 0
	AttrEnumerable   Attributes = 1 << 1
	AttrConfigurable Attributes = 1 << 2
	AttrAccessor     Attributes = 1 << 3
)

// DefaultDataAttrs is what a plain `obj.x = v` assignment or object
// literal property gets.
const DefaultDataAttrs = AttrWritable | AttrEnumerable | AttrConfigurable

func (a Attributes) Writable() bool     { return a&AttrWritable != 0 }
func (a Attributes) Enumerable() bool   { return a&AttrEnumerable != 0 }
func (a Attributes) Configurable() bool { return a&AttrConfigurable != 0 }
func (a Attributes) IsAccessor() bool   { return a&AttrAccessor != 0 }

// Descriptor mirrors the ECMAScript property descriptor record used by
// defineOwnProperty. A data descriptor carries Value; an accessor
// descriptor carries Get/Set (either may be value.Undefined).
type Descriptor struct {
	Value           value.Value
	Get             value.Value
	Set             value.Value
	Attrs           Attributes
	HasValue        bool
	HasGet          bool
	HasSet          bool
	HasWritable     bool
	HasEnumerable   bool
	HasConfigurable bool
}
