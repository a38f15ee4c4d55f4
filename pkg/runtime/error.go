package runtime

import (
	"suzaku/pkg/jsstring"
	"suzaku/pkg/object"
	"suzaku/pkg/value"
	"suzaku/pkg/vm"
)

// errorSubclasses are the six ECMAScript Error subclasses sharing
// Error.prototype's toString, each with its own "name" shadowing it.
var errorSubclasses = []string{
	"EvalError", "RangeError", "ReferenceError", "SyntaxError", "TypeError", "URIError",
}

// protoAttrs mirrors the teacher's SetOwnNonEnumerable for the
// "name"/"message" slots every Error prototype carries: present and
// writable, but not enumerable, so a for-in over a caught error doesn't
// walk its prototype's bookkeeping fields.
const protoAttrs = object.AttrWritable | object.AttrConfigurable

// installErrorFamily wires Error plus its subclasses as global
// constructors. Called as a plain function (no "new" opcode exists in
// this bytecode target -- see DESIGN.md), Error behaves identically to
// being constructed, per ES5 §15.11.1: either way it returns a fresh
// Error object, never undefined.
func installErrorFamily(r *vm.Realm) {
	errorProto := object.NewPlainObject(value.Null, "Error")
	errorProto.DefineData(object.StringKey("name"), stringVal("Error"), protoAttrs)
	errorProto.DefineData(object.StringKey("message"), stringVal(""), protoAttrs)
	errorProto.DefineData(object.StringKey("toString"), vm.NewNativeValue("toString", errorToString), protoAttrs)

	r.RegisterNative("Error", errorConstructor(errorProto, "Error"))

	errorProtoVal := boxObject(errorProto)
	for _, name := range errorSubclasses {
		proto := object.NewPlainObject(errorProtoVal, name)
		proto.DefineData(object.StringKey("name"), stringVal(name), protoAttrs)
		r.RegisterNative(name, errorConstructor(proto, name))
	}
}

func stringVal(s string) value.Value {
	return vm.NewStringValue(jsstring.NewFlat(s))
}

// errorConstructor builds the native function behind one Error
// subclass: a fresh instance rooted at proto, with "message" set only
// when the caller actually passed one, per runtime_error.h's
// ErrorMessageString (an undefined argument leaves the prototype's
// empty-string default in place rather than shadowing it with "").
func errorConstructor(proto *object.PlainObject, name string) vm.NativeFn {
	protoVal := boxObject(proto)
	return func(r *vm.Realm, this value.Value, args []value.Value) (value.Value, error) {
		inst := object.NewPlainObject(protoVal, name)
		if msg := argAt(args, 0); !msg.IsUndefined() {
			inst.DefineData(object.StringKey("message"), stringVal(r.ToJSString(msg).String()), protoAttrs)
		}
		return boxObject(inst), nil
	}
}

// errorToString implements Error.prototype.toString per §4.7: empty
// name defers entirely to message and vice versa; both present join as
// "name: message".
func errorToString(r *vm.Realm, this value.Value, args []value.Value) (value.Value, error) {
	o := asObject(this)
	if o == nil {
		return stringVal("Error"), nil
	}
	name := propString(r, o, "name", "Error")
	msg := propString(r, o, "message", "")
	switch {
	case name == "":
		return stringVal(msg), nil
	case msg == "":
		return stringVal(name), nil
	default:
		return stringVal(name + ": " + msg), nil
	}
}

// propString reads a property through the prototype chain and coerces
// it to a Go string, substituting def if the property is absent.
func propString(r *vm.Realm, o *object.PlainObject, key, def string) string {
	v, err := o.Get(object.StringKey(key), boxObject(o), r)
	if err != nil || v.IsUndefined() {
		return def
	}
	return r.ToJSString(v).String()
}
