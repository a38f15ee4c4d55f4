// Package runtime implements the host-provided parts of the language
// that the bytecode interpreter itself has no opinion about: the Error
// constructor family and the String.prototype methods listed in §4.7.
// Everything here is wired through the same vm.NativeFn/Realm.Call path
// a compiled script closure goes through -- a builtin is, from the
// interpreter's point of view, indistinguishable from user code.
package runtime

import "suzaku/pkg/vm"

// Install wires every runtime-library contract into r: the Error
// family as global constructors, and the String.prototype methods onto
// the shared prototype r.StringProto drives string-primitive property
// lookup through. Call once per Realm, before running any script.
func Install(r *vm.Realm) {
	installErrorFamily(r)
	installStringPrototype(r)
	installRegExp(r)
}
