package vm

import (
	"strconv"
	"unsafe"

	"suzaku/pkg/bytecode"
	"suzaku/pkg/cell"
	"suzaku/pkg/jsstring"
	"suzaku/pkg/object"
	"suzaku/pkg/value"
)

// Interpret runs chunk's entry function (chunk.Functions[chunk.EntryFunc])
// to completion in a fresh top frame, the embedder's entry point into a
// loaded Chunk.
func (r *Realm) Interpret(chunk *bytecode.Chunk) (value.Value, error) {
	proto := chunk.Functions[chunk.EntryFunc]
	entry := newClosure(proto, chunk, nil)
	idx, err := r.pushFrame(entry, value.Undefined, nil)
	if err != nil {
		return value.Undefined, err
	}
	result, err := r.runFrame(idx)
	r.popFrame()
	return result, err
}

// runFrame drives the frame at frameIdx to a Return/ReturnUndefined,
// recursing into r.invoke (and so, transitively, back into runFrame for
// a nested frame) on every OpCall/OpCallThis rather than reusing one
// flat dispatch loop across the whole call stack the way the teacher's
// single run() does with its inline frame-pointer reassignment. Going
// through Go's own call stack per script call is the simpler shape
// here, and it's what lets object.Invoker.Call -- reached reentrantly
// from inside OpGetProp/OpSetProp's accessor dispatch -- recurse into a
// brand new interpreter activation without the dispatch loop needing to
// know it was called reentrantly at all.
func (r *Realm) runFrame(frameIdx int) (value.Value, error) {
	f := &r.frames[frameIdx]
	proto := f.closure.Proto
	code := proto.Code
	consts := proto.Consts

	for {
		faultPC := f.ip
		in, next := bytecode.Decode(code, f.ip)
		f.ip = next

		val, jumped, done, ret, err := r.step(f, proto, consts, in)
		if err != nil {
			if isEngineError(err) {
				return value.Undefined, err
			}
			if handler, ok := findHandler(proto, faultPC); ok {
				f.registers[0] = errorToValue(err)
				f.ip = handler
				continue
			}
			return value.Undefined, err
		}
		if done {
			return ret, nil
		}
		if jumped {
			f.ip = int(val.AsInt32())
		}
	}
}

func findHandler(proto *bytecode.FunctionProto, pc int) (int, bool) {
	for _, e := range proto.ExceptionTable {
		if pc >= e.StartPC && pc < e.EndPC {
			return e.HandlerPC, true
		}
	}
	return 0, false
}

// step executes one decoded instruction against frame f. It returns
// either: (done=true, ret) for Return/ReturnUndefined; (jumped=true,
// val holding the new pc as an int32) for a taken branch; or neither,
// meaning normal fallthrough to the already-advanced f.ip.
func (r *Realm) step(f *Frame, proto *bytecode.FunctionProto, consts []value.Value, in bytecode.Instr) (val value.Value, jumped, done bool, ret value.Value, err error) {
	a := in.Args
	regs := f.registers

	switch in.Op {
	case bytecode.OpLoadConst:
		regs[a[0]] = consts[a[1]]
	case bytecode.OpLoadNull:
		regs[a[0]] = value.Null
	case bytecode.OpLoadUndefined:
		regs[a[0]] = value.Undefined
	case bytecode.OpLoadTrue:
		regs[a[0]] = value.True
	case bytecode.OpLoadFalse:
		regs[a[0]] = value.False
	case bytecode.OpMove:
		regs[a[0]] = regs[a[1]]

	case bytecode.OpAdd:
		regs[a[0]] = r.binaryAdd(regs[a[1]], regs[a[2]])
	case bytecode.OpSub:
		regs[a[0]] = r.binarySub(regs[a[1]], regs[a[2]])
	case bytecode.OpMul:
		regs[a[0]] = r.binaryMul(regs[a[1]], regs[a[2]])
	case bytecode.OpDiv:
		regs[a[0]] = r.binaryDiv(regs[a[1]], regs[a[2]])
	case bytecode.OpMod:
		regs[a[0]] = r.binaryMod(regs[a[1]], regs[a[2]])
	case bytecode.OpNegate:
		regs[a[0]] = r.negate(regs[a[1]])
	case bytecode.OpNot:
		regs[a[0]] = value.Bool(!r.truthy(regs[a[1]]))

	case bytecode.OpBitAnd:
		regs[a[0]] = value.Int32(r.toInt32(regs[a[1]]) & r.toInt32(regs[a[2]]))
	case bytecode.OpBitOr:
		regs[a[0]] = value.Int32(r.toInt32(regs[a[1]]) | r.toInt32(regs[a[2]]))
	case bytecode.OpBitXor:
		regs[a[0]] = value.Int32(r.toInt32(regs[a[1]]) ^ r.toInt32(regs[a[2]]))
	case bytecode.OpBitNot:
		regs[a[0]] = value.Int32(^r.toInt32(regs[a[1]]))
	case bytecode.OpShl:
		regs[a[0]] = value.Int32(r.toInt32(regs[a[1]]) << (uint32(r.toInt32(regs[a[2]])) & 31))
	case bytecode.OpShr:
		regs[a[0]] = value.Int32(r.toInt32(regs[a[1]]) >> (uint32(r.toInt32(regs[a[2]])) & 31))
	case bytecode.OpUShr:
		regs[a[0]] = boxUint32(r.toUint32(regs[a[1]]) >> (uint32(r.toInt32(regs[a[2]])) & 31))

	case bytecode.OpEqual:
		regs[a[0]] = value.Bool(r.looseEquals(regs[a[1]], regs[a[2]]))
	case bytecode.OpNotEqual:
		regs[a[0]] = value.Bool(!r.looseEquals(regs[a[1]], regs[a[2]]))
	case bytecode.OpStrictEqual:
		regs[a[0]] = value.Bool(r.strictEquals(regs[a[1]], regs[a[2]]))
	case bytecode.OpStrictNotEqual:
		regs[a[0]] = value.Bool(!r.strictEquals(regs[a[1]], regs[a[2]]))
	case bytecode.OpLess:
		regs[a[0]] = value.Bool(r.lessThan(regs[a[1]], regs[a[2]]))
	case bytecode.OpLessEqual:
		regs[a[0]] = value.Bool(!r.lessThan(regs[a[2]], regs[a[1]]))
	case bytecode.OpGreater:
		regs[a[0]] = value.Bool(r.lessThan(regs[a[2]], regs[a[1]]))
	case bytecode.OpGreaterEqual:
		regs[a[0]] = value.Bool(!r.lessThan(regs[a[1]], regs[a[2]]))

	case bytecode.OpJumpIfLess:
		return branchIf(r.lessThan(regs[a[0]], regs[a[1]]), f.ip, int(a[2]))
	case bytecode.OpJumpIfLessEqual:
		return branchIf(!r.lessThan(regs[a[1]], regs[a[0]]), f.ip, int(a[2]))
	case bytecode.OpJumpIfGreater:
		return branchIf(r.lessThan(regs[a[1]], regs[a[0]]), f.ip, int(a[2]))
	case bytecode.OpJumpIfGreaterEqual:
		return branchIf(!r.lessThan(regs[a[0]], regs[a[1]]), f.ip, int(a[2]))
	case bytecode.OpJumpIfEqual:
		return branchIf(r.looseEquals(regs[a[0]], regs[a[1]]), f.ip, int(a[2]))
	case bytecode.OpJumpIfNotEqual:
		return branchIf(!r.looseEquals(regs[a[0]], regs[a[1]]), f.ip, int(a[2]))

	case bytecode.OpJump:
		return value.Int32(int32(f.ip + int(a[0]))), true, false, value.Undefined, nil
	case bytecode.OpJumpIfTrue:
		return branchIf(r.truthy(regs[a[0]]), f.ip, int(a[1]))
	case bytecode.OpJumpIfFalse:
		return branchIf(!r.truthy(regs[a[0]]), f.ip, int(a[1]))

	case bytecode.OpMakeObject:
		regs[a[0]] = value.FromHeapPointer(unsafe.Pointer(object.NewPlainObject(value.Null, "Object")))
	case bytecode.OpMakeArray:
		obj := object.NewPlainObject(value.Null, "Array")
		start, count := int(a[1]), int(a[2])
		for i := 0; i < count; i++ {
			obj.DefineData(indexKey(i), regs[start+i], object.DefaultDataAttrs)
		}
		obj.DefineData(object.StringKey("length"), value.Int32(int32(count)), object.AttrWritable)
		regs[a[0]] = value.FromHeapPointer(unsafe.Pointer(obj))
	case bytecode.OpGetIndex:
		v, e := r.getIndexed(regs[a[1]], regs[a[2]])
		if e != nil {
			return value.Undefined, false, false, value.Undefined, e
		}
		regs[a[0]] = v
	case bytecode.OpSetIndex:
		if e := r.setIndexed(regs[a[0]], regs[a[1]], regs[a[2]]); e != nil {
			return value.Undefined, false, false, value.Undefined, e
		}

	case bytecode.OpGetProp:
		v, e := r.getProp(f.closure, regs[a[1]], consts[a[2]], int(a[3]))
		if e != nil {
			return value.Undefined, false, false, value.Undefined, e
		}
		regs[a[0]] = v
	case bytecode.OpSetProp:
		if e := r.setProp(f.closure, regs[a[0]], regs[a[1]], consts[a[2]], int(a[3])); e != nil {
			return value.Undefined, false, false, value.Undefined, e
		}
	case bytecode.OpDeleteProp:
		regs[a[0]] = value.Bool(r.deleteProp(regs[a[1]], consts[a[2]]))

	case bytecode.OpGetGlobal:
		regs[a[0]] = r.getGlobal(int(a[1]))
	case bytecode.OpSetGlobal:
		r.setGlobal(int(a[0]), regs[a[1]])

	case bytecode.OpCall:
		res, e := r.invoke(regs[a[1]], value.Undefined, regs[a[2]:a[2]+a[3]])
		if e != nil {
			return value.Undefined, false, false, value.Undefined, e
		}
		regs[a[0]] = res
	case bytecode.OpCallThis:
		res, e := r.invoke(regs[a[1]], regs[a[2]], regs[a[3]:a[3]+a[4]])
		if e != nil {
			return value.Undefined, false, false, value.Undefined, e
		}
		regs[a[0]] = res
	case bytecode.OpReturn:
		return value.Undefined, false, true, regs[a[0]], nil
	case bytecode.OpReturnUndefined:
		return value.Undefined, false, true, value.Undefined, nil

	case bytecode.OpClosure:
		child := proto.ChildFuncs[a[1]]
		closure := r.makeClosure(f, child)
		regs[a[0]] = value.FromHeapPointer(unsafe.Pointer(closure))
	case bytecode.OpLoadFree:
		regs[a[0]] = f.closure.Upvalues[a[1]].get()
	case bytecode.OpSetFree:
		f.closure.Upvalues[a[0]].set(regs[a[1]])

	case bytecode.OpTypeof:
		regs[a[0]] = stringValue(jsstring.NewFlat(r.typeOf(regs[a[1]])))
	case bytecode.OpToNumber:
		regs[a[0]] = value.Double(r.toNumber(regs[a[1]]))
	case bytecode.OpInstanceof:
		b, e := r.instanceOf(regs[a[1]], regs[a[2]])
		if e != nil {
			return value.Undefined, false, false, value.Undefined, e
		}
		regs[a[0]] = value.Bool(b)
	case bytecode.OpIn:
		b, e := r.hasProperty(regs[a[2]], regs[a[1]])
		if e != nil {
			return value.Undefined, false, false, value.Undefined, e
		}
		regs[a[0]] = value.Bool(b)
	}
	return value.Undefined, false, false, value.Undefined, nil
}

func branchIf(cond bool, ip, delta int) (value.Value, bool, bool, value.Value, error) {
	if !cond {
		return value.Undefined, false, false, value.Undefined, nil
	}
	return value.Int32(int32(ip + delta)), true, false, value.Undefined, nil
}

func (r *Realm) truthy(v value.Value) bool {
	return v.ToBoolean(
		func(s value.Value) bool { return jsstring.FromHeader(s.HeapHeader()).Len() == 0 },
		func(value.Value) bool { return false },
	)
}

func (r *Realm) negate(v value.Value) value.Value {
	if v.IsInt32() {
		n := v.AsInt32()
		if n != -2147483648 {
			return value.Int32(-n)
		}
	}
	return value.Double(-r.toNumber(v))
}

// makeClosure instantiates child against the capturing frame f,
// following each of child's UpvalDesc recipes: a local capture opens
// (or reuses) an Upvalue over f's register window, a parent-upvalue
// capture just reshares f.closure's own Upvalues entry.
func (r *Realm) makeClosure(f *Frame, child *bytecode.FunctionProto) *Closure {
	upvalues := make([]*Upvalue, len(child.Upvalues))
	for i, d := range child.Upvalues {
		if d.FromParentLocal {
			upvalues[i] = r.captureUpvalue(&f.registers[d.Index])
		} else {
			upvalues[i] = f.closure.Upvalues[d.Index]
		}
	}
	return newClosure(child, f.closure.Chunk, upvalues)
}

func (r *Realm) typeOf(v value.Value) string {
	switch v.Kind() {
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "object"
	case value.KindBool:
		return "boolean"
	case value.KindInt32, value.KindDouble:
		return "number"
	case value.KindString:
		return "string"
	default:
		if h := v.HeapHeader(); h != nil && isCallableKind(h.Kind) {
			return "function"
		}
		return "object"
	}
}

func indexKey(i int) object.PropertyKey {
	return object.StringKey(strconv.Itoa(i))
}

func objectFromValue(v value.Value) *object.PlainObject {
	h := v.HeapHeader()
	if h == nil || h.Kind != cell.KindObject {
		return nil
	}
	return (*object.PlainObject)(unsafe.Pointer(h))
}

func (r *Realm) getIndexed(arr, idx value.Value) (value.Value, error) {
	o := objectFromValue(arr)
	if o == nil {
		return value.Undefined, r.scriptErrorf("TypeError: cannot read property of non-object")
	}
	key := r.propertyKeyOf(idx)
	return o.Get(key, arr, r)
}

func (r *Realm) setIndexed(arr, idx, v value.Value) error {
	o := objectFromValue(arr)
	if o == nil {
		return r.scriptErrorf("TypeError: cannot set property of non-object")
	}
	return o.Set(r.propertyKeyOf(idx), v, o, r)
}

// propertyKeyOf turns an index/property-name register into a
// PropertyKey: integer-valued numbers address the string-keyed numeric
// slots OpMakeArray lays down (see the array-via-PlainObject note in
// DESIGN.md), everything else coerces through ToString.
func (r *Realm) propertyKeyOf(v value.Value) object.PropertyKey {
	if v.IsInt32() {
		return indexKey(int(v.AsInt32()))
	}
	return object.StringKey(r.toJSString(v).String())
}

func (r *Realm) getProp(c *Closure, obj value.Value, nameConst value.Value, cacheSite int) (value.Value, error) {
	key := object.StringKey(jsstring.FromHeader(nameConst.HeapHeader()).String())
	if obj.IsString() {
		return r.getStringProp(obj, key)
	}
	o := objectFromValue(obj)
	if o == nil {
		return value.Undefined, r.scriptErrorf("TypeError: cannot read property of non-object")
	}
	cache := &c.Chunk.Caches[cacheSite]
	if offset, ok := cache.Lookup(o.Shape()); ok {
		return o.FastGetByOffset(offset), nil
	}
	if field, ok := o.GetOwnField(key); ok && !field.Attrs.IsAccessor() {
		cache.Record(o.Shape(), field.Offset)
	}
	return o.Get(key, obj, r)
}

// getStringProp resolves a property access on a string primitive: the
// "length" slot is synthetic (strings carry no Shape to store it in),
// everything else walks the single shared String.prototype pkg/runtime
// installs, with the string value itself passed through as receiver.
func (r *Realm) getStringProp(obj value.Value, key object.PropertyKey) (value.Value, error) {
	if key.Kind == object.KeyString && key.Str == "length" {
		return value.Int32(int32(jsstring.FromHeader(obj.HeapHeader()).Len())), nil
	}
	if r.StringProto == nil {
		return value.Undefined, nil
	}
	return r.StringProto.Get(key, obj, r)
}

func (r *Realm) setProp(c *Closure, obj, v value.Value, nameConst value.Value, cacheSite int) error {
	o := objectFromValue(obj)
	if o == nil {
		return r.scriptErrorf("TypeError: cannot set property of non-object")
	}
	key := object.StringKey(jsstring.FromHeader(nameConst.HeapHeader()).String())
	cache := &c.Chunk.Caches[cacheSite]
	if offset, ok := cache.Lookup(o.Shape()); ok {
		if field, ok := o.GetOwnField(key); ok && field.Attrs.Writable() {
			o.FastSetByOffset(offset, v)
			return nil
		}
	}
	err := o.Set(key, v, o, r)
	if err == nil {
		if field, ok := o.GetOwnField(key); ok && !field.Attrs.IsAccessor() {
			cache.Record(o.Shape(), field.Offset)
		}
	}
	return err
}

func (r *Realm) deleteProp(obj, nameConst value.Value) bool {
	o := objectFromValue(obj)
	if o == nil {
		return true
	}
	key := object.StringKey(jsstring.FromHeader(nameConst.HeapHeader()).String())
	return o.DeleteOwn(key)
}

func (r *Realm) hasProperty(obj, keyVal value.Value) (bool, error) {
	o := objectFromValue(obj)
	if o == nil {
		return false, r.scriptErrorf("TypeError: cannot use 'in' on non-object")
	}
	key := r.propertyKeyOf(keyVal)
	for cur := o; cur != nil; cur = objectFromValue(cur.Prototype()) {
		if _, ok := cur.GetOwnField(key); ok {
			return true, nil
		}
	}
	return false, nil
}

// instanceOf walks obj's prototype chain looking for ctor's own
// "prototype" property, per ECMAScript's OrdinaryHasInstance.
func (r *Realm) instanceOf(obj, ctor value.Value) (bool, error) {
	ctorObj := objectFromValue(ctor)
	if ctorObj == nil || !isCallableKind(ctor.HeapHeader().Kind) {
		return false, r.scriptErrorf("TypeError: right-hand side of 'instanceof' is not callable")
	}
	protoVal, err := ctorObj.Get(object.StringKey("prototype"), ctor, r)
	if err != nil {
		return false, err
	}
	protoHeader := protoVal.HeapHeader()
	if protoHeader == nil {
		return false, r.scriptErrorf("TypeError: function has non-object prototype")
	}
	o := objectFromValue(obj)
	for cur := o; cur != nil; cur = objectFromValue(cur.Prototype()) {
		if cur.Prototype().HeapPointer() == unsafe.Pointer(protoHeader) {
			return true, nil
		}
	}
	return false, nil
}
