package breaker

import (
	"unsafe"

	"suzaku/pkg/bytecode"
	"suzaku/pkg/jsstring"
	"suzaku/pkg/object"
	"suzaku/pkg/typerecord"
	"suzaku/pkg/value"
	"suzaku/pkg/vm"
)

// compileInstr builds the step closure for one decoded instruction.
// nextPC is the word pc immediately following in, the base a jump
// delta is relative to (matching runFrame's f.ip-already-advanced
// convention); wordToStep resolves any such target to a step index.
// record is the live type lattice at this point in the instruction
// stream -- read before emitting (to decide whether a fast path is
// sound) and written after (so later instructions in the same basic
// block see this one's result).
func compileInstr(proto *bytecode.FunctionProto, in bytecode.Instr, nextPC int, wordToStep map[int]int, record *typerecord.Record) step {
	a := in.Args

	switch in.Op {
	case bytecode.OpLoadConst:
		dst, idx := int(a[0]), int(a[1])
		c := proto.Consts[idx]
		record.Put(dst, typerecord.Of(c))
		return func(r *vm.Realm, f *vm.Frame) outcome {
			f.Registers()[dst] = c
			return fallthroughTo()
		}
	case bytecode.OpLoadNull:
		dst := int(a[0])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Object})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			f.Registers()[dst] = value.Null
			return fallthroughTo()
		}
	case bytecode.OpLoadUndefined:
		dst := int(a[0])
		record.Put(dst, typerecord.Entry{Kind: typerecord.NotInt32})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			f.Registers()[dst] = value.Undefined
			return fallthroughTo()
		}
	case bytecode.OpLoadTrue:
		dst := int(a[0])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Bool, Constant: value.True, HasConstant: true})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			f.Registers()[dst] = value.True
			return fallthroughTo()
		}
	case bytecode.OpLoadFalse:
		dst := int(a[0])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Bool, Constant: value.False, HasConstant: true})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			f.Registers()[dst] = value.False
			return fallthroughTo()
		}
	case bytecode.OpMove:
		dst, src := int(a[0]), int(a[1])
		record.Put(dst, record.Get(src))
		return func(r *vm.Realm, f *vm.Frame) outcome {
			f.Registers()[dst] = f.Registers()[src]
			return fallthroughTo()
		}

	case bytecode.OpAdd:
		return emitArith(a, record, typerecord.Add, (*vm.Realm).Add,
			func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y })
	case bytecode.OpSub:
		return emitArith(a, record, typerecord.Subtract, (*vm.Realm).Sub,
			func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y })
	case bytecode.OpMul:
		return emitArith(a, record, typerecord.Multiply, (*vm.Realm).Mul,
			func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y })
	case bytecode.OpDiv:
		dst, lhs, rhs := int(a[0]), int(a[1]), int(a[2])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Number})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			regs[dst] = r.Div(regs[lhs], regs[rhs])
			return fallthroughTo()
		}
	case bytecode.OpMod:
		dst, lhs, rhs := int(a[0]), int(a[1]), int(a[2])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Number})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			regs[dst] = r.Mod(regs[lhs], regs[rhs])
			return fallthroughTo()
		}
	case bytecode.OpNegate:
		dst, src := int(a[0]), int(a[1])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Number})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			regs[dst] = r.Negate(regs[src])
			return fallthroughTo()
		}
	case bytecode.OpNot:
		dst, src := int(a[0]), int(a[1])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Bool})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			regs[dst] = value.Bool(!r.Truthy(regs[src]))
			return fallthroughTo()
		}

	case bytecode.OpBitAnd:
		return emitBitwise(a, record, typerecord.BitwiseAnd, func(x, y int32) int32 { return x & y })
	case bytecode.OpBitOr:
		return emitBitwise(a, record, typerecord.BitwiseOr, func(x, y int32) int32 { return x | y })
	case bytecode.OpBitXor:
		return emitBitwise(a, record, typerecord.BitwiseXor, func(x, y int32) int32 { return x ^ y })
	case bytecode.OpBitNot:
		dst, src := int(a[0]), int(a[1])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Int32})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			regs[dst] = value.Int32(^r.ToInt32(regs[src]))
			return fallthroughTo()
		}
	case bytecode.OpShl:
		return emitBitwise(a, record, typerecord.Lshift, func(x, y int32) int32 { return x << (uint32(y) & 31) })
	case bytecode.OpShr:
		return emitBitwise(a, record, typerecord.Rshift, func(x, y int32) int32 { return x >> (uint32(y) & 31) })
	case bytecode.OpUShr:
		dst, lhs, rhs := int(a[0]), int(a[1]), int(a[2])
		record.Put(dst, typerecord.RshiftLogical(record.Get(lhs), record.Get(rhs)))
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			regs[dst] = vm.BoxUint32(r.ToUint32(regs[lhs]) >> (uint32(r.ToInt32(regs[rhs])) & 31))
			return fallthroughTo()
		}

	case bytecode.OpEqual:
		return emitCompare(a, record, func(r *vm.Realm, x, y value.Value) bool { return r.LooseEquals(x, y) }, false)
	case bytecode.OpNotEqual:
		return emitCompare(a, record, func(r *vm.Realm, x, y value.Value) bool { return r.LooseEquals(x, y) }, true)
	case bytecode.OpStrictEqual:
		return emitCompare(a, record, func(r *vm.Realm, x, y value.Value) bool { return r.StrictEquals(x, y) }, false)
	case bytecode.OpStrictNotEqual:
		return emitCompare(a, record, func(r *vm.Realm, x, y value.Value) bool { return r.StrictEquals(x, y) }, true)
	case bytecode.OpLess:
		return emitCompare(a, record, func(r *vm.Realm, x, y value.Value) bool { return r.LessThan(x, y) }, false)
	case bytecode.OpLessEqual:
		return emitCompare(a, record, func(r *vm.Realm, x, y value.Value) bool { return !r.LessThan(y, x) }, false)
	case bytecode.OpGreater:
		return emitCompare(a, record, func(r *vm.Realm, x, y value.Value) bool { return r.LessThan(y, x) }, false)
	case bytecode.OpGreaterEqual:
		return emitCompare(a, record, func(r *vm.Realm, x, y value.Value) bool { return !r.LessThan(x, y) }, false)

	case bytecode.OpJumpIfLess:
		return emitFusedBranch(a, nextPC, wordToStep, func(r *vm.Realm, x, y value.Value) bool { return r.LessThan(x, y) })
	case bytecode.OpJumpIfLessEqual:
		return emitFusedBranch(a, nextPC, wordToStep, func(r *vm.Realm, x, y value.Value) bool { return !r.LessThan(y, x) })
	case bytecode.OpJumpIfGreater:
		return emitFusedBranch(a, nextPC, wordToStep, func(r *vm.Realm, x, y value.Value) bool { return r.LessThan(y, x) })
	case bytecode.OpJumpIfGreaterEqual:
		return emitFusedBranch(a, nextPC, wordToStep, func(r *vm.Realm, x, y value.Value) bool { return !r.LessThan(x, y) })
	case bytecode.OpJumpIfEqual:
		return emitFusedBranch(a, nextPC, wordToStep, func(r *vm.Realm, x, y value.Value) bool { return r.LooseEquals(x, y) })
	case bytecode.OpJumpIfNotEqual:
		return emitFusedBranch(a, nextPC, wordToStep, func(r *vm.Realm, x, y value.Value) bool { return !r.LooseEquals(x, y) })

	case bytecode.OpJump:
		target := mustStep(wordToStep, nextPC+int(a[0]))
		return func(r *vm.Realm, f *vm.Frame) outcome { return jumpTo(target) }
	case bytecode.OpJumpIfTrue:
		src := int(a[0])
		target := mustStep(wordToStep, nextPC+int(a[1]))
		return func(r *vm.Realm, f *vm.Frame) outcome {
			if r.Truthy(f.Registers()[src]) {
				return jumpTo(target)
			}
			return fallthroughTo()
		}
	case bytecode.OpJumpIfFalse:
		src := int(a[0])
		target := mustStep(wordToStep, nextPC+int(a[1]))
		return func(r *vm.Realm, f *vm.Frame) outcome {
			if !r.Truthy(f.Registers()[src]) {
				return jumpTo(target)
			}
			return fallthroughTo()
		}

	case bytecode.OpMakeObject:
		dst := int(a[0])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Object})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			obj := object.NewPlainObject(value.Null, "Object")
			f.Registers()[dst] = value.FromHeapPointer(unsafe.Pointer(obj))
			return fallthroughTo()
		}
	case bytecode.OpMakeArray:
		dst, start, count := int(a[0]), int(a[1]), int(a[2])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Object})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			obj := object.NewPlainObject(value.Null, "Array")
			for i := 0; i < count; i++ {
				obj.DefineData(indexKey(i), regs[start+i], object.DefaultDataAttrs)
			}
			obj.DefineData(object.StringKey("length"), value.Int32(int32(count)), object.AttrWritable)
			regs[dst] = value.FromHeapPointer(unsafe.Pointer(obj))
			return fallthroughTo()
		}
	case bytecode.OpGetIndex:
		dst, arr, idx := int(a[0]), int(a[1]), int(a[2])
		record.Put(dst, typerecord.Entry{})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			v, err := r.GetIndex(regs[arr], regs[idx])
			if err != nil {
				return fail(err)
			}
			regs[dst] = v
			return fallthroughTo()
		}
	case bytecode.OpSetIndex:
		arr, idx, val := int(a[0]), int(a[1]), int(a[2])
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			if err := r.SetIndex(regs[arr], regs[idx], regs[val]); err != nil {
				return fail(err)
			}
			return fallthroughTo()
		}

	case bytecode.OpGetProp:
		dst, obj, nameIdx, cacheSite := int(a[0]), int(a[1]), int(a[2]), int(a[3])
		name := proto.Consts[nameIdx]
		record.Put(dst, typerecord.Entry{})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			v, err := r.GetProp(f.Closure(), regs[obj], name, cacheSite)
			if err != nil {
				return fail(err)
			}
			regs[dst] = v
			return fallthroughTo()
		}
	case bytecode.OpSetProp:
		obj, val, nameIdx, cacheSite := int(a[0]), int(a[1]), int(a[2]), int(a[3])
		name := proto.Consts[nameIdx]
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			if err := r.SetProp(f.Closure(), regs[obj], regs[val], name, cacheSite); err != nil {
				return fail(err)
			}
			return fallthroughTo()
		}
	case bytecode.OpDeleteProp:
		dst, obj, nameIdx := int(a[0]), int(a[1]), int(a[2])
		name := proto.Consts[nameIdx]
		record.Put(dst, typerecord.Entry{Kind: typerecord.Bool})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			regs[dst] = value.Bool(r.DeleteProp(regs[obj], name))
			return fallthroughTo()
		}

	case bytecode.OpGetGlobal:
		dst, idx := int(a[0]), int(a[1])
		record.Put(dst, typerecord.Entry{})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			f.Registers()[dst] = r.GetGlobal(idx)
			return fallthroughTo()
		}
	case bytecode.OpSetGlobal:
		idx, src := int(a[0]), int(a[1])
		return func(r *vm.Realm, f *vm.Frame) outcome {
			r.SetGlobal(idx, f.Registers()[src])
			return fallthroughTo()
		}

	case bytecode.OpCall:
		dst, fnReg, argStart, argCount := int(a[0]), int(a[1]), int(a[2]), int(a[3])
		record.Put(dst, typerecord.Entry{})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			v, err := r.Invoke(regs[fnReg], value.Undefined, regs[argStart:argStart+argCount])
			if err != nil {
				return fail(err)
			}
			regs[dst] = v
			return fallthroughTo()
		}
	case bytecode.OpCallThis:
		dst, fnReg, thisReg, argStart, argCount := int(a[0]), int(a[1]), int(a[2]), int(a[3]), int(a[4])
		record.Put(dst, typerecord.Entry{})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			v, err := r.Invoke(regs[fnReg], regs[thisReg], regs[argStart:argStart+argCount])
			if err != nil {
				return fail(err)
			}
			regs[dst] = v
			return fallthroughTo()
		}
	case bytecode.OpReturn:
		src := int(a[0])
		return func(r *vm.Realm, f *vm.Frame) outcome { return returnValue(f.Registers()[src]) }
	case bytecode.OpReturnUndefined:
		return func(r *vm.Realm, f *vm.Frame) outcome { return returnValue(value.Undefined) }

	case bytecode.OpClosure:
		dst, childIdx := int(a[0]), int(a[1])
		child := proto.ChildFuncs[childIdx]
		record.Put(dst, typerecord.Entry{Kind: typerecord.Object})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			c := r.MakeClosure(f, child)
			f.Registers()[dst] = value.FromHeapPointer(unsafe.Pointer(c))
			return fallthroughTo()
		}
	case bytecode.OpLoadFree:
		dst, upvalIdx := int(a[0]), int(a[1])
		record.Put(dst, typerecord.Entry{})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			f.Registers()[dst] = f.Closure().Upvalues[upvalIdx].Get()
			return fallthroughTo()
		}
	case bytecode.OpSetFree:
		upvalIdx, src := int(a[0]), int(a[1])
		return func(r *vm.Realm, f *vm.Frame) outcome {
			f.Closure().Upvalues[upvalIdx].Set(f.Registers()[src])
			return fallthroughTo()
		}

	case bytecode.OpTypeof:
		dst, src := int(a[0]), int(a[1])
		record.Put(dst, typerecord.Entry{Kind: typerecord.String})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			regs[dst] = stringValue(jsstring.NewFlat(r.TypeOf(regs[src])))
			return fallthroughTo()
		}
	case bytecode.OpToNumber:
		dst, src := int(a[0]), int(a[1])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Double})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			regs[dst] = value.Double(r.ToNumber(regs[src]))
			return fallthroughTo()
		}
	case bytecode.OpInstanceof:
		dst, obj, ctor := int(a[0]), int(a[1]), int(a[2])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Bool})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			b, err := r.InstanceOf(regs[obj], regs[ctor])
			if err != nil {
				return fail(err)
			}
			regs[dst] = value.Bool(b)
			return fallthroughTo()
		}
	case bytecode.OpIn:
		dst, key, obj := int(a[0]), int(a[1]), int(a[2])
		record.Put(dst, typerecord.Entry{Kind: typerecord.Bool})
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			b, err := r.HasProperty(regs[obj], regs[key])
			if err != nil {
				return fail(err)
			}
			regs[dst] = value.Bool(b)
			return fallthroughTo()
		}
	}

	return func(r *vm.Realm, f *vm.Frame) outcome { return fallthroughTo() }
}

func mustStep(wordToStep map[int]int, pc int) int {
	if s, ok := wordToStep[pc]; ok {
		return s
	}
	return -1
}

// emitArith is the closure-threaded equivalent of
// compiler_arithmetic.h's EmitBINARY_ADD/EmitBINARY_MULTIPLY: when the
// type record already proves both operands are known int32, skip the
// generic runtime stub's tag dispatch and compute directly at int64
// width to detect overflow, widening to double and reloading both
// operands fresh on that path rather than reusing anything captured
// under the now-invalidated fast-path assumption (§8 Open Questions
// item 1(b)). When the record can't prove the fast path sound, fall
// back to the generic stub exactly as the interpreter would.
func emitArith(a [5]bytecode.Reg, record *typerecord.Record, fold func(typerecord.Entry, typerecord.Entry) typerecord.Entry, stub func(*vm.Realm, value.Value, value.Value) value.Value, foldInt64 func(int64, int64) int64, foldFloat64 func(float64, float64) float64) step {
	dst, lhs, rhs := int(a[0]), int(a[1]), int(a[2])
	lhsEntry, rhsEntry := record.Get(lhs), record.Get(rhs)
	record.Put(dst, fold(lhsEntry, rhsEntry))

	if lhsEntry.Kind == typerecord.Int32 && rhsEntry.Kind == typerecord.Int32 {
		return func(r *vm.Realm, f *vm.Frame) outcome {
			regs := f.Registers()
			x, y := regs[lhs], regs[rhs]
			if x.IsInt32() && y.IsInt32() {
				exact := foldInt64(int64(x.AsInt32()), int64(y.AsInt32()))
				if exact == int64(int32(exact)) {
					regs[dst] = value.Int32(int32(exact))
				} else {
					x, y = regs[lhs], regs[rhs]
					regs[dst] = value.Double(foldFloat64(float64(x.AsInt32()), float64(y.AsInt32())))
				}
				return fallthroughTo()
			}
			regs[dst] = stub(r, x, y)
			return fallthroughTo()
		}
	}

	return func(r *vm.Realm, f *vm.Frame) outcome {
		regs := f.Registers()
		regs[dst] = stub(r, regs[lhs], regs[rhs])
		return fallthroughTo()
	}
}

func emitBitwise(a [5]bytecode.Reg, record *typerecord.Record, fold func(typerecord.Entry, typerecord.Entry) typerecord.Entry, apply func(int32, int32) int32) step {
	dst, lhs, rhs := int(a[0]), int(a[1]), int(a[2])
	record.Put(dst, fold(record.Get(lhs), record.Get(rhs)))
	return func(r *vm.Realm, f *vm.Frame) outcome {
		regs := f.Registers()
		regs[dst] = value.Int32(apply(r.ToInt32(regs[lhs]), r.ToInt32(regs[rhs])))
		return fallthroughTo()
	}
}

func emitCompare(a [5]bytecode.Reg, record *typerecord.Record, cmp func(*vm.Realm, value.Value, value.Value) bool, negate bool) step {
	dst, lhs, rhs := int(a[0]), int(a[1]), int(a[2])
	record.Put(dst, typerecord.Entry{Kind: typerecord.Bool})
	return func(r *vm.Realm, f *vm.Frame) outcome {
		regs := f.Registers()
		result := cmp(r, regs[lhs], regs[rhs])
		if negate {
			result = !result
		}
		regs[dst] = value.Bool(result)
		return fallthroughTo()
	}
}

func emitFusedBranch(a [5]bytecode.Reg, nextPC int, wordToStep map[int]int, cmp func(*vm.Realm, value.Value, value.Value) bool) step {
	lhs, rhs := int(a[0]), int(a[1])
	target := mustStep(wordToStep, nextPC+int(a[2]))
	return func(r *vm.Realm, f *vm.Frame) outcome {
		regs := f.Registers()
		if cmp(r, regs[lhs], regs[rhs]) {
			return jumpTo(target)
		}
		return fallthroughTo()
	}
}
