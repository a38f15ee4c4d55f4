package runtime

import (
	"suzaku/pkg/jsstring"
	"suzaku/pkg/object"
	"suzaku/pkg/value"
	"suzaku/pkg/vm"
)

// installStringPrototype hangs the §4.7 String.prototype methods off
// r.StringProto, the one shared prototype getStringProp walks for every
// string-primitive property access.
func installStringPrototype(r *vm.Realm) {
	proto := object.NewPlainObject(value.Null, "String")
	methods := map[string]vm.NativeFn{
		"replace": stringReplace,
		"split":   stringSplit,
		"trim":    stringTrim,
		"repeat":  stringRepeat,
		"substr":  stringSubstr,
	}
	for name, fn := range methods {
		proto.DefineData(object.StringKey(name), vm.NewNativeValue(name, fn), protoAttrs)
	}
	r.StringProto = proto
}

// stringReplace implements String.prototype.replace per §4.7: a regex
// pattern replaces every match when it carries the global flag and only
// the first otherwise; a plain-string pattern replaces at most its
// first occurrence, per ECMAScript's non-regex replace contract.
func stringReplace(r *vm.Realm, this value.Value, args []value.Value) (value.Value, error) {
	s := r.ToJSString(this)
	units := jsstring.Flatten(s).Units()
	pattern, replacement := argAt(args, 0), argAt(args, 1)

	if re := asRegExp(pattern); re != nil {
		return regexReplace(r, s, units, re, replacement)
	}

	needle := r.ToJSString(pattern)
	start := jsstring.Find(s, needle, 0)
	if start < 0 {
		return vm.NewStringValue(s), nil
	}
	end := start + needle.Len()
	groups := [][2]int{{start, end}}
	rep, err := renderReplacement(r, replacement, units, groups, s)
	if err != nil {
		return value.Undefined, err
	}
	b := jsstring.NewBuilder(s.Len())
	b.WriteStr(jsstring.Substring(s, 0, start))
	b.WriteStr(rep)
	b.WriteStr(jsstring.Substring(s, end, s.Len()))
	return vm.NewStringValue(b.Build(false)), nil
}

func regexReplace(r *vm.Realm, s jsstring.Str, units []uint16, re *RegExp, replacement value.Value) (value.Value, error) {
	global := re.Re.Global()
	b := jsstring.NewBuilder(len(units))
	last, pos := 0, 0
	for pos <= len(units) {
		ok, groups, next := re.Re.Exec(units, pos)
		if !ok {
			break
		}
		start, end := groups[0][0], groups[0][1]
		b.WriteStr(jsstring.Substring(s, last, start))
		rep, err := renderReplacement(r, replacement, units, groups, s)
		if err != nil {
			return value.Undefined, err
		}
		b.WriteStr(rep)
		last = end
		if !global {
			break
		}
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}
	b.WriteStr(jsstring.Substring(s, last, len(units)))
	return vm.NewStringValue(b.Build(false)), nil
}

// renderReplacement produces the text that stands in for one match: the
// callable's return value when replacement is a function (invoked with
// match, each capture, the match offset, and the subject string, per
// §4.7), or the $-substituted literal otherwise.
func renderReplacement(r *vm.Realm, replacement value.Value, units []uint16, groups [][2]int, s jsstring.Str) (jsstring.Str, error) {
	if isCallable(replacement) {
		callArgs := make([]value.Value, 0, len(groups)+2)
		for _, g := range groups {
			if g[0] < 0 {
				callArgs = append(callArgs, value.Undefined)
				continue
			}
			callArgs = append(callArgs, vm.NewStringValue(sliceUnits(units, g[0], g[1])))
		}
		callArgs = append(callArgs, value.Int32(int32(groups[0][0])), vm.NewStringValue(s))
		res, err := r.Call(replacement, value.Undefined, callArgs)
		if err != nil {
			return jsstring.Str{}, err
		}
		return r.ToJSString(res), nil
	}
	return substitute(r.ToJSString(replacement).String(), units, groups), nil
}

func sliceUnits(units []uint16, start, end int) jsstring.Str {
	b := jsstring.NewBuilder(end - start)
	writeUnits(b, units[start:end])
	return b.Build(false)
}

// stringSplit implements String.prototype.split per §4.2: a regex
// separator delegates to SplitByRegex's capture-splicing behaviour, a
// plain-string separator to Split, both already carrying the zero-width
// and empty-separator edge cases.
func stringSplit(r *vm.Realm, this value.Value, args []value.Value) (value.Value, error) {
	s := r.ToJSString(this)
	limit := -1
	if l := argAt(args, 1); !l.IsUndefined() {
		limit = int(toInteger(r.ToNumber(l)))
	}

	sep := argAt(args, 0)
	var pieces []jsstring.Piece
	if re := asRegExp(sep); re != nil {
		pieces = jsstring.SplitByRegex(s, re, limit)
	} else if sep.IsUndefined() {
		pieces = []jsstring.Piece{{Str: s}}
	} else {
		for _, part := range jsstring.Split(s, r.ToJSString(sep)) {
			pieces = append(pieces, jsstring.Piece{Str: part})
			if limit >= 0 && len(pieces) >= limit {
				break
			}
		}
	}

	arr := object.NewPlainObject(value.Null, "Array")
	n := 0
	for _, p := range pieces {
		v := value.Undefined
		if !p.IsUndefined {
			v = vm.NewStringValue(p.Str)
		}
		arr.DefineData(indexKey(n), v, object.DefaultDataAttrs)
		n++
	}
	arr.DefineData(object.StringKey("length"), value.Int32(int32(n)), object.AttrWritable)
	return boxObject(arr), nil
}

func stringTrim(r *vm.Realm, this value.Value, args []value.Value) (value.Value, error) {
	return vm.NewStringValue(jsstring.Trim(r.ToJSString(this))), nil
}

// stringRepeat implements String.prototype.repeat per §4.7: a negative
// count yields the empty string rather than the RangeError a
// fully-conformant engine would raise (the runtime library's §4.7
// contract only commits to the empty-string fallback).
func stringRepeat(r *vm.Realm, this value.Value, args []value.Value) (value.Value, error) {
	count := int(toInteger(r.ToNumber(argAt(args, 0))))
	return vm.NewStringValue(jsstring.Repeat(r.ToJSString(this), count)), nil
}

// stringSubstr implements the legacy String.prototype.substr: negative
// start is offset from the end, length defaults to +Infinity.
func stringSubstr(r *vm.Realm, this value.Value, args []value.Value) (value.Value, error) {
	start := int(intArg(r, args, 0, 0))
	length := -1
	if l := argAt(args, 1); !l.IsUndefined() {
		length = int(toInteger(r.ToNumber(l)))
	}
	return vm.NewStringValue(jsstring.Substr(r.ToJSString(this), start, length)), nil
}

func indexKey(i int) object.PropertyKey {
	return object.StringKey(itoa(i))
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
