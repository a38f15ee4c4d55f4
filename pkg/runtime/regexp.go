package runtime

import (
	"unicode/utf16"
	"unsafe"

	"suzaku/pkg/aero"
	"suzaku/pkg/cell"
	"suzaku/pkg/value"
	"suzaku/pkg/vm"
)

// RegExp is the heap cell that boxes a compiled aero.Regexp as a
// script-visible value. aero.Regexp itself is a plain Go value (see its
// own doc comment) so that pkg/jsstring can drive it without importing
// pkg/aero; the runtime library is what actually needs one addressable
// through a value.Value, the same relationship jsstring.Fiber/Cord have
// to their own cell.Header. It implements jsstring.Matcher by
// forwarding to Re, so String.prototype.replace/split can take one
// directly wherever they'd otherwise take a literal string pattern.
type RegExp struct {
	cell.Header
	Re     *aero.Regexp
	Source string
	Flags  string
}

func (re *RegExp) ScanEdges(func(*cell.Header)) {}

func (re *RegExp) Match(input []uint16, at int) (bool, [][2]int) { return re.Re.Match(input, at) }
func (re *RegExp) GroupCount() int                               { return re.Re.GroupCount() }

func regexpValue(re *RegExp) value.Value { return value.FromHeapPointer(unsafe.Pointer(re)) }

// asRegExp returns the RegExp a value boxes, or nil if v isn't one --
// replace/split use this to tell a regex argument from a plain string.
func asRegExp(v value.Value) *RegExp {
	h := v.HeapHeader()
	if h == nil || h.Kind != cell.KindRegexCode {
		return nil
	}
	return (*RegExp)(unsafe.Pointer(h))
}

func compileRegExp(pattern, flags string) (*RegExp, error) {
	f, err := aero.ParseFlags(flags)
	if err != nil {
		return nil, err
	}
	re, err := aero.Compile(pattern, f)
	if err != nil {
		return nil, err
	}
	return &RegExp{Header: cell.Header{Kind: cell.KindRegexCode}, Re: re, Source: pattern, Flags: flags}, nil
}

// installRegExp wires a RegExp(pattern, flags) global constructor, the
// one script-visible way to produce a regex value in a bytecode target
// with no `/pattern/flags` literal syntax of its own (§6's regex-literal
// grammar is the VM-level contract; text-literal lexing is a front-end
// concern this repo's bytecode-only surface has no call site for).
func installRegExp(r *vm.Realm) {
	r.RegisterNative("RegExp", func(r *vm.Realm, this value.Value, args []value.Value) (value.Value, error) {
		pattern := r.ToJSString(argAt(args, 0)).String()
		flags := ""
		if f := argAt(args, 1); !f.IsUndefined() {
			flags = r.ToJSString(f).String()
		}
		re, err := compileRegExp(pattern, flags)
		if err != nil {
			return value.Undefined, r.ScriptErrorf("SyntaxError: invalid regular expression: %v", err)
		}
		return regexpValue(re), nil
	})
}

func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}
