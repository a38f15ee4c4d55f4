package jsstring

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LocaleCaser is the pure function §4.2/§9 ask the core to call for
// locale-sensitive case mapping: (locale, code_unit, prev, next) ->
// replacement code point(s). The default (nil locale) hook below uses
// golang.org/x/text/cases, which already handles the few one-to-many
// expansions (e.g. German ß -> "SS") that motivate the multi-unit result.
type LocaleCaser func(locale string, codeUnit uint16, prev, next uint16) []uint16

// defaultUpper and defaultLower perform default (locale-less) case mapping by round
// tripping a single code unit through golang.org/x/text/cases, which is
// sufficient for every case covered by ToUpperCase/ToLowerCase without a
// locale argument.
func defaultUpper(locale string, codeUnit uint16, prev, next uint16) []uint16 {
	return mapOne(localeTag(locale), cases.Upper, codeUnit)
}

func defaultLower(locale string, codeUnit uint16, prev, next uint16) []uint16 {
	return mapOne(localeTag(locale), cases.Lower, codeUnit)
}

type caserCtor func(language.Tag, ...cases.Option) cases.Caser

func localeTag(locale string) language.Tag {
	if locale == "" {
		return language.Und
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und
	}
	return tag
}

func mapOne(tag language.Tag, mk caserCtor, u uint16) []uint16 {
	caser := mk(tag)
	in := string(rune(u))
	out := caser.String(in)
	runes := []rune(out)
	units := make([]uint16, 0, len(runes)*2)
	for _, r := range runes {
		if r > 0xFFFF {
			hi, lo := utf16Encode(r)
			units = append(units, hi, lo)
			continue
		}
		units = append(units, uint16(r))
	}
	return units
}

// ToUpper / ToLower implement §4.2's "case conversion takes an optional
// locale" contract. caser may be nil to use the default Unicode mapping.
func ToUpper(s Str, locale string, caser LocaleCaser) Str {
	return mapCase(s, locale, caser, defaultUpper)
}

func ToLower(s Str, locale string, caser LocaleCaser) Str {
	return mapCase(s, locale, caser, defaultLower)
}

const caseRemove = rune(-1)

func mapCase(s Str, locale string, caser, fallback LocaleCaser) Str {
	if caser == nil {
		caser = fallback
	}
	f := Flatten(s)
	units := f.Units()
	b := NewBuilder(len(units))
	for i, u := range units {
		var prev, next uint16
		if i > 0 {
			prev = units[i-1]
		}
		if i+1 < len(units) {
			next = units[i+1]
		}
		mapped := caser(locale, u, prev, next)
		for _, m := range mapped {
			b.WriteUnit(m)
		}
	}
	return b.Build(f.Is8Bit())
}
