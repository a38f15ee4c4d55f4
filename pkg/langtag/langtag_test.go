package langtag

import (
	"reflect"
	"testing"
)

func TestParseSimpleLanguage(t *testing.T) {
	tag := Parse("en")
	if !tag.WellFormed || tag.Language != "en" {
		t.Fatalf("got %+v, want well-formed language=en", tag)
	}
}

func TestParseLanguageRegion(t *testing.T) {
	tag := Parse("en-US")
	if !tag.WellFormed || tag.Language != "en" || tag.Region != "US" {
		t.Fatalf("got %+v, want en-US", tag)
	}
}

func TestParseLanguageScriptRegion(t *testing.T) {
	tag := Parse("zh-Hans-CN")
	if !tag.WellFormed || tag.Language != "zh" || tag.Script != "Hans" || tag.Region != "CN" {
		t.Fatalf("got %+v, want zh-Hans-CN", tag)
	}
}

func TestParseNumericRegion(t *testing.T) {
	tag := Parse("es-419")
	if !tag.WellFormed || tag.Region != "419" {
		t.Fatalf("got %+v, want region=419", tag)
	}
}

func TestParseVariant(t *testing.T) {
	tag := Parse("de-DE-1901")
	if !tag.WellFormed || !reflect.DeepEqual(tag.Variants, []string{"1901"}) {
		t.Fatalf("got %+v, want variant 1901", tag)
	}
}

func TestParseExtlang(t *testing.T) {
	tag := Parse("zh-cmn-Hans-CN")
	if !tag.WellFormed || tag.Language != "zh" || !reflect.DeepEqual(tag.Extlang, []string{"cmn"}) {
		t.Fatalf("got %+v, want extlang=cmn", tag)
	}
}

func TestParseExtensionAndPrivateUse(t *testing.T) {
	tag := Parse("en-a-bbb-x-a-ccc")
	if !tag.WellFormed {
		t.Fatalf("expected well-formed, got %+v", tag)
	}
	if got := tag.Extensions['a']; !reflect.DeepEqual(got, []string{"bbb"}) {
		t.Fatalf("got extensions[a]=%v, want [bbb]", got)
	}
	if !reflect.DeepEqual(tag.PrivateUse, []string{"a", "ccc"}) {
		t.Fatalf("got privateuse=%v, want [a ccc]", tag.PrivateUse)
	}
}

func TestParseDuplicateSingletonRejected(t *testing.T) {
	tag := Parse("en-a-bbb-a-ccc")
	if tag.WellFormed {
		t.Fatalf("expected malformed due to duplicate singleton, got %+v", tag)
	}
}

func TestParseDuplicateSingletonCaseInsensitive(t *testing.T) {
	// §8's Open Question resolution: singleton uniqueness folds case, so
	// "a" and "A" collide even though RFC 5646's own reference scanner
	// treats singletons byte-for-byte.
	tag := Parse("en-a-bbb-A-ccc")
	if tag.WellFormed {
		t.Fatalf("expected malformed due to case-insensitive duplicate singleton, got %+v", tag)
	}
}

func TestParseStandalonePrivateUse(t *testing.T) {
	tag := Parse("x-whatever")
	if !tag.WellFormed || !reflect.DeepEqual(tag.PrivateUse, []string{"whatever"}) {
		t.Fatalf("got %+v, want well-formed privateuse=[whatever]", tag)
	}
}

// S5 from SPEC_FULL.md §8: "i-klingon" -> well_formed=true, classified
// grandfathered-irregular.
func TestParseGrandfatheredIrregular(t *testing.T) {
	tag := Parse("i-klingon")
	if !tag.WellFormed || tag.Grandfathered != "irregular" {
		t.Fatalf("got %+v, want well-formed irregular grandfathered", tag)
	}
}

func TestParseGrandfatheredIrregularCaseInsensitive(t *testing.T) {
	tag := Parse("EN-gb-OED")
	if !tag.WellFormed || tag.Grandfathered != "irregular" {
		t.Fatalf("got %+v, want well-formed irregular grandfathered", tag)
	}
}

func TestParseGrandfatheredRegular(t *testing.T) {
	tag := Parse("zh-min-nan")
	if !tag.WellFormed || tag.Grandfathered != "regular" {
		t.Fatalf("got %+v, want well-formed regular grandfathered", tag)
	}
}

func TestParseMalformedTooShort(t *testing.T) {
	tag := Parse("a")
	if tag.WellFormed {
		t.Fatalf("expected malformed single-letter tag, got %+v", tag)
	}
}

func TestParseMalformedDoubleDash(t *testing.T) {
	tag := Parse("en--US")
	if tag.WellFormed {
		t.Fatalf("expected malformed double-dash tag, got %+v", tag)
	}
}

func TestParseReservedLanguageSubtag(t *testing.T) {
	tag := Parse("abcd")
	if !tag.WellFormed || tag.Language != "abcd" {
		t.Fatalf("got %+v, want well-formed 4ALPHA language", tag)
	}
}

func TestParseRegisteredLanguageSubtag(t *testing.T) {
	tag := Parse("abcdefgh")
	if !tag.WellFormed || tag.Language != "abcdefgh" {
		t.Fatalf("got %+v, want well-formed 8ALPHA language", tag)
	}
}
