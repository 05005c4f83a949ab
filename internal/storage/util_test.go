package storage

import (
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"
)

func TestJSONListRoundTrip(t *testing.T) {
	got := jsonToStrings(toJSONList([]string{"AI", "芯片"}))
	if len(got) != 2 || got[0] != "AI" || got[1] != "芯片" {
		t.Errorf("round trip = %v", got)
	}

	if string(toJSONList(nil)) != "[]" {
		t.Errorf("empty list = %s, want []", toJSONList(nil))
	}
	if got := jsonToStrings(datatypes.JSON(nil)); got != nil {
		t.Errorf("nil json = %v, want nil", got)
	}
	if got := jsonToStrings(datatypes.JSON(`not json`)); got != nil {
		t.Errorf("bad json = %v, want nil", got)
	}
}

func TestTruncateRunesDB(t *testing.T) {
	if got := truncateRunesDB("  hello  ", 10); got != "hello" {
		t.Errorf("trim = %q", got)
	}
	long := strings.Repeat("字", 20)
	if got := truncateRunesDB(long, 10); len([]rune(got)) != 10 {
		t.Errorf("truncate runes = %d, want 10", len([]rune(got)))
	}
	if got := truncateRunesDB("abc", 0); got != "" {
		t.Errorf("zero limit = %q", got)
	}
}

func TestToValidUTF8(t *testing.T) {
	bad := string([]byte{0xff, 0xfe}) + "ok"
	got := toValidUTF8(bad)
	if !strings.HasSuffix(got, "ok") || strings.Contains(got, "\xff") {
		t.Errorf("toValidUTF8 = %q", got)
	}
}

func TestNewsCacheKeyDeterministic(t *testing.T) {
	since := time.Date(2025, 6, 3, 12, 0, 30, 0, time.UTC)
	min1, min2 := 60.0, 60.0

	a := newsCacheKey(NewsFilter{MinScore: &min1, Since: &since, Limit: 20})
	b := newsCacheKey(NewsFilter{MinScore: &min2, Since: &since, Limit: 20})
	// 相同条件必须产生相同的键，指针地址不能漏进键里
	if a != b {
		t.Errorf("keys differ for equal filters:\n%s\n%s", a, b)
	}

	otherWindow := since.Add(10 * time.Minute)
	c := newsCacheKey(NewsFilter{MinScore: &min1, Since: &otherWindow, Limit: 20})
	if a == c {
		t.Error("different time windows must not share a cache key")
	}
}

func TestFloatOr50(t *testing.T) {
	if got := floatOr50(nil); got != 50 {
		t.Errorf("nil = %v, want 50", got)
	}
	v := 80.0
	if got := floatOr50(&v); got != 80 {
		t.Errorf("ptr = %v, want 80", got)
	}
}
