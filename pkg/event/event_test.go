package event

import "testing"

func TestAttrHelpers(t *testing.T) {
	e := Event{
		Attributes: map[string]interface{}{
			"platform": "ios",
			"score":    float64(120),
			"count":    3,
		},
	}

	if v, ok := e.Attr("platform"); !ok || v != "ios" {
		t.Errorf("Attr(platform) = %v, %v", v, ok)
	}
	if _, ok := e.Attr("missing"); ok {
		t.Error("Attr(missing) should report absence")
	}

	if got := e.AttrString("platform", "none"); got != "ios" {
		t.Errorf("AttrString(platform) = %q", got)
	}
	if got := e.AttrString("score", "none"); got != "none" {
		t.Errorf("AttrString on a number should fall back, got %q", got)
	}

	if got := e.AttrFloat("score", -1); got != 120 {
		t.Errorf("AttrFloat(score) = %v", got)
	}
	if got := e.AttrFloat("count", -1); got != 3 {
		t.Errorf("AttrFloat(count) = %v, int attributes should convert", got)
	}
	if got := e.AttrFloat("platform", -1); got != -1 {
		t.Errorf("AttrFloat on a string should fall back, got %v", got)
	}

	var nilBag Event
	if _, ok := nilBag.Attr("anything"); ok {
		t.Error("nil attribute bag should report absence")
	}
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{float64(1.5), 1.5, true},
		{float32(2), 2, true},
		{int(3), 3, true},
		{int32(4), 4, true},
		{int64(5), 5, true},
		{uint64(6), 6, true},
		{"7", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, c := range cases {
		got, ok := ToFloat(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ToFloat(%v) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}
