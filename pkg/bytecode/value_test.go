package bytecode

import "testing"

func TestValue_Truthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{NullValue, false},
		{NumValue(0), false},
		{NumValue(1), true},
		{StrValue(""), false},
		{StrValue("x"), true},
		{BoolValue(false), false},
		{BoolValue(true), true},
		{ArrValue(nil), true},
		{ObjValue(nil), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("Truthy(%+v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestValue_Equal(t *testing.T) {
	a := ObjValue(map[string]Value{"x": NumValue(1), "y": ArrValue([]Value{StrValue("a")})})
	b := ObjValue(map[string]Value{"x": NumValue(1), "y": ArrValue([]Value{StrValue("a")})})
	if !a.Equal(b) {
		t.Fatal("expected a.Equal(b)")
	}
	c := ObjValue(map[string]Value{"x": NumValue(2)})
	if a.Equal(c) {
		t.Fatal("expected !a.Equal(c)")
	}
	if NumValue(1).Equal(StrValue("1")) {
		t.Fatal("values of different kinds must never be equal")
	}
}

func TestValue_Clone(t *testing.T) {
	orig := ObjValue(map[string]Value{"arr": ArrValue([]Value{NumValue(1)})})
	clone := orig.Clone()
	clone.Obj["arr"].Arr[0] = NumValue(99)
	if orig.Obj["arr"].Arr[0].Num != 1 {
		t.Fatal("Clone must deep-copy nested arrays")
	}
}

func TestValue_JSONRoundTrip(t *testing.T) {
	v := ObjValue(map[string]Value{
		"name":   StrValue("sensor"),
		"active": BoolValue(true),
		"reads":  ArrValue([]Value{NumValue(1), NumValue(2.5)}),
		"meta":   NullValue,
	})
	raw, err := v.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := FromJSON(raw)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if !got.Equal(v) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, v)
	}
}
