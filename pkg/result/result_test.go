package result

import (
	"errors"
	"strconv"
	"testing"
)

func TestOk(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.Error() != nil {
		t.Fatalf("Ok: IsOk=%v err=%v", r.IsOk(), r.Error())
	}
	v, ok := r.Value()
	if !ok || v != 42 {
		t.Errorf("Value = %d, %v", v, ok)
	}
}

func TestErr(t *testing.T) {
	want := errors.New("boom")
	r := Err[int](want)
	if r.IsOk() {
		t.Fatal("Err result reports ok")
	}
	if v, ok := r.Value(); ok || v != 0 {
		t.Errorf("Value = %d, %v", v, ok)
	}
	if _, err := r.Unwrap(); !errors.Is(err, want) {
		t.Errorf("Unwrap err = %v", err)
	}
}

func TestErr_NilStaysFailure(t *testing.T) {
	r := Err[string](nil)
	if r.IsOk() || !errors.Is(r.Error(), ErrEmpty) {
		t.Errorf("Err(nil) = ok=%v err=%v", r.IsOk(), r.Error())
	}
}

func TestFrom(t *testing.T) {
	if r := From("x", nil); !r.IsOk() {
		t.Error("From(x, nil) failed")
	}
	if r := From("x", errors.New("e")); r.IsOk() {
		t.Error("From(x, err) succeeded")
	}
}

func TestMap(t *testing.T) {
	got, err := Map(Ok(7), strconv.Itoa).Unwrap()
	if err != nil || got != "7" {
		t.Errorf("Map ok = %q, %v", got, err)
	}
	want := errors.New("nope")
	if _, err := Map(Err[int](want), strconv.Itoa).Unwrap(); !errors.Is(err, want) {
		t.Errorf("Map err = %v", err)
	}
}
