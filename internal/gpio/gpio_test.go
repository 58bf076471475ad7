package gpio

import (
	"errors"
	"testing"
)

type fakeOutput struct {
	values []int
	err    error
}

func (f *fakeOutput) SetValue(v int) error {
	if f.err != nil {
		return f.err
	}
	f.values = append(f.values, v)
	return nil
}

func TestReset_IsActiveLow(t *testing.T) {
	out := &fakeOutput{}
	r := NewReset(out)
	if err := r.Assert(); err != nil {
		t.Fatalf("Assert: %v", err)
	}
	if err := r.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if len(out.values) != 2 || out.values[0] != 0 || out.values[1] != 1 {
		t.Fatalf("values=%v want [0 1]", out.values)
	}
}

func TestChipSelect_IsActiveLow(t *testing.T) {
	out := &fakeOutput{}
	cs := NewChipSelect(out)
	_ = cs.Select()
	_ = cs.Deselect()
	if len(out.values) != 2 || out.values[0] != 0 || out.values[1] != 1 {
		t.Fatalf("values=%v want [0 1]", out.values)
	}
}

func TestNilLines(t *testing.T) {
	var r *Reset
	if err := r.Assert(); err == nil {
		t.Fatalf("expected error")
	}
	if err := NewChipSelect(nil).Select(); err == nil {
		t.Fatalf("expected error")
	}

	boom := errors.New("busy")
	if err := NewReset(&fakeOutput{err: boom}).Release(); !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
}

func TestLineName(t *testing.T) {
	if got := LineName(17); got != "GPIO17" {
		t.Fatalf("LineName=%q", got)
	}
}
