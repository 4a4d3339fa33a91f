package photos

import (
	"context"
	"errors"
	"testing"
)

type scriptedCamera struct {
	granted   bool
	uri       string
	cancelled bool
	err       error
}

func (c *scriptedCamera) RequestPermission(context.Context) (bool, error) {
	return c.granted, nil
}

func (c *scriptedCamera) Capture(context.Context) (string, bool, error) {
	return c.uri, c.cancelled, c.err
}

func TestTake_Success(t *testing.T) {
	cam := &scriptedCamera{granted: true, uri: "file:///photo-1.jpg"}

	uri, err := Take(context.Background(), cam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uri != "file:///photo-1.jpg" {
		t.Errorf("unexpected uri %q", uri)
	}
}

func TestTake_PermissionDenied(t *testing.T) {
	cam := &scriptedCamera{granted: false}

	_, err := Take(context.Background(), cam)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestTake_Cancelled(t *testing.T) {
	cam := &scriptedCamera{granted: true, cancelled: true}

	uri, err := Take(context.Background(), cam)
	if err != nil {
		t.Fatalf("cancelled capture must not error: %v", err)
	}
	if uri != "" {
		t.Errorf("cancelled capture must yield no uri, got %q", uri)
	}
}

func TestRoll(t *testing.T) {
	var r Roll
	r.Add("a")
	r.Add("b")
	r.Add("c")

	r.Remove(1)
	r.Remove(99) // no-op

	got := r.URIs()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("unexpected roll contents: %v", got)
	}
	if r.Len() != 2 {
		t.Errorf("expected length 2, got %d", r.Len())
	}
}
