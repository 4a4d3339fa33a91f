package notify

import (
	"testing"
)

func TestCenter_LevelsAndOrder(t *testing.T) {
	c := NewCenter()

	c.Success("report submitted")
	c.Warning("using last known location")
	c.Error("location unavailable")

	toasts := c.Drain()
	if len(toasts) != 3 {
		t.Fatalf("expected 3 toasts, got %d", len(toasts))
	}
	if toasts[0].Level != LevelSuccess || toasts[0].Message != "report submitted" {
		t.Errorf("unexpected first toast: %+v", toasts[0])
	}
	if toasts[1].Level != LevelWarning {
		t.Errorf("expected warning level, got %v", toasts[1].Level)
	}
	if toasts[2].Level != LevelError {
		t.Errorf("expected error level, got %v", toasts[2].Level)
	}

	if c.Pending() != 0 {
		t.Errorf("expected empty backlog after Drain, got %d", c.Pending())
	}
}

func TestCenter_Subscribe(t *testing.T) {
	c := NewCenter()

	var got []Toast
	c.Subscribe(func(toast Toast) {
		got = append(got, toast)
	})

	c.Error("first")
	c.Success("second")

	if len(got) != 2 {
		t.Fatalf("expected 2 delivered toasts, got %d", len(got))
	}
	if got[0].Message != "first" || got[1].Message != "second" {
		t.Errorf("unexpected delivery order: %+v", got)
	}
}

func TestLevel_String(t *testing.T) {
	if LevelSuccess.String() != "success" || LevelError.String() != "error" {
		t.Error("unexpected level strings")
	}
}
