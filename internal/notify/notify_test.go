package notify

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
)

func TestLogNotifier(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	n := Log{Logger: log.New(&buf, "", 0)}

	if err := n.Notify(context.Background(), "Time to take medication", "Aspirin - 100mg"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "Time to take medication: Aspirin - 100mg") {
		t.Fatalf("unexpected log output %q", got)
	}

	if err := (Log{}).Notify(context.Background(), "t", "m"); !errors.Is(err, ErrNotification) {
		t.Fatalf("expected ErrNotification without logger, got %v", err)
	}
}

func TestMultiTriesEveryNotifier(t *testing.T) {
	t.Parallel()

	var calls []string
	ok := Func(func(_ context.Context, title, _ string) error {
		calls = append(calls, "ok:"+title)
		return nil
	})
	failing := Func(func(context.Context, string, string) error {
		calls = append(calls, "fail")
		return errors.New("platform unavailable")
	})

	err := Multi{failing, ok}.Notify(context.Background(), "title", "msg")
	if !errors.Is(err, ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
	if len(calls) != 2 || calls[1] != "ok:title" {
		t.Fatalf("expected both notifiers called, got %v", calls)
	}

	if err := (Multi{ok}).Notify(context.Background(), "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Multi{}).Notify(context.Background(), "a", "b"); !errors.Is(err, ErrNotification) {
		t.Fatalf("expected ErrNotification for empty Multi, got %v", err)
	}
}
