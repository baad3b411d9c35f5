package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gen2brain/beeep"
)

// ErrNotification wraps every failure to deliver a notification.
var ErrNotification = errors.New("notification error")

// Notifier delivers a short title and message to the user.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Func adapts a plain function to the Notifier interface.
type Func func(ctx context.Context, title, message string) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, title, message string) error {
	return f(ctx, title, message)
}

// Desktop shows native OS notifications.
type Desktop struct {
	AppIcon string
}

// Notify displays the notification through the platform's notification API.
func (d Desktop) Notify(_ context.Context, title, message string) error {
	if err := beeep.Notify(title, message, d.AppIcon); err != nil {
		return fmt.Errorf("%w: desktop: %v", ErrNotification, err)
	}
	return nil
}

// Log writes notifications to a logger. It is the default for headless runs.
type Log struct {
	Logger *log.Logger
}

// Notify prints the notification.
func (l Log) Notify(_ context.Context, title, message string) error {
	if l.Logger == nil {
		return fmt.Errorf("%w: log notifier has no logger", ErrNotification)
	}
	l.Logger.Printf("notify: %s: %s", title, message)
	return nil
}

// Multi fans a notification out to every notifier. All notifiers are tried;
// failures are joined.
type Multi []Notifier

// Notify delivers to each notifier in turn.
func (m Multi) Notify(ctx context.Context, title, message string) error {
	if len(m) == 0 {
		return fmt.Errorf("%w: no notifiers configured", ErrNotification)
	}

	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, message); err != nil {
			if !errors.Is(err, ErrNotification) {
				err = fmt.Errorf("%w: %v", ErrNotification, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
