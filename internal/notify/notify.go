// Package notify sends outbound email. Every send is best-effort: failures
// are logged and never reach the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers a single message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier only logs the recipient. Used when no mail provider is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(_ context.Context, msg Message) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email not sent, no provider configured",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject))
	return nil
}

// Dispatcher sends messages in the background.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher wraps n. Each send gets its own timeout, detached from the
// request that triggered it.
func NewDispatcher(n Notifier, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{notifier: n, logger: logger, timeout: timeout}
}

// Dispatch queues msg and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) {
	if msg.To == "" {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Send(ctx, msg); err != nil {
			d.logger.Warn("email delivery failed",
				slog.String("to", msg.To),
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()))
		}
	}()
}

// Wait blocks until every dispatched message has been attempted.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
