// Package notify tells the running bot that admin panel data changed.
// Delivery is best effort: failures are logged and counted but never reach the caller.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"

	"github.com/go-while/go-tyggbot/internal/metrics"
)

// Events understood by the bot
const (
	EventCommandUpdate = "command.update"
	EventTimerUpdate   = "timer.update"
)

// Message is the JSON document published per event
type Message struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// Publisher delivers one encoded message
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Notifier wraps a Publisher with a timeout, logging and failure metrics
type Notifier struct {
	pub     Publisher
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New returns a notifier. m may be nil.
func New(pub Publisher, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, timeout: timeout, logger: logger, metrics: m}
}

// Send publishes event with data. It does not return an error.
func (n *Notifier) Send(ctx context.Context, event string, data map[string]any) {
	if n == nil || n.pub == nil {
		return
	}
	// the request may finish before the publish does
	ctx = context.WithoutCancel(ctx)
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	if err := n.pub.Publish(ctx, Message{Event: event, Data: data}); err != nil {
		n.logger.Warn("update notification dropped", "event", event, "data", data, "err", err)
		n.metrics.NotifyFailure(event)
		return
	}
	n.logger.Debug("update notification sent", "event", event, "data", data)
}

// CommandUpdated announces a new or changed command
func (n *Notifier) CommandUpdated(ctx context.Context, id int64) {
	n.Send(ctx, EventCommandUpdate, map[string]any{"command_id": id})
}

// TimerUpdated announces a new or changed timer
func (n *Notifier) TimerUpdated(ctx context.Context, id int64) {
	n.Send(ctx, EventTimerUpdate, map[string]any{"timer_id": id})
}

// ValkeyPublisher publishes messages on a valkey pub/sub channel
type ValkeyPublisher struct {
	client  valkey.Client
	channel string
}

// NewValkeyPublisher returns a publisher for channel
func NewValkeyPublisher(client valkey.Client, channel string) *ValkeyPublisher {
	return &ValkeyPublisher{client: client, channel: channel}
}

func (p *ValkeyPublisher) Publish(ctx context.Context, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	cmd := p.client.B().Publish().Channel(p.channel).Message(string(b)).Build()
	return p.client.Do(ctx, cmd).Error()
}

// LogPublisher only logs messages, used when no valkey server is configured
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(_ context.Context, msg Message) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("update (no channel configured)", "event", msg.Event, "data", msg.Data)
	return nil
}
