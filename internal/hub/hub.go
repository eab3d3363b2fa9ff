// Package hub fans text messages out to the live connections subscribed to a
// channel. The registry is copy-on-write: broadcasts iterate an immutable
// snapshot while subscribe, unsubscribe and pruning swap in a new one.
package hub

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
)

// Close codes used by the hub, as defined by RFC 6455.
const (
	StatusNormalClosure = 1000
	StatusGoingAway     = 1001
	StatusServerError   = 1011
)

// AckMessage is sent to every connection that joins the order channel.
const AckMessage = "Connection established"

const (
	DefaultSendTimeout = 5 * time.Second
	MinSendTimeout     = time.Second
	DefaultConcurrency = 16
)

// Conn is a live connection as the hub sees it.
type Conn interface {
	WriteText(ctx context.Context, msg string) error
	Open() bool
	Close(code int, reason string) error
}

// Handle identifies one subscription.
type Handle string

type subscriber struct {
	handle  Handle
	channel entity.Channel
	conn    Conn
}

type registry map[entity.Channel][]*subscriber

// Report summarizes one broadcast.
type Report struct {
	Delivered int
	Failed    int
	Pruned    int
}

type Config struct {
	SendTimeout time.Duration
	Concurrency int
}

type Hub struct {
	mu   sync.Mutex
	subs atomic.Pointer[registry]

	sendTimeout time.Duration
	concurrency int

	delivered metric.Int64Counter
	failed    metric.Int64Counter
	pruned    metric.Int64Counter
}

func New(cfg Config) *Hub {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.SendTimeout < MinSendTimeout {
		cfg.SendTimeout = MinSendTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	h := &Hub{sendTimeout: cfg.SendTimeout, concurrency: cfg.Concurrency}
	h.subs.Store(&registry{})

	meter := otel.Meter("github.com/egannguyen/kiosk-ordering/internal/hub")
	h.delivered, _ = meter.Int64Counter("hub.messages.delivered", metric.WithDescription("Messages written to live connections"))
	h.failed, _ = meter.Int64Counter("hub.messages.failed", metric.WithDescription("Sends that errored or timed out"))
	h.pruned, _ = meter.Int64Counter("hub.connections.pruned", metric.WithDescription("Connections dropped because they were no longer open"))
	return h
}

// update applies fn to a private copy of the registry and publishes it.
func (h *Hub) update(fn func(r registry)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := *h.subs.Load()
	next := make(registry, len(cur))
	for ch, subs := range cur {
		next[ch] = slices.Clone(subs)
	}
	fn(next)
	h.subs.Store(&next)
}

func (h *Hub) remove(handles ...Handle) []*subscriber {
	var removed []*subscriber
	h.update(func(r registry) {
		for ch, subs := range r {
			r[ch] = slices.DeleteFunc(subs, func(s *subscriber) bool {
				if slices.Contains(handles, s.handle) {
					removed = append(removed, s)
					return true
				}
				return false
			})
		}
	})
	return removed
}

func (h *Hub) find(handle Handle) *subscriber {
	for _, subs := range *h.subs.Load() {
		for _, s := range subs {
			if s.handle == handle {
				return s
			}
		}
	}
	return nil
}

func (h *Hub) send(ctx context.Context, conn Conn, msg string) error {
	ctx, cancel := context.WithTimeout(ctx, h.sendTimeout)
	defer cancel()
	return conn.WriteText(ctx, msg)
}

// Subscribe registers conn on channel. Connections joining the order channel
// get AckMessage straight away; a failed ack is logged and the subscription kept.
func (h *Hub) Subscribe(ctx context.Context, channel entity.Channel, conn Conn) (Handle, error) {
	if _, err := entity.ParseChannel(string(channel)); err != nil {
		return "", err
	}

	s := &subscriber{handle: Handle(uuid.NewString()), channel: channel, conn: conn}
	h.update(func(r registry) {
		r[channel] = append(r[channel], s)
	})
	slog.Info("Connection subscribed", "channel", channel, "handle", s.handle)

	if channel == entity.ChannelOrders {
		if err := h.send(ctx, conn, AckMessage); err != nil {
			slog.Warn("Failed to send connection ack", "handle", s.handle, "err", err)
		}
	}
	return s.handle, nil
}

// Unsubscribe removes handle. It reports whether the handle was registered.
func (h *Hub) Unsubscribe(handle Handle) bool {
	removed := h.remove(handle)
	if len(removed) > 0 {
		slog.Info("Connection unsubscribed", "channel", removed[0].channel, "handle", handle)
	}
	return len(removed) > 0
}

// OnTransportError closes the connection with a server error status and
// removes it.
func (h *Hub) OnTransportError(handle Handle, cause error) {
	slog.Error("Connection transport error", "handle", handle, "err", cause)

	s := h.find(handle)
	if s == nil {
		return
	}
	if err := s.conn.Close(StatusServerError, "server error"); err != nil {
		slog.Debug("Failed to close connection", "handle", handle, "err", err)
	}
	h.remove(handle)
}

// Broadcast sends msg to every open connection on channel. A failing send is
// logged and skipped. Connections found closed are pruned.
func (h *Hub) Broadcast(ctx context.Context, channel entity.Channel, msg string) Report {
	snapshot := (*h.subs.Load())[channel]
	if len(snapshot) == 0 {
		return Report{}
	}

	var (
		delivered, failed atomic.Int64
		mu                sync.Mutex
		stale             []Handle
	)
	markStale := func(handle Handle) {
		mu.Lock()
		stale = append(stale, handle)
		mu.Unlock()
	}

	g := new(errgroup.Group)
	g.SetLimit(h.concurrency)
	for _, s := range snapshot {
		g.Go(func() error {
			if !s.conn.Open() {
				markStale(s.handle)
				return nil
			}
			if err := h.send(ctx, s.conn, msg); err != nil {
				failed.Add(1)
				slog.Warn("Failed to deliver message", "channel", channel, "handle", s.handle, "err", err)
				if !s.conn.Open() {
					markStale(s.handle)
				}
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	pruned := 0
	if len(stale) > 0 {
		pruned = len(h.remove(stale...))
	}

	rep := Report{Delivered: int(delivered.Load()), Failed: int(failed.Load()), Pruned: pruned}
	attrs := metric.WithAttributes(attribute.String("channel", string(channel)))
	h.delivered.Add(ctx, int64(rep.Delivered), attrs)
	h.failed.Add(ctx, int64(rep.Failed), attrs)
	h.pruned.Add(ctx, int64(rep.Pruned), attrs)
	return rep
}

// Notify broadcasts the notification text on its channel. It never fails;
// delivery problems are logged by Broadcast.
func (h *Hub) Notify(ctx context.Context, n entity.Notification) error {
	rep := h.Broadcast(ctx, n.Channel, n.Text)
	slog.Debug("Notification broadcast", "type", n.Type, "delivered", rep.Delivered, "failed", rep.Failed, "pruned", rep.Pruned)
	return nil
}

// Count returns the number of connections registered on channel.
func (h *Hub) Count(channel entity.Channel) int {
	return len((*h.subs.Load())[channel])
}

// Shutdown closes every connection with going-away status and empties the
// registry.
func (h *Hub) Shutdown() {
	var all []*subscriber
	h.mu.Lock()
	for _, subs := range *h.subs.Load() {
		all = append(all, subs...)
	}
	empty := registry{}
	h.subs.Store(&empty)
	h.mu.Unlock()

	for _, s := range all {
		_ = s.conn.Close(StatusGoingAway, "server shutting down")
	}
	slog.Info("Hub shut down", "connections", len(all))
}
