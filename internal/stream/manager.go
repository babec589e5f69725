// Package stream pushes per-symbol price updates to connected subscribers.
package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"StockRank/internal/domain/models"
	drepo "StockRank/internal/domain/repository"
	"StockRank/internal/usecase"
	"StockRank/pkg/cache"
	applogger "StockRank/pkg/logger"
)

// ErrNoSubscribers is returned by Unsubscribe when nothing was subscribed.
var ErrNoSubscribers = errors.New("stream: no active subscriptions")

// Subscriber receives updates for symbols it subscribed to. A failed Send
// removes the subscriber from every symbol.
type Subscriber interface {
	ID() string
	Send(update *models.StreamUpdate) error
}

// ManagerOption configures Manager.
type ManagerOption func(*Manager)

// Manager owns one poller goroutine per actively subscribed symbol. Each
// poller ticks at the smallest interval requested by that symbol's
// subscribers (clamped to [min,max]), reads the snapshot through the cache
// (populated on miss from the store) and pushes only when the (price,
// change_percent) pair moved since the last push.
type Manager struct {
	store    drepo.SnapshotStore
	cache    cache.Service
	cacheTTL time.Duration
	metrics  drepo.Metrics
	logger   *applogger.Logger

	defaultInterval time.Duration
	minInterval     time.Duration
	maxInterval     time.Duration

	mu      sync.Mutex
	pollers map[string]*poller
	clients map[string]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

type subscription struct {
	sub      Subscriber
	interval time.Duration
}

type poller struct {
	symbol string
	subs   map[string]subscription

	interval   time.Duration
	reschedule chan time.Duration
	stop       chan struct{}

	lastPrice  *float64
	lastChange *float64
}

// NewManager creates a stream manager.
func NewManager(store drepo.SnapshotStore, c cache.Service, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		store:           store,
		cache:           c,
		cacheTTL:        usecase.SnapshotTTL,
		defaultInterval: 10 * time.Second,
		minInterval:     5 * time.Second,
		maxInterval:     60 * time.Second,
		pollers:         make(map[string]*poller),
		clients:         make(map[string]struct{}),
		ctx:             ctx,
		cancel:          cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithIntervals sets the default and clamp bounds for poll intervals.
func WithIntervals(def, min, max time.Duration) ManagerOption {
	return func(m *Manager) {
		if def > 0 {
			m.defaultInterval = def
		}
		if min > 0 {
			m.minInterval = min
		}
		if max > 0 {
			m.maxInterval = max
		}
	}
}

// WithSnapshotTTL overrides how long a polled snapshot stays cached.
func WithSnapshotTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.cacheTTL = ttl
		}
	}
}

// WithManagerLogger attaches a logger.
func WithManagerLogger(l *applogger.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithManagerMetrics attaches a metrics recorder.
func WithManagerMetrics(mt drepo.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mt }
}

// ClampInterval normalizes a requested interval in seconds.
func (m *Manager) ClampInterval(seconds int) time.Duration {
	if seconds <= 0 {
		return m.defaultInterval
	}
	d := time.Duration(seconds) * time.Second
	if d < m.minInterval {
		return m.minInterval
	}
	if d > m.maxInterval {
		return m.maxInterval
	}
	return d
}

// Subscribe registers sub for the given symbols at the requested interval.
// It returns the normalized symbol list and the interval actually applied.
func (m *Manager) Subscribe(sub Subscriber, symbols []string, intervalSeconds int) ([]string, time.Duration) {
	interval := m.ClampInterval(intervalSeconds)

	m.mu.Lock()
	defer m.mu.Unlock()

	accepted := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}
		accepted = append(accepted, symbol)

		p, ok := m.pollers[symbol]
		if !ok {
			p = &poller{
				symbol:     symbol,
				subs:       make(map[string]subscription),
				interval:   interval,
				reschedule: make(chan time.Duration, 1),
				stop:       make(chan struct{}),
			}
			m.pollers[symbol] = p
			go m.run(p)
		}
		p.subs[sub.ID()] = subscription{sub: sub, interval: interval}
		m.retune(p)
	}

	if len(accepted) > 0 {
		if _, known := m.clients[sub.ID()]; !known {
			m.clients[sub.ID()] = struct{}{}
			if m.metrics != nil {
				m.metrics.StreamClientConnected(1)
			}
		}
	}
	return accepted, interval
}

// Unsubscribe removes sub from the given symbols.
func (m *Manager) Unsubscribe(sub Subscriber, symbols []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		p, ok := m.pollers[symbol]
		if !ok {
			continue
		}
		if _, had := p.subs[sub.ID()]; !had {
			continue
		}
		delete(p.subs, sub.ID())
		removed = append(removed, symbol)
		m.retire(symbol, p)
	}

	if len(removed) == 0 {
		return nil, ErrNoSubscribers
	}
	return removed, nil
}

// Disconnect removes sub from every symbol.
func (m *Manager) Disconnect(sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for symbol, p := range m.pollers {
		if _, had := p.subs[sub.ID()]; had {
			delete(p.subs, sub.ID())
			m.retire(symbol, p)
		}
	}
	if _, known := m.clients[sub.ID()]; known {
		delete(m.clients, sub.ID())
		if m.metrics != nil {
			m.metrics.StreamClientConnected(-1)
		}
	}
}

// ActiveSymbols returns the symbols with live pollers.
func (m *Manager) ActiveSymbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.pollers))
	for symbol := range m.pollers {
		out = append(out, symbol)
	}
	return out
}

// Close stops all pollers.
func (m *Manager) Close() error {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for symbol, p := range m.pollers {
		close(p.stop)
		delete(m.pollers, symbol)
	}
	return nil
}

// retire stops an empty poller, retune applies the smallest requested
// interval. Both run under m.mu.
func (m *Manager) retire(symbol string, p *poller) {
	if len(p.subs) == 0 {
		close(p.stop)
		delete(m.pollers, symbol)
		return
	}
	m.retune(p)
}

func (m *Manager) retune(p *poller) {
	effective := m.maxInterval
	for _, s := range p.subs {
		if s.interval < effective {
			effective = s.interval
		}
	}
	if effective == p.interval {
		return
	}
	p.interval = effective
	// Replace any pending target the poller has not picked up yet.
	select {
	case <-p.reschedule:
	default:
	}
	select {
	case p.reschedule <- effective:
	default:
	}
}

func (m *Manager) run(p *poller) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-p.stop:
			return
		case d := <-p.reschedule:
			ticker.Reset(d)
		case <-ticker.C:
			m.poll(p)
		}
	}
}

// poll reads the latest snapshot through the cache and pushes it when
// (price, change) moved. The fetch scheduler keeps the same key warm, so
// pollers only hit the store after the cached entry expires.
func (m *Manager) poll(p *poller) {
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()

	snap, err := cache.GetOrComputeTyped(ctx, m.cache, cache.GenerateKey("snapshot", p.symbol), m.cacheTTL,
		func(ctx context.Context) (models.Snapshot, error) {
			s, err := m.store.GetLatest(ctx, p.symbol)
			if err != nil {
				return models.Snapshot{}, err
			}
			return *s, nil
		})
	if err != nil {
		if m.logger != nil {
			m.logger.Debug("stream poll failed",
				applogger.String("symbol", p.symbol),
				applogger.Error(err),
			)
		}
		return
	}
	if snap.Price == nil {
		return
	}

	if !changed(p.lastPrice, snap.Price) && !changed(p.lastChange, snap.ChangePercent) {
		return
	}
	p.lastPrice = snap.Price
	p.lastChange = snap.ChangePercent

	update := &models.StreamUpdate{
		Type:          "update",
		Symbol:        snap.Symbol,
		Price:         *snap.Price,
		ChangePercent: snap.Change(),
		Timestamp:     time.Now().Unix(),
	}

	m.mu.Lock()
	subs := make([]Subscriber, 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s.sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Send(update); err != nil {
			if m.logger != nil {
				m.logger.Debug("stream push failed, dropping subscriber",
					applogger.String("symbol", p.symbol),
					applogger.String("subscriber", sub.ID()),
				)
			}
			m.Disconnect(sub)
		}
	}
}

func changed(prev, curr *float64) bool {
	if prev == nil && curr == nil {
		return false
	}
	if prev == nil || curr == nil {
		return true
	}
	return *prev != *curr
}
