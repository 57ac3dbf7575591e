package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"chit-chat/internal/models"
	"chit-chat/internal/utils"

	"github.com/google/uuid"
)

// ChangeEvent describes a single row change reported by the remote store's
// notification feed.
type ChangeEvent struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// Tables whose changes warrant a refresh.
const (
	TableMessages  = "messages"
	TableReactions = "message_reactions"
	TableSeen      = "message_seen"
)

// FeedSource is the slice of the store adapter the refresh driver needs.
type FeedSource interface {
	// FetchAll returns every message in creation order, annotations attached.
	FetchAll(ctx context.Context) ([]*models.Message, error)
	// RecordSeen is idempotent; failures during the post-refresh sweep are
	// swallowed by the driver.
	RecordSeen(ctx context.Context, messageID, userID uuid.UUID, userName string) error
	// Ready reports whether the remote store answers a trivial read.
	Ready(ctx context.Context) bool
}

// ChangeSubscriber is implemented by stores that expose a change feed.
type ChangeSubscriber interface {
	Subscribe(ctx context.Context) (<-chan ChangeEvent, func(), error)
}

// Mode is the refresh driver's current strategy.
type Mode string

const (
	ModePolling    Mode = "polling"
	ModeSubscribed Mode = "subscribed"
)

// Sink receives the viewer's reconciled, filtered feed after each refresh.
type Sink func(visible []*models.Message)

// RefreshDriver re-pulls the feed for one viewer, either on a fixed timer
// (Polling) or whenever the store's change feed reports a relevant row
// change (Subscribed). Each cycle runs fetch, filter, deliver, then a
// best-effort seen-receipt sweep, strictly in that order. The driver owns
// its timer and subscription; Stop releases whichever is active.
type RefreshDriver struct {
	source     FeedSource
	subscriber ChangeSubscriber // nil when no change feed exists
	viewerID   uuid.UUID
	viewerName string
	interval   time.Duration
	sink       Sink
	metrics    *utils.MetricsCollector

	mu     sync.Mutex
	mode   Mode
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefreshDriver builds a driver for one viewer. subscriber may be nil,
// in which case the driver polls forever.
func NewRefreshDriver(
	source FeedSource,
	subscriber ChangeSubscriber,
	viewerID uuid.UUID,
	viewerName string,
	interval time.Duration,
	sink Sink,
	metrics *utils.MetricsCollector,
) *RefreshDriver {
	if interval <= 0 {
		interval = time.Second
	}
	return &RefreshDriver{
		source:     source,
		subscriber: subscriber,
		viewerID:   viewerID,
		viewerName: viewerName,
		interval:   interval,
		sink:       sink,
		metrics:    metrics,
		mode:       ModePolling,
		done:       make(chan struct{}),
	}
}

// Start launches the refresh loop in its own goroutine.
func (d *RefreshDriver) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()
	go d.run(ctx)
}

// Stop cancels the active timer or subscription and waits for the loop to
// exit. In-flight fetches are not interrupted; their results are discarded
// because no further sink delivery happens. Safe to call more than once.
func (d *RefreshDriver) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-d.done
}

// Mode reports the driver's current strategy.
func (d *RefreshDriver) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *RefreshDriver) setMode(m Mode) {
	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
}

func (d *RefreshDriver) run(ctx context.Context) {
	defer close(d.done)

	// First paint before the first tick.
	d.refresh(ctx)

	for {
		if d.poll(ctx) {
			return
		}
		// The remote store became usable; switch to the change feed.
		if d.subscribe(ctx) {
			return
		}
		// Subscription ended without cancellation (feed died or failed to
		// start). Fall back to polling rather than going silent.
		d.setMode(ModePolling)
		log.Printf("RefreshDriver: change feed lost for viewer %s, resuming polling", d.viewerID)
	}
}

// poll runs the fixed-interval loop. It returns true when the driver was
// stopped, false when the loop should hand over to the subscriber.
func (d *RefreshDriver) poll(ctx context.Context) bool {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return true
		case <-ticker.C:
			d.refresh(ctx)
			if d.subscriber != nil && d.source.Ready(ctx) {
				return false
			}
		}
	}
}

// subscribe consumes the change feed until cancellation or feed loss.
// Returns true when the driver was stopped.
func (d *RefreshDriver) subscribe(ctx context.Context) bool {
	events, unsubscribe, err := d.subscriber.Subscribe(ctx)
	if err != nil {
		log.Printf("RefreshDriver: subscribe failed for viewer %s: %v", d.viewerID, err)
		return false
	}
	defer unsubscribe()

	d.setMode(ModeSubscribed)
	log.Printf("RefreshDriver: viewer %s switched to change-feed mode", d.viewerID)

	// Refresh once on entry so nothing between the last poll and the
	// subscription start is missed.
	d.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return true
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if relevantTable(ev.Table) {
				d.refresh(ctx)
			}
		}
	}
}

func relevantTable(table string) bool {
	switch table {
	case TableMessages, TableReactions, TableSeen:
		return true
	}
	return false
}

// refresh runs one fetch → filter → deliver → mark-seen cycle.
func (d *RefreshDriver) refresh(ctx context.Context) {
	start := time.Now()

	messages, err := d.source.FetchAll(ctx)
	if err != nil {
		log.Printf("RefreshDriver: fetch failed for viewer %s: %v", d.viewerID, err)
		d.metrics.IncrementErrors()
		return
	}

	visible := Visible(messages, d.viewerID)

	select {
	case <-ctx.Done():
		// Stopped while fetching; discard the result instead of delivering.
		return
	default:
	}
	d.sink(visible)

	d.metrics.IncrementRefreshes(string(d.Mode()))
	d.metrics.AddOperationLatency("refresh", time.Since(start))

	d.markSeen(ctx, visible)
}

// markSeen records a receipt for every visible message authored by someone
// else that the viewer hasn't acknowledged yet. Failures are non-fatal.
func (d *RefreshDriver) markSeen(ctx context.Context, visible []*models.Message) {
	for _, msg := range visible {
		if msg.UserID == d.viewerID {
			continue
		}
		if hasReceiptFrom(msg, d.viewerID) {
			continue
		}
		if err := d.source.RecordSeen(ctx, msg.ID, d.viewerID, d.viewerName); err != nil {
			log.Printf("RefreshDriver: recordSeen failed for message %s viewer %s: %v", msg.ID, d.viewerID, err)
		}
	}
}

func hasReceiptFrom(msg *models.Message, viewerID uuid.UUID) bool {
	for _, rc := range msg.SeenBy {
		if rc.UserID == viewerID {
			return true
		}
	}
	return false
}
