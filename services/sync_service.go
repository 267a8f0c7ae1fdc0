package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tribeTrackerSync/internal/metrics"
	"tribeTrackerSync/internal/remote"
	"tribeTrackerSync/internal/store"
	"tribeTrackerSync/internal/types/syncqueue"
)

const (
	syncWorkers     = 3
	pushTimeout     = 20 * time.Second
	defaultReplayer = 30 * time.Second
)

// SyncEngine pushes whitelisted mutations to the remote API after they have
// already been applied and persisted locally. It is fire-and-forget from the
// dispatcher's point of view: a push failure lands in the pending sync queue
// and never rolls back or blocks the local write.
type SyncEngine struct {
	dispatcher *Dispatcher
	client     *remote.Client
	adapter    *store.Adapter
	session    func() Session
	enabled    bool

	limiter        *rate.Limiter
	replayInterval time.Duration

	queueMu sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	log     *zap.Logger
}

func NewSyncEngine(dispatcher *Dispatcher, client *remote.Client, adapter *store.Adapter, session func() Session, enabled bool, log *zap.Logger) *SyncEngine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &SyncEngine{
		dispatcher: dispatcher,
		client:     client,
		adapter:    adapter,
		session:    session,
		enabled:    enabled,
		// Mutation storms (rapid habit toggling) must not flood the backend.
		limiter:        rate.NewLimiter(5, 10),
		replayInterval: defaultReplayer,
		stop:           make(chan struct{}),
		log:            log,
	}
	dispatcher.SetOverflowHandler(e.queueOverflow)
	return e
}

// SetReplayInterval overrides the replay tick. Tests only.
func (e *SyncEngine) SetReplayInterval(d time.Duration) {
	e.replayInterval = d
}

// Start launches the push workers and the pending-queue replay loop.
func (e *SyncEngine) Start() {
	for i := 0; i < syncWorkers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	e.wg.Add(1)
	go e.replayLoop()
}

// Stop shuts the workers down. Events still in flight get their one push
// attempt; everything else stays in the pending queue.
func (e *SyncEngine) Stop() {
	close(e.stop)
	e.wg.Wait()
}

func (e *SyncEngine) worker() {
	defer e.wg.Done()
	for {
		select {
		case ev := <-e.dispatcher.Events():
			e.processEvent(ev)
		case <-e.stop:
			return
		}
	}
}

// whitelisted is the fixed set of syncable mutation kinds: every collection
// action for challenges, participants and checkins, update only for profile.
func whitelisted(ev MutationEvent) bool {
	switch ev.Type {
	case syncqueue.TypeChallenges, syncqueue.TypeParticipants, syncqueue.TypeCheckins:
		return true
	case syncqueue.TypeProfile:
		return ev.Action == syncqueue.ActionUpdate
	}
	return false
}

func (e *SyncEngine) processEvent(ev MutationEvent) {
	if !whitelisted(ev) {
		return
	}
	sess := e.session()
	if !e.enabled || e.client == nil || !sess.Authenticated() {
		e.log.Debug("skipping push, sync unavailable",
			zap.String("type", string(ev.Type)), zap.String("id", ev.ID))
		return
	}

	payload, ok := e.resolvePayload(ev)
	if !ok {
		// Entity vanished between mutation and push; nothing to send.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	if err := e.limiter.Wait(ctx); err != nil {
		e.enqueue(ev.Type, ev.Action, payload)
		return
	}

	if err := e.client.Push(ctx, sess.Token, ev.Type, ev.Action, ev.ID, payload); err != nil {
		metrics.RemotePushesTotal.WithLabelValues(string(ev.Type), string(ev.Action), "queued").Inc()
		e.log.Warn("remote push failed, queued for replay",
			zap.String("type", string(ev.Type)),
			zap.String("action", string(ev.Action)),
			zap.String("id", ev.ID),
			zap.Error(err))
		e.enqueue(ev.Type, ev.Action, payload)
		return
	}
	metrics.RemotePushesTotal.WithLabelValues(string(ev.Type), string(ev.Action), "confirmed").Inc()
}

// resolvePayload produces the full entity JSON for a push. Partial mutations
// carry no payload and are resolved from the live collection; deletes only
// need the id.
func (e *SyncEngine) resolvePayload(ev MutationEvent) (json.RawMessage, bool) {
	if ev.Action == syncqueue.ActionDelete {
		data, _ := json.Marshal(map[string]string{"id": ev.ID})
		return data, true
	}

	entity := ev.Entity
	if entity == nil {
		resolved, ok := e.dispatcher.ResolveEntity(ev.Type, ev.ID)
		if !ok {
			e.log.Debug("entity gone before push", zap.String("type", string(ev.Type)), zap.String("id", ev.ID))
			return nil, false
		}
		entity = resolved
	}

	data, err := json.Marshal(entity)
	if err != nil {
		e.log.Error("failed to encode entity for push", zap.String("id", ev.ID), zap.Error(err))
		return nil, false
	}
	return data, true
}

// queueOverflow handles mutation events that did not fit in the event
// buffer: instead of a push attempt they go straight to the persisted
// pending queue and get replayed later. Same skip rules as processEvent.
func (e *SyncEngine) queueOverflow(ev MutationEvent) {
	if !whitelisted(ev) {
		return
	}
	if !e.enabled || e.client == nil || !e.session().Authenticated() {
		return
	}
	payload, ok := e.resolvePayload(ev)
	if !ok {
		return
	}
	metrics.RemotePushesTotal.WithLabelValues(string(ev.Type), string(ev.Action), "queued").Inc()
	e.enqueue(ev.Type, ev.Action, payload)
}

// enqueue appends a failed push to the persisted pending queue: load the
// current queue, append, resave the whole thing.
func (e *SyncEngine) enqueue(t syncqueue.EntityType, action syncqueue.Action, data json.RawMessage) {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	items := e.adapter.LoadPendingQueue()
	items = append(items, syncqueue.PendingSyncItem{
		Type:      t,
		Action:    action,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	e.adapter.SavePendingQueue(items)
	metrics.PendingQueueDepth.Set(float64(len(items)))
}

// PendingQueue returns a copy of the persisted queue.
func (e *SyncEngine) PendingQueue() []syncqueue.PendingSyncItem {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	return e.adapter.LoadPendingQueue()
}

func (e *SyncEngine) replayLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.replayInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.ReplayPending()
		case <-e.stop:
			return
		}
	}
}

// ReplayPending drains the pending queue in order while authenticated. The
// first failure stops the drain so replay never reorders writes for an
// entity; whatever remains is resaved for the next tick.
func (e *SyncEngine) ReplayPending() {
	sess := e.session()
	if !e.enabled || e.client == nil || !sess.Authenticated() {
		return
	}

	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	items := e.adapter.LoadPendingQueue()
	if len(items) == 0 {
		return
	}

	replayed := 0
	for _, item := range items {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		err := e.limiter.Wait(ctx)
		if err == nil {
			err = e.client.Push(ctx, sess.Token, item.Type, item.Action, entityID(item.Data), item.Data)
		}
		cancel()
		if err != nil {
			metrics.ReplayedTotal.WithLabelValues("failed").Inc()
			e.log.Warn("replay push failed, keeping queue",
				zap.String("type", string(item.Type)), zap.Error(err))
			break
		}
		metrics.ReplayedTotal.WithLabelValues("confirmed").Inc()
		replayed++
	}

	if replayed > 0 {
		remaining := items[replayed:]
		e.adapter.SavePendingQueue(remaining)
		metrics.PendingQueueDepth.Set(float64(len(remaining)))
		e.log.Info("replayed pending pushes",
			zap.Int("replayed", replayed), zap.Int("remaining", len(remaining)))
	}
}

func entityID(data json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	json.Unmarshal(data, &probe)
	return probe.ID
}
