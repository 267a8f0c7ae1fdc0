package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tribeTrackerSync/internal/metrics"
	"tribeTrackerSync/internal/remote"
	"tribeTrackerSync/internal/store"
)

// CollectionState is the per-collection recoverable error surface for the
// UI: a failed remote fetch leaves stale local data on screen with an error
// message, never a crash.
type CollectionState struct {
	Loading bool
	Error   string
}

// Bootstrap loads local state on cold start and refreshes it from the remote
// API on auth transitions and manual refresh. Local truth always loads and
// renders first; the network is strictly optional.
type Bootstrap struct {
	dispatcher *Dispatcher
	adapter    *store.Adapter
	client     *remote.Client
	session    func() Session
	log        *zap.Logger

	mu          sync.Mutex
	initialized bool
	states      map[string]*CollectionState
}

func NewBootstrap(dispatcher *Dispatcher, adapter *store.Adapter, client *remote.Client, session func() Session, log *zap.Logger) *Bootstrap {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bootstrap{
		dispatcher: dispatcher,
		adapter:    adapter,
		client:     client,
		session:    session,
		log:        log,
		states: map[string]*CollectionState{
			store.KeyChallenges:       {},
			store.KeyParticipants:     {},
			store.KeyCheckins:         {},
			store.KeyProfile:          {},
			store.KeyBadgeDefinitions: {},
		},
	}
}

// LoadLocal loads every collection from the persistent store in parallel,
// unconditionally, then marks the app initialized. There is no network
// dependency here at all.
func (b *Bootstrap) LoadLocal(ctx context.Context) {
	var wg sync.WaitGroup
	loads := []func(){
		func() { b.dispatcher.ReplaceChallenges(b.adapter.LoadChallenges(), false) },
		func() { b.dispatcher.ReplaceParticipants(b.adapter.LoadParticipants(), false) },
		func() { b.dispatcher.ReplaceCheckins(b.adapter.LoadCheckins(), false) },
		func() { b.dispatcher.ReplaceProfile(b.adapter.LoadProfile(), false) },
		func() { b.dispatcher.ReplaceBadgeDefinitions(b.adapter.LoadBadgeDefinitions(), false) },
		func() { b.dispatcher.ReplaceEarnedBadges(b.adapter.LoadEarnedBadges(), false) },
		func() { b.dispatcher.ReplaceChallengeOrder(b.adapter.LoadChallengeOrder()) },
		func() { b.dispatcher.ReplaceThemeMode(b.adapter.LoadThemeMode()) },
	}
	for _, load := range loads {
		wg.Add(1)
		go func(load func()) {
			defer wg.Done()
			load()
		}(load)
	}
	wg.Wait()

	b.mu.Lock()
	b.initialized = true
	b.mu.Unlock()
	b.log.Info("local state loaded")
}

func (b *Bootstrap) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

// OnAuthStateChanged fires the remote refresh on the signed-out to signed-in
// transition, when a token exists and a backend is configured.
func (b *Bootstrap) OnAuthStateChanged(ctx context.Context, prevUserID string, sess Session) {
	if prevUserID != "" || !sess.Authenticated() || b.client == nil {
		return
	}
	b.RefreshRemote(ctx)
}

// Refresh is the manual pull-to-refresh path: local load first for instant
// feedback, remote fetch only after the local load has completed.
func (b *Bootstrap) Refresh(ctx context.Context) {
	b.LoadLocal(ctx)
	if b.client != nil && b.session().Authenticated() {
		b.RefreshRemote(ctx)
	}
}

// RefreshRemote fetches every collection in parallel. Each success overwrites
// the in-memory collection and its persisted snapshot; each failure becomes a
// per-collection error state and leaves local data untouched.
func (b *Bootstrap) RefreshRemote(ctx context.Context) {
	sess := b.session()
	if b.client == nil || !sess.Authenticated() {
		return
	}

	var wg sync.WaitGroup
	var anyOK sync.Once
	succeeded := false

	fetch := func(key string, run func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.setState(key, true, "")
			if err := run(); err != nil {
				metrics.RemoteFetchFailures.WithLabelValues(key).Inc()
				b.setState(key, false, err.Error())
				b.log.Warn("remote fetch failed, keeping local data",
					zap.String("collection", key), zap.Error(err))
				return
			}
			b.setState(key, false, "")
			anyOK.Do(func() { succeeded = true })
		}()
	}

	fetch(store.KeyChallenges, func() error {
		cs, err := b.client.FetchChallenges(ctx, sess.Token)
		if err != nil {
			return err
		}
		b.dispatcher.ReplaceChallenges(cs, true)
		return nil
	})
	fetch(store.KeyParticipants, func() error {
		ps, err := b.client.FetchParticipants(ctx, sess.Token)
		if err != nil {
			return err
		}
		b.dispatcher.ReplaceParticipants(ps, true)
		return nil
	})
	fetch(store.KeyCheckins, func() error {
		cs, err := b.client.FetchCheckins(ctx, sess.Token)
		if err != nil {
			return err
		}
		b.dispatcher.ReplaceCheckins(cs, true)
		return nil
	})
	fetch(store.KeyProfile, func() error {
		p, err := b.client.FetchProfile(ctx, sess.Token, sess.UserID)
		if err != nil {
			return err
		}
		b.dispatcher.ReplaceProfile(p, true)
		return nil
	})
	fetch(store.KeyBadgeDefinitions, func() error {
		bs, err := b.client.FetchBadges(ctx, sess.Token)
		if err != nil {
			return err
		}
		b.dispatcher.ReplaceBadgeDefinitions(bs, true)
		return nil
	})

	wg.Wait()
	if succeeded {
		b.adapter.SaveLastSync(time.Now().UTC())
	}
}

// CollectionStates returns a snapshot of the per-collection fetch states.
func (b *Bootstrap) CollectionStates() map[string]CollectionState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]CollectionState, len(b.states))
	for k, v := range b.states {
		out[k] = *v
	}
	return out
}

func (b *Bootstrap) setState(key string, loading bool, errMsg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[key]
	if !ok {
		st = &CollectionState{}
		b.states[key] = st
	}
	st.Loading = loading
	st.Error = errMsg
}
