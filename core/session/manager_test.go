package session

import (
	"sync"
	"testing"
	"time"

	"podcastr/core/player"
	"podcastr/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager(time.Hour)

	s := m.Create()
	if s.ID == "" {
		t.Fatal("expected session id")
	}

	got, ok := m.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("expected to find session %s", s.ID)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 session, got %d", m.Len())
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create()

	got, created := m.GetOrCreate(s.ID)
	if created || got != s {
		t.Error("expected existing session to be returned")
	}

	got, created = m.GetOrCreate("unknown")
	if !created || got.ID == "unknown" {
		t.Error("expected a fresh session for unknown id")
	}

	_, created = m.GetOrCreate("")
	if !created {
		t.Error("expected a fresh session for empty id")
	}
}

func TestSession_DoNotifiesSubscribers(t *testing.T) {
	var (
		gotID   string
		gotSnap player.Snapshot
		calls   int
	)
	m := NewManager(time.Hour, WithChangeFunc(func(id string, snap player.Snapshot) {
		gotID = id
		gotSnap = snap
		calls++
	}))
	s := m.Create()

	snap := s.Do(func(p *player.Player) {
		p.PlaySingle(model.Episode{ID: "ep-1"})
	})

	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
	if gotID != s.ID {
		t.Errorf("expected session id %s, got %s", s.ID, gotID)
	}
	if gotSnap.Current == nil || gotSnap.Current.ID != "ep-1" || !snap.IsPlaying {
		t.Errorf("unexpected snapshot %+v", gotSnap)
	}

	// 只读访问不通知
	_ = s.Snapshot()
	if calls != 1 {
		t.Errorf("expected read to skip notification, got %d calls", calls)
	}
}

func TestSession_SessionsAreIndependent(t *testing.T) {
	m := NewManager(time.Hour)
	a := m.Create()
	b := m.Create()

	a.Do(func(p *player.Player) { p.PlaySingle(model.Episode{ID: "ep-1"}) })

	if b.Snapshot().Current != nil {
		t.Error("expected second session to stay empty")
	}
}

func TestManager_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewManager(time.Hour, WithClock(clock.Now))

	stale := m.Create()
	clock.Advance(50 * time.Minute)
	fresh := m.Create()
	clock.Advance(20 * time.Minute)

	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, ok := m.Get(stale.ID); ok {
		t.Error("expected stale session removed")
	}
	if _, ok := m.Get(fresh.ID); !ok {
		t.Error("expected fresh session kept")
	}
}

func TestManager_ActivityKeepsSessionAlive(t *testing.T) {
	clock := &fakeClock{now: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewManager(time.Hour, WithClock(clock.Now))

	s := m.Create()
	clock.Advance(50 * time.Minute)
	s.Do(func(p *player.Player) { p.ToggleLoop() })
	clock.Advance(50 * time.Minute)

	if n := m.Sweep(); n != 0 {
		t.Errorf("expected active session kept, swept %d", n)
	}
}

func TestSession_ConcurrentDo(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do(func(p *player.Player) { p.PlaySingle(model.Episode{ID: "ep"}) })
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if len(snap.Queue) != 50 {
		t.Errorf("expected 50 queued episodes, got %d", len(snap.Queue))
	}
	if snap.CurrentIndex != 49 {
		t.Errorf("expected index 49, got %d", snap.CurrentIndex)
	}
}

func TestSession_NotificationsFollowMutationOrder(t *testing.T) {
	var (
		mu        sync.Mutex
		lengths   []int
		versions  []uint64
		firstCall = true
	)
	m := NewManager(time.Hour, WithChangeFunc(func(id string, snap player.Snapshot) {
		mu.Lock()
		slow := firstCall
		firstCall = false
		mu.Unlock()

		// 第一次通知变慢，第二次修改会在这期间到达
		if slow {
			time.Sleep(50 * time.Millisecond)
		}

		mu.Lock()
		lengths = append(lengths, len(snap.Queue))
		versions = append(versions, snap.Version)
		mu.Unlock()
	}))
	s := m.Create()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Do(func(p *player.Player) { p.PlaySingle(model.Episode{ID: "ep-1"}) })
	}()
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		s.Do(func(p *player.Player) { p.PlaySingle(model.Episode{ID: "ep-2"}) })
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(lengths) != 2 || lengths[0] != 1 || lengths[1] != 2 {
		t.Fatalf("expected notifications in mutation order [1 2], got %v", lengths)
	}
	if versions[0] >= versions[1] {
		t.Errorf("expected increasing versions, got %v", versions)
	}

	final := s.Snapshot()
	if final.Version != versions[1] || len(final.Queue) != 2 {
		t.Errorf("expected last notification to match final state, got version=%d len=%d", final.Version, len(final.Queue))
	}
}

func TestSession_SnapshotVersion(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create()

	if v := s.Snapshot().Version; v != 0 {
		t.Errorf("expected version 0 for a new session, got %d", v)
	}
	s.Do((*player.Player).ToggleLoop)
	snap := s.Do((*player.Player).ToggleShuffle)
	if snap.Version != 2 {
		t.Errorf("expected version 2 after two mutations, got %d", snap.Version)
	}
	if s.Snapshot().Version != 2 {
		t.Error("reads must not bump the version")
	}
}
