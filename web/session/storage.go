package session

import (
	"sync"
	"time"
)

// Keys of a session record. They are the durable contract: a record written
// with these keys survives a reload.
const (
	KeyAccessToken = "accessToken"
	KeyUser        = "user"
	KeyLoginEmail  = "loginEmail"
)

// Storage is the persisted session record of one browser.
type Storage interface {
	// Get returns the value of key. Missing or unreadable values are absent.
	Get(key string) (string, bool)
	// Apply writes set and deletes remove in one atomic step, then notifies
	// subscribers.
	Apply(set map[string]string, remove ...string) error
	// Subscribe calls fn after every change to the record, from any context.
	Subscribe(fn func()) (cancel func())
}

// Provider opens the session record for a session id.
type Provider interface {
	Open(sid string) Storage
}

// BearerToken reads the access token from st on every call.
func BearerToken(st Storage) func() string {
	return func() string {
		token, _ := st.Get(KeyAccessToken)
		return token
	}
}

// MemoryProvider keeps session records in process memory. With a ttl,
// records not opened for ttl are dropped unless a tab is watching them.
type MemoryProvider struct {
	mu        sync.Mutex
	records   map[string]*memoryRecord
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryProvider creates an empty MemoryProvider that never evicts.
func NewMemoryProvider() *MemoryProvider {
	return NewExpiringMemoryProvider(0)
}

// NewExpiringMemoryProvider creates a MemoryProvider whose idle records
// expire after ttl.
func NewExpiringMemoryProvider(ttl time.Duration) *MemoryProvider {
	return &MemoryProvider{
		records: make(map[string]*memoryRecord),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Open returns the record for sid, creating it on first use.
func (p *MemoryProvider) Open(sid string) Storage {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	p.sweep(now)
	rec, ok := p.records[sid]
	if !ok {
		rec = &memoryRecord{
			values:      make(map[string]string),
			subscribers: make(map[int]func()),
		}
		p.records[sid] = rec
	}
	rec.opened = now
	return rec
}

// Len returns the number of records held.
func (p *MemoryProvider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

// sweep drops expired records, at most once a minute (or once per ttl when
// shorter). p.mu must be held.
func (p *MemoryProvider) sweep(now time.Time) {
	if p.ttl <= 0 {
		return
	}
	interval := min(p.ttl, time.Minute)
	if now.Sub(p.lastSweep) < interval {
		return
	}
	p.lastSweep = now
	for sid, rec := range p.records {
		if now.Sub(rec.opened) >= p.ttl && !rec.watched() {
			delete(p.records, sid)
		}
	}
}

type memoryRecord struct {
	opened time.Time // guarded by MemoryProvider.mu

	mu          sync.RWMutex
	values      map[string]string
	nextID      int
	subscribers map[int]func()
}

func (r *memoryRecord) watched() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers) > 0
}

func (r *memoryRecord) Get(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

func (r *memoryRecord) Apply(set map[string]string, remove ...string) error {
	r.mu.Lock()
	for k, v := range set {
		r.values[k] = v
	}
	for _, k := range remove {
		delete(r.values, k)
	}
	subscribers := make([]func(), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subscribers = append(subscribers, fn)
	}
	r.mu.Unlock()

	for _, fn := range subscribers {
		fn()
	}
	return nil
}

func (r *memoryRecord) Subscribe(fn func()) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subscribers[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers, id)
			r.mu.Unlock()
		})
	}
}
