package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// ErrSessionNotFound is returned for unknown or evicted session ids.
var ErrSessionNotFound = errors.New("listing session not found")

// ErrUnknownCollection is returned when a session is opened on an unsupported collection.
var ErrUnknownCollection = errors.New("unknown collection")

// PageSource is the ordered range query backing every session.
type PageSource interface {
	FetchPage(ctx context.Context, collection models.Collection, offset, limit int) ([]models.ListItem, error)
}

// Session is one consumer's incremental view over a collection.
type Session struct {
	ID         string
	Collection models.Collection
	Controller *Controller[models.ListItem]

	lastAccess time.Time
}

// SessionManager holds listing sessions for API consumers.
type SessionManager struct {
	source   PageSource
	logger   *zap.Logger
	observer func(models.Collection, Outcome)
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a new session manager. observer may be nil.
func NewSessionManager(source PageSource, observer func(models.Collection, Outcome), logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		source:   source,
		logger:   logger,
		observer: observer,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session on collection and loads its first page.
func (sm *SessionManager) Open(ctx context.Context, collection models.Collection) (*Session, error) {
	if !collection.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}

	opts := []Option{WithLogger(sm.logger.With(zap.String("collection", string(collection))))}
	if sm.observer != nil {
		opts = append(opts, WithObserver(func(o Outcome) { sm.observer(collection, o) }))
	}

	fetch := func(ctx context.Context, offset, limit int) ([]models.ListItem, error) {
		return sm.source.FetchPage(ctx, collection, offset, limit)
	}

	session := &Session{
		ID:         uuid.NewString(),
		Collection: collection,
		Controller: New(fetch, opts...),
		lastAccess: sm.now(),
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	session.Controller.LoadFirst(ctx)
	return session, nil
}

// Get retrieves a session and marks it as recently used.
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	session, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.lastAccess = sm.now()
	return session, nil
}

// NearEnd forwards the near-end signal to the session's controller and
// returns the resulting page.
func (sm *SessionManager) NearEnd(ctx context.Context, id string) (Page[models.ListItem], error) {
	session, err := sm.Get(id)
	if err != nil {
		return Page[models.ListItem]{}, err
	}
	session.Controller.NearEnd(ctx)
	return session.Controller.Snapshot(), nil
}

// Close removes a session.
func (sm *SessionManager) Close(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}

// Sweep evicts sessions idle for longer than ttl and returns how many were removed.
func (sm *SessionManager) Sweep(ttl time.Duration) int {
	cutoff := sm.now().Add(-ttl)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for id, session := range sm.sessions {
		if session.lastAccess.Before(cutoff) {
			delete(sm.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		sm.logger.Debug("evicted idle listing sessions", zap.Int("count", removed))
	}
	return removed
}
