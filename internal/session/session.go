// Package session provides Valkey-backed dashboard sessions. A session
// carries the UI state that must survive page reloads: the creation
// wizard, per-list pagination and the root-list search filter. Sessions
// are identified by a secure cookie and stored as JSON in Valkey with
// automatic TTL expiry.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"shopdesk/internal/paginate"
	"shopdesk/internal/wizard"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "sd_session"

	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 12 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// Data holds the dashboard state stored in Valkey.
type Data struct {
	Wizard    wizard.State   `json:"wizard"`
	Pages     *paginate.Book `json:"pages"`
	RootQuery string         `json:"root_query,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewData returns fresh dashboard state with lists of perPage items.
func NewData(perPage int) *Data {
	return &Data{
		Wizard:    wizard.New(),
		Pages:     paginate.NewBook(perPage),
		CreatedAt: time.Now(),
	}
}

// Session is a loaded session: its ID and payload.
type Session struct {
	ID   string
	Data *Data
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	secure  bool
	perPage int
}

// NewStore creates a session store backed by the given Valkey client.
// secure marks the cookie Secure; enable it behind TLS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client:  client,
		ttl:     DefaultTTL,
		secure:  secure,
		perPage: paginate.DefaultPerPage,
	}
}

// WithPageSize sets the default page size of new sessions.
func (s *Store) WithPageSize(n int) *Store {
	if n > 0 {
		s.perPage = n
	}
	return s
}

// Create generates a new session, stores it in Valkey, and sets the
// session cookie on the response.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter) (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}

	sess := &Session{ID: id, Data: NewData(s.perPage)}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return sess, nil
}

// Get retrieves the session named by the request cookie. Returns nil if
// no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	if data.Pages == nil {
		data.Pages = paginate.NewBook(s.perPage)
	}
	if data.Wizard.Step == "" {
		data.Wizard = wizard.New()
	}

	return &Session{ID: cookie.Value, Data: &data}, nil
}

// Save writes the session data to Valkey and resets the TTL.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session save: no session")
	}

	payload, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+sess.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	return nil
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil // No cookie, nothing to destroy
	}

	if err := s.client.Del(ctx, keyPrefix+cookie.Value).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return nil
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
