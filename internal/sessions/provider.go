package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Header carries the anonymous browser session identifier on every
// storefront request.
const Header = "X-Session-Id"

type sessionStore interface {
	TouchSession(ctx context.Context, sessionID string, ttl time.Duration) error
}

// Provider hands out stable anonymous session identifiers. The id is
// minted server-side on first contact and echoed back by the client on
// every subsequent request.
type Provider struct {
	store sessionStore
	ttl   time.Duration
}

// NewProvider builds a session provider backed by the given store.
func NewProvider(store sessionStore, ttl time.Duration) (*Provider, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if ttl <= 0 {
		ttl = 720 * time.Hour
	}
	return &Provider{store: store, ttl: ttl}, nil
}

// Ensure validates the inbound session id, minting a fresh one when the
// value is missing or malformed. The second return reports whether a new
// id was issued. Redis tracking is best-effort; a failed touch never
// blocks the request.
func (p *Provider) Ensure(ctx context.Context, inbound string) (string, bool) {
	id := strings.TrimSpace(inbound)
	created := false
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		created = true
	}
	_ = p.store.TouchSession(ctx, id, p.ttl)
	return id, created
}
