package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size used when callers omit a limit.
	DefaultLimit = 25
	// MaxLimit caps the rows any single page can request.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of the previous page for keyset queries.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// cursorPayload is the wire shape behind the opaque token.
type cursorPayload struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

// NormalizeLimit clamps the requested limit into [1, MaxLimit], applying the
// default when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer requests one extra row so callers can detect a next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor serializes the cursor into an opaque URL-safe token.
func EncodeCursor(cursor Cursor) string {
	raw, err := json.Marshal(cursorPayload{CreatedAt: cursor.CreatedAt.UTC(), ID: cursor.ID})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a token produced by EncodeCursor. Empty input means
// first page and returns a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	if payload.ID == uuid.Nil || payload.CreatedAt.IsZero() {
		return nil, fmt.Errorf("incomplete cursor")
	}

	return &Cursor{CreatedAt: payload.CreatedAt, ID: payload.ID}, nil
}
