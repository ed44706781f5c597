package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/dmarquezg/storefront-backend/api/responses"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
	pkgredis "github.com/dmarquezg/storefront-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
)

// Replay-guarded routes, keyed by "METHOD pattern" as chi resolves it.
// Checkout records live for a week; a duplicate order days later is still a
// duplicate order.
var idempotentRoutes = map[string]time.Duration{
	http.MethodPost + " /api/auth/register":              defaultIdempotencyTTL,
	http.MethodPost + " /api/storefront/{slug}/checkout": criticalIdempotencyTTL,
}

// replayRecord is the stored first response plus a hash of the request that
// produced it, so a reused key with a different body can be rejected.
type replayRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response when a guarded route sees the same
// Idempotency-Key twice, and captures the first response otherwise.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := idempotentRoutes[r.Method+" "+routePattern(r)]
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := hashBody(body)
			storeKey := store.IdempotencyKey(replayScope(r), clientKey)

			stored, err := store.Get(ctx, storeKey)
			if err != nil && !errors.Is(err, redis.Nil) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if stored != "" {
				replayStored(ctx, logg, w, stored, reqHash)
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			persistRecord(ctx, logg, store, storeKey, capture, reqHash, ttl)
		})
	}
}

// replayScope keys records to the caller: merchants by identity, guests by
// session, plus method and path.
func replayScope(r *http.Request) string {
	return strings.Join([]string{
		MerchantIDFromContext(r.Context()),
		SessionIDFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}, "|")
}

func replayStored(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, stored, reqHash string) {
	var record replayRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != reqHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}

	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

// persistRecord stores the captured response. Persistence failures are
// logged, never surfaced; the response already went out.
func persistRecord(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, capture *captureWriter, reqHash string, ttl time.Duration) {
	record := replayRecord{
		Status:      capture.statusOrOK(),
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		ContentType: capture.Header().Get("Content-Type"),
		RequestHash: reqHash,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		if logg != nil {
			logg.Error(ctx, "marshal idempotency record", err)
		}
		return
	}
	if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil && logg != nil {
		logg.Error(ctx, "persist idempotency record", err)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if r == nil {
		return ""
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// captureWriter tees the response so it can be persisted for replay.
type captureWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *captureWriter) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
