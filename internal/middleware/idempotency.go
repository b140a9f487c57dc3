package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	replayedHeader    = "Idempotent-Replayed"
)

var replayableMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

type storedResponse struct {
	Status      int             `json:"status"`
	ContentType string          `json:"content_type,omitempty"`
	Body        json.RawMessage `json:"body"`
}

// recorder tees the handler's body so it can be stored after the request.
type recorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a POST, PUT or PATCH that
// carries an Idempotency-Key already seen on the same route.
// A nil client disables it.
func Idempotency(redisClient *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	if redisClient == nil {
		return func(c *gin.Context) { c.Next() }
	}
	store := responseStore{client: redisClient}

	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" || !replayableMethods[c.Request.Method] {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := idempotencyKey(c.Request.Method, c.FullPath(), key)

		prior, err := store.load(ctx, redisKey)
		switch {
		case err != nil:
			logger.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		case prior != nil:
			if prior.ContentType != "" {
				c.Header("Content-Type", prior.ContentType)
			}
			c.Header(replayedHeader, "true")
			c.Data(prior.Status, "application/json", prior.Body)
			c.Abort()
			return
		}

		rec := &recorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if !storable(rec.Status()) {
			return
		}
		resp := storedResponse{
			Status:      rec.Status(),
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.buf.Bytes(),
		}
		if err := store.save(context.WithoutCancel(ctx), redisKey, resp); err != nil {
			logger.Warn("idempotency store failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func idempotencyKey(method, route, key string) string {
	return "taxi24:idempotency:" + method + ":" + route + ":" + key
}

// storable reports whether a response may be replayed. 5xx is left out so the
// client can retry.
func storable(status int) bool {
	return status >= http.StatusOK && status < http.StatusInternalServerError
}

type responseStore struct {
	client *redis.Client
}

// load returns nil, nil when nothing is stored under key.
func (s responseStore) load(ctx context.Context, key string) (*storedResponse, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp storedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s responseStore) save(ctx context.Context, key string, resp storedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, idempotencyTTL).Err()
}
