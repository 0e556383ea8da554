package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyPrefix = "idempotency:"
	idempotencyTTL    = 24 * time.Hour
	maxIdempotencyKey = 128
)

type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisCache(client *redis.Client, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, log: log}
}

func (c *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		c.log.Error("Redis get error", zap.Error(err))
		return nil, false
	}
	return val, true
}

func (c *RedisCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Error("Redis set error", zap.Error(err))
	}
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored 2xx response of a POST carrying an Idempotency-Key.
// Keys are scoped to the caller and the route, and bound to the request body:
// reusing a key with a different body is rejected with 422. A nil cache disables replay.
func Idempotency(cache *RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if cache == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKey {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Idempotency-Key is too long"})
			return
		}

		scope := "anonymous"
		if p := CurrentPrincipal(c); p != nil {
			scope = p.ID.String()
			if p.System {
				scope = "system"
			}
		}
		cacheKey := idempotencyPrefix + scope + ":" + c.FullPath() + ":" + key
		ctx := c.Request.Context()

		bodyHash, err := hashBody(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Failed to read request body"})
			return
		}

		if data, ok := cache.GetBytes(ctx, cacheKey); ok {
			var resp cachedResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				if resp.BodyHash != bodyHash {
					cache.log.Warn("Idempotency key reused with a different body", zap.String("key", key))
					c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": "Idempotency-Key was reused with a different request body"})
					return
				}
				cache.log.Info("Returning cached response", zap.String("key", key))
				c.Header("Idempotent-Replayed", "true")
				c.Data(resp.Status, resp.ContentType, resp.Body)
				c.Abort()
				return
			}
			cache.log.Error("Failed to decode cached response", zap.String("key", key))
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		data, err := json.Marshal(cachedResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
			BodyHash:    bodyHash,
		})
		if err != nil {
			cache.log.Error("Failed to encode response", zap.Error(err))
			return
		}
		cache.SetBytes(ctx, cacheKey, data, idempotencyTTL)
		cache.log.Info("Stored idempotent response", zap.String("key", key))
	}
}

// hashBody digests the request body and restores it for the handler.
func hashBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
