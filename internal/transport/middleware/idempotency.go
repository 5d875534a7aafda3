package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edulend/loan-management/internal/auth"
)

// provisionalLockTTL bounds how long an in-flight request holds its slot
// before the key can be retried.
const provisionalLockTTL = 60 * time.Second

const idempotencyHeader = "Idempotency-Key"

type idempotencyEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

// Idempotency makes mutating requests replay-safe. Clients may send an
// Idempotency-Key header; a repeated key with the same body gets the stored
// response back, a repeated key with a different body is rejected. Requests
// without the header pass through untouched.
func Idempotency(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal := "anonymous"
			if user, ok := auth.UserFromContext(r.Context()); ok && user != nil {
				principal = user.ID
			}

			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewBuffer(body))
			}
			sum := sha256.Sum256(body)
			bodyHash := hex.EncodeToString(sum[:])

			storeKey := "idempotency:" + r.Method + ":" + r.URL.Path + ":" + principal + ":" + key

			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			entry := idempotencyEntry{
				InProgress: true,
				BodySHA256: bodyHash,
				CreatedAt:  time.Now().UTC(),
			}
			raw, _ := json.Marshal(entry)

			acquired, err := rdb.SetNX(ctx, storeKey, raw, provisionalLockTTL).Result()
			if err != nil {
				logger.Error("idempotency store unavailable, passing request through", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !acquired {
				stored, err := rdb.Get(ctx, storeKey).Bytes()
				if err != nil {
					writeIdempotencyError(w, http.StatusConflict, "request is already in progress")
					return
				}

				var prev idempotencyEntry
				if err := json.Unmarshal(stored, &prev); err != nil {
					writeIdempotencyError(w, http.StatusConflict, "request is already in progress")
					return
				}

				if prev.BodySHA256 != bodyHash {
					writeIdempotencyError(w, http.StatusConflict, "idempotency key reused with a different body")
					return
				}

				if !prev.InProgress && prev.Code != 0 {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(prev.Code)
					w.Write(prev.Body)
					return
				}

				writeIdempotencyError(w, http.StatusConflict, "request is already in progress")
				return
			}

			rec := &responseWriter{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r)

			statusCode := rec.statusCode
			if statusCode == 0 {
				statusCode = http.StatusOK
			}

			final := idempotencyEntry{
				Code:       statusCode,
				Body:       rec.body.Bytes(),
				BodySHA256: bodyHash,
				CreatedAt:  time.Now().UTC(),
			}
			finalRaw, _ := json.Marshal(final)
			if err := rdb.Set(context.Background(), storeKey, finalRaw, ttl).Err(); err != nil {
				logger.Error("failed to store idempotency result", "error", err, "key", storeKey)
			}
		})
	}
}

func writeIdempotencyError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"message": message,
	})
}
