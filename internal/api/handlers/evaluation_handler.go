package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
	"github.com/annuaire-sante/backend/internal/infrastructure/observability"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

const (
	evaluationRateLimit  = 10
	evaluationRateWindow = time.Hour
	evaluationLockTTL    = 10 * time.Second
)

// EvaluationService defines the evaluation operations used by the handler
type EvaluationService interface {
	List(ctx context.Context, structureID int64) ([]*entities.Evaluation, error)
	Submit(ctx context.Context, caller *entities.Caller, evaluation *entities.Evaluation) error
}

// EvaluationHandler handles structure ratings
type EvaluationHandler struct {
	service EvaluationService
	cache   providers.CacheProvider
	local   *localRateLimiter
}

// NewEvaluationHandler creates a new evaluation handler. Without a cache
// the submission limit is enforced per process.
func NewEvaluationHandler(service EvaluationService, cache providers.CacheProvider) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		cache:   cache,
		local:   newLocalRateLimiter(),
	}
}

type evaluationRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ListEvaluations handles GET /api/structures-sante/{id}/evaluations
func (h *EvaluationHandler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	structureID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	evaluations, err := h.service.List(r.Context(), structureID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if evaluations == nil {
		evaluations = []*entities.Evaluation{}
	}
	respondWithData(w, http.StatusOK, "", evaluations)
}

// SubmitEvaluation handles POST /api/structures-sante/{id}/evaluations
func (h *EvaluationHandler) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	structureID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	caller := entities.CallerFromContext(r.Context())
	if caller == nil {
		respondWithAppError(w, apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	var req evaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	allowed, retryAfter := h.allowRequest(r.Context(), fmt.Sprintf("evaluation:rate:%d", caller.ID))
	if !allowed {
		observability.RateLimitedTotal.WithLabelValues("evaluation").Inc()
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	// Double submits of the same rating race past the existence check;
	// the first one holds the lock until it finishes.
	lockKey := fmt.Sprintf("evaluation:lock:%d:%d", structureID, caller.ID)
	if !h.acquire(r.Context(), lockKey) {
		respondWithError(w, http.StatusConflict, "an evaluation is already being submitted")
		return
	}
	defer h.release(lockKey)

	evaluation := &entities.Evaluation{StructureID: structureID, Rating: req.Rating, Comment: req.Comment}
	if err := h.service.Submit(r.Context(), caller, evaluation); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithData(w, http.StatusCreated, "evaluation recorded", evaluation)
}

func (h *EvaluationHandler) allowRequest(ctx context.Context, key string) (bool, time.Duration) {
	if h.cache == nil {
		return h.local.allow(key, evaluationRateLimit, evaluationRateWindow)
	}

	count, err := h.cache.Increment(ctx, key, int(evaluationRateWindow.Seconds()))
	if err != nil {
		log.Warn().Err(err).Msg("rate limit cache unavailable, using local limiter")
		return h.local.allow(key, evaluationRateLimit, evaluationRateWindow)
	}
	if count > evaluationRateLimit {
		return false, evaluationRateWindow
	}
	return true, evaluationRateWindow
}

func (h *EvaluationHandler) acquire(ctx context.Context, key string) bool {
	if h.cache == nil {
		return h.local.lock(key, evaluationLockTTL)
	}
	ok, err := h.cache.SetIfAbsent(ctx, key, []byte("1"), int(evaluationLockTTL.Seconds()))
	if err != nil {
		return h.local.lock(key, evaluationLockTTL)
	}
	return ok
}

func (h *EvaluationHandler) release(key string) {
	h.local.unlock(key)
	if h.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.cache.Delete(ctx, key); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("failed to release evaluation lock")
	}
}

// localRateLimiter is the in-process fallback for the cache-backed limits
type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
	locks  map[string]time.Time
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
		locks:  make(map[string]time.Time),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

func (l *localRateLimiter) lock(key string, ttl time.Duration) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if expiresAt, ok := l.locks[key]; ok && now.Before(expiresAt) {
		return false
	}
	l.locks[key] = now.Add(ttl)
	return true
}

func (l *localRateLimiter) unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
}
