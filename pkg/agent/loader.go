package agent

import (
	"context"
	"fmt"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/pkg/logger"
	"companion-game-be/internal/repository/contract"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	localCacheTTL = 30 * time.Second
	redisCacheTTL = 15 * time.Minute
)

// ReadyPromptLoader serves the prompt for a user's next session. Lookup
// order: in-process cache, Redis, database. Any miss or error falls through
// to the next layer and ultimately to the legacy on-the-fly builder, so
// session start can never fail on a prompt lookup.
type ReadyPromptLoader struct {
	enabled        bool
	rolloutPercent int

	prompts contract.ReadyPromptRepository
	redis   *redis.Client
	local   *gocache.Cache
	legacy  *LegacyPromptBuilder
	log     logger.ILogger
}

func NewReadyPromptLoader(
	enabled bool,
	rolloutPercent int,
	prompts contract.ReadyPromptRepository,
	redisClient *redis.Client,
	legacy *LegacyPromptBuilder,
	log logger.ILogger,
) *ReadyPromptLoader {
	return &ReadyPromptLoader{
		enabled:        enabled,
		rolloutPercent: rolloutPercent,
		prompts:        prompts,
		redis:          redisClient,
		local:          gocache.New(localCacheTTL, 2*localCacheTTL),
		legacy:         legacy,
		log:            log,
	}
}

// Load returns the prompt text for the session. The stored prompt is
// returned exactly as the pipeline wrote it; nothing along the read path may
// rewrite it.
func (l *ReadyPromptLoader) Load(ctx context.Context, userId uuid.UUID, platform entity.Platform) string {
	if !l.enabled || !InRollout(userId, l.rolloutPercent) {
		return l.legacy.Build(ctx, userId, platform)
	}

	key := cacheKey(userId, platform)

	if cached, found := l.local.Get(key); found {
		if text, ok := cached.(string); ok {
			return text
		}
	}

	if l.redis != nil {
		text, err := l.redis.Get(ctx, key).Result()
		if err == nil && text != "" {
			l.local.Set(key, text, gocache.DefaultExpiration)
			return text
		}
		if err != nil && err != redis.Nil {
			l.log.Warn("agent", "redis_read_failed", map[string]interface{}{
				"key": key, "error": err.Error(),
			})
		}
	}

	prompt, err := l.prompts.GetCurrent(ctx, userId, platform)
	if err != nil {
		l.log.Warn("agent", "ready_prompt_lookup_failed", map[string]interface{}{
			"user_id": userId.String(), "error": err.Error(),
		})
		return l.legacy.Build(ctx, userId, platform)
	}
	if prompt == nil {
		l.log.Warn("agent", "no_ready_prompt", map[string]interface{}{
			"user_id": userId.String(), "platform": string(platform),
		})
		return l.legacy.Build(ctx, userId, platform)
	}

	l.local.Set(key, prompt.PromptText, gocache.DefaultExpiration)
	if l.redis != nil {
		if err := l.redis.Set(ctx, key, prompt.PromptText, redisCacheTTL).Err(); err != nil {
			l.log.Warn("agent", "redis_write_failed", map[string]interface{}{
				"key": key, "error": err.Error(),
			})
		}
	}

	l.log.Info("agent", "loaded_ready_prompt", map[string]interface{}{
		"user_id":          userId.String(),
		"platform":         string(platform),
		"pipeline_version": prompt.PipelineVersion,
		"token_count":      prompt.TokenCount,
	})
	return prompt.PromptText
}

// Invalidate drops cached copies after the pipeline installs a new prompt.
func (l *ReadyPromptLoader) Invalidate(ctx context.Context, userId uuid.UUID, platform entity.Platform) {
	key := cacheKey(userId, platform)
	l.local.Delete(key)
	if l.redis != nil {
		if err := l.redis.Del(ctx, key).Err(); err != nil {
			l.log.Warn("agent", "redis_invalidate_failed", map[string]interface{}{
				"key": key, "error": err.Error(),
			})
		}
	}
}

func cacheKey(userId uuid.UUID, platform entity.Platform) string {
	return fmt.Sprintf("ready_prompt:%s:%s", userId, platform)
}
