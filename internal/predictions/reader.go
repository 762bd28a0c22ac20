package predictions

import (
	"context"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/pkg/redis"
)

// Reader 호라이즌 최신 랭킹 조회: 캐시 → DB 순
type Reader struct {
	cache *redis.Cache
	repo  *Repository
}

// NewReader creates a reader. Either source may be nil.
func NewReader(cache *redis.Cache, repo *Repository) *Reader {
	return &Reader{cache: cache, repo: repo}
}

// Latest returns the newest ranking of a horizon, ErrNotFound when no source has one
func (r *Reader) Latest(ctx context.Context, horizon string) (*contracts.HorizonRanking, error) {
	if r.cache != nil {
		var cached contracts.HorizonRanking
		ok, err := r.cache.Get(ctx, redis.RankingKey(horizon), &cached)
		if err == nil && ok {
			return &cached, nil
		}
	}

	if r.repo == nil {
		return nil, ErrNotFound
	}

	ranking, err := r.repo.Latest(ctx, horizon)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		_ = r.cache.Set(ctx, redis.RankingKey(horizon), ranking, redis.TTLDaily)
	}
	return ranking, nil
}
