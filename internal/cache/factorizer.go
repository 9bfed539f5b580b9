package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/ieml/internal/metrics"
	"github.com/ppiankov/ieml/internal/script"
)

// Factorizer memoizes script.Factorize. Inputs are deduplicated and sorted
// before hashing, so any permutation of a set hits the same entry.
type Factorizer struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewFactorizer wraps c. A nil cache disables memoization.
func NewFactorizer(c Cache, ttl time.Duration, logger *zap.SugaredLogger) *Factorizer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Factorizer{cache: c, ttl: ttl, logger: logger.Named("factorizer")}
}

// Factorize returns the factorized form of sequences.
func (f *Factorizer) Factorize(sequences []*script.Script) (*script.Script, error) {
	key := CacheKey(canonicalSet(sequences))

	if f.cache != nil {
		if val, ok := f.cache.Get(key); ok {
			s, err := script.Parse(string(val))
			if err == nil {
				metrics.Factorizations.WithLabelValues("cached").Inc()
				return s, nil
			}
			f.logger.Warnw("dropping unreadable cache entry", "key", key, "error", err)
			_ = f.cache.Delete(key)
		}
	}

	s, err := script.Factorize(sequences)
	if err != nil {
		metrics.Factorizations.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.Factorizations.WithLabelValues("computed").Inc()

	if f.cache != nil {
		if err := f.cache.Set(key, []byte(s.String()), f.ttl); err != nil {
			f.logger.Warnw("cache write failed", "key", key, "error", err)
		}
	}
	return s, nil
}

func canonicalSet(sequences []*script.Script) string {
	seen := make(map[string]bool, len(sequences))
	unique := make([]*script.Script, 0, len(sequences))
	for _, s := range sequences {
		if s != nil && !seen[s.Key()] {
			seen[s.Key()] = true
			unique = append(unique, s)
		}
	}
	script.Sort(unique)
	return script.JoinKeys(unique)
}
