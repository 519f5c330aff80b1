package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	indexKey    = "projects:index"
	valuePrefix = "projects:"
)

var nameRe = regexp.MustCompile(`^[a-z0-9._-]{1,64}$`)

// Store is the Redis-backed registry of tracked projects. The collector
// reads it every cycle, the API mutates it.
type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid project name")
	}
	return nil
}

// DefaultQuery builds a recent-search query for a project that has no
// explicit one: the name plus its cashtag, retweets excluded.
func DefaultQuery(name string) string {
	return fmt.Sprintf(`"%s" OR "$%s" -is:retweet lang:en`, name, strings.ToUpper(name))
}

func (s *Store) Upsert(ctx context.Context, name, query string, enabled bool) (*Project, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery(name)
	}

	p := &Project{Name: name, Query: query, Enabled: enabled, RequestedAt: time.Now().UTC()}

	// Keep the original request time on re-upsert.
	if existing, err := s.Get(ctx, name); err == nil {
		p.RequestedAt = existing.RequestedAt
	}

	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, projectKey(name), b, 0)
	pipe.SAdd(ctx, indexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert project: %w", err)
	}

	return p, nil
}

func (s *Store) Get(ctx context.Context, name string) (*Project, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, projectKey(name)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	var p Project
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("unmarshal project: %w", err)
	}
	return &p, nil
}

func (s *Store) List(ctx context.Context) ([]*Project, error) {
	names, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list projects index: %w", err)
	}
	if len(names) == 0 {
		return []*Project{}, nil
	}

	redisKeys := make([]string, 0, len(names))
	for _, n := range names {
		if err := ValidateName(n); err != nil {
			continue
		}
		redisKeys = append(redisKeys, projectKey(n))
	}
	if len(redisKeys) == 0 {
		return []*Project{}, nil
	}

	vals, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget projects: %w", err)
	}

	out := make([]*Project, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p Project
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		out = append(out, &p)
	}

	return out, nil
}

// ListEnabled returns only the projects the collector should poll.
func (s *Store) ListEnabled(ctx context.Context) ([]*Project, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Project, 0, len(all))
	for _, p := range all {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if err := ValidateName(name); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, projectKey(name))
	pipe.SRem(ctx, indexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	return nil
}

// Seed registers the given projects if the index is empty.
func (s *Store) Seed(ctx context.Context, defaults map[string]string) error {
	n, err := s.client.SCard(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("check projects index: %w", err)
	}
	if n > 0 {
		return nil
	}

	for name, query := range defaults {
		if _, err := s.Upsert(ctx, name, query, true); err != nil {
			return err
		}
	}
	return nil
}

func projectKey(name string) string {
	return valuePrefix + name
}
