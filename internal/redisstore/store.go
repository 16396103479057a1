// Package redisstore keeps job records in Redis so that several tarjim
// processes can share one job table.
//
// Each job is a single JSON value, so every write replaces the whole record
// atomically.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/jobs"
)

var _ jobs.Store = (*Store)(nil)

const defaultPrefix = "tarjim:job:"

type Option func(*Store)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires job records after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

type Store struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// New wraps client. The caller owns the client lifecycle.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) Create(ctx context.Context, job *jobs.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("redisstore: encode job %s: %w", job.ID, err)
	}
	ok, err := s.client.SetNX(ctx, s.key(job.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redisstore: create job %s: %w", job.ID, err)
	}
	if !ok {
		return fmt.Errorf("redisstore: job %s already exists", job.ID)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*jobs.Job, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("job %s: %w", id, internal.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get job %s: %w", id, err)
	}

	var job jobs.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("redisstore: decode job %s: %w", id, err)
	}
	return &job, nil
}

// Update replaces an existing record; it never creates one.
func (s *Store) Update(ctx context.Context, job *jobs.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("redisstore: encode job %s: %w", job.ID, err)
	}

	args := redis.SetArgs{Mode: "XX", KeepTTL: true}
	if s.ttl > 0 {
		args = redis.SetArgs{Mode: "XX", TTL: s.ttl}
	}
	err = s.client.SetArgs(ctx, s.key(job.ID), data, args).Err()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("job %s: %w", job.ID, internal.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("redisstore: update job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete job %s: %w", id, err)
	}
	return nil
}
