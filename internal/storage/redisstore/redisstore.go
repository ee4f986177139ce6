// Package redisstore provides a Redis-backed implementation of
// storage.Storage, for deployments where several API instances share one
// roster.
//
// Key layout (prefix defaults to "roster"):
//
//	<prefix>:student:<id>     JSON document
//	<prefix>:students         set of all ids
//	<prefix>:gender:<gender>  set of ids with that gender
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"
)

const (
	defaultPrefix = "roster"

	// maxTxAttempts bounds retries when a WATCHed key changes mid-transaction.
	maxTxAttempts = 5
)

// Store keeps one JSON document per student plus two id sets.
type Store struct {
	client *redis.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces every key the store touches.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New wraps an existing client. The client lifecycle stays with the caller.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dial parses a redis:// URL, connects and pings.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (s *Store) Save(ctx context.Context, student types.Student) (types.Student, error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}

	doc, err := json.Marshal(student)
	if err != nil {
		return types.Student{}, fmt.Errorf("Save: marshal: %w", err)
	}

	key := s.studentKey(student.ID)
	err = s.withWatch(ctx, key, func(tx *redis.Tx) error {
		prev, found, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if found && prev.Gender != student.Gender {
				pipe.SRem(ctx, s.genderKey(prev.Gender), student.ID)
			}
			pipe.Set(ctx, key, doc, 0)
			pipe.SAdd(ctx, s.allKey(), student.ID)
			pipe.SAdd(ctx, s.genderKey(student.Gender), student.ID)
			return nil
		})
		return err
	})
	if err != nil {
		return types.Student{}, fmt.Errorf("Save: %w", err)
	}

	return student, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (types.Student, error) {
	student, found, err := s.load(ctx, s.client, s.studentKey(id))
	if err != nil {
		return types.Student{}, fmt.Errorf("FindByID: %w", err)
	}
	if !found {
		return types.Student{}, storage.ErrNotFound
	}
	return student, nil
}

func (s *Store) FindAll(ctx context.Context) ([]types.Student, error) {
	ids, err := s.client.SMembers(ctx, s.allKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("FindAll: members: %w", err)
	}

	students := make([]types.Student, 0, len(ids))
	if len(ids) == 0 {
		return students, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.studentKey(id)
	}

	docs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("FindAll: mget: %w", err)
	}

	for _, doc := range docs {
		// A nil slot means the id set and the document disagree; the
		// document is authoritative.
		raw, ok := doc.(string)
		if !ok {
			continue
		}
		var student types.Student
		if err := json.Unmarshal([]byte(raw), &student); err != nil {
			return nil, fmt.Errorf("FindAll: unmarshal: %w", err)
		}
		students = append(students, student)
	}
	return students, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	key := s.studentKey(id)
	err := s.withWatch(ctx, key, func(tx *redis.Tx) error {
		prev, found, err := s.load(ctx, tx, key)
		if err != nil || !found {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, s.allKey(), id)
			pipe.SRem(ctx, s.genderKey(prev.Gender), id)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("DeleteByID: %w", err)
	}
	return nil
}

// DeleteAll removes every key under the prefix.
func (s *Store) DeleteAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()

	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("DeleteAll: del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("DeleteAll: scan: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("DeleteAll: del: %w", err)
		}
	}
	return nil
}

func (s *Store) ExistsByGender(ctx context.Context, gender string) (bool, error) {
	n, err := s.client.SCard(ctx, s.genderKey(gender)).Result()
	if err != nil {
		return false, fmt.Errorf("ExistsByGender: %w", err)
	}
	return n > 0, nil
}

func (s *Store) withWatch(ctx context.Context, key string, fn func(*redis.Tx) error) error {
	var err error
	for i := 0; i < maxTxAttempts; i++ {
		err = s.client.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) load(ctx context.Context, c getter, key string) (types.Student, bool, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Student{}, false, nil
	}
	if err != nil {
		return types.Student{}, false, fmt.Errorf("get %s: %w", key, err)
	}

	var student types.Student
	if err := json.Unmarshal(raw, &student); err != nil {
		return types.Student{}, false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return student, true, nil
}

func (s *Store) studentKey(id string) string    { return s.prefix + ":student:" + id }
func (s *Store) allKey() string                 { return s.prefix + ":students" }
func (s *Store) genderKey(gender string) string { return s.prefix + ":gender:" + gender }

var _ storage.Storage = (*Store)(nil)
