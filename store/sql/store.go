// Package sqlstore persists session entries in a SQL database through bun.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-apiclient/core"
)

// Store is a core.CredentialStore backed by the apiclient_session_entries
// table. Each key maps to one row.
type Store struct {
	db   *bun.DB
	repo repository.Repository[*sessionEntryRecord]
}

func NewStore(db *bun.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*sessionEntryRecord](db, sessionEntryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid session entry repository wiring: %w", err)
		}
	}
	return &Store{db: db, repo: repo}, nil
}

// NewStoreFromPersistence accepts a *bun.DB or anything exposing DB() *bun.DB,
// such as a go-persistence-bun client.
func NewStoreFromPersistence(client any) (*Store, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewStore(db)
}

func (s *Store) DB() *bun.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.repo == nil {
		return nil, false, fmt.Errorf("sqlstore: session store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, core.NewStoreError(errors.New("key is required"), key)
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("entry_key", "=", key),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return append([]byte(nil), records[0].Value...), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return core.NewStoreError(errors.New("key is required"), key)
	}
	now := time.Now().UTC()
	record := &sessionEntryRecord{
		ID:        uuid.NewString(),
		EntryKey:  key,
		Value:     append([]byte{}, value...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	// a single upsert keeps concurrent first writes of one key from racing on
	// the unique entry_key index
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (entry_key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*sessionEntryRecord)(nil)).
		Where("entry_key = ?", strings.TrimSpace(key)).
		Exec(ctx)
	return err
}

// Keys lists the stored keys in ascending order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: session store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("entry_key ASC"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, record.EntryKey)
	}
	return keys, nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
