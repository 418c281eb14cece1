package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/domain/model"
)

const defaultUpdateRetries = 8

// ErrUpdateContention is returned when optimistic retries are exhausted.
var ErrUpdateContention = errors.New("view state update contention")

// ViewStateStore is a Redis-backed core.ViewStateStore.
// Updates use WATCH/MULTI so concurrent requests for the same view serialize on the key.
type ViewStateStore struct {
	client  redis.UniversalClient
	prefix  string
	cfg     core.ViewStateConfig
	retries int
}

// NewViewStateStore creates a Redis-backed view state store.
func NewViewStateStore(client redis.UniversalClient, cfg core.ViewStateConfig) *ViewStateStore {
	if cfg.TTL <= 0 {
		cfg.TTL = core.DefaultViewStateConfig().TTL
	}
	return &ViewStateStore{
		client:  client,
		prefix:  "productview:",
		cfg:     cfg,
		retries: defaultUpdateRetries,
	}
}

// Get returns the stored state or a fresh state.
func (s *ViewStateStore) Get(ctx context.Context, viewID string) (*model.ListingState, error) {
	if viewID == "" {
		return nil, core.ErrEmptyViewID
	}
	data, err := s.client.Get(ctx, s.prefix+viewID).Bytes()
	return s.decode(viewID, data, err)
}

// Update applies fn inside an optimistic transaction, retrying when another writer wins.
func (s *ViewStateStore) Update(
	ctx context.Context,
	viewID string,
	fn func(*model.ListingState) error,
) (*model.ListingState, error) {
	if viewID == "" {
		return nil, core.ErrEmptyViewID
	}
	key := s.prefix + viewID

	var result *model.ListingState
	txf := func(tx *redis.Tx) error {
		data, getErr := tx.Get(ctx, key).Bytes()
		st, err := s.decode(viewID, data, getErr)
		if err != nil {
			return err
		}
		current := st.Clone()
		if fnErr := fn(st); fnErr != nil {
			if errors.Is(fnErr, core.ErrSkipUpdate) {
				result = &current
			}
			return fnErr
		}
		st.ViewID = viewID
		st.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal view state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.cfg.TTL)
			return nil
		})
		if err == nil {
			result = st
		}
		return err
	}

	for range s.retries {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, core.ErrSkipUpdate):
			return result, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUpdateContention, viewID)
}

// Delete removes the state for viewID.
func (s *ViewStateStore) Delete(ctx context.Context, viewID string) error {
	if viewID == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+viewID).Err()
}

func (s *ViewStateStore) decode(viewID string, data []byte, err error) (*model.ListingState, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NewListingState(viewID, s.cfg.PageLimit), nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var st model.ListingState
	if unmarshalErr := json.Unmarshal(data, &st); unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal view state: %w", unmarshalErr)
	}
	if st.Products == nil {
		st.Products = []model.Product{}
	}
	return &st, nil
}
