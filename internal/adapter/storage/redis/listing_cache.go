package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ListingCache implements ports.TransactionListCache, ports.WalletListCache and
// ports.CacheInvalidator.
//
// Transaction pages are keyed by the wallet view version they were read at, so a
// page read before a projection is never served after it. Every page is also
// tracked in a wallet tag set and an actor tag set so one invalidation signal can
// drop all pages it affects. Wallet listings are keyed by a per-actor generation
// that invalidation bumps.
type ListingCache struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

const (
	defaultListingCacheTTL = 5 * time.Minute
	walletGenerationTTL    = 24 * time.Hour
)

// NewListingCache creates a listing cache with the given entry TTL. A
// non-positive ttl selects the default.
func NewListingCache(client goredis.UniversalClient, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = defaultListingCacheTTL
	}
	return &ListingCache{
		client: client,
		prefix: "txlist:",
		ttl:    ttl,
	}
}

// Get returns a cached page, or nil, nil on a miss.
func (c *ListingCache) Get(ctx context.Context, walletID uuid.UUID, actorID string, version int64, filter domain.TransactionFilter, page domain.Page) (*domain.TransactionPage, error) {
	key, err := c.pageKey(walletID, actorID, version, filter, page)
	if err != nil {
		return nil, err
	}

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis transaction cache get: %w", err)
	}

	result := &domain.TransactionPage{}
	if err := json.Unmarshal(val, result); err != nil {
		return nil, fmt.Errorf("decode cached transactions: %w", err)
	}
	return result, nil
}

// Set caches one page and records it under the wallet and actor tags.
func (c *ListingCache) Set(ctx context.Context, walletID uuid.UUID, actorID string, version int64, filter domain.TransactionFilter, page domain.Page, result *domain.TransactionPage) error {
	key, err := c.pageKey(walletID, actorID, version, filter, page)
	if err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}

	walletTag, actorTag := c.walletTag(walletID), c.actorTag(actorID)
	_, err = c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, key, data, c.ttl)
		pipe.SAdd(ctx, walletTag, key)
		pipe.Expire(ctx, walletTag, c.ttl)
		pipe.SAdd(ctx, actorTag, key)
		pipe.Expire(ctx, actorTag, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis transaction cache set: %w", err)
	}
	return nil
}

// GetWallets returns the actor's cached wallet listing, nil on a miss, plus the
// stamp SetWallets must be called with.
func (c *ListingCache) GetWallets(ctx context.Context, actorID string) ([]domain.WalletView, string, error) {
	stamp, err := c.client.Get(ctx, c.walletGenKey(actorID)).Result()
	switch {
	case errors.Is(err, goredis.Nil):
		stamp = "0"
	case err != nil:
		return nil, "", fmt.Errorf("redis wallet list generation: %w", err)
	}

	val, err := c.client.Get(ctx, c.walletListKey(actorID, stamp)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, stamp, nil
		}
		return nil, "", fmt.Errorf("redis wallet list get: %w", err)
	}

	wallets := []domain.WalletView{}
	if err := json.Unmarshal(val, &wallets); err != nil {
		return nil, "", fmt.Errorf("decode cached wallets: %w", err)
	}
	return wallets, stamp, nil
}

// SetWallets caches a wallet listing read under stamp. A listing stored after
// an invalidation lands under a generation nobody reads anymore.
func (c *ListingCache) SetWallets(ctx context.Context, actorID, stamp string, wallets []domain.WalletView) error {
	data, err := json.Marshal(wallets)
	if err != nil {
		return fmt.Errorf("encode wallets: %w", err)
	}
	if err := c.client.Set(ctx, c.walletListKey(actorID, stamp), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis wallet list set: %w", err)
	}
	return nil
}

// Invalidate drops every page tagged with the signal's wallet or actor and
// moves the actor's wallet listing to a new generation.
func (c *ListingCache) Invalidate(ctx context.Context, sig ports.InvalidationSignal) error {
	tags := []string{c.walletTag(sig.WalletID)}
	if sig.ActorID != "" {
		tags = append(tags, c.actorTag(sig.ActorID))
	}

	keys, err := c.client.SUnion(ctx, tags...).Result()
	if err != nil {
		return fmt.Errorf("redis transaction cache tags: %w", err)
	}
	if err := c.client.Del(ctx, append(keys, tags...)...).Err(); err != nil {
		return fmt.Errorf("redis transaction cache invalidate: %w", err)
	}

	if sig.ActorID == "" {
		return nil
	}
	genKey := c.walletGenKey(sig.ActorID)
	_, err = c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, walletGenerationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis wallet list invalidate: %w", err)
	}
	return nil
}

// pageKey is keyed by a sha1 of the normalized listing parameters.
func (c *ListingCache) pageKey(walletID uuid.UUID, actorID string, version int64, filter domain.TransactionFilter, page domain.Page) (string, error) {
	params, err := json.Marshal(struct {
		ActorID string                   `json:"actor_id"`
		Version int64                    `json:"version"`
		Filter  domain.TransactionFilter `json:"filter"`
		Page    domain.Page              `json:"page"`
	}{actorID, version, filter, page.Normalize()})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := sha1.Sum(params)
	return c.prefix + walletID.String() + ":" + hex.EncodeToString(sum[:]), nil
}

func (c *ListingCache) walletTag(walletID uuid.UUID) string {
	return c.prefix + "tag:wallet:" + walletID.String()
}

func (c *ListingCache) actorTag(actorID string) string {
	return c.prefix + "tag:actor:" + actorID
}

func (c *ListingCache) walletGenKey(actorID string) string {
	return "wallets:gen:" + actorID
}

func (c *ListingCache) walletListKey(actorID, stamp string) string {
	return "wallets:" + actorID + ":" + stamp
}
