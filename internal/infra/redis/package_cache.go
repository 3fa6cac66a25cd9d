package redis

import (
	"context"
	"encoding/json"
	"time"

	"investment-platform/internal/domain/model"
)

const (
	activePackagesKey = "packages:active"
	allPackagesKey    = "packages:all"
)

// PackageCache stores the (small, hot) catalog listing. Writers must call
// Invalidate after any catalog mutation.
type PackageCache struct {
	client *Client
	ttl    time.Duration
}

func NewPackageCache(client *Client, ttl time.Duration) *PackageCache {
	return &PackageCache{client: client, ttl: ttl}
}

func (c *PackageCache) GetList(ctx context.Context, activeOnly bool) ([]*model.Package, bool) {
	raw, err := c.client.Get(ctx, listKey(activeOnly))
	if err != nil {
		return nil, false
	}
	var pkgs []*model.Package
	if err := json.Unmarshal([]byte(raw), &pkgs); err != nil {
		return nil, false
	}
	return pkgs, true
}

func (c *PackageCache) SetList(ctx context.Context, activeOnly bool, pkgs []*model.Package) {
	b, err := json.Marshal(pkgs)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, listKey(activeOnly), string(b), c.ttl)
}

func (c *PackageCache) Invalidate(ctx context.Context) {
	_ = c.client.Del(ctx, activePackagesKey, allPackagesKey)
}

func listKey(activeOnly bool) string {
	if activeOnly {
		return activePackagesKey
	}
	return allPackagesKey
}
