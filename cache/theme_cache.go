package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"songclub/model"

	"github.com/go-redis/redis/v8"
)

const (
	themesKey = "themes:all"
	themesTTL = 24 * time.Hour
)

// ThemeCache caches the theme reference list in Redis. Themes change rarely;
// the original client fetched them once per session.
type ThemeCache struct {
	client *redis.Client
}

// NewThemeCache creates a ThemeCache.
func NewThemeCache(client *redis.Client) *ThemeCache {
	return &ThemeCache{client: client}
}

// Get returns the cached theme list, or (nil, false) on a miss.
func (c *ThemeCache) Get(ctx context.Context) ([]model.Theme, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, themesKey).Bytes()
	if err != nil {
		return nil, false
	}

	var themes []model.Theme
	if err := json.Unmarshal(data, &themes); err != nil {
		// Corrupt entry; drop it and fall through to the database.
		c.client.Del(ctx, themesKey)
		return nil, false
	}
	return themes, true
}

// Set stores the theme list.
func (c *ThemeCache) Set(ctx context.Context, themes []model.Theme) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(themes)
	if err != nil {
		return fmt.Errorf("failed to marshal themes: %w", err)
	}
	if err := c.client.Set(ctx, themesKey, data, themesTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache themes: %w", err)
	}
	return nil
}
