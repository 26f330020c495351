package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	pkgredis "github.com/angelmondragon/devicehub-backend/pkg/redis"
)

// Generations counts report invalidations. Report services that share one
// Generations drop their cached report when any of them invalidates.
type Generations interface {
	Current(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
}

type generationClient interface {
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
	ReportGenerationKey() string
}

type redisGenerations struct {
	client generationClient
}

// NewRedisGenerations keeps the generation counter in Redis so every API
// replica observes an invalidation.
func NewRedisGenerations(client generationClient) (Generations, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisGenerations{client: client}, nil
}

func (g *redisGenerations) Current(ctx context.Context) (int64, error) {
	raw, err := g.client.Get(ctx, g.client.ReportGenerationKey())
	if errors.Is(err, pkgredis.ErrNil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse report generation %q: %w", raw, err)
	}
	return n, nil
}

func (g *redisGenerations) Bump(ctx context.Context) error {
	_, err := g.client.Incr(ctx, g.client.ReportGenerationKey())
	return err
}

// LocalGenerations is a process-local Generations.
type LocalGenerations struct {
	n atomic.Int64
}

func (g *LocalGenerations) Current(context.Context) (int64, error) {
	return g.n.Load(), nil
}

func (g *LocalGenerations) Bump(context.Context) error {
	g.n.Add(1)
	return nil
}
