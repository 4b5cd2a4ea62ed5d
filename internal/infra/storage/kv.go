package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// SortArgs describe un SORT estilo Redis sobre un set, ordenado por el
// valor de una clave externa (`By` con `*` reemplazado por cada miembro).
// Count <= 0 significa "hasta el final".
type SortArgs struct {
	By     string
	Get    []string
	Offset int64
	Count  int64
	Desc   bool
}

// KV es el contrato mínimo que el runtime necesita del storage. El
// dashboard administrativo escribe el mismo namespace directamente, así
// que los invariantes cross-proceso viven en las primitivas atómicas
// (IncrBy, SetNX), nunca en locks in-process.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SCard(ctx context.Context, key string) (int64, error)
	Sort(ctx context.Context, key string, args SortArgs) ([]string, error)
}
