package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Memory es una implementación de KV en memoria, con la misma semántica
// que Redis para las primitivas del contrato. La usan los tests y las
// corridas locales sin backend.
type Memory struct {
	mu   sync.Mutex
	vals map[string]memVal
	sets map[string]map[string]struct{}

	// Now es inyectable para testear expiraciones sin dormir.
	Now func() time.Time
}

type memVal struct {
	v   string
	exp time.Time // zero = sin TTL
}

func NewMemory() *Memory {
	return &Memory{
		vals: make(map[string]memVal),
		sets: make(map[string]map[string]struct{}),
		Now:  time.Now,
	}
}

// live devuelve el valor vigente, purgando expirados. Requiere mu.
func (m *Memory) live(key string) (memVal, bool) {
	e, ok := m.vals[key]
	if !ok {
		return memVal{}, false
	}
	if !e.exp.IsZero() && !m.Now().Before(e.exp) {
		delete(m.vals, key)
		return memVal{}, false
	}
	return e, true
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return "", ErrNotFound
	}
	return e.v, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memVal{v: value}
	if ttl > 0 {
		e.exp = m.Now().Add(ttl)
	}
	m.vals[key] = e
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.vals, k)
		delete(m.sets, k)
	}
	return nil
}

func (m *Memory) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cur int64
	if e, ok := m.live(key); ok {
		n, err := strconv.ParseInt(e.v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incrby %s: %w", key, err)
		}
		cur = n
	}
	cur += delta
	m.vals[key] = memVal{v: strconv.FormatInt(cur, 10)}
	return cur, nil
}

func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(key); ok {
		return false, nil
	}
	e := memVal{v: value}
	if ttl > 0 {
		e.exp = m.Now().Add(ttl)
	}
	m.vals[key] = e
	return true, nil
}

func (m *Memory) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]struct{})
		m.sets[key] = s
	}
	for _, mem := range members {
		s[mem] = struct{}{}
	}
	return nil
}

func (m *Memory) SRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range members {
		delete(m.sets[key], mem)
	}
	return nil
}

func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sets[key]))
	for mem := range m.sets[key] {
		out = append(out, mem)
	}
	return out, nil
}

func (m *Memory) SIsMember(_ context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sets[key][member]
	return ok, nil
}

func (m *Memory) SCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sets[key])), nil
}

func (m *Memory) Sort(_ context.Context, key string, args SortArgs) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := make([]string, 0, len(m.sets[key]))
	for mem := range m.sets[key] {
		members = append(members, mem)
	}

	weight := func(mem string) float64 {
		if args.By == "" {
			f, _ := strconv.ParseFloat(mem, 64)
			return f
		}
		e, ok := m.live(strings.ReplaceAll(args.By, "*", mem))
		if !ok {
			return 0
		}
		f, _ := strconv.ParseFloat(e.v, 64)
		return f
	}
	sort.Slice(members, func(i, j int) bool {
		wi, wj := weight(members[i]), weight(members[j])
		if wi != wj {
			if args.Desc {
				return wi > wj
			}
			return wi < wj
		}
		// empates por miembro ascendente, igual en ambos sentidos
		return members[i] < members[j]
	})

	start := args.Offset
	if start > int64(len(members)) {
		start = int64(len(members))
	}
	end := int64(len(members))
	if args.Count > 0 && start+args.Count < end {
		end = start + args.Count
	}
	members = members[start:end]

	if len(args.Get) == 0 {
		return members, nil
	}
	out := make([]string, 0, len(members)*len(args.Get))
	for _, mem := range members {
		for _, pat := range args.Get {
			if pat == "#" {
				out = append(out, mem)
				continue
			}
			e, _ := m.live(strings.ReplaceAll(pat, "*", mem))
			out = append(out, e.v)
		}
	}
	return out, nil
}
