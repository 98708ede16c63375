package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory is an in-memory Store used for defaults and tests.
type Memory struct {
	mu       sync.RWMutex
	carriers []string
	boxes    []Box
	prices   map[priceKey]decimal.Decimal
}

type priceKey struct {
	serviceCode string
	boxID       string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{prices: make(map[priceKey]decimal.Decimal)}
}

// SetEnabledCarriers replaces the ordered enabled-carrier list.
func (m *Memory) SetEnabledCarriers(names ...string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carriers = append([]string(nil), names...)
	return m
}

// AddBox registers a box size and returns its generated ID.
func (m *Memory) AddBox(length, width, height, maxWeight float64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.boxes = append(m.boxes, Box{ID: id, Length: length, Width: width, Height: height, MaxWeight: maxWeight})
	return id
}

// SetPrice sets the flat price for a (service code, box) pair.
func (m *Memory) SetPrice(serviceCode, boxID string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[priceKey{serviceCode, boxID}] = price
}

// EnabledCarriers returns the configured carrier order.
func (m *Memory) EnabledCarriers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.carriers...), nil
}

// FindBox resolves a box by exact dimensions.
func (m *Memory) FindBox(ctx context.Context, length, width, height float64) (Box, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.boxes {
		if b.Length == length && b.Width == width && b.Height == height {
			return b, nil
		}
	}
	return Box{}, ErrBoxNotFound
}

// PriceFor returns the configured price for a (service code, box) pair.
func (m *Memory) PriceFor(ctx context.Context, serviceCode, boxID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prices[priceKey{serviceCode, boxID}]; ok {
		return p, nil
	}
	return decimal.Decimal{}, ErrPriceNotFound
}
