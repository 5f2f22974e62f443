package nominalroll

import (
	"context"
	"sync"
)

// FakeRegistry is an in-memory Registry for tests and local development.
type FakeRegistry struct {
	mu        sync.RWMutex
	byNIN     map[string]*CivilServant
	byService map[string]*CivilServant
}

func NewFakeRegistry(servants ...CivilServant) *FakeRegistry {
	registry := &FakeRegistry{
		byNIN:     make(map[string]*CivilServant),
		byService: make(map[string]*CivilServant),
	}
	for i := range servants {
		registry.Add(servants[i])
	}
	return registry
}

func (f *FakeRegistry) Add(servant CivilServant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if servant.NIN != "" {
		f.byNIN[servant.NIN] = &servant
	}
	if servant.StaffVerificationNumber != "" {
		f.byService[servant.StaffVerificationNumber] = &servant
	}
}

func (f *FakeRegistry) FindByNIN(_ context.Context, nin string) (*CivilServant, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if servant, ok := f.byNIN[nin]; ok {
		clone := *servant
		return &clone, nil
	}
	return nil, ErrNotFound
}

func (f *FakeRegistry) FindByServiceNumber(_ context.Context, serviceNumber string) (*CivilServant, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if servant, ok := f.byService[serviceNumber]; ok {
		clone := *servant
		return &clone, nil
	}
	return nil, ErrNotFound
}
