package tests

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/prior-it/addressd/core"
)

// AddressStore is an in-memory core.AddressService for handler tests.
// Set Err to make every call fail with that error.
type AddressStore struct {
	mu        sync.Mutex
	nextID    core.AddressID
	addresses map[core.AddressID]core.Address
	Err       error
}

var _ core.AddressService = &AddressStore{}

func NewAddressStore() *AddressStore {
	return &AddressStore{
		nextID:    1,
		addresses: map[core.AddressID]core.Address{},
	}
}

// CreateAddress implements core.AddressService.
func (s *AddressStore) CreateAddress(
	_ context.Context,
	data core.AddressCreateData,
) (*core.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	address := core.Address{
		ID:     s.nextID,
		Street: data.Street,
		City:   data.City,
		State:  data.State,
		Zip:    data.Zip,
	}
	s.addresses[address.ID] = address
	s.nextID++
	return &address, nil
}

// GetAddress implements core.AddressService.
func (s *AddressStore) GetAddress(_ context.Context, id core.AddressID) (*core.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	address, ok := s.addresses[id]
	if !ok {
		return nil, fmt.Errorf("address %v: %w", id, core.ErrNotFound)
	}
	return &address, nil
}

// ListAddresses implements core.AddressService.
func (s *AddressStore) ListAddresses(
	_ context.Context,
	page core.PageRequest,
) (*core.AddressPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	ids := make([]core.AddressID, 0, len(s.addresses))
	for id := range s.addresses {
		if page.Cursor == nil || id > *page.Cursor {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	fetched := make([]core.Address, 0, page.Limit())
	for _, id := range ids {
		if uint64(len(fetched)) == page.Limit() {
			break
		}
		fetched = append(fetched, s.addresses[id])
	}
	return core.NewAddressPage(fetched, page), nil
}

// UpdateAddress implements core.AddressService.
func (s *AddressStore) UpdateAddress(
	_ context.Context,
	id core.AddressID,
	data core.AddressUpdateData,
) (*core.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	address, ok := s.addresses[id]
	if !ok {
		return nil, fmt.Errorf("address %v: %w", id, core.ErrNotFound)
	}
	if data.Street != nil {
		address.Street = *data.Street
	}
	if data.City != nil {
		address.City = *data.City
	}
	if data.State != nil {
		address.State = *data.State
	}
	if data.Zip != nil {
		address.Zip = *data.Zip
	}
	s.addresses[id] = address
	return &address, nil
}

// DeleteAddress implements core.AddressService.
func (s *AddressStore) DeleteAddress(_ context.Context, id core.AddressID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.addresses[id]; !ok {
		return fmt.Errorf("address %v: %w", id, core.ErrNotFound)
	}
	delete(s.addresses, id)
	return nil
}

// Ping implements core.AddressService.
func (s *AddressStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Err
}
