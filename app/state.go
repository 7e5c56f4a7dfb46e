package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prior-it/addressd/config"
	"github.com/prior-it/addressd/core"
)

// Closer is a store handle that has to be released when the server stops.
type Closer interface {
	Close()
}

// State is shared by all handlers. It holds the injected store and nothing request-specific.
type State struct {
	Addresses  core.AddressService
	Pagination config.PaginationConfig
	store      Closer
	closeOnce  sync.Once
}

// NewState creates the handler state. store is closed together with the state and may be nil.
func NewState(addresses core.AddressService, pagination config.PaginationConfig, store Closer) *State {
	return &State{
		Addresses:  addresses,
		Pagination: pagination,
		store:      store,
	}
}

// Close implements server.State.
func (s *State) Close(_ context.Context) {
	s.closeOnce.Do(func() {
		if s.store != nil {
			slog.Info("Closing store connection")
			s.store.Close()
		}
	})
}
