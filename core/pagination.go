package core

import (
	"fmt"
)

const (
	DefaultPageSize uint = 10
	MaxPageSize     uint = 100
)

// PageRequest describes a single page in a keyset pagination over addresses.
// A nil Cursor starts at the lowest id, otherwise the page starts strictly after Cursor.
type PageRequest struct {
	Cursor   *AddressID
	PageSize uint
}

// NewPageRequest validates raw pagination input.
// A nil pageSize falls back to defaultSize, a page size above maxSize is clamped to maxSize.
// Zero or negative page sizes are rejected with ErrInvalidInput.
func NewPageRequest(cursor *AddressID, pageSize *int, defaultSize, maxSize uint) (PageRequest, error) {
	if defaultSize == 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize == 0 {
		maxSize = MaxPageSize
	}
	if cursor != nil && *cursor == 0 {
		return PageRequest{}, NewInputError("cursor cannot be 0", nil)
	}

	size := min(defaultSize, maxSize)
	if pageSize != nil {
		if *pageSize <= 0 {
			return PageRequest{}, NewInputError(fmt.Sprintf("page size must be positive, got %d", *pageSize), nil)
		}
		size = min(uint(*pageSize), maxSize)
	}
	return PageRequest{Cursor: cursor, PageSize: size}, nil
}

// Limit is the amount of records a store should fetch for this page: one more than the page size,
// so the extra record reveals whether a next page exists.
func (p PageRequest) Limit() uint64 {
	return uint64(p.PageSize) + 1
}

type AddressPage struct {
	Addresses   []Address
	NextCursor  *AddressID
	HasNextPage bool
}

// NewAddressPage builds a page out of the records a store fetched for the request, which should be at most
// request.Limit() addresses in ascending id order.
func NewAddressPage(fetched []Address, request PageRequest) *AddressPage {
	page := &AddressPage{Addresses: fetched}
	if page.Addresses == nil {
		page.Addresses = []Address{}
	}
	if uint(len(fetched)) > request.PageSize {
		page.HasNextPage = true
		page.Addresses = fetched[:request.PageSize]
		if len(page.Addresses) > 0 {
			last := page.Addresses[len(page.Addresses)-1].ID
			page.NextCursor = &last
		}
	}
	return page
}
