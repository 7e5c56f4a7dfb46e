package core

import (
	"context"
	"strconv"
)

/**
 * DOMAIN
 */

type Address struct {
	ID     AddressID
	Street string
	City   string
	State  string
	Zip    string
}

type (
	AddressID uint
)

func (id AddressID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id *AddressID) UnmarshalText(text []byte) error {
	val, err := ParseAddressID(string(text))
	if err != nil {
		return err
	}
	*id = val
	return nil
}

// NewAddressID parses an address id from any unsigned integer.
func NewAddressID(id uint) (AddressID, error) {
	if id == 0 {
		return 0, NewInputError("address id cannot be 0", nil)
	}
	return AddressID(id), nil
}

// ParseAddressID parses a string into an address id.
func ParseAddressID(id string) (AddressID, error) {
	integerID, err := strconv.Atoi(id)
	if err != nil {
		return 0, NewInputError("address id must be a positive integer", err)
	}
	if integerID < 0 {
		return 0, NewInputError("address id must be a positive integer", nil)
	}
	return NewAddressID(uint(integerID))
}

/**
 * APPLICATION
 */

type AddressCreateData struct {
	Street string
	City   string
	State  string
	Zip    string
}

// AddressUpdateData holds a partial update, nil fields are left untouched.
type AddressUpdateData struct {
	Street *string
	City   *string
	State  *string
	Zip    *string
}

// IsEmpty reports whether the update would not change any field.
func (data AddressUpdateData) IsEmpty() bool {
	return data.Street == nil && data.City == nil && data.State == nil && data.Zip == nil
}

type AddressService interface {
	// Create a new address with the specified data.
	CreateAddress(ctx context.Context, data AddressCreateData) (*Address, error)
	// Retrieve the address with the specified id or ErrNotFound if no such address exists.
	GetAddress(ctx context.Context, id AddressID) (*Address, error)
	// Retrieve a single page of addresses, ordered by id, starting after the request's cursor.
	ListAddresses(ctx context.Context, page PageRequest) (*AddressPage, error)
	// Apply a partial update to the address with the specified id and return the full updated address.
	// Returns ErrNotFound if no such address exists.
	UpdateAddress(ctx context.Context, id AddressID, data AddressUpdateData) (*Address, error)
	// Delete the address with the specified id or ErrNotFound if no such address exists.
	DeleteAddress(ctx context.Context, id AddressID) error
	// Ping checks whether the underlying store is reachable.
	Ping(ctx context.Context) error
}
