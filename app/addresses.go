package app

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/prior-it/addressd/core"
	"github.com/prior-it/addressd/server"
)

type addressResponse struct {
	ID     core.AddressID `json:"id"`
	Street string         `json:"street"`
	City   string         `json:"city"`
	State  string         `json:"state"`
	Zip    string         `json:"zip"`
}

func newAddressResponse(address core.Address) addressResponse {
	return addressResponse{
		ID:     address.ID,
		Street: address.Street,
		City:   address.City,
		State:  address.State,
		Zip:    address.Zip,
	}
}

type listAddressesQuery struct {
	Cursor   *core.AddressID `schema:"cursor"`
	PageSize *int            `schema:"pageSize"`
}

type listAddressesResponse struct {
	Addresses   []addressResponse `json:"addresses"`
	NextCursor  *core.AddressID   `json:"nextCursor"`
	HasNextPage bool              `json:"hasNextPage"`
}

type updateAddressRequest struct {
	Street *string `json:"street"`
	City   *string `json:"city"`
	State  *string `json:"state"`
	Zip    *string `json:"zip"`
}

type messageResponse struct {
	Message string           `json:"message"`
	Address *addressResponse `json:"address,omitempty"`
}

// ListAddresses returns a single page of addresses, see core.NewPageRequest for the query semantics.
func ListAddresses(request *server.Request, state *State) error {
	var query listAddressesQuery
	if err := request.DecodeQuery(&query); err != nil {
		return err
	}
	page, err := core.NewPageRequest(
		query.Cursor,
		query.PageSize,
		state.Pagination.DefaultPageSize,
		state.Pagination.MaxPageSize,
	)
	if err != nil {
		return err
	}
	request.LogField("page_size", slog.Uint64Value(uint64(page.PageSize)))

	result, err := state.Addresses.ListAddresses(request.Context(), page)
	if err != nil {
		return err
	}

	addresses := make([]addressResponse, len(result.Addresses))
	for i, address := range result.Addresses {
		addresses[i] = newAddressResponse(address)
	}
	request.JSON(http.StatusOK, listAddressesResponse{
		Addresses:   addresses,
		NextCursor:  result.NextCursor,
		HasNextPage: result.HasNextPage,
	})
	return nil
}

func GetAddress(request *server.Request, state *State) error {
	id, err := addressID(request)
	if err != nil {
		return err
	}
	address, err := state.Addresses.GetAddress(request.Context(), id)
	if err != nil {
		return err
	}
	request.JSON(http.StatusOK, map[string]addressResponse{"address": newAddressResponse(*address)})
	return nil
}

// UpdateAddress applies the fields present in the JSON body, absent fields keep their value.
func UpdateAddress(request *server.Request, state *State) error {
	id, err := addressID(request)
	if err != nil {
		return err
	}
	var body updateAddressRequest
	if err := request.DecodeJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	address, err := state.Addresses.UpdateAddress(request.Context(), id, core.AddressUpdateData{
		Street: body.Street,
		City:   body.City,
		State:  body.State,
		Zip:    body.Zip,
	})
	if err != nil {
		return err
	}
	response := newAddressResponse(*address)
	request.JSON(http.StatusOK, messageResponse{
		Message: "Address updated successfully",
		Address: &response,
	})
	return nil
}

func DeleteAddress(request *server.Request, state *State) error {
	id, err := addressID(request)
	if err != nil {
		return err
	}
	if err := state.Addresses.DeleteAddress(request.Context(), id); err != nil {
		return err
	}
	request.JSON(http.StatusOK, messageResponse{Message: "Address deleted successfully"})
	return nil
}

func Ping(request *server.Request, state *State) error {
	if err := state.Addresses.Ping(request.Context()); err != nil {
		return err
	}
	request.JSON(http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

func addressID(request *server.Request) (core.AddressID, error) {
	id, err := core.ParseAddressID(request.GetPath("id"))
	if err != nil {
		return 0, err
	}
	request.LogField("address_id", slog.Uint64Value(uint64(id)))
	return id, nil
}
