package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prior-it/addressd/core"
)

const addressTable = "addresses"

var addressColumns = []string{"id", "street", "city", "state", "zip"}

// DBTX is the subset of a pgx pool the services need. Both *DB and pgxmock pools implement it.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

func NewAddressService(db DBTX) *AddressService {
	return &AddressService{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Postgres implementation of the core AddressService interface.
type AddressService struct {
	db DBTX
	sq squirrel.StatementBuilderType
}

// Force struct to implement the core interface
var _ core.AddressService = &AddressService{}

type addressRow struct {
	ID     int32  `db:"id"`
	Street string `db:"street"`
	City   string `db:"city"`
	State  string `db:"state"`
	Zip    string `db:"zip"`
}

// CreateAddress implements core.AddressService.CreateAddress
func (a *AddressService) CreateAddress(
	ctx context.Context,
	data core.AddressCreateData,
) (*core.Address, error) {
	query, args, err := a.sq.Insert(addressTable).
		Columns("street", "city", "state", "zip").
		Values(data.Street, data.City, data.State, data.Zip).
		Suffix("RETURNING " + returningColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}
	var row addressRow
	if err := pgxscan.Get(ctx, a.db, &row, query, args...); err != nil {
		return nil, convertPgError(err)
	}
	return convertAddress(row)
}

// GetAddress implements core.AddressService.GetAddress
func (a *AddressService) GetAddress(ctx context.Context, id core.AddressID) (*core.Address, error) {
	dbID, ok := toDBID(id)
	if !ok {
		return nil, fmt.Errorf("cannot get address %v: %w", id, core.ErrNotFound)
	}
	query, args, err := a.sq.Select(addressColumns...).
		From(addressTable).
		Where(squirrel.Eq{"id": dbID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var row addressRow
	if err := pgxscan.Get(ctx, a.db, &row, query, args...); err != nil {
		return nil, convertPgError(err)
	}
	return convertAddress(row)
}

// ListAddresses implements core.AddressService.ListAddresses
//
// One record more than the page size is fetched, its presence tells whether there is a next page.
func (a *AddressService) ListAddresses(
	ctx context.Context,
	page core.PageRequest,
) (*core.AddressPage, error) {
	qb := a.sq.Select(addressColumns...).
		From(addressTable).
		OrderBy("id ASC").
		Limit(page.Limit())
	if page.Cursor != nil {
		cursor, ok := toDBID(*page.Cursor)
		if !ok {
			// No stored id can follow a cursor beyond the id range
			return core.NewAddressPage(nil, page), nil
		}
		qb = qb.Where(squirrel.Gt{"id": cursor})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var rows []addressRow
	if err := pgxscan.Select(ctx, a.db, &rows, query, args...); err != nil {
		return nil, convertPgError(err)
	}
	addresses, err := convertAddressList(rows)
	if err != nil {
		return nil, err
	}
	return core.NewAddressPage(addresses, page), nil
}

// UpdateAddress implements core.AddressService.UpdateAddress
func (a *AddressService) UpdateAddress(
	ctx context.Context,
	id core.AddressID,
	data core.AddressUpdateData,
) (*core.Address, error) {
	if data.IsEmpty() {
		return a.GetAddress(ctx, id)
	}
	dbID, ok := toDBID(id)
	if !ok {
		return nil, fmt.Errorf("cannot update address %v: %w", id, core.ErrNotFound)
	}
	qb := a.sq.Update(addressTable)
	if data.Street != nil {
		qb = qb.Set("street", *data.Street)
	}
	if data.City != nil {
		qb = qb.Set("city", *data.City)
	}
	if data.State != nil {
		qb = qb.Set("state", *data.State)
	}
	if data.Zip != nil {
		qb = qb.Set("zip", *data.Zip)
	}
	query, args, err := qb.
		Where(squirrel.Eq{"id": dbID}).
		Suffix("RETURNING " + returningColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}
	var row addressRow
	if err := pgxscan.Get(ctx, a.db, &row, query, args...); err != nil {
		return nil, convertPgError(err)
	}
	return convertAddress(row)
}

// DeleteAddress implements core.AddressService.DeleteAddress
func (a *AddressService) DeleteAddress(ctx context.Context, id core.AddressID) error {
	dbID, ok := toDBID(id)
	if !ok {
		return fmt.Errorf("cannot delete address %v: %w", id, core.ErrNotFound)
	}
	query, args, err := a.sq.Delete(addressTable).
		Where(squirrel.Eq{"id": dbID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	tag, err := a.db.Exec(ctx, query, args...)
	if err != nil {
		return convertPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cannot delete address %v: %w", id, core.ErrNotFound)
	}
	return nil
}

// Ping implements core.AddressService.Ping
func (a *AddressService) Ping(ctx context.Context) error {
	return a.db.Ping(ctx)
}

// toDBID converts an id to the SERIAL column type, ids outside of its range cannot exist.
func toDBID(id core.AddressID) (int32, bool) {
	if uint64(id) > math.MaxInt32 {
		return 0, false
	}
	return int32(id), true
}

func returningColumns() string {
	return strings.Join(addressColumns, ", ")
}

func convertAddress(address addressRow) (*core.Address, error) {
	if address.ID < 0 {
		return nil, fmt.Errorf("invalid address id %d in database", address.ID)
	}
	id, err := core.NewAddressID(uint(address.ID))
	if err != nil {
		return nil, err
	}
	return &core.Address{
		ID:     id,
		Street: address.Street,
		City:   address.City,
		State:  address.State,
		Zip:    address.Zip,
	}, nil
}

func convertAddressList(addresses []addressRow) ([]core.Address, error) {
	list := make([]core.Address, len(addresses))
	for i, v := range addresses {
		a, err := convertAddress(v)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, errors.New("both address and error should never be nil")
		}
		list[i] = *a
	}
	return list, nil
}
