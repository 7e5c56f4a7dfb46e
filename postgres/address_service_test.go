package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prior-it/addressd/core"
	"github.com/prior-it/addressd/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "street", "city", "state", "zip"}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *postgres.AddressService) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, postgres.NewAddressService(mock)
}

func addressRows(mock pgxmock.PgxPoolIface, from, to int32) *pgxmock.Rows {
	rows := mock.NewRows(columns)
	for i := from; i <= to; i++ {
		rows.AddRow(i, "Street", "City", "State", "1000")
	}
	return rows
}

func TestAddressServiceList(t *testing.T) {
	ctx := context.Background()

	t.Run("ok: first page fetches one extra record", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("SELECT id, street, city, state, zip FROM addresses ORDER BY id ASC LIMIT 11").
			WillReturnRows(addressRows(mock, 1, 11))

		page, err := service.ListAddresses(ctx, core.PageRequest{PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, page.Addresses, 10)
		assert.True(t, page.HasNextPage)
		require.NotNil(t, page.NextCursor)
		assert.Equal(t, core.AddressID(10), *page.NextCursor)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ok: cursor filters strictly after the cursor", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM addresses WHERE id > \\$1 ORDER BY id ASC LIMIT 11").
			WithArgs(int32(10)).
			WillReturnRows(addressRows(mock, 11, 15))

		cursor := core.AddressID(10)
		page, err := service.ListAddresses(ctx, core.PageRequest{Cursor: &cursor, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, page.Addresses, 5)
		assert.Equal(t, core.AddressID(11), page.Addresses[0].ID)
		assert.False(t, page.HasNextPage)
		assert.Nil(t, page.NextCursor)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ok: empty table", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM addresses ORDER BY id ASC LIMIT 4").
			WillReturnRows(mock.NewRows(columns))

		page, err := service.ListAddresses(ctx, core.PageRequest{PageSize: 3})
		require.NoError(t, err)
		assert.Empty(t, page.Addresses)
		assert.NotNil(t, page.Addresses)
		assert.False(t, page.HasNextPage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ok: cursor beyond the id range does not query", func(t *testing.T) {
		mock, service := newMock(t)
		cursor := core.AddressID(1 << 40)
		page, err := service.ListAddresses(ctx, core.PageRequest{Cursor: &cursor, PageSize: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Addresses)
		assert.False(t, page.HasNextPage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("err: query failure is returned", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM addresses").
			WillReturnError(errors.New("connection reset"))

		page, err := service.ListAddresses(ctx, core.PageRequest{PageSize: 10})
		assert.Error(t, err)
		assert.Nil(t, page)
		assert.NotErrorIs(t, err, core.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAddressServiceGet(t *testing.T) {
	ctx := context.Background()

	t.Run("ok: get address", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM addresses WHERE id = \\$1").
			WithArgs(int32(3)).
			WillReturnRows(mock.NewRows(columns).AddRow(int32(3), "Main St", "Ghent", "OVL", "9000"))

		address, err := service.GetAddress(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, &core.Address{
			ID:     3,
			Street: "Main St",
			City:   "Ghent",
			State:  "OVL",
			Zip:    "9000",
		}, address)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("err: missing address returns ErrNotFound", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM addresses WHERE id = \\$1").
			WithArgs(int32(3)).
			WillReturnError(pgx.ErrNoRows)

		address, err := service.GetAddress(ctx, 3)
		assert.Nil(t, address)
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAddressServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("ok: create address", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("INSERT INTO addresses (.+) RETURNING id, street, city, state, zip").
			WithArgs("Main St", "Ghent", "OVL", "9000").
			WillReturnRows(mock.NewRows(columns).AddRow(int32(1), "Main St", "Ghent", "OVL", "9000"))

		address, err := service.CreateAddress(ctx, core.AddressCreateData{
			Street: "Main St",
			City:   "Ghent",
			State:  "OVL",
			Zip:    "9000",
		})
		require.NoError(t, err)
		assert.Equal(t, core.AddressID(1), address.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("err: unique violation returns ErrConflict", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("INSERT INTO addresses").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		address, err := service.CreateAddress(ctx, core.AddressCreateData{})
		assert.Nil(t, address)
		assert.ErrorIs(t, err, core.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("err: check violation returns ErrInvalidInput", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("INSERT INTO addresses").
			WithArgs("Main St", "Ghent", "OVL", "not-a-zip").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.CheckViolation, Message: "violates check constraint"})

		_, err := service.CreateAddress(ctx, core.AddressCreateData{
			Street: "Main St",
			City:   "Ghent",
			State:  "OVL",
			Zip:    "not-a-zip",
		})
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		var inputErr *core.InputError
		require.ErrorAs(t, err, &inputErr)
		assert.NotContains(t, inputErr.Message, "constraint")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAddressServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("ok: only specified fields are set", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("UPDATE addresses SET city = \\$1 WHERE id = \\$2 RETURNING (.+)").
			WithArgs("Antwerp", int32(7)).
			WillReturnRows(mock.NewRows(columns).AddRow(int32(7), "Main St", "Antwerp", "OVL", "9000"))

		city := "Antwerp"
		address, err := service.UpdateAddress(ctx, 7, core.AddressUpdateData{City: &city})
		require.NoError(t, err)
		assert.Equal(t, "Antwerp", address.City)
		assert.Equal(t, "Main St", address.Street)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ok: all fields", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("UPDATE addresses SET street = \\$1, city = \\$2, state = \\$3, zip = \\$4 WHERE id = \\$5").
			WithArgs("a", "b", "c", "d", int32(7)).
			WillReturnRows(mock.NewRows(columns).AddRow(int32(7), "a", "b", "c", "d"))

		a, b, c, d := "a", "b", "c", "d"
		address, err := service.UpdateAddress(ctx, 7, core.AddressUpdateData{
			Street: &a,
			City:   &b,
			State:  &c,
			Zip:    &d,
		})
		require.NoError(t, err)
		assert.Equal(t, &core.Address{ID: 7, Street: "a", City: "b", State: "c", Zip: "d"}, address)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ok: empty update returns the current address", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM addresses WHERE id = \\$1").
			WithArgs(int32(7)).
			WillReturnRows(mock.NewRows(columns).AddRow(int32(7), "Main St", "Ghent", "OVL", "9000"))

		address, err := service.UpdateAddress(ctx, 7, core.AddressUpdateData{})
		require.NoError(t, err)
		assert.Equal(t, "Ghent", address.City)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("err: missing address returns ErrNotFound", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectQuery("UPDATE addresses SET zip = \\$1 WHERE id = \\$2").
			WithArgs("1000", int32(7)).
			WillReturnError(pgx.ErrNoRows)

		zip := "1000"
		address, err := service.UpdateAddress(ctx, 7, core.AddressUpdateData{Zip: &zip})
		assert.Nil(t, address)
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAddressServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("ok: delete address", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectExec("DELETE FROM addresses WHERE id = \\$1").
			WithArgs(int32(5)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, service.DeleteAddress(ctx, 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("err: deleting a missing address returns ErrNotFound", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectExec("DELETE FROM addresses WHERE id = \\$1").
			WithArgs(int32(5)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, service.DeleteAddress(ctx, 5), core.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("err: store failure is not ErrNotFound", func(t *testing.T) {
		mock, service := newMock(t)
		mock.ExpectExec("DELETE FROM addresses WHERE id = \\$1").
			WithArgs(int32(5)).
			WillReturnError(errors.New("connection refused"))

		err := service.DeleteAddress(ctx, 5)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, core.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
