package tests

import (
	"context"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/prior-it/addressd/core"
	"github.com/prior-it/addressd/postgres"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var Faker = gofakeit.New(rand.Uint64())

// DB returns a migrated database in a fresh schema that is dropped when the test ends.
// It connects to DATABASE_URL when set and otherwise starts a postgres container.
// Database tests are skipped in short mode or when neither is available.
func DB(t *testing.T) *postgres.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	ctx := context.Background()
	err := godotenv.Load("../.env")
	if err != nil {
		log.Printf("Could not load the .env file: %v", err)
	}
	url := os.Getenv("DATABASE_URL")
	if len(url) == 0 {
		url = startContainer(t)
	}

	schema := "test_" + strings.ToLower(Faker.LetterN(10))
	db, err := postgres.NewDB(ctx, url, schema)
	if err != nil {
		t.Skipf(
			"To test database functionality, set the DATABASE_URL env variable to a valid database: %v",
			err,
		)
	}
	t.Cleanup(func() {
		if err := db.DeleteSchema(context.Background()); err != nil {
			t.Logf("Cannot delete test schema: %v", err)
		}
		db.Close()
	})

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Cannot migrate test db: %v", err)
	}
	return db
}

func startContainer(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("addresses"),
		tcpostgres.WithUsername("addressd"),
		tcpostgres.WithPassword("addressd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second), //nolint:mnd
		),
	)
	if err != nil {
		t.Skipf("No DATABASE_URL set and cannot start a postgres container: %v", err)
	}
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:mnd
		defer cancel()
		if err := container.Terminate(terminateCtx); err != nil {
			t.Logf("Warning: failed to terminate container: %s", err)
		}
	})
	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Cannot get container connection string: %v", err)
	}
	return url
}

// FakeAddress returns random address data.
func FakeAddress() core.AddressCreateData {
	fake := Faker.Address()
	return core.AddressCreateData{
		Street: fake.Street,
		City:   fake.City,
		State:  fake.State,
		Zip:    fake.Zip,
	}
}

// CreateAddresses creates amount random addresses and returns them in creation order.
func CreateAddresses(service core.AddressService, amount int) []core.Address {
	ctx := context.Background()
	list := make([]core.Address, 0, amount)
	for range amount {
		address, err := service.CreateAddress(ctx, FakeAddress())
		Check(err)
		list = append(list, *address)
	}
	return list
}

// ListAllAddresses follows every page of the listing and returns all addresses.
func ListAllAddresses(service core.AddressService) []core.Address {
	ctx := context.Background()
	var list []core.Address
	var cursor *core.AddressID
	for {
		page, err := service.ListAddresses(ctx, core.PageRequest{Cursor: cursor, PageSize: core.MaxPageSize})
		Check(err)
		list = append(list, page.Addresses...)
		if !page.HasNextPage {
			return list
		}
		cursor = page.NextCursor
	}
}

func DeleteAllAddresses(service core.AddressService) {
	ctx := context.Background()
	for _, address := range ListAllAddresses(service) {
		Check(service.DeleteAddress(ctx, address.ID))
	}
}

func Check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
