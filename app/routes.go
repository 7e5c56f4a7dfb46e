package app

import (
	"github.com/prior-it/addressd/server"
)

// Routes attaches the address API to the server.
func Routes(s *server.Server[*State]) {
	s.Get("/ping", Ping).
		Get("/addresses", ListAddresses).
		Get("/addresses/{id}", GetAddress).
		Put("/addresses/{id}", UpdateAddress).
		Delete("/addresses/{id}", DeleteAddress)
}
