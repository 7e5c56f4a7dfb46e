/*
Package server provides a JSON HTTP server on top of chi.
Handlers take a [Request], which wraps the current exchange and offers decoding and rendering helpers,
and an application-specific state object used for dependency injection.
Handlers return errors instead of writing failure responses themselves, the server's error handler
turns them into a JSON error body with a matching status code.

Basic example:

	func main() {
		state := app.NewState(addresses, cfg.Pagination, db)
		s := server.New(state, cfg)
		s.AttachDefaultMiddleware()
		s.Get("/ping", Ping)

		if err := s.Start(context.Background(), nil); err != nil {
			log.Fatal(err)
		}
	}

	func Ping(request *server.Request, state *app.State) error {
		request.JSON(http.StatusOK, map[string]string{"status": "ok"})
		return nil
	}
*/
package server
