package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/gorilla/schema"
	"github.com/prior-it/addressd/config"
	"github.com/prior-it/addressd/core"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}

// Request wraps a single HTTP exchange and is passed to every handler together with the server state.
type Request struct {
	Writer  http.ResponseWriter
	Request *http.Request
	logger  *slog.Logger
	Cfg     *config.Config
}

// Log the specified error message. args is a list of structured fields to add to the error message.
// The arguments should alternate between a field's name (string) and its value (any).
// This behaves the same as [log/slog.Error]
//
// # Example
//
//	request.Error("Something went wrong", "error", err, "address_id", id)
func (request *Request) Error(msg string, args ...any) {
	request.logger.ErrorContext(request.Context(), msg, args...)
}

// Log the specified debug message. args is a list of structured fields to add to the message.
// This behaves the same as [log/slog.Debug]
func (request *Request) Debug(msg string, args ...any) {
	request.logger.DebugContext(request.Context(), msg, args...)
}

// LogString will add the specified field and its value to the current request's log entry
func (request *Request) LogString(field string, value string) {
	request.LogField(field, slog.StringValue(value))
}

// LogField will add the specified field and its value to the current request's log entry
//
// # Example
//
//	request.LogField("address_id", slog.Uint64Value(uint64(id)))
func (request *Request) LogField(field string, value slog.Value) {
	httplog.LogEntrySetField(request.Context(), field, value)
}

// Context returns the request's context.
//
// The context is canceled when the client's connection closes, the request is canceled (with HTTP/2),
// the request timeout expires, or when the ServeHTTP method returns.
func (request *Request) Context() context.Context {
	return request.Request.Context()
}

// Path returns the full path of the request.
func (request *Request) Path() string {
	return request.Request.URL.Path
}

// GetPath returns the value for the named path wildcard in the router pattern
// that matched the request.
// It returns the empty string if there is no such wildcard in the pattern.
//
// E.g.: A route defined as `/addresses/{id}` can call `GetPath("id")` to return the
// value for "id" in the current path.
func (request *Request) GetPath(key string) string {
	return chi.URLParam(request.Request, key)
}

// GetQuery returns the first value associated with the given query parameter in the request url.
// If there are no values set for the query param, this returns the empty string.
func (request *Request) GetQuery(param string) string {
	return request.Request.URL.Query().Get(param)
}

// DecodeQuery decodes the query parameters into a struct using its `schema` tags.
// Parameters without a value (e.g. `?pageSize=`) are treated as absent.
// Values that cannot be converted to their field type result in a core.InputError naming the parameter.
//
// # Example:
//
//	var query struct {
//		PageSize *int `schema:"pageSize"`
//	}
//	if err := request.DecodeQuery(&query); err != nil {
//		return err
//	}
func (request *Request) DecodeQuery(v any) error {
	values := request.Request.URL.Query()
	for key, list := range values {
		if !slices.ContainsFunc(list, func(value string) bool { return value != "" }) {
			values.Del(key)
		}
	}
	if err := queryDecoder.Decode(v, values); err != nil {
		return core.NewInputError(queryErrorMessage(err), err)
	}
	return nil
}

func queryErrorMessage(err error) string {
	var multiErr schema.MultiError
	if !errors.As(err, &multiErr) || len(multiErr) == 0 {
		return "invalid query parameters"
	}
	keys := slices.Sorted(maps.Keys(multiErr))
	msg := fmt.Sprintf("invalid query parameter %q", keys[0])
	var conversionErr schema.ConversionError
	var inputErr *core.InputError
	if errors.As(multiErr[keys[0]], &conversionErr) && errors.As(conversionErr.Err, &inputErr) {
		msg += ": " + inputErr.Message
	}
	return msg
}

// DecodeJSON decodes the JSON request body into v.
// A malformed or empty body results in a core.InputError, an empty body also matches io.EOF.
func (request *Request) DecodeJSON(v any) error {
	err := render.DecodeJSON(request.Request.Body, v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return core.NewInputError("request body is empty", err)
	default:
		return core.NewInputError("malformed request body", err)
	}
}

// JSON writes v as the JSON response body with the specified status code.
func (request *Request) JSON(status int, v any) {
	render.Status(request.Request, status)
	render.JSON(request.Writer, request.Request, v)
}
