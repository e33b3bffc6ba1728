package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/flightscope/flightscope/internal/api/middleware"
	"github.com/flightscope/flightscope/internal/api/models"
	"github.com/flightscope/flightscope/internal/api/response"
	"github.com/flightscope/flightscope/internal/flights"
	"github.com/flightscope/flightscope/internal/provider/resilience"
)

// upstreamRetryAfter is the Retry-After hint sent when the provider's quota is exhausted.
const upstreamRetryAfter = 60

// writeError maps service errors to problem responses. Only unexpected
// errors are logged here; the service already logs provider failures.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var verr *flights.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, r, "invalid input", fieldErrors(verr))
	case errors.Is(err, flights.ErrOriginNotFound),
		errors.Is(err, flights.ErrDestinationNotFound),
		errors.Is(err, flights.ErrAirportNotFound),
		errors.Is(err, flights.ErrNoNearbyAirport):
		response.NotFound(w, r, notFoundDetail(err))
	case errors.Is(err, flights.ErrDetailsUnsupported):
		response.NotImplemented(w, r, "the flight provider does not support itinerary details")
	case errors.Is(err, flights.ErrRateLimitExceeded):
		response.TooManyRequests(w, r, "the flight provider rate limit was exceeded", upstreamRetryAfter)
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, flights.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, "the flight provider is unavailable, please try again later")
	case errors.Is(err, flights.ErrInvalidRequest):
		response.BadGateway(w, r, "the flight provider rejected the request")
	case errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(w, r, "the flight provider did not respond in time")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("unhandled service error")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func notFoundDetail(err error) string {
	switch {
	case errors.Is(err, flights.ErrOriginNotFound):
		return flights.ErrOriginNotFound.Error()
	case errors.Is(err, flights.ErrDestinationNotFound):
		return flights.ErrDestinationNotFound.Error()
	case errors.Is(err, flights.ErrNoNearbyAirport):
		return flights.ErrNoNearbyAirport.Error()
	default:
		return flights.ErrAirportNotFound.Error()
	}
}

func fieldErrors(verr *flights.ValidationError) []models.FieldError {
	out := make([]models.FieldError, len(verr.Errors))
	for i, fe := range verr.Errors {
		out[i] = models.FieldError{Field: fe.Field, Message: fe.Message, Code: "INVALID"}
	}
	return out
}

// decodeBody decodes a JSON request body and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := response.Decode(w, r, v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, response.ErrEmptyBody):
		response.BadRequest(w, r, "request body is required", nil)
	case errors.As(err, &tooLarge):
		response.BadRequest(w, r, "request body is too large", nil)
	default:
		response.BadRequest(w, r, "invalid JSON body", nil)
	}
	return false
}
