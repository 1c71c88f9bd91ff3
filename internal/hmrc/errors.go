package hmrc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotFinalised indicates an attempt to submit a return whose
// finalised flag is unset. Checked before any network I/O.
var ErrNotFinalised = errors.New("hmrc: VAT return is not finalised")

// APIError is a non-2xx response from the VAT API. The message is
// extracted from the response body when one is present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// newAPIError builds an APIError from a response, pulling the
// "message" field out of the body best-effort.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("HTTP error %d", resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	}
	return apiErr
}

// TokenExchangeError indicates a token endpoint response missing
// required fields.
type TokenExchangeError struct {
	Missing []string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("hmrc: token response missing %s", strings.Join(e.Missing, ", "))
}

// MissingFieldError indicates a fraud-prevention identity fact that is
// required but unset; Field is the config key, e.g.
// "identity.device.id".
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("hmrc: %s not set", e.Field)
}
