// Package cnpj validates company tax IDs against the federal registry. A
// provider abstracts the upstream API; results are cached so repeated form
// checks do not hammer it.
package cnpj

import "context"

// Outcome statuses. ATIVA is the only one that marks a CNPJ as valid; any
// other registry situation (BAIXADA, SUSPENSA, ...) carries the upstream
// label verbatim.
const (
	StatusActive        = "ATIVA"
	StatusNotFound      = "NOT_FOUND"
	StatusError         = "ERROR"
	StatusTimeout       = "TIMEOUT"
	StatusInvalidFormat = "INVALID_FORMAT"
	StatusMissingParam  = "MISSING_PARAM"
)

// Result is the user-facing validation outcome.
type Result struct {
	Valid   bool   `json:"valid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Definitive reports whether the outcome reflects registry state rather than
// a transient failure. Only definitive results are cached.
func (r Result) Definitive() bool {
	return r.Status != StatusError && r.Status != StatusTimeout
}

// Provider performs the upstream registry call. Upstream conditions, timeouts
// included, are encoded in the Result; the error return is reserved for
// local failures.
type Provider interface {
	Validate(ctx context.Context, cnpj string) (Result, error)
}
