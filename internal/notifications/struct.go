package notifications

import (
	"net/http"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
)

type Webhook struct {
	URL      string
	Username string
	Password string

	// Policy retries failed deliveries. Nil sends once.
	Policy *retry.Policy
	// Client defaults to an http.Client with a 30s timeout.
	Client *http.Client
}

// WaitFailure describes an operation that was applied but whose resource
// never reached the requested state.
type WaitFailure struct {
	Service      string    `json:"service"`
	RunID        string    `json:"run_id"`
	Operation    string    `json:"operation"`
	ResourceKind string    `json:"resource_kind"`
	ResourceID   string    `json:"resource_id"`
	RequestID    string    `json:"request_id,omitempty"`
	WaitFor      []string  `json:"wait_for"`
	LastState    string    `json:"last_state,omitempty"`
	CleanedUp    bool      `json:"cleaned_up"`
	Message      string    `json:"message"`
	OccurredAt   time.Time `json:"occurred_at"`
}
