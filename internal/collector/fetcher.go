package collector

import "context"

//go:generate mockgen -package=collector_test -destination=mock_transport_test.go -source=fetcher.go Transport

// Transport performs one GET and returns the raw response body.
// Implementations handle timeouts, retries and status codes.
type Transport interface {
	Get(ctx context.Context, url string) ([]byte, error)
}
