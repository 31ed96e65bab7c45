package openstack

import (
	"context"
	"errors"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/gophercloud/gophercloud/v2"
)

// requestIDHeader carries the OpenStack tracing id of a call.
const requestIDHeader = "X-Openstack-Request-Id"

// classify tags an error returned by gophercloud with a retry.Kind.
//
//   - HTTP errors are mapped by status: 404 is NotFound, 408/429/5xx are
//     Transient, any other 4xx is Permanent.
//   - Context cancellation and deadlines are Permanent.
//   - Anything else (DNS failure, connection reset) is assumed to be a
//     transient network issue.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &retry.Error{Kind: retry.KindPermanent, Op: op, Err: err}
	}

	var unexpected gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &unexpected) {
		return &retry.Error{
			Kind:       retry.KindForStatus(unexpected.Actual),
			Op:         op,
			StatusCode: unexpected.Actual,
			Err:        err,
		}
	}

	return &retry.Error{Kind: retry.KindTransient, Op: op, Err: err}
}

// executeWithRetry runs operation under the client's retry policy.
func (c *Client) executeWithRetry(ctx context.Context, opName string, operation func(ctx context.Context) error) error {
	return retry.Execute(ctx, c.Policy, opName, operation)
}
