package awsdynamo

import (
	"context"
	"errors"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// transientCodes are DynamoDB error codes worth another attempt.
var transientCodes = map[string]bool{
	"ThrottlingException":                    true,
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"LimitExceededException":                 true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
}

// classify tags an error returned by the SDK with a retry.Kind.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &retry.Error{Kind: retry.KindPermanent, Op: op, Err: err}
	}

	status := 0
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return &retry.Error{Kind: retry.KindNotFound, Op: op, StatusCode: status, Err: err}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind := retry.KindPermanent
		if transientCodes[apiErr.ErrorCode()] || apiErr.ErrorFault() == smithy.FaultServer {
			kind = retry.KindTransient
		}
		return &retry.Error{Kind: kind, Op: op, StatusCode: status, Err: err}
	}

	if status != 0 {
		return &retry.Error{Kind: retry.KindForStatus(status), Op: op, StatusCode: status, Err: err}
	}

	// Connection level failure.
	return &retry.Error{Kind: retry.KindTransient, Op: op, Err: err}
}
