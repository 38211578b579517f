package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/gostratum/presignx"
)

// MapS3Error converts S3 SDK errors to presignx provider errors
func MapS3Error(err error, provider presignx.ProviderName, op, key string) error {
	if err == nil {
		return nil
	}

	var perr *presignx.ProviderError
	if errors.As(err, &perr) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return &presignx.ProviderError{
			Provider: provider,
			Op:       op,
			Key:      key,
			Err:      fmt.Errorf("%w: %w", presignx.ErrAborted, err),
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &presignx.ProviderError{
			Provider: provider,
			Op:       op,
			Key:      key,
			Err:      fmt.Errorf("%w: %w", presignx.ErrTimeout, err),
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &presignx.ProviderError{
			Provider: provider,
			Op:       op,
			Key:      key,
			Err:      fmt.Errorf("%s: %w", apiErr.ErrorCode(), err),
		}
	}

	return &presignx.ProviderError{
		Provider: provider,
		Op:       op,
		Key:      key,
		Err:      err,
	}
}

// ErrorCode returns the S3 API error code carried by err, if any
func ErrorCode(err error) (string, bool) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode(), true
	}
	return "", false
}
