package infra

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestIsAWSNotFound(t *testing.T) {
	notFound := []error{
		&smithy.GenericAPIError{Code: "NoSuchKey"},
		&smithy.GenericAPIError{Code: "NotFound"},
		&smithy.GenericAPIError{Code: "NoSuchBucket"},
		&types.NoSuchKey{},
		fmt.Errorf("wrapped: %w", &smithy.GenericAPIError{Code: "NoSuchKey"}),
	}
	for _, err := range notFound {
		assert.True(t, isAWSNotFound(err), "expected %v to classify as not found", err)
	}

	other := []error{
		nil,
		errors.New("connection refused"),
		&smithy.GenericAPIError{Code: "AccessDenied"},
	}
	for _, err := range other {
		assert.False(t, isAWSNotFound(err), "expected %v not to classify as not found", err)
	}
}
