package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"

	"studydrive/internal/drive"
)

func TestWrapS3Error(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "typed NoSuchKey", err: &types.NoSuchKey{}, want: drive.ErrNoSuchKey},
		{name: "typed NotFound", err: &types.NotFound{}, want: drive.ErrNoSuchKey},
		{name: "generic api NotFound", err: &smithy.GenericAPIError{Code: "NotFound"}, want: drive.ErrNoSuchKey},
		{name: "generic api NoSuchKey", err: &smithy.GenericAPIError{Code: "NoSuchKey"}, want: drive.ErrNoSuchKey},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: drive.ErrStorageUnavailable},
		{name: "transport failure", err: errors.New("connection reset"), want: drive.ErrStorageUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			wrapped := wrapS3Error("head object", "uploads/root/a.txt", tc.err)
			if !errors.Is(wrapped, tc.want) {
				t.Fatalf("wrapS3Error(%v) = %v, want %v sentinel", tc.err, wrapped, tc.want)
			}
		})
	}
}

func TestWrapS3ErrorKeepsUnderlyingDetail(t *testing.T) {
	t.Parallel()
	cause := errors.New("dial tcp: connection refused")
	wrapped := wrapS3Error("list objects", "uploads/", cause)
	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected cause preserved through wrapping, got %v", wrapped)
	}
}

func TestWrapMinioError(t *testing.T) {
	t.Parallel()
	notFound := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	if err := wrapMinioError("stat object", "uploads/root/a.txt", notFound); !errors.Is(err, drive.ErrNoSuchKey) {
		t.Fatalf("expected ErrNoSuchKey, got %v", err)
	}

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	if err := wrapMinioError("put object", "uploads/root/a.txt", denied); !errors.Is(err, drive.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}

	plain := fmt.Errorf("network unreachable")
	if err := wrapMinioError("list objects", "uploads/", plain); !errors.Is(err, drive.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable for transport error, got %v", err)
	}
}
