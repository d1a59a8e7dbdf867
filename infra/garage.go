package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/hldang/stockpile/config"
	"github.com/hldang/stockpile/storage"
)

// GarageClient is a storage.Backend over a Garage cluster, driven through its
// S3-compatible API with the AWS SDK. Garage requires path-style addressing.
type GarageClient struct {
	Client   *s3.Client
	Region   string
	Endpoint string
}

func InitGarageClient(cfg *config.EnvConfig) *GarageClient {
	endpoint := cfg.Garage.Endpoint
	if endpoint == "" {
		panic("Garage endpoint is not configured")
	}

	accessKey := cfg.Garage.AccessKey
	if accessKey == "" {
		panic("Garage access key is not configured")
	}

	secretKey := cfg.Garage.SecretKey
	if secretKey == "" {
		panic("Garage secret key is not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Garage.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize Garage client: %v", err))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &GarageClient{
		Client:   client,
		Region:   cfg.Garage.Region,
		Endpoint: endpoint,
	}
}

// EnsureBucket creates the bucket if it does not exist and applies the
// default policy: anonymous read access under public/* only.
func (g *GarageClient) EnsureBucket(ctx context.Context, bucket string) error {
	if bucket == "" {
		return fmt.Errorf("bucket cannot be empty")
	}

	_, err := g.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}
	if !isAWSNotFound(err) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	_, err = g.Client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	policyJSON := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": {"AWS": ["*"]},
				"Action": ["s3:GetObject"],
				"Resource": ["arn:aws:s3:::%s/public/*"]
			}
		]
	}`, bucket)
	_, err = g.Client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policyJSON),
	})
	if err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}

	return nil
}

func (g *GarageClient) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := g.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func (g *GarageClient) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	resp, err := g.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isAWSNotFound(err) {
			return nil, storage.ErrObjectNotExist
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

func (g *GarageClient) CopyObject(ctx context.Context, bucket, destKey, sourceKey string) error {
	_, err := g.Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(destKey),
		CopySource: aws.String(bucket + "/" + sourceKey),
	})
	if err != nil {
		if isAWSNotFound(err) {
			return storage.ErrObjectNotExist
		}
		return fmt.Errorf("failed to copy object: %w", err)
	}
	return nil
}

// RemoveObjects deletes the given keys in bulk; keys that do not exist are
// skipped silently.
func (g *GarageClient) RemoveObjects(ctx context.Context, bucket string, keys []string) error {
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	resp, err := g.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to remove objects: %w", err)
	}
	for _, deleteErr := range resp.Errors {
		if aws.ToString(deleteErr.Code) == "NoSuchKey" {
			continue
		}
		return fmt.Errorf("failed to remove object %s: %s", aws.ToString(deleteErr.Key), aws.ToString(deleteErr.Message))
	}
	return nil
}

func (g *GarageClient) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	var infos []storage.ObjectInfo
	var continuationToken *string
	for {
		resp, err := g.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, object := range resp.Contents {
			info := storage.ObjectInfo{
				Key:  aws.ToString(object.Key),
				Size: aws.ToInt64(object.Size),
				ETag: aws.ToString(object.ETag),
			}
			if object.LastModified != nil {
				info.LastModified = *object.LastModified
			}
			infos = append(infos, info)
		}

		if !aws.ToBool(resp.IsTruncated) {
			return infos, nil
		}
		continuationToken = resp.NextContinuationToken
	}
}

// isAWSNotFound reports whether err is a 404-class S3 error.
func isAWSNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket", "404":
			return true
		}
	}
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}
