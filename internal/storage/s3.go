package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/OFFIS-RIT/logicflow/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the part of *s3.Client the analysis source needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

func NewS3Client(ctx context.Context) (*s3.Client, error) {
	region := util.GetEnvString("AWS_REGION", "us-east-1")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

// AnalysisKey is the object key of a report's analysis document.
func AnalysisKey(prefix, reportID string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return reportID + ".json"
	}
	return fmt.Sprintf("%s/%s.json", prefix, reportID)
}

func GetFile(ctx context.Context, client ObjectAPI, bucket, key string) ([]byte, error) {
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s from S3: %w", key, err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	return buf.Bytes(), nil
}

func ListFilesWithPrefix(ctx context.Context, client ObjectAPI, bucket, prefix string) ([]string, error) {
	var keys []string
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}

	for {
		listOutput, err := client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, err)
		}

		for _, obj := range listOutput.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}

		if listOutput.IsTruncated != nil && *listOutput.IsTruncated {
			listInput.ContinuationToken = listOutput.NextContinuationToken
		} else {
			break
		}
	}

	return keys, nil
}

// ListReports returns the report ids that have an analysis document under
// prefix.
func ListReports(ctx context.Context, client ObjectAPI, bucket, prefix string) ([]string, error) {
	listPrefix := strings.Trim(prefix, "/")
	if listPrefix != "" {
		listPrefix += "/"
	}
	keys, err := ListFilesWithPrefix(ctx, client, bucket, listPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, listPrefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
