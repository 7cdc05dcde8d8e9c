package iocache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// Object metadata keys set on every artifact.
const (
	metaArtifactID = "artifact-id"
	metaChecksum   = "sha256"
)

// S3API is the part of the S3 client used by the model store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ModelStore keeps each model version as <prefix>/<name>/vNNNNNN.json.
// Versions are claimed with a conditional put (If-None-Match: *), so two
// writers can never overwrite each other's artifact.
type S3ModelStore struct {
	client S3API
	bucket string
	prefix string
}

var _ contract.ModelStore = &S3ModelStore{} // Compile-time check

// NewS3ModelStore builds an S3 client from cfg. A custom endpoint (MinIO,
// LocalStack) switches to path-style addressing.
func NewS3ModelStore(cfg contract.S3Config) (*S3ModelStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	opts := s3.Options{Region: cfg.Region}
	if cfg.AccessKey != "" {
		opts.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""))
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return NewS3ModelStoreWithClient(s3.New(opts), cfg.Bucket, cfg.Prefix), nil
}

// NewS3ModelStoreWithClient wraps an existing client.
func NewS3ModelStoreWithClient(client S3API, bucket, prefix string) *S3ModelStore {
	return &S3ModelStore{client: client, bucket: bucket, prefix: prefix}
}

func (ss *S3ModelStore) modelPrefix(name string) string {
	return path.Join(ss.prefix, name) + "/"
}

func (ss *S3ModelStore) key(name string, version int) string {
	return path.Join(ss.prefix, name, versionFileName(version))
}

type s3Artifact struct {
	version      int
	size         int64
	lastModified time.Time
}

// objects lists the artifacts of name sorted by version.
func (ss *S3ModelStore) objects(ctx context.Context, name string) ([]s3Artifact, error) {
	paginator := s3.NewListObjectsV2Paginator(ss.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(ss.bucket),
		Prefix: aws.String(ss.modelPrefix(name)),
	})

	var out []s3Artifact
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, contract.NewDataSourceError("failed to list model artifacts in S3", err)
		}
		for _, obj := range page.Contents {
			v, ok := parseVersionFileName(path.Base(aws.ToString(obj.Key)))
			if !ok {
				continue
			}
			out = append(out, s3Artifact{
				version:      v,
				size:         aws.ToInt64(obj.Size),
				lastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	slices.SortFunc(out, func(a, b s3Artifact) int { return a.version - b.version })
	return out, nil
}

// Save uploads payload as the next version of name.
func (ss *S3ModelStore) Save(ctx context.Context, name string, payload []byte) (schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return schema.ModelVersion{}, err
	}
	meta := schema.ModelVersion{
		Name:      name,
		ID:        uuid.NewString(),
		SizeBytes: int64(len(payload)),
		Checksum:  checksum(payload),
	}

	for range maxSaveAttempts {
		existing, err := ss.objects(ctx, name)
		if err != nil {
			return schema.ModelVersion{}, err
		}
		next := 1
		if len(existing) > 0 {
			next = existing[len(existing)-1].version + 1
		}

		_, err = ss.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(ss.bucket),
			Key:         aws.String(ss.key(name, next)),
			Body:        bytes.NewReader(payload),
			ContentType: aws.String("application/json"),
			IfNoneMatch: aws.String("*"),
			Metadata: map[string]string{
				metaArtifactID: meta.ID,
				metaChecksum:   meta.Checksum,
			},
		})
		if isConditionFailure(err) {
			continue // another writer claimed this version
		}
		if err != nil {
			return schema.ModelVersion{}, contract.NewDataSourceError("failed to upload model artifact to S3", err)
		}
		meta.Version = next
		meta.CreatedAt = time.Now()
		return meta, nil
	}
	return schema.ModelVersion{}, contract.NewDataSourceError(
		fmt.Sprintf("failed to claim a version for %q after %d attempts", name, maxSaveAttempts), nil)
}

// isConditionFailure reports whether a conditional put lost its race.
func isConditionFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	default:
		return false
	}
}

// isNotFound reports whether a read hit a missing key.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound")
}

// Load returns the latest version of name.
func (ss *S3ModelStore) Load(ctx context.Context, name string) ([]byte, schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return nil, schema.ModelVersion{}, err
	}
	existing, err := ss.objects(ctx, name)
	if err != nil {
		return nil, schema.ModelVersion{}, err
	}
	if len(existing) == 0 {
		return nil, schema.ModelVersion{}, contract.NewModelNotFoundError(name, 0)
	}
	return ss.LoadVersion(ctx, name, existing[len(existing)-1].version)
}

// LoadVersion returns one specific version of name.
func (ss *S3ModelStore) LoadVersion(ctx context.Context, name string, version int) ([]byte, schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return nil, schema.ModelVersion{}, err
	}
	out, err := ss.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(ss.key(name, version)),
	})
	if isNotFound(err) {
		return nil, schema.ModelVersion{}, contract.NewModelNotFoundError(name, version)
	}
	if err != nil {
		return nil, schema.ModelVersion{}, contract.NewDataSourceError("failed to download model artifact from S3", err)
	}
	defer func() { _ = out.Body.Close() }()

	payload, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, schema.ModelVersion{}, contract.NewDataSourceError("failed to read model artifact from S3", err)
	}
	return payload, schema.ModelVersion{
		Name:      name,
		Version:   version,
		ID:        out.Metadata[metaArtifactID],
		CreatedAt: aws.ToTime(out.LastModified),
		SizeBytes: int64(len(payload)),
		Checksum:  checksum(payload),
	}, nil
}

// List returns all versions of name, oldest first.
func (ss *S3ModelStore) List(ctx context.Context, name string) ([]schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return nil, err
	}
	existing, err := ss.objects(ctx, name)
	if err != nil {
		return nil, err
	}
	versions := make([]schema.ModelVersion, 0, len(existing))
	for _, obj := range existing {
		versions = append(versions, schema.ModelVersion{
			Name:      name,
			Version:   obj.version,
			CreatedAt: obj.lastModified,
			SizeBytes: obj.size,
		})
	}
	return versions, nil
}

// Prune deletes all but the newest keep versions. keep <= 0 keeps everything.
func (ss *S3ModelStore) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := validateModelName(name); err != nil {
		return 0, err
	}
	if keep <= 0 {
		return 0, nil
	}
	existing, err := ss.objects(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(existing) <= keep {
		return 0, nil
	}

	removed := 0
	for _, obj := range existing[:len(existing)-keep] {
		_, err := ss.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(ss.bucket),
			Key:    aws.String(ss.key(name, obj.version)),
		})
		if err != nil {
			return removed, contract.NewDataSourceError("failed to delete model artifact from S3", err)
		}
		removed++
	}
	return removed, nil
}

// GetStatus returns status information about the model store.
func (ss *S3ModelStore) GetStatus(ctx context.Context, name string) (schema.ModelStoreStatus, error) {
	versions, err := ss.List(ctx, name)
	if err != nil {
		return schema.ModelStoreStatus{}, err
	}
	return schema.ModelStoreStatus{
		Backend:  string(schema.S3Models),
		Location: "s3://" + path.Join(ss.bucket, ss.prefix),
		Name:     name,
		Versions: versions,
	}, nil
}

// Close is a no-op; the S3 client holds no connections that need releasing.
func (ss *S3ModelStore) Close() error {
	return nil
}
