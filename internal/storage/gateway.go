package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/metrics"
)

// ObjectAPI is the part of *s3.Client the gateway uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Gateway struct {
	cfg     Config
	api     ObjectAPI
	presign Presigner
}

func NewGateway(cfg Config, api ObjectAPI, presign Presigner) *Gateway {
	if cfg.SignedURLTTL == 0 {
		cfg.SignedURLTTL = time.Hour
	}
	return &Gateway{cfg: cfg, api: api, presign: presign}
}

func (g *Gateway) Config() Config { return g.cfg }

func objectName(folder Folder, original string) string {
	return fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), strings.ToLower(filepath.Ext(original)))
}

// Upload validates and stores a single file.
func (g *Gateway) Upload(ctx context.Context, folder Folder, f File) (*Result, error) {
	if err := g.cfg.ValidateBatch(folder, []File{f}); err != nil {
		metrics.UploadFailures.WithLabelValues("rejected").Inc()
		return nil, err
	}
	return g.put(ctx, folder, f)
}

// UploadMany stores every file or none. The first failure cancels the
// remaining uploads and already stored objects are removed.
func (g *Gateway) UploadMany(ctx context.Context, folder Folder, files []File) ([]Result, error) {
	if err := g.cfg.ValidateBatch(folder, files); err != nil {
		metrics.UploadFailures.WithLabelValues("rejected").Inc()
		return nil, err
	}

	results := make([]Result, len(files))
	var (
		mu     sync.Mutex
		stored []string
	)

	eg, egCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		eg.Go(func() error {
			res, err := g.put(egCtx, folder, f)
			if err != nil {
				return err
			}
			results[i] = *res
			mu.Lock()
			stored = append(stored, res.FileName)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.cleanup(ctx, stored)
		return nil, err
	}
	return results, nil
}

func (g *Gateway) cleanup(ctx context.Context, names []string) {
	l := logging.FromContext(ctx).With("svc", "storage.cleanup")
	ctx = context.WithoutCancel(ctx)
	for _, name := range names {
		if err := g.Delete(ctx, name); err != nil {
			l.Warn("cleanup_failed", "file", name, "error", err)
		}
	}
}

func (g *Gateway) put(ctx context.Context, folder Folder, f File) (*Result, error) {
	name := objectName(folder, f.Name)
	size := int64(len(f.Data))

	_, err := g.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(g.cfg.Bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(f.Data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(f.ContentType),
		ACL:           types.ObjectCannedACLPublicRead,
		Metadata: map[string]string{
			"original-name": f.Name,
			"uploaded-at":   time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		metrics.UploadFailures.WithLabelValues("upstream").Inc()
		return nil, fmt.Errorf("put object %s: %w", name, err)
	}
	metrics.UploadedBytes.WithLabelValues(string(folder)).Add(float64(size))

	return &Result{
		URL:          g.cfg.PublicURL(name),
		FileName:     name,
		OriginalName: f.Name,
		Size:         size,
		MimeType:     f.ContentType,
	}, nil
}

func (g *Gateway) Delete(ctx context.Context, name string) error {
	if err := CheckObjectName(name); err != nil {
		return err
	}
	exists, err := g.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if _, err := g.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.cfg.Bucket),
		Key:    aws.String(name),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", name, err)
	}
	return nil
}

func (g *Gateway) Metadata(ctx context.Context, name string) (*Metadata, error) {
	if err := CheckObjectName(name); err != nil {
		return nil, err
	}
	out, err := g.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.cfg.Bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("head object %s: %w", name, err)
	}
	return &Metadata{
		Name:         name,
		Bucket:       g.cfg.Bucket,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		LastModified: out.LastModified,
		Metadata:     out.Metadata,
	}, nil
}

func (g *Gateway) Exists(ctx context.Context, name string) (bool, error) {
	_, err := g.Metadata(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// SignedURL returns a time-limited read URL. ttl of zero uses the configured default.
func (g *Gateway) SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error) {
	if err := CheckObjectName(name); err != nil {
		return "", err
	}
	if g.presign == nil {
		return "", errors.New("presigning is not configured")
	}
	if ttl <= 0 {
		ttl = g.cfg.SignedURLTTL
	}
	req, err := g.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.cfg.Bucket),
		Key:    aws.String(name),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", name, err)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}
