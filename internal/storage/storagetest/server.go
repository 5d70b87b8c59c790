// Package storagetest provides an in-memory S3 object API for tests.
package storagetest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type Object struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
	Modified    time.Time
}

type Server struct {
	mu      sync.Mutex
	objects map[string]Object

	// FailPut makes PutObject fail for keys it returns true for.
	FailPut func(key string) bool
}

func NewServer() *Server {
	return &Server{objects: make(map[string]Object)}
}

func notFound() error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{
				Response: &http.Response{StatusCode: http.StatusNotFound},
			},
			Err: errors.New("not found"),
		},
	}
}

func (s *Server) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if s.FailPut != nil && s.FailPut(key) {
		return nil, errors.New("put rejected")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{
		Data:        data,
		ContentType: aws.ToString(in.ContentType),
		Metadata:    in.Metadata,
		Modified:    time.Now().UTC(),
	}
	return &s3.PutObjectOutput{ETag: aws.String(`"etag-` + key + `"`)}, nil
}

func (s *Server) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (s *Server) HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, notFound()
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.Data))),
		ContentType:   aws.String(obj.ContentType),
		ETag:          aws.String(`"etag"`),
		LastModified:  aws.Time(obj.Modified),
		Metadata:      obj.Metadata,
	}, nil
}

func (s *Server) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var po s3.PresignOptions
	for _, o := range opts {
		o(&po)
	}
	return &v4.PresignedHTTPRequest{
		URL:    "https://signed.example/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key) + "?expires=" + po.Expires.String(),
		Method: http.MethodGet,
	}, nil
}

// Keys lists stored object names.
func (s *Server) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
