// Package storage validates uploads and stores them in an S3-compatible bucket.
package storage

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"
)

var (
	ErrInvalidUpload = errors.New("invalid upload")
	ErrNotFound      = errors.New("object not found")
)

type Folder string

const (
	FolderImages    Folder = "images"
	FolderProducts  Folder = "products"
	FolderAvatars   Folder = "avatars"
	FolderDocuments Folder = "documents"
	FolderTemp      Folder = "temp"
)

var (
	ImageTypes = []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/webp",
		"image/gif",
	}
	DocumentTypes = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
)

// AllowedTypes is the MIME allow-list for a folder.
func (f Folder) AllowedTypes() []string {
	switch f {
	case FolderImages, FolderProducts, FolderAvatars:
		return ImageTypes
	case FolderDocuments:
		return DocumentTypes
	case FolderTemp:
		return slices.Concat(ImageTypes, DocumentTypes)
	default:
		return nil
	}
}

func (f Folder) Valid() bool {
	return f.AllowedTypes() != nil
}

// Config is built once at start-up and never mutated.
type Config struct {
	Bucket        string
	PublicBaseURL string
	MaxFileSize   int64
	MaxFiles      int
	SignedURLTTL  time.Duration
}

func (c Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("storage bucket is required")
	}
	if c.MaxFileSize <= 0 || c.MaxFiles <= 0 {
		return errors.New("storage limits must be positive")
	}
	return nil
}

func (c Config) PublicURL(name string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.PublicBaseURL, "/"), c.Bucket, name)
}

// File is an upload held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Result struct {
	URL          string `json:"url"`
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
}

type Metadata struct {
	Name         string            `json:"name"`
	Bucket       string            `json:"bucket"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"contentType"`
	ETag         string            `json:"etag,omitempty"`
	LastModified *time.Time        `json:"updated,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ValidateBatch applies the count, size and type limits to a whole request.
func (c Config) ValidateBatch(folder Folder, files []File) error {
	if !folder.Valid() {
		return fmt.Errorf("%w: unknown folder %q", ErrInvalidUpload, folder)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no file provided", ErrInvalidUpload)
	}
	if len(files) > c.MaxFiles {
		return fmt.Errorf("%w: at most %d files per request", ErrInvalidUpload, c.MaxFiles)
	}
	allowed := folder.AllowedTypes()
	for _, f := range files {
		if int64(len(f.Data)) > c.MaxFileSize {
			return fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidUpload, f.Name, c.MaxFileSize)
		}
		if !slices.Contains(allowed, strings.ToLower(f.ContentType)) {
			return fmt.Errorf("%w: %s has unsupported type %q", ErrInvalidUpload, f.Name, f.ContentType)
		}
	}
	return nil
}

// CheckObjectName rejects names outside the managed folders.
func CheckObjectName(name string) error {
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: bad file name", ErrInvalidUpload)
	}
	dir, file := path.Split(name)
	if file == "" || !Folder(strings.TrimSuffix(dir, "/")).Valid() {
		return fmt.Errorf("%w: bad file name", ErrInvalidUpload)
	}
	return nil
}
