package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/storage"
	"github.com/Skotchmaster/marketplace/internal/storage/storagetest"
)

func testConfig() storage.Config {
	return storage.Config{
		Bucket:        "shop-assets",
		PublicBaseURL: "https://storage.googleapis.com",
		MaxFileSize:   16,
		MaxFiles:      2,
	}
}

func png(name string) storage.File {
	return storage.File{Name: name, ContentType: "image/png", Data: []byte("png-bytes")}
}

func TestValidateBatch(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	tests := []struct {
		name   string
		folder storage.Folder
		files  []storage.File
		ok     bool
	}{
		{"single image", storage.FolderImages, []storage.File{png("a.png")}, true},
		{"unknown folder", storage.Folder("secrets"), []storage.File{png("a.png")}, false},
		{"empty request", storage.FolderImages, nil, false},
		{"too many files", storage.FolderImages, []storage.File{png("a.png"), png("b.png"), png("c.png")}, false},
		{"too large", storage.FolderImages, []storage.File{{Name: "big.png", ContentType: "image/png", Data: make([]byte, 17)}}, false},
		{"pdf into images", storage.FolderImages, []storage.File{{Name: "a.pdf", ContentType: "application/pdf", Data: []byte("x")}}, false},
		{"pdf into documents", storage.FolderDocuments, []storage.File{{Name: "a.pdf", ContentType: "application/pdf", Data: []byte("x")}}, true},
		{"temp takes both", storage.FolderTemp, []storage.File{png("a.png"), {Name: "a.pdf", ContentType: "application/pdf", Data: []byte("x")}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := cfg.ValidateBatch(tt.folder, tt.files)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, storage.ErrInvalidUpload)
		})
	}
}

func TestCheckObjectName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, storage.CheckObjectName("images/abc.png"))
	assert.NoError(t, storage.CheckObjectName("documents/x.pdf"))
	for _, bad := range []string{"", "abc.png", "../images/a.png", "/images/a.png", "images/", "etc/passwd", "images/../a"} {
		assert.ErrorIs(t, storage.CheckObjectName(bad), storage.ErrInvalidUpload, bad)
	}
}

func TestUpload_ReturnsPublicURL(t *testing.T) {
	t.Parallel()
	srv := storagetest.NewServer()
	g := storage.NewGateway(testConfig(), srv, srv)

	res, err := g.Upload(context.Background(), storage.FolderImages, png("Photo.PNG"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.FileName, "images/"))
	assert.True(t, strings.HasSuffix(res.FileName, ".png"))
	assert.Equal(t, "https://storage.googleapis.com/shop-assets/"+res.FileName, res.URL)
	assert.Equal(t, "Photo.PNG", res.OriginalName)
	assert.Equal(t, int64(len("png-bytes")), res.Size)
	assert.Equal(t, "image/png", res.MimeType)
	assert.ElementsMatch(t, []string{res.FileName}, srv.Keys())

	md, err := g.Metadata(context.Background(), res.FileName)
	require.NoError(t, err)
	assert.Equal(t, "image/png", md.ContentType)
	assert.Equal(t, "Photo.PNG", md.Metadata["original-name"])
}

func TestUpload_RejectedFileStoresNothing(t *testing.T) {
	t.Parallel()
	srv := storagetest.NewServer()
	g := storage.NewGateway(testConfig(), srv, srv)

	_, err := g.Upload(context.Background(), storage.FolderAvatars, storage.File{Name: "x.exe", ContentType: "application/octet-stream", Data: []byte("x")})
	require.ErrorIs(t, err, storage.ErrInvalidUpload)
	assert.Empty(t, srv.Keys())
}

func TestUploadMany_AllOrNothing(t *testing.T) {
	t.Parallel()
	srv := storagetest.NewServer()
	fails := 0
	srv.FailPut = func(key string) bool {
		fails++
		return fails == 2
	}
	g := storage.NewGateway(testConfig(), srv, srv)

	_, err := g.UploadMany(context.Background(), storage.FolderProducts, []storage.File{png("a.png"), png("b.png")})
	require.Error(t, err)
	assert.Empty(t, srv.Keys())
}

func TestUploadMany_OK(t *testing.T) {
	t.Parallel()
	srv := storagetest.NewServer()
	g := storage.NewGateway(testConfig(), srv, srv)

	res, err := g.UploadMany(context.Background(), storage.FolderProducts, []storage.File{png("a.png"), png("b.png")})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a.png", res[0].OriginalName)
	assert.Equal(t, "b.png", res[1].OriginalName)
	assert.Len(t, srv.Keys(), 2)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	srv := storagetest.NewServer()
	g := storage.NewGateway(testConfig(), srv, srv)
	ctx := context.Background()

	err := g.Delete(ctx, "images/missing.png")
	require.ErrorIs(t, err, storage.ErrNotFound)

	res, err := g.Upload(ctx, storage.FolderImages, png("a.png"))
	require.NoError(t, err)

	require.NoError(t, g.Delete(ctx, res.FileName))
	ok, err := g.Exists(ctx, res.FileName)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignedURL(t *testing.T) {
	t.Parallel()
	srv := storagetest.NewServer()
	g := storage.NewGateway(testConfig(), srv, srv)

	u, err := g.SignedURL(context.Background(), "documents/a.pdf", 0)
	require.NoError(t, err)
	assert.Contains(t, u, "shop-assets/documents/a.pdf")
	assert.Contains(t, u, "expires=1h0m0s")

	_, err = g.SignedURL(context.Background(), "../a.pdf", 0)
	require.ErrorIs(t, err, storage.ErrInvalidUpload)
}
