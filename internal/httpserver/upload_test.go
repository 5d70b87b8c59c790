package httpserver

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/storage"
)

type part struct {
	field, name, contentType string
	data                     []byte
}

func (s *testServer) upload(t *testing.T, path, token string, parts ...part) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.contentType)
		fw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func png(field, name string) part {
	return part{field: field, name: name, contentType: "image/png", data: []byte("png-bytes")}
}

func TestUploadRoutes(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	_, tok := s.userWithToken(t, models.RoleCustomer)

	var res storage.Result
	decode(t, s.upload(t, "/api/upload/image", "", png("image", "Cat.PNG")), http.StatusCreated, &res)
	assert.Regexp(t, `^images/[0-9a-f-]{36}\.png$`, res.FileName)
	assert.Equal(t, "https://cdn.example/assets/"+res.FileName, res.URL)
	assert.Equal(t, "Cat.PNG", res.OriginalName)
	assert.EqualValues(t, len("png-bytes"), res.Size)

	decode(t, s.upload(t, "/api/upload/image", "", part{
		field: "image", name: "notes.txt", contentType: "text/plain", data: []byte("hello"),
	}), http.StatusBadRequest, nil)
	decode(t, s.upload(t, "/api/upload/image", "", part{
		field: "image", name: "huge.png", contentType: "image/png", data: bytes.Repeat([]byte("x"), 2<<10),
	}), http.StatusBadRequest, nil)
	decode(t, s.upload(t, "/api/upload/document", "", png("document", "scan.png")), http.StatusBadRequest, nil)

	var many []storage.Result
	decode(t, s.upload(t, "/api/upload/images", "", png("images", "a.png"), png("images", "b.png")), http.StatusCreated, &many)
	assert.Len(t, many, 2)

	before := len(s.store.Keys())
	decode(t, s.upload(t, "/api/upload/images", "",
		png("images", "a.png"), png("images", "b.png"), png("images", "c.png"), png("images", "d.png"),
	), http.StatusBadRequest, nil)
	assert.Len(t, s.store.Keys(), before, "rejected batches store nothing")

	decode(t, s.upload(t, "/api/upload/product-images", "", png("images", "a.png")), http.StatusUnauthorized, nil)
	decode(t, s.upload(t, "/api/upload/product-images", tok, png("images", "a.png")), http.StatusCreated, &many)
	assert.Regexp(t, `^products/`, many[0].FileName)

	var info service.FileInfo
	decode(t, s.do(t, request{method: http.MethodGet, path: "/api/upload/file/" + res.FileName + "/metadata", token: tok}), http.StatusOK, &info)
	assert.Equal(t, res.FileName, info.Name)
	assert.Equal(t, "image/png", info.ContentType)
	assert.NotEmpty(t, info.SignedURL)

	decode(t, s.do(t, request{method: http.MethodGet, path: "/api/upload/file/" + res.FileName, token: tok}), http.StatusNotFound, nil)
	decode(t, s.do(t, request{method: http.MethodDelete, path: "/api/upload/file/secrets/key.pem", token: tok}), http.StatusBadRequest, nil)
	decode(t, s.do(t, request{method: http.MethodDelete, path: "/api/upload/file/" + res.FileName, token: tok}), http.StatusOK, nil)
	decode(t, s.do(t, request{method: http.MethodGet, path: "/api/upload/file/" + res.FileName + "/metadata", token: tok}), http.StatusNotFound, nil)
}

func TestUploadAvatar(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	u, tok := s.userWithToken(t, models.RoleCustomer)

	rec := s.upload(t, "/api/upload/avatar", tok, png("avatar", "me.png"))
	var body struct {
		File storage.Result `json:"file"`
		User models.User    `json:"user"`
	}
	decode(t, rec, http.StatusCreated, &body)
	assert.Equal(t, u.ID, body.User.ID)
	assert.Equal(t, body.File.URL, body.User.AvatarURL)
	assert.Regexp(t, `^avatars/`, body.File.FileName)
}
