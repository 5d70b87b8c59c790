package httpserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/storage"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

type UploadHTTP struct {
	Svc *service.UploadService
}

// readFile loads one multipart part, reading at most one byte past the size
// limit so oversized files still fail validation.
func (h *UploadHTTP) readFile(fh *multipart.FileHeader) (storage.File, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.Svc.Storage.Config().MaxFileSize+1))
	if err != nil {
		return storage.File{}, err
	}
	return storage.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

func (h *UploadHTTP) formFiles(c echo.Context, field string) ([]storage.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, fmt.Errorf("no %q files in form", field)
	}
	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		f, err := h.readFile(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (h *UploadHTTP) single(c echo.Context, op, field string, folder storage.Folder) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload."+op)

	fh, err := c.FormFile(field)
	if err != nil {
		return badRequest(l, op+"_failed", "no file provided", err)
	}
	file, err := h.readFile(fh)
	if err != nil {
		return badRequest(l, op+"_failed", "cannot read file", err)
	}
	res, err := h.Svc.Upload(ctx, folder, file)
	if err != nil {
		return fail(l, op+"_failed", err)
	}

	l.Info(op+"_success", "file", res.FileName, "size", res.Size)
	return c.JSON(http.StatusCreated, transport.OK(res))
}

func (h *UploadHTTP) many(c echo.Context, op, field string, folder storage.Folder) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload."+op)

	files, err := h.formFiles(c, field)
	if err != nil {
		return badRequest(l, op+"_failed", "no files provided", err)
	}
	res, err := h.Svc.UploadMany(ctx, folder, files)
	if err != nil {
		return fail(l, op+"_failed", err)
	}

	l.Info(op+"_success", "count", len(res))
	return c.JSON(http.StatusCreated, transport.OK(res))
}

func (h *UploadHTTP) Image(c echo.Context) error {
	return h.single(c, "image", "image", storage.FolderImages)
}

func (h *UploadHTTP) Images(c echo.Context) error {
	return h.many(c, "images", "images", storage.FolderImages)
}

func (h *UploadHTTP) Document(c echo.Context) error {
	return h.single(c, "document", "document", storage.FolderDocuments)
}

func (h *UploadHTTP) ProductImages(c echo.Context) error {
	return h.many(c, "product_images", "images", storage.FolderProducts)
}

func (h *UploadHTTP) Avatar(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload.avatar")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		return badRequest(l, "avatar_failed", "no file provided", err)
	}
	file, err := h.readFile(fh)
	if err != nil {
		return badRequest(l, "avatar_failed", "cannot read file", err)
	}
	res, user, err := h.Svc.UploadAvatar(ctx, actor.UserID, file)
	if err != nil {
		return fail(l, "avatar_failed", err)
	}
	return c.JSON(http.StatusCreated, transport.OK(echo.Map{"file": res, "user": user}))
}

func (h *UploadHTTP) DeleteFile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload.delete_file")

	name := c.Param("*")
	if err := storage.CheckObjectName(name); err != nil {
		return badRequest(l, "delete_file_failed", "invalid file name", err)
	}
	if err := h.Svc.Delete(ctx, name); err != nil {
		return fail(l, "delete_file_failed", err)
	}

	l.Info("delete_file_success", "file", name)
	return c.JSON(http.StatusOK, transport.Message("file deleted"))
}

// FileMetadata serves GET /upload/file/<name>/metadata.
func (h *UploadHTTP) FileMetadata(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload.file_metadata")

	name, ok := strings.CutSuffix(c.Param("*"), "/metadata")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err := storage.CheckObjectName(name); err != nil {
		return badRequest(l, "file_metadata_failed", "invalid file name", err)
	}
	info, err := h.Svc.Info(ctx, name)
	if err != nil {
		return fail(l, "file_metadata_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(info))
}
