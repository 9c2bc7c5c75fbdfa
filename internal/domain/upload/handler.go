// Package upload exposes the file upload surface: multipart image and
// document uploads backed by a blobstore, plus download and deletion of
// owned files.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caremarket/caremarket/internal/platform/auth"
	"github.com/caremarket/caremarket/internal/platform/blobstore"
	"github.com/caremarket/caremarket/pkg/respond"
)

// DefaultTimeout bounds a single upload when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Handler serves /upload routes.
type Handler struct {
	store   blobstore.Store
	timeout time.Duration
	log     zerolog.Logger
}

func NewHandler(store blobstore.Store, timeout time.Duration, log zerolog.Logger) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{
		store:   store,
		timeout: timeout,
		log:     log.With().Str("component", "upload").Logger(),
	}
}

// RegisterRoutes mounts upload routes on the authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/upload/image", h.uploadImage)
	api.POST("/upload/document", h.uploadDocument)
	api.GET("/upload", h.listMine)
	api.GET("/upload/:id", h.download)
	api.DELETE("/upload/:id", h.remove)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return id, nil
}

func (h *Handler) uploadImage(c echo.Context) error {
	return h.upload(c, blobstore.KindImage)
}

func (h *Handler) uploadDocument(c echo.Context) error {
	return h.upload(c, blobstore.KindDocument)
}

// deadlineReader fails a read once the upload deadline passes, so a stalled
// client cannot hold the handler open past the timeout.
type deadlineReader struct {
	ctx context.Context
	r   io.Reader
}

func (r deadlineReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func (h *Handler) upload(c echo.Context, kind blobstore.Kind) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respond.BadRequest(c, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	// Uploads are exempt from the global request timeout and carry their
	// own, longer deadline instead.
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	blob, err := h.store.Put(ctx, blobstore.Blob{
		OwnerID:     userID,
		Kind:        kind,
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
	}, deadlineReader{ctx: ctx, r: src})
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return respond.Error(c, http.StatusRequestTimeout, "upload timed out")
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return respond.Error(c, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, blobstore.ErrInvalidContentType):
			return respond.Error(c, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, blobstore.ErrMissingFileName):
			return respond.BadRequest(c, err.Error())
		default:
			h.log.Error().Err(err).Msg("upload failed")
			return respond.Error(c, http.StatusInternalServerError, "upload failed")
		}
	}
	return respond.Created(c, blob)
}

func (h *Handler) listMine(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	blobs, err := h.store.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond.OK(c, blobs)
}

func (h *Handler) download(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid file id")
	}
	rc, meta, err := h.store.Open(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return respond.NotFound(c, "file not found")
		}
		return err
	}
	defer rc.Close()

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

// remove deletes a file. Only the uploader or an admin may delete.
func (h *Handler) remove(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.BadRequest(c, "invalid file id")
	}

	meta, err := h.store.Stat(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return respond.NotFound(c, "file not found")
		}
		return err
	}
	if meta.OwnerID != userID && auth.RoleFromContext(c.Request().Context()) != auth.RoleAdmin {
		return respond.NotFound(c, "file not found")
	}

	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return respond.NotFound(c, "file not found")
		}
		return err
	}
	return respond.NoContent(c, "file deleted")
}
