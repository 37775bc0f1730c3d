package echo

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	app "github.com/cataloghq/catalog-ingest/internal/application/catalog"
)

type UploadHandler struct {
	start     app.StartCatalogUpload
	status    app.GetUploadStatus
	cancel    app.CancelUpload
	uploadDir string
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewUploadHandler(start app.StartCatalogUpload, status app.GetUploadStatus, cancel app.CancelUpload, uploadDir string) *UploadHandler {
	return &UploadHandler{start: start, status: status, cancel: cancel, uploadDir: uploadDir}
}

// Upload receives the multipart file, stashes it under the upload directory
// and creates a pending job. Everything after the 202 happens in the worker.
func (h *UploadHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "no file provided",
		}})
	}

	filename := filepath.Base(fileHeader.Filename)
	sourcePath, err := h.saveUpload(fileHeader, filename)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to store uploaded file",
		}})
	}

	// The job stores the name relative to the upload dir; the worker's
	// source resolves it against the same base.
	out, err := h.start.Execute(c.Request().Context(), app.StartCatalogUploadInput{
		Filename:   filename,
		SourcePath: filepath.Base(sourcePath),
	})
	if err != nil {
		os.Remove(sourcePath)
		if errors.Is(err, app.ErrInvalidUploadSource) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_source",
				Message: "only csv files are allowed",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to create upload job",
		}})
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *UploadHandler) Status(c echo.Context) error {
	out, err := h.status.Execute(c.Request().Context(), app.GetUploadStatusInput{
		TaskRef: c.Param("taskRef"),
	})
	if err != nil {
		if errors.Is(err, app.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: "upload job not found",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to query upload status",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *UploadHandler) Cancel(c echo.Context) error {
	out, err := h.cancel.Execute(c.Request().Context(), app.CancelUploadInput{
		TaskRef: c.Param("taskRef"),
	})
	if err != nil {
		if errors.Is(err, app.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: "upload job not found",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to cancel upload",
		}})
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *UploadHandler) saveUpload(fileHeader *multipart.FileHeader, filename string) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open multipart file: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	// Unique prefix: two clients may upload files with the same name.
	path := filepath.Join(h.uploadDir, uuid.NewString()+"_"+filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}
