package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/m1z23r/drift/pkg/drift"
)

const (
	maxUploadBytes  = 10 << 20
	uploadFormField = "excel"
)

var errEmptyUpload = errors.New("no file uploaded")

// readUpload accepts the user sheet either as a multipart form file named
// "excel", the field the dashboard posts, or as a raw body with the file
// name in ?filename=.
func readUpload(c *drift.Context) (string, []byte, error) {
	if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
		if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			return "", nil, fmt.Errorf("failed to parse upload: %w", err)
		}
		file, header, err := c.Request.FormFile(uploadFormField)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return "", nil, errEmptyUpload
			}
			return "", nil, fmt.Errorf("failed to read upload: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			return "", nil, fmt.Errorf("failed to read upload: %w", err)
		}
		return checkUpload(filepath.Base(header.Filename), data)
	}

	name := c.QueryParam("filename")
	if name == "" {
		return "", nil, errors.New("filename query parameter is required")
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return checkUpload(filepath.Base(name), data)
}

func checkUpload(name string, data []byte) (string, []byte, error) {
	if len(data) == 0 {
		return "", nil, errEmptyUpload
	}
	if len(data) > maxUploadBytes {
		return "", nil, fmt.Errorf("file exceeds %d MB", maxUploadBytes>>20)
	}
	return name, data, nil
}
