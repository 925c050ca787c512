package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"taproom-services/internal/media"
	"taproom-services/pkg/response"
)

type fileReadErrorKind string

const (
	fileReadErrMissing     fileReadErrorKind = "missing"
	fileReadErrReadFailed  fileReadErrorKind = "read_failed"
	fileReadErrTooLarge    fileReadErrorKind = "too_large"
	fileReadErrInvalidType fileReadErrorKind = "invalid_type"
)

type fileReadError struct {
	Kind    fileReadErrorKind
	Message string
	Err     error
}

// readFileBytes reads one multipart file field. allow, when set, checks the
// sniffed content type.
func readFileBytes(r *http.Request, field string, allow func(contentType string, data []byte) bool, maxBytes int64) ([]byte, string, *fileReadError) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", &fileReadError{Kind: fileReadErrMissing, Message: "File is required", Err: err}
	}
	defer file.Close()

	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	maxSizeMB := maxBytes / (1024 * 1024)
	if maxSizeMB <= 0 {
		maxSizeMB = 1
	}
	data, readErr := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if readErr != nil {
		return nil, "", &fileReadError{Kind: fileReadErrReadFailed, Message: "Failed to read file", Err: readErr}
	}
	if int64(len(data)) > maxBytes {
		return nil, "", &fileReadError{Kind: fileReadErrTooLarge, Message: fmt.Sprintf("File size must be less than %dMB.", maxSizeMB)}
	}

	ct := media.DetectContentType(data)
	if ct == "" || ct == "application/octet-stream" {
		ct = strings.TrimSpace(header.Header.Get("Content-Type"))
	}
	ct = strings.ToLower(ct)
	if allow != nil && !allow(ct, data) {
		return nil, ct, &fileReadError{Kind: fileReadErrInvalidType, Message: "Invalid file type"}
	}
	return data, ct, nil
}

func allowImage(contentType string, _ []byte) bool {
	return media.IsAllowedImage(contentType)
}

func allowPDF(_ string, data []byte) bool {
	return media.IsPDF(data)
}

func writeFileError(w http.ResponseWriter, ferr *fileReadError) {
	switch ferr.Kind {
	case fileReadErrMissing:
		response.Error(w, http.StatusBadRequest, "FILE_REQUIRED", ferr.Message)
	case fileReadErrTooLarge:
		response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", ferr.Message)
	case fileReadErrInvalidType:
		response.Error(w, http.StatusBadRequest, "INVALID_FILE_TYPE", ferr.Message)
	default:
		response.Error(w, http.StatusBadRequest, "FILE_READ_FAILED", ferr.Message)
	}
}

// parseMultipart caps the request body before parsing the form.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FORM", "Invalid multipart form")
		return false
	}
	return true
}
