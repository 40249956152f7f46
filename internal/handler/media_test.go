package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirari/uploader/internal/httputil"
	"github.com/mirari/uploader/internal/transport/http/middleware"
)

func authed(r *http.Request, userID int64) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestUploadImage_MissingFieldsReturn422(t *testing.T) {
	h := NewMediaHandler(nil)

	// Neither file nor post_id.
	body, contentType := multipartBody(t, map[string]string{}, "", "", nil)
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/upload_image", body), 7)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Detail []httputil.FieldError `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Detail, 2)

	locs := [][]string{resp.Detail[0].Loc, resp.Detail[1].Loc}
	assert.Contains(t, locs, []string{"body", "file"})
	assert.Contains(t, locs, []string{"body", "post_id"})
	for _, d := range resp.Detail {
		assert.Equal(t, "field required", d.Msg)
		assert.Equal(t, "value_error.missing", d.Type)
	}
}

func TestUploadImage_MissingFileOnly(t *testing.T) {
	h := NewMediaHandler(nil)

	body, contentType := multipartBody(t, map[string]string{"post_id": "AAAAAAAB"}, "", "", nil)
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/upload_image", body), 7)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Detail []httputil.FieldError `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Detail, 1)
	assert.Equal(t, []string{"body", "file"}, resp.Detail[0].Loc)
}

func TestUploadImage_Unauthenticated(t *testing.T) {
	h := NewMediaHandler(nil)

	body, contentType := multipartBody(t, map[string]string{"post_id": "AAAAAAAB"}, "file", "a.jpg", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/upload_image", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadImage_BadWebResize(t *testing.T) {
	h := NewMediaHandler(nil)

	body, contentType := multipartBody(t, map[string]string{"post_id": "AAAAAAAB", "web_resize": "abc"}, "file", "a.jpg", []byte("x"))
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/upload_image", body), 7)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
