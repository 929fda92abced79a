package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reviewhub/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, token string, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestUploadImage_StoresAndServes(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "uploader", nil)

	body, contentType := multipartImage(t, "image", "photo.png", testutil.TinyPNG(t, 4, 3))
	resp := env.upload(t, token, body, contentType)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	uploaded := decode[UploadResponse](t, resp)
	require.True(t, strings.HasPrefix(uploaded.URL, "/uploads/"), uploaded.URL)
	assert.True(t, strings.HasSuffix(uploaded.URL, ".png"), uploaded.URL)

	served := env.do(t, http.MethodGet, uploaded.URL, "", nil)
	require.Equal(t, fiber.StatusOK, served.StatusCode)
	assert.Equal(t, uploadCacheControl, served.Header.Get("Cache-Control"))
}

func TestUploadImage_Rejections(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "uploader", nil)

	t.Run("unauthenticated", func(t *testing.T) {
		body, contentType := multipartImage(t, "image", "photo.png", testutil.TinyPNG(t, 2, 2))
		resp := env.upload(t, "", body, contentType)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong field", func(t *testing.T) {
		body, contentType := multipartImage(t, "file", "photo.png", testutil.TinyPNG(t, 2, 2))
		resp := env.upload(t, token, body, contentType)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not an image", func(t *testing.T) {
		body, contentType := multipartImage(t, "image", "notes.png", []byte("just some text pretending to be a picture"))
		resp := env.upload(t, token, body, contentType)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("too large", func(t *testing.T) {
		// The test server accepts at most 1MB.
		oversized := append(testutil.TinyPNG(t, 2, 2), bytes.Repeat([]byte{0}, 1024*1024)...)
		body, contentType := multipartImage(t, "image", "big.png", oversized)
		resp := env.upload(t, token, body, contentType)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
