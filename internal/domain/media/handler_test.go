package media

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func upload(t *testing.T, r *gin.Engine, path, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if content != nil {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Upload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setup(t)
	r := gin.New()
	RegisterAdminRoutes(r.Group("/api/admin"), NewHandler(f.svc, zap.NewNop()))

	estPath := "/api/admin/establishments/" + strconv.FormatInt(f.est.ID, 10) + "/media"

	w := upload(t, r, estPath, "cover.png", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"kind":"image"`)
	assert.NotContains(t, w.Body.String(), f.baseDir, "disk path is never exposed")

	w = upload(t, r, estPath, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "NO_FILE")

	w = upload(t, r, estPath, "x.png", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FILE")

	w = upload(t, r, "/api/admin/rooms/424242/media", "x.png", pngBytes)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = upload(t, r, "/api/admin/rooms/abc/media", "x.png", pngBytes)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
