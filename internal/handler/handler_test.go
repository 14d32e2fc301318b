package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"inventory-api/internal/middleware"
	"inventory-api/internal/model"
	"inventory-api/internal/service"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-secret"

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func init() {
	gin.SetMode(gin.TestMode)
}

type routes interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// newRouter mirrors the production wiring for a single handler.
func newRouter(h routes) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h.RegisterRoutes(r.Group("/api", middleware.OptionalAuth([]byte(testSecret))))
	r.NoRoute(middleware.NoRoute)
	return r
}

func tokenFor(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	token, err := service.NewTokenIssuer(testSecret, time.Hour).Issue(&model.User{ID: id, Email: "x@example.com", Role: role})
	require.NoError(t, err)
	return token
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	token       string
}

func jsonRequest(method, path string, body interface{}) request {
	raw, _ := json.Marshal(body)
	return request{method: method, path: path, body: bytes.NewReader(raw), contentType: "application/json"}
}

func serve(r *gin.Engine, req request) *httptest.ResponseRecorder {
	httpReq := httptest.NewRequest(req.method, req.path, req.body)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

type multipartField struct {
	name, value string
}

// multipartRequest builds a form with the given fields and an optional image part.
func multipartRequest(t *testing.T, method, path string, fields []multipartField, filename string, content []byte) request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, mw.WriteField(f.name, f.value))
	}
	if filename != "" {
		part, err := mw.CreateFormFile(imageField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return request{method: method, path: path, body: &buf, contentType: mw.FormDataContentType()}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func dataMap(t *testing.T, body response.Response) map[string]interface{} {
	t.Helper()
	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", body.Data)
	return data
}
