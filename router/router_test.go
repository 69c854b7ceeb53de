package router

import (
	"Go_Attach/config"
	"Go_Attach/internal/events"
	"Go_Attach/internal/handler"
	"Go_Attach/internal/linkindex"
	"Go_Attach/internal/listener"
	"Go_Attach/internal/recordstore"
	"Go_Attach/internal/repo"
	"Go_Attach/internal/service"
	"Go_Attach/internal/settings"
	"Go_Attach/internal/storage"
	"Go_Attach/utils"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret"
	testBaseURL = "http://cdn.example.com/files"
	recordURL   = "/v1/buckets/fennec/collections/fonts/records/r1"
)

type server struct {
	engine   *gin.Engine
	records  *recordstore.Store
	accounts *service.Accounts
	basePath string
	token    string
}

func newServer(t *testing.T, raw map[string]string) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	basePath := filepath.Join(dir, "blobs")
	if raw == nil {
		raw = map[string]string{}
	}
	raw["attachment.base_path"] = basePath
	raw["attachment.base_url"] = testBaseURL
	s, err := settings.Parse(raw)
	require.NoError(t, err)

	db, err := repo.OpenSQLite(filepath.Join(dir, "attach.db"))
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))

	reg := prometheus.NewRegistry()
	observer, err := storage.NewPrometheusObserver(reg)
	require.NoError(t, err)
	store, err := storage.New(context.Background(), config.NewStorageConfig(s.Backend()))
	require.NoError(t, err)
	store = storage.Instrument(store, observer)

	dispatcher := events.NewDispatcher()
	records := recordstore.New(db, dispatcher)
	coordinator := service.NewCoordinator(s, store, linkindex.New(db), records, "attachment")
	dispatcher.Register(listener.NewAttachmentGuard("attachment"))
	dispatcher.Register(listener.NewCascadeListener(coordinator, zerolog.Nop()))

	heartbeat := service.NewHeartbeat(nil, 0, zerolog.Nop())
	heartbeat.Register(service.CheckAttachments, service.AttachmentsPing(store, false, zerolog.Nop()))
	heartbeat.Register(service.CheckStorage, service.PingProbe(service.CheckStorage, records.Ping, zerolog.Nop()))

	cfg := config.Config{RoutePrefix: "v1", JWTSecret: testSecret, JWTTTL: time.Hour}
	accounts := service.NewAccounts(db)
	h := handler.New(cfg, coordinator, records, accounts, heartbeat, zerolog.Nop())

	token, err := utils.GenerateToken(testSecret, time.Hour, 1, "admin")
	require.NoError(t, err)

	srv := &server{
		engine:   InitRouter(h, cfg, reg),
		records:  records,
		accounts: accounts,
		basePath: basePath,
		token:    token,
	}
	srv.do(t, http.MethodPut, "/v1/buckets/fennec", nil, "")
	srv.do(t, http.MethodPut, "/v1/buckets/fennec/collections/fonts", nil, "")
	return srv
}

func (s *server) do(t *testing.T, method, url string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := writer.CreateFormFile("attachment", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func (s *server) upload(t *testing.T, url, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content, fields)
	return s.do(t, http.MethodPost, url, body, contentType)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *server) blobPath(location string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(location, testBaseURL+"/")))
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, errno int, message string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	body := decode(t, w)
	assert.EqualValues(t, status, body["code"])
	assert.EqualValues(t, errno, body["errno"])
	assert.Equal(t, http.StatusText(status), body["error"])
	assert.Equal(t, message, body["message"])
}

func TestUploadAttachment(t *testing.T) {
	srv := newServer(t, nil)

	w := srv.upload(t, recordURL+"/attachment", "image.jpg", "--fake--", map[string]string{"data": `{"family": "sans"}`})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, recordURL, w.Header().Get("Location"))

	attachment := decode(t, w)
	assert.Equal(t, "image.jpg", attachment["filename"])
	assert.Equal(t, "db511d372e98725a61278e90259c7d4c5484fc7a781d7dcc0c93d53b8929e2ba", attachment["hash"])
	assert.Equal(t, "image/jpeg", attachment["mimetype"])
	assert.EqualValues(t, 8, attachment["size"])
	location := attachment["location"].(string)
	assert.True(t, strings.HasPrefix(location, testBaseURL+"/"), location)
	content, err := os.ReadFile(srv.blobPath(location))
	require.NoError(t, err)
	assert.Equal(t, "--fake--", string(content))

	w = srv.do(t, http.MethodGet, recordURL, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "sans", data["family"])
	assert.Equal(t, location, data["attachment"].(map[string]any)["location"])
}

func TestUploadGzippedReport(t *testing.T) {
	srv := newServer(t, map[string]string{"attachment.randomize": "false"})

	w := srv.upload(t, recordURL+"/attachment?gzipped=true", "my-report.pdf", "--binary--", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	attachment := decode(t, w)
	assert.Equal(t, testBaseURL+"/my-report.pdf.gz", attachment["location"])
	assert.Equal(t, "application/x-gzip", attachment["mimetype"])
	original := attachment["original"].(map[string]any)
	assert.Equal(t, "ac6ebefce5f41cf59b5dc18dc38f57bbe92b76bb4afd9001d29b1a97c9cada2b", original["hash"])
	assert.Equal(t, "application/pdf", original["mimetype"])
}

func TestUploadReplacesFile(t *testing.T) {
	for _, keep := range []bool{false, true} {
		t.Run(map[bool]string{false: "delete old", true: "keep old"}[keep], func(t *testing.T) {
			raw := map[string]string{}
			if keep {
				raw["attachment.resources.fennec.keep_old_files"] = "true"
			}
			srv := newServer(t, raw)

			first := decode(t, srv.upload(t, recordURL+"/attachment", "image.jpg", "--fake--", nil))["location"].(string)
			w := srv.upload(t, recordURL+"/attachment", "image.jpg", "--fake--", nil)
			require.Equal(t, http.StatusCreated, w.Code)
			second := decode(t, w)["location"].(string)

			assert.NotEqual(t, first, second)
			_, err := os.Stat(srv.blobPath(first))
			assert.Equal(t, keep, err == nil)
			_, err = os.Stat(srv.blobPath(second))
			assert.NoError(t, err)
		})
	}
}

func TestUploadErrors(t *testing.T) {
	srv := newServer(t, nil)

	w := srv.do(t, http.MethodPost, recordURL+"/attachment", strings.NewReader(`{}`), "application/json")
	assertError(t, w, http.StatusBadRequest, 107, "headers: Content-Type should be multipart/form-data")

	w = srv.upload(t, recordURL+"/attachment", "", "", map[string]string{"data": "{}"})
	assertError(t, w, http.StatusBadRequest, 107, "body: Missing file.")

	w = srv.upload(t, recordURL+"/attachment", "virus.exe", "MZ", nil)
	assertError(t, w, http.StatusBadRequest, 107, "body: File extension is not allowed.")

	w = srv.upload(t, recordURL+"/attachment", "image.jpg", "--fake--", map[string]string{"foo": "{}"})
	assertError(t, w, http.StatusBadRequest, 107, "body: 'foo' not in ('data', 'permissions')")

	w = srv.upload(t, recordURL+"/attachment", "image.jpg", "--fake--", map[string]string{"data": "{\"foo\": "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.HasPrefix(decode(t, w)["message"].(string), "body: data is not valid JSON ("))

	w = srv.upload(t, recordURL+"/attachment?randomize=perhaps", "image.jpg", "--fake--", nil)
	assertError(t, w, http.StatusBadRequest, 107, "randomize in querystring: Invalid boolean")

	w = srv.upload(t, "/v1/buckets/fennec/collections/unknown/records/r1/attachment", "image.jpg", "--fake--", nil)
	assertError(t, w, http.StatusNotFound, 110, "The resource you are looking for could not be found.")

	w = srv.do(t, http.MethodGet, recordURL, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "no record left behind by rejected uploads")
	entries, err := os.ReadDir(srv.basePath)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWritesRequireToken(t *testing.T) {
	srv := newServer(t, nil)
	srv.token = ""

	w := srv.upload(t, recordURL+"/attachment", "image.jpg", "--fake--", nil)
	assertError(t, w, http.StatusUnauthorized, 104, "Please authenticate yourself to use this endpoint.")
}

func TestDeleteAttachment(t *testing.T) {
	srv := newServer(t, nil)

	location := decode(t, srv.upload(t, recordURL+"/attachment", "image.jpg", "--fake--", nil))["location"].(string)

	w := srv.do(t, http.MethodDelete, recordURL+"/attachment", nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	_, err := os.Stat(srv.blobPath(location))
	assert.True(t, os.IsNotExist(err))

	data := decode(t, srv.do(t, http.MethodGet, recordURL, nil, ""))["data"].(map[string]any)
	assert.Contains(t, data, "attachment")
	assert.Nil(t, data["attachment"])

	w = srv.do(t, http.MethodDelete, recordURL+"/attachment", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodDelete, "/v1/buckets/fennec/collections/fonts/records/missing/attachment", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttachmentIsReadOnlyForClients(t *testing.T) {
	srv := newServer(t, nil)
	require.Equal(t, http.StatusCreated, srv.upload(t, recordURL+"/attachment", "image.jpg", "--fake--", nil).Code)

	w := srv.do(t, http.MethodPatch, recordURL, strings.NewReader(`{"data": {"attachment": {"location": "http://evil.com/x"}}}`), "application/json")
	assertError(t, w, http.StatusBadRequest, 107, "Attachment metadata cannot be modified.")

	w = srv.do(t, http.MethodPatch, recordURL, strings.NewReader(`{"data": {"family": "serif"}}`), "application/json")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestDeletesCascade(t *testing.T) {
	srv := newServer(t, nil)

	record := decode(t, srv.upload(t, recordURL+"/attachment", "image.jpg", "--fake--", nil))["location"].(string)
	other := decode(t, srv.upload(t, "/v1/buckets/fennec/collections/fonts/records/r2/attachment", "font.png", "png", nil))["location"].(string)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, recordURL, nil, "").Code)
	_, err := os.Stat(srv.blobPath(record))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(srv.blobPath(other))
	assert.NoError(t, err)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, "/v1/buckets/fennec", nil, "").Code)
	_, err = os.Stat(srv.blobPath(other))
	assert.True(t, os.IsNotExist(err))
}

func TestServerInfo(t *testing.T) {
	srv := newServer(t, nil)

	w := srv.do(t, http.MethodGet, "/v1/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	capability := decode(t, w)["capabilities"].(map[string]any)["attachments"].(map[string]any)
	assert.Equal(t, testBaseURL+"/", capability["base_url"])
	assert.Equal(t, "Add file attachments to records", capability["description"])
	assert.Equal(t, "https://github.com/Kinto/kinto-attachment/", capability["url"])
}

func TestHeartbeatAndMetrics(t *testing.T) {
	srv := newServer(t, nil)

	w := srv.do(t, http.MethodGet, "/v1/__heartbeat__", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"attachments": true, "storage": true}, decode(t, w))

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/__lbheartbeat__", nil, "").Code)

	w = srv.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `backend_operation_duration_seconds_count{backend="local",operation="save"}`)
}

func TestLogin(t *testing.T) {
	srv := newServer(t, nil)
	_, err := srv.accounts.Create(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	srv.token = ""

	w := srv.do(t, http.MethodPost, "/v1/login", strings.NewReader(`{"username": "alice", "password": "s3cret"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode(t, w)["token"].(string)
	claims, err := utils.VerifyToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	w = srv.do(t, http.MethodPost, "/v1/login", strings.NewReader(`{"username": "alice", "password": "nope"}`), "application/json")
	assertError(t, w, http.StatusUnauthorized, 105, "Invalid username or password.")
}
