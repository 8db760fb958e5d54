package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airace/carcontrol/pkg/core"
)

type exportStub struct {
	path string
	meta core.UploadMetadata
}

func (e exportStub) GetExportedFilePath() string            { return e.path }
func (e exportStub) GetExportMetadata() core.UploadMetadata { return e.meta }

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:5000/", "secret")
	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, "secret", c.apiKey)
	assert.NotNil(t, c.httpClient)
}

func TestHealthcheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"server error", http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/healthcheck", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := New(server.URL, "").Healthcheck(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assert.Error(t, New(url, "").Healthcheck(context.Background()))
}

func TestUpload_Success(t *testing.T) {
	received := map[string]string{}
	var content []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/runs/add", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		if !assert.NoError(t, r.ParseMultipartForm(10<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, k := range []string{"secret", "filename", "runName", "vehicleId", "tag", "duration"} {
			received[k] = r.FormValue(k)
		}
		file, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ = io.ReadAll(file)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "Lap_1_20260301_120000.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("run data"), 0o644))

	c := New(server.URL, "mysecret")
	err := c.UploadExport(context.Background(), exportStub{path: path, meta: core.UploadMetadata{
		RunName:   "Lap 1",
		VehicleID: "car-1",
		Tag:       "training",
		Duration:  62.25,
	}})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"secret":    "mysecret",
		"filename":  "Lap_1_20260301_120000.json.gz",
		"runName":   "Lap 1",
		"vehicleId": "car-1",
		"tag":       "training",
		"duration":  "62.250",
	}, received)
	assert.Equal(t, "run data", string(content))
}

func TestUploadExport_NothingExported(t *testing.T) {
	err := New("http://localhost:5000", "").UploadExport(context.Background(), exportStub{})
	assert.ErrorIs(t, err, ErrNoExport)
}

func TestUpload_FileNotFound(t *testing.T) {
	err := New("http://localhost:5000", "secret").Upload(context.Background(), "/nonexistent/run.json.gz", core.UploadMetadata{})
	assert.ErrorContains(t, err, "failed to open file")
}

func TestUpload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	err := New(server.URL, "wrong-secret").Upload(context.Background(), path, core.UploadMetadata{})
	assert.EqualError(t, err, "upload returned status 403")
}
