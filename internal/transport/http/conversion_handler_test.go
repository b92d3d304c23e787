package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whizzcli/internal/config"
	"whizzcli/internal/websocket"
	"whizzcli/internal/whizz"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:              8080,
			ConversionTimeout: time.Minute,
		},
		Conversion: config.ConversionConfig{
			MissingValue:  -1e32,
			CommentMarker: "/",
			DummyMarker:   "*",
			PreviewLines:  5,
		},
		Security: config.SecurityConfig{
			RateLimit: config.RateLimitConfig{Enabled: false},
		},
		WebSocket: config.WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}

func setupServer(t *testing.T) (*httptest.Server, *ConversionService, *config.Paths) {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	cfg := testConfig()
	hub := websocket.NewHub(slog.Default())
	hub.Start()
	t.Cleanup(hub.Stop)

	service := NewConversionService(cfg, paths, hub, nil, slog.Default())
	router := NewRouter(RouterDeps{
		Config:  cfg,
		Logger:  slog.Default(),
		Hub:     hub,
		Service: service,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, service, paths
}

func writeTestSurvey(t *testing.T, paths *config.Paths, name string) {
	t.Helper()
	content := "" +
		"/ Airborne magnetic survey export\n" +
		"/ X Y MAG\n" +
		"LINE 100\n" +
		" 1.0 2.0 55.5\n" +
		" 3.0 4.0 *\n" +
		"TIE 200\n" +
		" 5.0 6.0 57.7\n"
	require.NoError(t, os.WriteFile(paths.GetSurveyPath(name), []byte(content), 0644))
}

func waitForJob(t *testing.T, srv *httptest.Server, id string) *Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("%s/api/conversions/%s", srv.URL, id))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
			return false
		}
		return job.Status == StatusCompleted || job.Status == StatusFailed
	}, 10*time.Second, 50*time.Millisecond)
	return &job
}

func TestCreateConversion(t *testing.T) {
	srv, _, paths := setupServer(t)
	writeTestSurvey(t, paths, "flight7.xyz")

	body, _ := json.Marshal(map[string]interface{}{"survey_file": "flight7.xyz"})
	resp, err := http.Post(srv.URL+"/api/conversions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var created Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	job := waitForJob(t, srv, created.ID)
	require.Equal(t, StatusCompleted, job.Status)
	require.NotNil(t, job.Summary)
	assert.Equal(t, 2, job.Summary.LineCount)
	assert.Equal(t, 3, job.Summary.ChannelCount)
	assert.Equal(t, []string{"X", "Y", "MAG"}, job.Summary.ChannelNames)
	assert.Equal(t, 2, job.Summary.LinesSaved)

	// Dataset written alongside the default datasets directory.
	expected := paths.GetDatasetPath(config.DatasetNameFor("flight7.xyz"))
	assert.Equal(t, expected, job.DatasetFile)
	_, statErr := os.Stat(expected)
	assert.NoError(t, statErr)
}

func TestCreateConversionZeroMissingValue(t *testing.T) {
	srv, _, paths := setupServer(t)
	writeTestSurvey(t, paths, "zero.xyz")

	// missing_value 0 is an explicit override, not an absent field
	body, _ := json.Marshal(map[string]interface{}{"survey_file": "zero.xyz", "missing_value": 0})
	resp, err := http.Post(srv.URL+"/api/conversions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var created Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	job := waitForJob(t, srv, created.ID)
	require.Equal(t, StatusCompleted, job.Status)

	loaded, err := whizz.LoadWorkbook(job.DatasetFile)
	require.NoError(t, err)
	line, ok := loaded.Line("100")
	require.True(t, ok)
	require.Len(t, line.Matrix, 2)
	assert.Equal(t, 0.0, line.Matrix[1][2])
}

func TestCreateConversionValidationFailure(t *testing.T) {
	srv, _, _ := setupServer(t)

	body, _ := json.Marshal(map[string]interface{}{"preview_lines": 3})
	resp, err := http.Post(srv.URL+"/api/conversions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateConversionMissingSurvey(t *testing.T) {
	srv, _, _ := setupServer(t)

	body, _ := json.Marshal(map[string]interface{}{"survey_file": "absent.xyz"})
	resp, err := http.Post(srv.URL+"/api/conversions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	// Accepted, but the job fails in the background.
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var created Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	job := waitForJob(t, srv, created.ID)
	assert.Equal(t, StatusFailed, job.Status)
	assert.NotEmpty(t, job.Error)
}

func TestGetConversionNotFound(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/conversions/no-such-job")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListConversions(t *testing.T) {
	srv, service, paths := setupServer(t)
	writeTestSurvey(t, paths, "a.xyz")
	writeTestSurvey(t, paths, "b.xyz")

	for _, name := range []string{"a.xyz", "b.xyz"} {
		body, _ := json.Marshal(map[string]interface{}{"survey_file": name})
		resp, err := http.Post(srv.URL+"/api/conversions", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
	}

	require.Eventually(t, func() bool {
		for _, job := range service.ListJobs() {
			if job.Status != StatusCompleted {
				return false
			}
		}
		return len(service.ListJobs()) == 2
	}, 10*time.Second, 50*time.Millisecond)

	resp, err := http.Get(srv.URL + "/api/conversions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Conversions []Job `json:"conversions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Len(t, listing.Conversions, 2)
}

func TestHealthCheck(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
}
