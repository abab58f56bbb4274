package preview_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/helmsmith/internal/preview"
)

func buildTestServer() *preview.Server {
	return preview.NewServer(map[string]string{
		"Chart.yaml":                "apiVersion: v2\nname: payments\n",
		"values.yaml":               "replicaCount: 1\n",
		"templates/deployment.yaml": "kind: Deployment\n",
	}, nil)
}

func TestHealthEndpointRespondsOK(testInstance *testing.T) {
	router := buildTestServer().Router()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.Contains(testInstance, recorder.Body.String(), "ok")
}

func TestChartIndexListsBundleFiles(testInstance *testing.T) {
	router := buildTestServer().Router()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/chart", nil)
	router.ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)

	indexResponse := struct {
		Files []string `json:"files"`
	}{}
	require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &indexResponse))
	require.Equal(testInstance, []string{"Chart.yaml", "templates/deployment.yaml", "values.yaml"}, indexResponse.Files)
}

func TestChartFileEndpointReturnsContent(testInstance *testing.T) {
	router := buildTestServer().Router()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/chart/templates/deployment.yaml", nil)
	router.ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.Equal(testInstance, "kind: Deployment\n", recorder.Body.String())
}

func TestChartFileEndpointReportsMissingFiles(testInstance *testing.T) {
	router := buildTestServer().Router()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/chart/templates/absent.yaml", nil)
	router.ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusNotFound, recorder.Code)
}
