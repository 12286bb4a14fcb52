package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gateway "github.com/fieldplan/allocator/api/gateway"
	"github.com/fieldplan/allocator/pkg/dto"
	"github.com/fieldplan/allocator/pkg/types"
)

const testSigningSecret = "test-signing-secret"

func testBearerToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "integration-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSigningSecret))
	require.NoError(t, err)
	return signed
}

func testServerConfig() *types.ServiceConfig {
	return &types.ServiceConfig{
		Environment: "test",
		ServiceName: "field-allocation-optimizer",
		API: &types.APIConfig{
			Host:             "0.0.0.0",
			Port:             0,
			ReadTimeout:      5 * time.Second,
			WriteTimeout:     10 * time.Second,
			IdleTimeout:      120 * time.Second,
			EnableCORS:       false,
			RateLimit:        10000,
			RateLimitWindow:  time.Minute,
		},
	}
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	router := gateway.NewRouter(testServerConfig(), zap.NewNop(), nil, nil, nil, nil, nil, []byte(testSigningSecret), prometheus.NewRegistry())
	return httptest.NewServer(router)
}

func float64Ptr(f float64) *float64 { return &f }

func sampleOptimizeRequest() dto.OptimizeRequest {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	horizon := dto.HorizonInput{Start: start, End: start.AddDate(0, 3, 0)}

	weather := make([]dto.WeatherRecordInput, 0, 93)
	for i := 0; i < 93; i++ {
		weather = append(weather, dto.WeatherRecordInput{
			Date:     start.AddDate(0, 0, i),
			TempMean: float64Ptr(22.0),
		})
	}

	return dto.OptimizeRequest{
		Fields: []dto.FieldInput{
			{ID: "field-1", Name: "North Plot", AreaM2: 500, DailyFixedCost: 2, FallowDays: 3},
		},
		Crops: []dto.CropInput{
			{ID: "tomato", Name: "Tomato", AreaPerUnitM2: 0.5, RevenuePerArea: 4.5, Groups: []string{"solanaceae"}},
		},
		Profiles: map[string][]dto.StageRequirementInput{
			"tomato": {
				{
					StageName:   "full-cycle",
					Order:       1,
					RequiredGDD: 900,
					Thermal: dto.ThermalProfileInput{
						BaseTemperature:  10,
						OptimalMin:       18,
						OptimalMax:       28,
						HighStressThresh: 32,
						MaxTemperature:   38,
					},
				},
			},
		},
		Weather: weather,
		Horizon: horizon,
	}
}

func TestOptimizeEndpoint_RejectsUnauthenticatedRequest(t *testing.T) {
	server := startTestServer(t)
	defer server.Close()

	body, err := json.Marshal(sampleOptimizeRequest())
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/api/v1/optimize", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOptimizeEndpoint_RejectsForgedToken(t *testing.T) {
	server := startTestServer(t)
	defer server.Close()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/optimize", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer not-a-real-jwt")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOptimizeEndpoint_RejectsMalformedBody(t *testing.T) {
	server := startTestServer(t)
	defer server.Close()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/optimize", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testBearerToken(t))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOptimizeEndpoint_AcceptsValidRequest(t *testing.T) {
	server := startTestServer(t)
	defer server.Close()

	body, err := json.Marshal(sampleOptimizeRequest())
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/optimize", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testBearerToken(t))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.OptimizeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.AlgorithmUsed)
}

func TestHealthEndpoint_ReportsHealthy(t *testing.T) {
	server := startTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestMetricsEndpoint_ServesPrometheusExposition(t *testing.T) {
	server := startTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
