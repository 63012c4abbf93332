package groq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"vehicle-bot/internal/advisor"
	"vehicle-bot/internal/domain/vehicle"
)

func testRequest() advisor.AdviceRequest {
	return advisor.AdviceRequest{
		Snapshot: vehicle.Snapshot{
			Class:           vehicle.ClassMotorbike,
			FuelType:        vehicle.FuelPetrol,
			ManufactureYear: 2020,
			OdometerKm:      24000,
			Location:        vehicle.Location{District: "Galle"},
		},
		Assessment: vehicle.Assessment{
			RiskScore: 45,
			RiskLevel: vehicle.RiskHigh,
			ContributingFactors: []vehicle.Factor{
				{Label: "Service overdue", Magnitude: 15},
			},
			DueParts: []vehicle.DuePart{
				{PartName: "Engine Oil (1L)", Urgency: vehicle.UrgencyCritical, EstimatedCost: 2800, Rationale: "service interval of 3000 km exceeded"},
			},
		},
	}
}

func newTestProvider(t *testing.T, url string) *Provider {
	t.Helper()
	p, err := New(Config{
		APIKey:         "test-key",
		BaseURL:        url,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestGenerateSuccess(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "llama-3.3-70b-versatile",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Change the engine oil first."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 210, "completion_tokens": 8, "total_tokens": 218}
		}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	advice, err := p.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	require.Equal(t, "Change the engine oil first.", advice.Text)
	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, 210, advice.Usage.InputTokens)
	require.Equal(t, 8, advice.Usage.OutputTokens)
}

func TestGenerateRetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"message": "rate limit", "type": "rate_limit_exceeded"}}`))
			return
		}
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}], "usage": {}}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	advice, err := p.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, "ok", advice.Text)
	require.Equal(t, 3, attempts)
}

func TestGenerateDoesNotRetryUnauthorized(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.Generate(context.Background(), testRequest())
	require.Error(t, err)
	require.True(t, errors.Is(err, advisor.ErrUnauthorized))
	require.Equal(t, 1, attempts)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.Generate(context.Background(), testRequest())
	require.Error(t, err)
	require.True(t, errors.Is(err, advisor.ErrUnavailable))
	require.Equal(t, 3, attempts)
}

func TestGenerateRejectsEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [], "usage": {}}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.Generate(context.Background(), testRequest())
	require.Error(t, err)
}

func TestBuildUserPromptDeterministic(t *testing.T) {
	req := testRequest()
	first := buildUserPrompt(req)
	second := buildUserPrompt(req)
	require.Equal(t, first, second)

	require.Contains(t, first, "Motorbike")
	require.Contains(t, first, "Galle district")
	require.Contains(t, first, "45/100")
	require.Contains(t, first, "Engine Oil (1L)")
	require.Contains(t, first, "LKR 2800")
}
