package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

func newTestClient(t *testing.T, serverURL string) Client {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", serverURL)
	t.Setenv("OPENAI_MAX_RETRIES", "0")
	c, err := NewClient(logger.NewNop())
	require.NoError(t, err)
	return c
}

func responsesBody(text string) map[string]any {
	return map[string]any{
		"output": []map[string]any{
			{
				"type": "message",
				"role": "assistant",
				"content": []map[string]any{
					{"type": "output_text", "text": text},
				},
			},
		},
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient(logger.NewNop())
	require.Error(t, err)
}

func TestGenerateJSON_RoundTrip(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		require.NoError(t, json.NewEncoder(w).Encode(responsesBody(`{"answer":42}`)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	schema := map[string]any{"type": "object"}
	obj, err := c.GenerateJSON(context.Background(), "sys", "user", "answer_schema", schema)
	require.NoError(t, err)
	require.Equal(t, float64(42), obj["answer"])
	require.Equal(t, "/v1/responses", gotPath)
	require.Equal(t, "Bearer test-key", gotAuth)

	format, ok := gotReq["text"].(map[string]any)["format"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "json_schema", format["type"])
	require.Equal(t, "answer_schema", format["name"])
	require.Equal(t, true, format["strict"])
}

func TestGenerateJSON_RejectsMissingSchema(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.GenerateJSON(context.Background(), "sys", "user", "", map[string]any{"type": "object"})
	require.Error(t, err)
	_, err = c.GenerateJSON(context.Background(), "sys", "user", "name", nil)
	require.Error(t, err)
}

func TestGenerateText_SurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GenerateText(context.Background(), "sys", "user")
	require.Error(t, err)
	var se *httpStatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadRequest, se.Status)
}

func TestEmbed_PreservesInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		// Return data out of order; the client must reassemble by index.
		body := map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float64{0, 1}},
				{"index": 0, "embedding": []float64{1, 0}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vecs, err := c.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	require.Equal(t, []float32{1, 0}, vecs[0])
	require.Equal(t, []float32{0, 1}, vecs[1])
}

func TestEmbed_EmptyInput(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	vecs, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, vecs)
}

func TestIsRetryable(t *testing.T) {
	require.True(t, isRetryable(&httpStatusError{Status: http.StatusTooManyRequests}))
	require.True(t, isRetryable(&httpStatusError{Status: http.StatusInternalServerError}))
	require.False(t, isRetryable(&httpStatusError{Status: http.StatusBadRequest}))
	require.True(t, isRetryable(errors.New("connection reset")))
	require.False(t, isRetryable(context.Canceled))
	require.False(t, isRetryable(context.DeadlineExceeded))
}

func TestExtractOutputText_SkipsNonMessageItems(t *testing.T) {
	var resp responsesResponse
	raw := `{"output":[
		{"type":"reasoning"},
		{"type":"message","role":"assistant","content":[
			{"type":"output_text","text":"hello "},
			{"type":"refusal","text":"nope"},
			{"type":"output_text","text":"world"}
		]}
	]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.Equal(t, "hello world", extractOutputText(resp))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
