package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type genPart struct {
	Text string `json:"text"`
}

type genRequest struct {
	Contents []struct {
		Role  string    `json:"role"`
		Parts []genPart `json:"parts"`
	} `json:"contents"`
}

// fakeGemini 按 prompt 内容返回不同回复
func fakeGemini(t *testing.T, reply func(prompt string) (int, string)) (*Gemini, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))

		var req genRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || len(req.Contents) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		status, text := reply(req.Contents[0].Parts[0].Text)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": status, "message": text, "status": "RESOURCE_EXHAUSTED"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	g, err := NewGemini(context.Background(), "k", "test-model", srv.URL+"/", 5*time.Second)
	require.NoError(t, err)
	return g, &calls
}

func TestGemini_Summarize(t *testing.T) {
	g, calls := fakeGemini(t, func(p string) (int, string) {
		if strings.Contains(p, "15 most important keywords") {
			return 200, " go, channels "
		}
		assert.Contains(t, p, "between 300 and 400 words")
		return 200, "  the summary  "
	})
	s, err := g.Summarize(context.Background(), "doc text")
	require.NoError(t, err)
	assert.Equal(t, Summary{Summary: "the summary", Keywords: "go, channels"}, s)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestGemini_AnswerUsesExcerpt(t *testing.T) {
	long := strings.Repeat("é", 3000)
	g, _ := fakeGemini(t, func(p string) (int, string) {
		assert.Contains(t, p, "Question: why?")
		assert.Contains(t, p, strings.Repeat("é", answerExcerpt))
		assert.NotContains(t, p, strings.Repeat("é", answerExcerpt+1))
		return 200, "because"
	})
	a, err := g.Answer(context.Background(), "why?", long)
	require.NoError(t, err)
	assert.Equal(t, "because", a)
}

func TestGemini_Errors(t *testing.T) {
	g, _ := fakeGemini(t, func(string) (int, string) { return 429, "quota" })
	_, err := g.Summarize(context.Background(), "x")
	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Code)
	assert.Contains(t, apiErr.Message, "quota")

	g, _ = fakeGemini(t, func(string) (int, string) { return 200, "   " })
	_, err = g.Answer(context.Background(), "q", "x")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestGemini_Rank(t *testing.T) {
	g, _ := fakeGemini(t, func(p string) (int, string) {
		assert.Contains(t, p, "[1] second")
		return 200, "```json\n[{\"index\":0,\"score\":3,\"reason\":\"meh\"},{\"index\":1,\"score\":12,\"reason\":\"great\"},{\"index\":2,\"score\":3,\"reason\":\"meh\"}]\n```"
	})
	got, err := g.Rank(context.Background(), "q", []string{"first", "second", "third"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Score{Index: 1, Score: 10, Reason: "great"}, got[0])
	assert.Equal(t, 0, got[1].Index)
	assert.Equal(t, 2, got[2].Index)
}

func TestParseScores_Malformed(t *testing.T) {
	for _, raw := range []string{
		"not json",
		`{"index":0}`,
		`[{"index":5,"score":1}]`,
		`[{"index":0,"score":1},{"index":0,"score":2}]`,
	} {
		_, err := parseScores(raw, 2)
		require.ErrorIs(t, err, ErrMalformed, raw)
	}
}
