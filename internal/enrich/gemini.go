package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	answerExcerpt = 2000
	rankExcerpt   = 500
)

var ErrMalformed = errors.New("malformed model response")

// Gemini 基于 genai SDK 的 generateContent 客户端
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini baseURL 为空时用 SDK 默认地址
func NewGemini(ctx context.Context, apiKey, model, baseURL string, timeout time.Duration) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(baseURL, "/"),
			APIVersion: "v1beta",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Summarize(ctx context.Context, content string) (Summary, error) {
	summary, err := g.generate(ctx, summaryPrompt(content))
	if err != nil {
		return Summary{}, err
	}
	keywords, err := g.generate(ctx, keywordsPrompt(content))
	if err != nil {
		return Summary{}, err
	}
	return Summary{Summary: summary, Keywords: keywords}, nil
}

func (g *Gemini) Answer(ctx context.Context, question, content string) (string, error) {
	return g.generate(ctx, answerPrompt(question, content))
}

func (g *Gemini) Rank(ctx context.Context, query string, docs []string) ([]Score, error) {
	if len(docs) == 0 {
		return []Score{}, nil
	}
	raw, err := g.generate(ctx, rankPrompt(query, docs))
	if err != nil {
		return nil, err
	}
	scores, err := parseScores(raw, len(docs))
	if err != nil {
		return nil, err
	}
	SortScores(scores)
	return scores, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}
	if len(res.Candidates) == 0 {
		return "", fmt.Errorf("gemini %s: %w: no candidates", g.model, ErrMalformed)
	}
	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("gemini %s: %w: empty text", g.model, ErrMalformed)
	}
	return text, nil
}

// parseScores 去掉 ``` 代码块后按 JSON 数组解析；下标越界视为格式错误
func parseScores(raw string, n int) ([]Score, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	var scores []Score
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &scores); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	seen := map[int]bool{}
	out := make([]Score, 0, len(scores))
	for _, sc := range scores {
		if sc.Index < 0 || sc.Index >= n || seen[sc.Index] {
			return nil, fmt.Errorf("%w: index %d", ErrMalformed, sc.Index)
		}
		seen[sc.Index] = true
		switch {
		case sc.Score < 0:
			sc.Score = 0
		case sc.Score > 10:
			sc.Score = 10
		}
		out = append(out, sc)
	}
	return out, nil
}

func summaryPrompt(content string) string {
	return `Summarize the following document in detail, in the same language the document is written in.
Focus on the main content: its subject and purpose, the method used, the main findings and conclusions, important data, and its contribution.
Do not summarize only the title, author information or the bibliography.
The summary must be between 300 and 400 words.

` + content
}

func keywordsPrompt(content string) string {
	return `Extract the 15 most important keywords and concepts from the following document, in the same language the document is written in.
Take them from the main content, not only from the title or the bibliography. Include technical terms, concepts, methods and key findings.
Reply with the keywords only, separated by commas.

` + content
}

func answerPrompt(question, content string) string {
	return fmt.Sprintf(`Answer the question using only the document content below.

Document: %s

Question: %s

Answer:`, truncateRunes(content, answerExcerpt), question)
}

func rankPrompt(query string, docs []string) string {
	var sb strings.Builder
	sb.WriteString("Evaluate the documents below against the query and give each one a relevance score from 0 to 10 (10 is most relevant).\n\n")
	sb.WriteString("Query: " + query + "\n\nDocuments:\n")
	for i, d := range docs {
		fmt.Fprintf(&sb, "[%d] %s...\n", i, truncateRunes(d, rankExcerpt))
	}
	sb.WriteString("\nReply with a JSON array only, one element per document, e.g. [{\"index\": 0, \"score\": 8, \"reason\": \"...\"}]. index is the number in brackets.")
	return sb.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
