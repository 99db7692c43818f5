package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	summaryParagraphs = 10
	summaryBudget     = 1500
	keywordCount      = 15
	answerSentences   = 3
)

// Local 离线、确定性的策略
type Local struct{}

func NewLocal() *Local { return &Local{} }

func (Local) Summarize(_ context.Context, content string) (Summary, error) {
	return Summary{
		Summary:  naiveSummary(content),
		Keywords: strings.Join(topKeywords(content, keywordCount), ", "),
	}, nil
}

// Answer 与问题重合词最多的至多 3 句，按原文顺序拼接
func (Local) Answer(_ context.Context, question, content string) (string, error) {
	qs := tokenSet(question)
	sents := sentences(content)
	type hit struct{ idx, score int }
	var hits []hit
	for i, s := range sents {
		n := 0
		for w := range tokenSet(s) {
			if _, ok := qs[w]; ok {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, hit{i, n})
		}
	}
	if len(hits) == 0 {
		return "The document does not appear to contain an answer to this question.", nil
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > answerSentences {
		hits = hits[:answerSentences]
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].idx < hits[j].idx })
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, sents[h.idx])
	}
	return strings.Join(parts, " "), nil
}

// Rank 查询词（长度>2）在文档中出现即计 1，归一到 0-10；零分不返回
func (Local) Rank(_ context.Context, query string, docs []string) ([]Score, error) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return []Score{}, nil
	}
	out := make([]Score, 0, len(docs))
	for i, d := range docs {
		low := strings.ToLower(d)
		var matched []string
		for _, w := range words {
			if utf8.RuneCountInString(w) > 2 && strings.Contains(low, w) {
				matched = append(matched, w)
			}
		}
		if len(matched) == 0 {
			continue
		}
		score := float64(len(matched)) / float64(len(words)) * 10
		if score > 10 {
			score = 10
		}
		out = append(out, Score{
			Index:  i,
			Score:  score,
			Reason: fmt.Sprintf("matched terms: %s", strings.Join(matched, ", ")),
		})
	}
	SortScores(out)
	return out, nil
}

// naiveSummary 前 10 段；超出预算时按句子截断
func naiveSummary(content string) string {
	paras := strings.Split(strings.TrimSpace(content), "\n\n")
	if len(paras) > summaryParagraphs {
		paras = paras[:summaryParagraphs]
	}
	s := strings.TrimSpace(strings.Join(paras, "\n\n"))
	if utf8.RuneCountInString(s) <= summaryBudget {
		return s
	}
	var sb strings.Builder
	n := 0
	for _, sent := range sentences(s) {
		l := utf8.RuneCountInString(sent) + 1
		if n+l > summaryBudget {
			break
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(sent)
		n += l
	}
	if sb.Len() == 0 {
		// 首句就超预算，硬截断
		return string([]rune(s)[:summaryBudget])
	}
	return sb.String()
}

// sentences 按 . ! ? 切句，保留句末标点
func sentences(s string) []string {
	var out []string
	start := 0
	rs := []rune(s)
	for i, r := range rs {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(rs) && !unicode.IsSpace(rs[i+1]) {
			continue
		}
		if sent := strings.TrimSpace(string(rs[start : i+1])); sent != "" {
			out = append(out, strings.Join(strings.Fields(sent), " "))
		}
		start = i + 1
	}
	if start < len(rs) {
		if sent := strings.TrimSpace(string(rs[start:])); sent != "" {
			out = append(out, strings.Join(strings.Fields(sent), " "))
		}
	}
	return out
}

const trimChars = ".,!?;:()[]{}\"'«»“”‘’-"

func tokens(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, trimChars)
		if utf8.RuneCountInString(w) <= 3 || isNumeric(w) {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range tokens(s) {
		set[w] = struct{}{}
	}
	return set
}

// topKeywords 词频降序，同频按首次出现
func topKeywords(content string, n int) []string {
	freq := map[string]int{}
	first := map[string]int{}
	var order []string
	for i, w := range tokens(content) {
		if _, seen := freq[w]; !seen {
			first[w] = i
			order = append(order, w)
		}
		freq[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if freq[a] != freq[b] {
			return freq[a] > freq[b]
		}
		return first[a] < first[b]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var stopWords = func() map[string]struct{} {
	words := []string{
		// en
		"about", "above", "after", "again", "against", "also", "because", "been", "before", "being",
		"below", "between", "both", "could", "does", "doing", "down", "during", "each", "from",
		"further", "have", "having", "here", "hers", "herself", "himself", "into", "itself", "just",
		"more", "most", "myself", "once", "only", "other", "ours", "ourselves", "over", "same",
		"should", "some", "such", "than", "that", "their", "theirs", "them", "themselves", "then",
		"there", "these", "they", "this", "those", "through", "under", "until", "very", "were",
		"what", "when", "where", "which", "while", "whom", "with", "would", "your", "yours",
		"yourself", "yourselves", "will", "shall", "might", "must", "upon", "within", "without",
		// tr
		"için", "olarak", "gibi", "kadar", "daha", "bazı", "olmak", "oldu", "olacak", "fakat",
		"ancak", "lakin", "çünkü", "zira", "madem", "mademki", "bunlar", "onlar", "bizim", "sizin",
		"onların", "benim", "senin", "onun", "tarafından", "hakkında", "üzerinde", "altında",
		"yanında", "karşısında", "önünde", "arkasında", "içinde", "dışında", "arasında", "yukarıda",
		"aşağıda", "sağında", "solunda", "öncesinde", "sonrasında", "sırasında", "esnasında",
		"zamanında", "vaktinde", "dolayı", "sebebiyle", "nedeniyle", "yüzünden", "sayesinde",
		"beraber", "birlikte",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
