// internal/agents/ingestion.go

// Package agents provides the built-in stage workers. Each worker satisfies
// a workflow contract (StageFunc or DraftFunc) and is deterministic: input
// classification, persona derivation, draft templating and scoring are all
// heuristic. Deployments with an LLM backend swap individual workers out at
// the WorkerSet level.
package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/sanitizer"
)

var (
	urlRe      = regexp.MustCompile(`https?://[^\s]+`)
	fieldRe    = regexp.MustCompile(`(?im)^\s*(company|role|industry)\s*[:=]\s*(.+)$`)
	atPhraseRe = regexp.MustCompile(`(?i)\b(?:at|@)\s+([A-Z][A-Za-z0-9&.\- ]{1,40})`)
)

// IngestionAgent turns the raw submission into stable identifiers and public
// business fields. The raw text is kept in RawProfileText for the persona
// stage, which clears it.
type IngestionAgent struct {
	Log *zap.Logger
}

// Run implements workflow.StageFunc.
func (a *IngestionAgent) Run(_ context.Context, st *model.PipelineState) (*model.PipelineState, error) {
	raw := strings.TrimSpace(st.RawInput)
	if raw == "" {
		return nil, fmt.Errorf("empty input")
	}

	st.TargetIdentifier = targetIdentifier(raw)
	st.TargetHash = sanitizer.ComputeTargetHash(st.TargetIdentifier)
	st.RawProfileText = raw
	st.Links = collectLinks(raw)

	for _, match := range fieldRe.FindAllStringSubmatch(raw, -1) {
		value := strings.TrimSpace(match[2])
		switch strings.ToLower(match[1]) {
		case "company":
			st.Company = value
		case "role":
			st.Role = value
		case "industry":
			st.Industry = value
		}
	}
	if st.Company == "" {
		if m := atPhraseRe.FindStringSubmatch(raw); m != nil {
			st.Company = strings.TrimSpace(m[1])
		}
	}
	if st.Role == "" {
		st.Role = guessRole(raw)
	}
	if st.Industry == "" {
		st.Industry = guessIndustry(raw)
	}

	if a.Log != nil {
		a.Log.Debug("ingestion extracted target",
			zap.String("company", st.Company),
			zap.String("role", st.Role),
			zap.String("industry", st.Industry),
			zap.Int("links", len(st.Links)))
	}
	return st, nil
}

// targetIdentifier picks the most stable handle in the input: a profile URL
// if present, otherwise an email address, otherwise the first line.
func targetIdentifier(raw string) string {
	for _, u := range urlRe.FindAllString(raw, -1) {
		if strings.Contains(u, "linkedin.com") {
			return u
		}
	}
	if u := urlRe.FindString(raw); u != "" {
		return u
	}
	if email := regexp.MustCompile(`[\w.\-+]+@[\w.\-]+\.\w{2,}`).FindString(raw); email != "" {
		return email
	}
	if i := strings.IndexByte(raw, '\n'); i > 0 {
		return strings.TrimSpace(raw[:i])
	}
	return raw
}

func collectLinks(raw string) map[string]string {
	links := make(map[string]string)
	for _, u := range urlRe.FindAllString(raw, -1) {
		u = strings.TrimRight(u, ".,;)")
		switch {
		case strings.Contains(u, "linkedin.com"):
			links["linkedin"] = u
		case strings.Contains(u, "github.com"):
			links["github"] = u
		case strings.Contains(u, "twitter.com"), strings.Contains(u, "x.com"):
			links["twitter"] = u
		default:
			if _, ok := links["website"]; !ok {
				links["website"] = u
			}
		}
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

var roleKeywords = []string{
	"CEO", "CTO", "CFO", "COO", "VP of Engineering", "VP of Sales",
	"Head of Growth", "Head of Marketing", "Engineering Manager",
	"Product Manager", "Software Engineer", "Founder", "Director",
}

func guessRole(raw string) string {
	lower := strings.ToLower(raw)
	for _, r := range roleKeywords {
		if strings.Contains(lower, strings.ToLower(r)) {
			return r
		}
	}
	return ""
}

// Ordered so repeated runs over the same input classify identically.
var industryKeywords = []struct{ keyword, label string }{
	{"fintech", "Fintech"},
	{"healthcare", "Healthcare"},
	{"saas", "SaaS"},
	{"e-commerce", "E-commerce"},
	{"ecommerce", "E-commerce"},
	{"logistics", "Logistics"},
	{"education", "Education"},
	{"ai", "Artificial Intelligence"},
	{"security", "Security"},
}

func guessIndustry(raw string) string {
	lower := strings.ToLower(raw)
	for _, entry := range industryKeywords {
		if containsWord(lower, entry.keyword) {
			return entry.label
		}
	}
	return ""
}

func containsWord(haystack, word string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(haystack)
}
