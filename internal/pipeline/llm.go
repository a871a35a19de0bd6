package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadenrich/internal/config"
	"github.com/sells-group/leadenrich/internal/model"
	"github.com/sells-group/leadenrich/pkg/anthropic"
)

const classifyPromptTemplate = `You are evaluating a business website for a reputation management / review alert service.
The target niche is: %s

Analyze this website and return ONLY a valid JSON object — no explanation, no markdown, no extra text.

{
  "fits_niche": true or false,
  "skip_reason": "required string if fits_niche is false, otherwise null",
  "owner_name": "string or null",
  "estimated_company_size": "small / medium / large",
  "site_appears_active": true or false,
  "multi_platform_mentions": true or false,
  "platforms_found": ["list of platforms found e.g. Yelp, Google, Thumbtack, Angi, HomeAdvisor, BBB, Houzz"],
  "score": 0-100
}

DEFINITIONS:
- multi_platform_mentions: Site mentions or links to any of these platforms: Yelp, Thumbtack, Google Reviews, Angi, HomeAdvisor, BBB, Houzz

%s
If fits_niche is false, skip_reason must be a clear one-sentence explanation.`

// scoringLines fixes the rendering order of the per-deployment point table.
// Keys absent from the table are omitted from the prompt.
var scoringLines = []struct {
	key    string
	label  string
	deduct bool
}{
	{"multi_platform_mentions", "multi_platform_mentions = true", false},
	{"site_appears_active", "site_appears_active = true", false},
	{"site_appears_inactive", "site_appears_active = false", true},
	{"no_multi_platform_mentions", "multi_platform_mentions = false", true},
}

// BuildClassifyPrompt renders the instruction template for a niche and a
// scoring point table. The table is declarative: the collaborator applies
// the deltas, and the receiving side re-clamps regardless.
func BuildClassifyPrompt(niche string, scoring map[string]int) string {
	var add, deduct []string
	for _, line := range scoringLines {
		delta, ok := scoring[line.key]
		if !ok {
			continue
		}
		entry := fmt.Sprintf("- %s: %+d", line.label, delta)
		if line.deduct {
			deduct = append(deduct, entry)
		} else {
			add = append(add, entry)
		}
	}

	var b strings.Builder
	b.WriteString("SCORING GUIDE (score must stay between 0 and 100):\n")
	if len(add) > 0 {
		b.WriteString("\nADD points:\n")
		b.WriteString(strings.Join(add, "\n"))
		b.WriteString("\n")
	}
	if len(deduct) > 0 {
		b.WriteString("\nDEDUCT points:\n")
		b.WriteString(strings.Join(deduct, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\nScore cannot go below 0 or above 100.\n")

	return fmt.Sprintf(classifyPromptTemplate, niche, b.String())
}

// LLMExtractor is the collaborator-backed extraction profile: it sends the
// page text to Claude and coerces the strict-JSON response into a Record at
// this boundary, never downstream.
type LLMExtractor struct {
	client  anthropic.Client
	cfg     config.AnthropicConfig
	prompt  string
	timeout time.Duration
}

// NewLLMExtractor creates an LLMExtractor for one niche profile.
func NewLLMExtractor(client anthropic.Client, cfg config.AnthropicConfig, niche config.NicheConfig) *LLMExtractor {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &LLMExtractor{
		client:  client,
		cfg:     cfg,
		prompt:  BuildClassifyPrompt(niche.Description, niche.Scoring),
		timeout: timeout,
	}
}

func (e *LLMExtractor) Name() string { return "llm" }

// classifyPayload is the loosely-typed shape the collaborator returns.
// Boolean-ish fields stay `any` so string booleans can be coerced once here.
type classifyPayload struct {
	FitsNiche             any      `json:"fits_niche"`
	SkipReason            *string  `json:"skip_reason"`
	OwnerName             *string  `json:"owner_name"`
	EstimatedCompanySize  string   `json:"estimated_company_size"`
	SiteAppearsActive     any      `json:"site_appears_active"`
	MultiPlatformMentions any      `json:"multi_platform_mentions"`
	PlatformsFound        []string `json:"platforms_found"`
	Score                 any      `json:"score"`
}

// Extract classifies one page. Failures map to ParseError when the response
// is not a JSON object and to ClassificationError for everything else.
func (e *LLMExtractor) Extract(ctx context.Context, lead model.Lead, pageURL, pageText string) (*model.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.cfg.Model,
		MaxTokens:   int64(e.cfg.MaxTokens),
		System:      e.prompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf("Website URL: %s\n\nWebsite content:\n%s", pageURL, pageText)},
		},
	})
	if err != nil {
		return nil, &ExtractError{
			Status: model.StatusClassifyError,
			Err:    eris.Wrap(err, "classify: create message"),
		}
	}
	resp.Usage.LogCost(e.cfg.Model, "classify")

	var payload classifyPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text())), &payload); err != nil {
		return nil, &ExtractError{
			Status: model.StatusParseError,
			Err:    eris.Wrap(err, "classify: parse response"),
		}
	}

	rec := model.NewRecord(lead.RowIndex)
	rec.SkipReason = ""
	if payload.SkipReason != nil {
		rec.SkipReason = *payload.SkipReason
	}
	if payload.OwnerName != nil {
		rec.OwnerName = *payload.OwnerName
	}
	rec.FitsNiche = coerceBool(payload.FitsNiche)
	rec.SiteActive = coerceBool(payload.SiteAppearsActive)
	rec.MultiPlatform = coerceBool(payload.MultiPlatformMentions)
	rec.PlatformsFound = payload.PlatformsFound
	rec.CompanySize = parseCompanySize(payload.EstimatedCompanySize)
	rec.Score = model.Int(clampScore(payload.Score))

	return rec, nil
}

// parseCompanySize maps the collaborator's size string onto the enum,
// tolerating case and surrounding noise. Unknown values stay empty.
func parseCompanySize(s string) model.CompanySize {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return model.SizeSmall
	case "medium":
		return model.SizeMedium
	case "large":
		return model.SizeLarge
	default:
		return ""
	}
}
