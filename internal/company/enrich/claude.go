package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/relaycrm/relay/internal/company/models"
)

const (
	defaultModel = "claude-sonnet-4-5-20250929"
	maxPageBytes = 64 * 1024
)

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ClaudeProvider enriches a company by fetching its website and asking
// Claude to extract structured business facts from the page.
type ClaudeProvider struct {
	client sdk.Client
	http   *http.Client
	model  string
	logger *zap.Logger
}

func NewClaudeProvider(apiKey, model string, logger *zap.Logger) *ClaudeProvider {
	if model == "" {
		model = defaultModel
	}
	return &ClaudeProvider{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		http:   &http.Client{},
		model:  model,
		logger: logger.Named("enrichment_provider"),
	}
}

// lookupResult is the JSON contract the model is asked to return.
type lookupResult struct {
	Description   string `json:"description"`
	Industry      string `json:"industry"`
	EmployeeRange string `json:"employeeRange"`
	Revenue       string `json:"revenue"`
	FoundedYear   *int   `json:"foundedYear"`
	Location      string `json:"location"`
}

func (p *ClaudeProvider) Lookup(ctx context.Context, name, website string) (*models.CompanyUpdate, error) {
	page, err := p.fetchPage(ctx, website)
	if err != nil {
		return nil, fmt.Errorf("fetch website: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze this company website content and extract key business facts.

Company Name: %s
Website: %s

Page Content:
%s

Respond with JSON only, using this shape:
{
  "description": "clear 2-3 sentence description of what the company does",
  "industry": "primary industry (e.g. SaaS, Manufacturing, Healthcare)",
  "employeeRange": "estimated employee range (e.g. 1-10, 11-50, 51-200, 201-500, 500+)",
  "revenue": "estimated revenue if mentioned, else \"Unknown\"",
  "foundedYear": founded year as a number, or null,
  "location": "headquarters location if mentioned, else \"\"
}`, name, website, page)

	msg, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: 1024,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("enrichment model call: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	raw := jsonObject.FindString(text.String())
	if raw == "" {
		return nil, fmt.Errorf("provider returned no JSON object")
	}

	var result lookupResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse provider response: %w", err)
	}

	p.logger.Debug("enrichment lookup complete",
		zap.String("company", name),
		zap.String("website", website),
	)
	return result.toUpdate(), nil
}

func (r *lookupResult) toUpdate() *models.CompanyUpdate {
	update := &models.CompanyUpdate{}
	if v := strings.TrimSpace(r.Description); v != "" {
		update.Description = &v
	}
	if v := strings.TrimSpace(r.Industry); v != "" {
		update.Industry = &v
	}
	if v := strings.TrimSpace(r.EmployeeRange); v != "" {
		update.Size = &v
	}
	if v := strings.TrimSpace(r.Revenue); v != "" && !strings.EqualFold(v, "unknown") {
		update.Revenue = &v
	}
	if v := strings.TrimSpace(r.Location); v != "" {
		update.Location = &v
	}
	if r.FoundedYear != nil {
		update.FoundedYear = r.FoundedYear
	}
	return update
}

// fetchPage downloads the company homepage, capped at maxPageBytes.
func (p *ClaudeProvider) fetchPage(ctx context.Context, website string) (string, error) {
	raw := website
	if !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("website returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
