package landingai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"parsearena/internal/config"
	"parsearena/internal/domain"
	"parsearena/internal/port"
	"parsearena/internal/provider"
)

const (
	defaultBaseURL = "https://api.va.landing.ai"
	defaultModel   = "dpt-2"

	// Fixed rate LandingAI bills per analyzed page.
	creditsPerPage = 3
)

// Client implements port.Provider against the LandingAI agentic document
// analysis API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a LandingAI adapter from a provider config.
func New(cfg *config.ProviderConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) ID() domain.ProviderID { return domain.ProviderLandingAI }

type analysisResponse struct {
	Data struct {
		Markdown string `json:"markdown"`
		Chunks   []struct {
			Text      string `json:"text"`
			ChunkType string `json:"chunk_type"`
			Grounding []struct {
				Page int `json:"page"`
			} `json:"grounding"`
		} `json:"chunks"`
	} `json:"data"`
}

func (c *Client) Parse(ctx context.Context, input port.ParseInput) (*domain.ProviderOutcome, error) {
	model := defaultModel
	if opts, ok := input.Options.(*domain.LandingAIOptions); ok && opts != nil && opts.Model != "" {
		model = opts.Model
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("pdf", input.Document.OriginalName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(input.Document.Bytes); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	_ = writer.WriteField("model", model)
	if input.Mode == domain.ModeSinglePage {
		// LandingAI page indices are 0-based.
		page := strconv.Itoa(input.PageNumber - 1)
		_ = writer.WriteField("pages", page)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tools/agentic-document-analysis", body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, provider.NewTransient(domain.ProviderLandingAI, fmt.Errorf("calling landingai API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewTransient(domain.ProviderLandingAI, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.FromStatus(domain.ProviderLandingAI, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	var parsed analysisResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, provider.NewTransient(domain.ProviderLandingAI, fmt.Errorf("decoding response: %w", err))
	}

	pages := assemblePages(&parsed, input)
	return &domain.ProviderOutcome{
		Provider: domain.ProviderLandingAI,
		Pages:    pages,
		Usage: domain.Usage{
			Pages:   len(pages),
			Credits: float64(len(pages) * creditsPerPage),
			Details: map[string]string{"model": model},
		},
	}, nil
}

// assemblePages groups chunks by their first grounding page. Chunks without
// grounding land on the requested page (single page mode) or page 1.
func assemblePages(parsed *analysisResponse, input port.ParseInput) []domain.PageResult {
	fallbackPage := 1
	if input.Mode == domain.ModeSinglePage {
		fallbackPage = input.PageNumber
	}

	byPage := make(map[int][]string)
	var order []int
	for _, chunk := range parsed.Data.Chunks {
		page := fallbackPage
		if len(chunk.Grounding) > 0 && chunk.Grounding[0].Page >= 0 {
			// Grounding pages are 0-based.
			page = chunk.Grounding[0].Page + 1
		}
		if _, seen := byPage[page]; !seen {
			order = append(order, page)
		}
		byPage[page] = append(byPage[page], chunk.Text)
	}

	if len(byPage) == 0 && parsed.Data.Markdown != "" {
		return []domain.PageResult{{
			PageNumber: fallbackPage,
			Content:    parsed.Data.Markdown,
		}}
	}

	pages := make([]domain.PageResult, 0, len(order))
	for _, n := range order {
		content := ""
		for i, c := range byPage[n] {
			if i > 0 {
				content += "\n\n"
			}
			content += c
		}
		pages = append(pages, domain.PageResult{
			PageNumber: n,
			Content:    content,
			Metadata:   map[string]any{"chunk_count": len(byPage[n])},
		})
	}
	return pages
}
