package llamaindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"parsearena/internal/config"
	"parsearena/internal/domain"
	"parsearena/internal/port"
	"parsearena/internal/provider"
)

const (
	defaultBaseURL   = "https://api.cloud.llamaindex.ai"
	defaultParseMode = "parse_page_with_agent"
	defaultModel     = "openai-gpt-4-1-mini"

	pollInterval = 2 * time.Second
)

// Client implements port.Provider against the LlamaParse job API:
// upload, poll until terminal, then fetch the markdown result.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a LlamaParse adapter from a provider config.
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

func (c *Client) ID() domain.ProviderID { return domain.ProviderLlamaIndex }

type uploadResponse struct {
	ID string `json:"id"`
}

type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"` // PENDING, SUCCESS, ERROR, CANCELLED
	Error  string `json:"error_message"`
}

type resultResponse struct {
	Pages []struct {
		Page int    `json:"page"`
		MD   string `json:"md"`
	} `json:"pages"`
	JobMetadata struct {
		CreditsUsed float64 `json:"job_credits_usage"`
		JobPages    int     `json:"job_pages"`
	} `json:"job_metadata"`
}

func (c *Client) Parse(ctx context.Context, input port.ParseInput) (*domain.ProviderOutcome, error) {
	parseMode := defaultParseMode
	model := defaultModel
	if opts, ok := input.Options.(*domain.LlamaIndexOptions); ok && opts != nil {
		if opts.ParseMode != "" {
			parseMode = opts.ParseMode
		}
		if opts.Model != "" {
			model = opts.Model
		}
	}

	jobID, err := c.upload(ctx, input, parseMode, model)
	if err != nil {
		return nil, err
	}
	if err := c.waitForJob(ctx, jobID); err != nil {
		return nil, err
	}

	result, err := c.fetchResult(ctx, jobID)
	if err != nil {
		return nil, err
	}

	pages := make([]domain.PageResult, 0, len(result.Pages))
	for _, p := range result.Pages {
		pages = append(pages, domain.PageResult{
			PageNumber: p.Page,
			Content:    p.MD,
			Metadata:   map[string]any{"job_id": jobID},
		})
	}
	numPages := result.JobMetadata.JobPages
	if numPages == 0 {
		numPages = len(pages)
	}

	return &domain.ProviderOutcome{
		Provider: domain.ProviderLlamaIndex,
		Pages:    pages,
		Usage: domain.Usage{
			Pages:   numPages,
			Credits: result.JobMetadata.CreditsUsed,
			Details: map[string]string{
				"parse_mode": parseMode,
				"model":      model,
			},
		},
	}, nil
}

func (c *Client) upload(ctx context.Context, input port.ParseInput, parseMode, model string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", input.Document.OriginalName)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(input.Document.Bytes); err != nil {
		return "", fmt.Errorf("writing form file: %w", err)
	}
	_ = writer.WriteField("parse_mode", parseMode)
	_ = writer.WriteField("model", model)
	if input.Mode == domain.ModeSinglePage {
		// LlamaParse target_pages is 0-indexed.
		_ = writer.WriteField("target_pages", fmt.Sprintf("%d", input.PageNumber-1))
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/parsing/upload", body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var upload uploadResponse
	if err := c.do(req, &upload); err != nil {
		return "", err
	}
	if upload.ID == "" {
		return "", provider.NewTransient(domain.ProviderLlamaIndex, fmt.Errorf("upload returned no job id"))
	}
	return upload.ID, nil
}

// waitForJob polls the job endpoint until it reaches a terminal status or
// ctx expires.
func (c *Client) waitForJob(ctx context.Context, jobID string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/parsing/job/"+jobID, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		var job jobResponse
		if err := c.do(req, &job); err != nil {
			return err
		}

		switch job.Status {
		case "SUCCESS":
			return nil
		case "ERROR", "CANCELLED":
			return provider.NewPermanent(domain.ProviderLlamaIndex,
				fmt.Errorf("job %s finished with status %s: %s", jobID, job.Status, job.Error))
		}

		select {
		case <-ctx.Done():
			return provider.NewTransient(domain.ProviderLlamaIndex,
				fmt.Errorf("waiting for job %s: %w", jobID, ctx.Err()))
		case <-ticker.C:
		}
	}
}

func (c *Client) fetchResult(ctx context.Context, jobID string) (*resultResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/parsing/job/"+jobID+"/result/markdown", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var result resultResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return provider.NewTransient(domain.ProviderLlamaIndex, fmt.Errorf("calling llamaindex API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.NewTransient(domain.ProviderLlamaIndex, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return provider.FromStatus(domain.ProviderLlamaIndex, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return provider.NewTransient(domain.ProviderLlamaIndex, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
