package extendai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"parsearena/internal/config"
	"parsearena/internal/domain"
	"parsearena/internal/port"
	"parsearena/internal/provider"
)

const defaultBaseURL = "https://api.extend.ai"

// Client implements port.Provider against the Extend parse API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates an Extend adapter from a provider config.
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

func (c *Client) ID() domain.ProviderID { return domain.ProviderExtendAI }

type parseRequest struct {
	File struct {
		FileName string `json:"fileName"`
		Contents string `json:"contents"`
	} `json:"file"`
	Config map[string]any `json:"config,omitempty"`
}

type parseResponse struct {
	Pages []struct {
		PageNumber int    `json:"pageNumber"`
		Markdown   string `json:"markdown"`
	} `json:"pages"`
	Metrics struct {
		PageCount        int   `json:"pageCount"`
		ProcessingTimeMS int64 `json:"processingTimeMs"`
	} `json:"metrics"`
}

func (c *Client) Parse(ctx context.Context, input port.ParseInput) (*domain.ProviderOutcome, error) {
	agenticOCR := false
	if opts, ok := input.Options.(*domain.ExtendAIOptions); ok && opts != nil {
		agenticOCR = opts.AgenticOCR
	}

	var reqBody parseRequest
	reqBody.File.FileName = input.Document.OriginalName
	reqBody.File.Contents = base64.StdEncoding.EncodeToString(input.Document.Bytes)
	reqBody.Config = map[string]any{"agenticOcr": agenticOCR}
	if input.Mode == domain.ModeSinglePage {
		reqBody.Config["pageRange"] = map[string]int{
			"start": input.PageNumber,
			"end":   input.PageNumber,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("x-extend-api-version", "2025-04-21")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, provider.NewTransient(domain.ProviderExtendAI, fmt.Errorf("calling extend API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewTransient(domain.ProviderExtendAI, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.FromStatus(domain.ProviderExtendAI, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	var parsed parseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, provider.NewTransient(domain.ProviderExtendAI, fmt.Errorf("decoding response: %w", err))
	}

	pages := make([]domain.PageResult, 0, len(parsed.Pages))
	for _, p := range parsed.Pages {
		pages = append(pages, domain.PageResult{
			PageNumber: p.PageNumber,
			Content:    p.Markdown,
			Metadata:   map[string]any{"processing_time_ms": parsed.Metrics.ProcessingTimeMS},
		})
	}
	numPages := parsed.Metrics.PageCount
	if numPages == 0 {
		numPages = len(pages)
	}

	mode := "standard"
	if agenticOCR {
		mode = "agentic-ocr"
	}
	return &domain.ProviderOutcome{
		Provider: domain.ProviderExtendAI,
		Pages:    pages,
		Usage: domain.Usage{
			Pages: numPages,
			Details: map[string]string{
				"mode":        mode,
				"agentic_ocr": strconv.FormatBool(agenticOCR),
			},
		},
	}, nil
}
