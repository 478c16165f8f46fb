package reducto

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"parsearena/internal/config"
	"parsearena/internal/domain"
	"parsearena/internal/port"
	"parsearena/internal/provider"
)

const defaultBaseURL = "https://platform.reducto.ai"

// Client implements port.Provider against the Reducto parse API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a Reducto adapter from a provider config.
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

func (c *Client) ID() domain.ProviderID { return domain.ProviderReducto }

type parseRequest struct {
	DocumentURL string         `json:"document_url"`
	Options     map[string]any `json:"options,omitempty"`
	Advanced    map[string]any `json:"advanced_options,omitempty"`
}

type parseResponse struct {
	Result struct {
		Chunks []struct {
			Blocks []struct {
				Type    string `json:"type"`
				Content string `json:"content"`
				BBox    struct {
					Page int `json:"page"`
				} `json:"bbox"`
			} `json:"blocks"`
		} `json:"chunks"`
	} `json:"result"`
	Usage struct {
		NumPages int     `json:"num_pages"`
		Credits  float64 `json:"credits"`
	} `json:"usage"`
}

// Parse submits the document inline and maps returned blocks back to pages.
func (c *Client) Parse(ctx context.Context, input port.ParseInput) (*domain.ProviderOutcome, error) {
	mode := "standard"
	summarizeFigures := false
	if opts, ok := input.Options.(*domain.ReductoOptions); ok && opts != nil {
		if opts.Mode != "" {
			mode = opts.Mode
		}
		summarizeFigures = opts.SummarizeFigures
	}

	encoded := base64.StdEncoding.EncodeToString(input.Document.Bytes)
	reqBody := parseRequest{
		DocumentURL: "data:application/pdf;base64," + encoded,
		Options: map[string]any{
			"extraction_mode": mode,
			"chunking":        map[string]any{"chunk_mode": "variable"},
		},
		Advanced: map[string]any{
			"add_page_markers":  true,
			"summarize_figures": summarizeFigures,
		},
	}
	if input.Mode == domain.ModeSinglePage {
		reqBody.Advanced["page_range"] = map[string]int{
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

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, provider.NewTransient(domain.ProviderReducto, fmt.Errorf("calling reducto API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewTransient(domain.ProviderReducto, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.FromStatus(domain.ProviderReducto, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	var parsed parseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, provider.NewTransient(domain.ProviderReducto, fmt.Errorf("decoding response: %w", err))
	}

	pages := assemblePages(&parsed)
	numPages := parsed.Usage.NumPages
	if numPages == 0 {
		numPages = len(pages)
	}

	return &domain.ProviderOutcome{
		Provider: domain.ProviderReducto,
		Pages:    pages,
		Usage: domain.Usage{
			Pages:   numPages,
			Credits: parsed.Usage.Credits,
			Details: map[string]string{
				"mode":              mode,
				"summarize_figures": strconv.FormatBool(summarizeFigures),
			},
		},
	}, nil
}

// assemblePages groups chunk blocks by page number and concatenates their
// content in document order.
func assemblePages(parsed *parseResponse) []domain.PageResult {
	byPage := make(map[int][]string)
	for _, chunk := range parsed.Result.Chunks {
		for _, block := range chunk.Blocks {
			page := block.BBox.Page
			if page < 1 {
				page = 1
			}
			byPage[page] = append(byPage[page], block.Content)
		}
	}

	pageNums := make([]int, 0, len(byPage))
	for n := range byPage {
		pageNums = append(pageNums, n)
	}
	sort.Ints(pageNums)

	pages := make([]domain.PageResult, 0, len(pageNums))
	for _, n := range pageNums {
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
			Metadata:   map[string]any{"block_count": len(byPage[n])},
		})
	}
	return pages
}
