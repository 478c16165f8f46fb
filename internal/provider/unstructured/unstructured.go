package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"parsearena/internal/config"
	"parsearena/internal/domain"
	"parsearena/internal/port"
	"parsearena/internal/provider"
)

const (
	defaultBaseURL  = "https://api.unstructuredapp.io"
	defaultStrategy = "hi_res"
)

// Client implements port.Provider against the Unstructured partition API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates an Unstructured adapter from a provider config.
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

func (c *Client) ID() domain.ProviderID { return domain.ProviderUnstructured }

type element struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Metadata struct {
		PageNumber int `json:"page_number"`
	} `json:"metadata"`
}

// Parse partitions the whole document; the API has no page selection, so
// single-page jobs filter elements afterwards.
func (c *Client) Parse(ctx context.Context, input port.ParseInput) (*domain.ProviderOutcome, error) {
	strategy := defaultStrategy
	vlmModel := ""
	if opts, ok := input.Options.(*domain.UnstructuredOptions); ok && opts != nil {
		if opts.Strategy != "" {
			strategy = opts.Strategy
		}
		vlmModel = opts.VLMModel
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", input.Document.OriginalName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(input.Document.Bytes); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	_ = writer.WriteField("strategy", strategy)
	_ = writer.WriteField("output_format", "application/json")
	if strategy == "vlm" && vlmModel != "" {
		_ = writer.WriteField("vlm_model", vlmModel)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/general/v0/general", body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("unstructured-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, provider.NewTransient(domain.ProviderUnstructured, fmt.Errorf("calling unstructured API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewTransient(domain.ProviderUnstructured, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.FromStatus(domain.ProviderUnstructured, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	var elements []element
	if err := json.Unmarshal(respBody, &elements); err != nil {
		return nil, provider.NewTransient(domain.ProviderUnstructured, fmt.Errorf("decoding response: %w", err))
	}

	pages := assemblePages(elements, input)

	details := map[string]string{"strategy": strategy}
	if vlmModel != "" {
		details["vlm_model"] = vlmModel
	}
	return &domain.ProviderOutcome{
		Provider: domain.ProviderUnstructured,
		Pages:    pages,
		Usage: domain.Usage{
			Pages:   len(pages),
			Details: details,
		},
	}, nil
}

func assemblePages(elements []element, input port.ParseInput) []domain.PageResult {
	byPage := make(map[int][]string)
	counts := make(map[int]int)
	for _, el := range elements {
		page := el.Metadata.PageNumber
		if page < 1 {
			page = 1
		}
		if input.Mode == domain.ModeSinglePage && page != input.PageNumber {
			continue
		}
		text := el.Text
		if el.Type == "Title" {
			text = "## " + text
		}
		byPage[page] = append(byPage[page], text)
		counts[page]++
	}

	pageNums := make([]int, 0, len(byPage))
	for n := range byPage {
		pageNums = append(pageNums, n)
	}
	sort.Ints(pageNums)

	pages := make([]domain.PageResult, 0, len(pageNums))
	for _, n := range pageNums {
		content := ""
		for i, t := range byPage[n] {
			if i > 0 {
				content += "\n\n"
			}
			content += t
		}
		pages = append(pages, domain.PageResult{
			PageNumber: n,
			Content:    content,
			Metadata:   map[string]any{"element_count": counts[n]},
		})
	}
	return pages
}
