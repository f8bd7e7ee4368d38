package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var reImagePlaceholder = regexp.MustCompile(`!\[.*?\]\(.*?\)`)

// Config for the Mistral OCR client.
type Config struct {
	APIKey       string
	BaseURL      string        // default https://api.mistral.ai/v1
	Model        string        // e.g. "mistral-ocr-latest"
	SignedURLTTL time.Duration // validity window requested for the document URL
	HTTPTimeout  time.Duration
}

// Client extracts per-page markdown from a PDF via the Mistral OCR API:
// upload the document, fetch a short-lived signed URL, then run OCR on it.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral-ocr-latest"
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 10 * time.Minute
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		log:        logger,
	}
}

type uploadedFile struct {
	ID string `json:"id"`
}

type signedURL struct {
	URL string `json:"url"`
}

type ocrResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// ExtractPages runs the full upload → signed URL → OCR flow and returns the
// cleaned markdown of every page, in page order. A zero-page document yields
// an empty non-nil slice.
func (c *Client) ExtractPages(ctx context.Context, pdfName string, pdfBytes []byte) ([]string, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("ocr: api key not configured")
	}
	if pdfName == "" || len(pdfBytes) == 0 {
		return nil, fmt.Errorf("ocr: pdf name or content missing")
	}

	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("ocr.start", "req_id", rid, "file", pdfName, "bytes", len(pdfBytes), "model", c.cfg.Model)

	file, err := c.upload(ctx, pdfName, pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("upload pdf: %w", err)
	}
	c.log.Debug("ocr.uploaded", "req_id", rid, "file_id", file.ID)

	u, err := c.signedURLFor(ctx, file.ID)
	if err != nil {
		return nil, fmt.Errorf("get signed url: %w", err)
	}

	body := map[string]any{
		"model": c.cfg.Model,
		"document": map[string]any{
			"type":         "document_url",
			"document_url": u.URL,
		},
		"include_image_base64": false,
	}
	var resp ocrResponse
	if err := c.postJSON(ctx, "/ocr", body, &resp); err != nil {
		return nil, fmt.Errorf("run ocr: %w", err)
	}

	pages := make([]string, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		pages = append(pages, cleanMarkdown(p.Markdown))
	}
	c.log.Info("ocr.ok", "req_id", rid, "pages", len(pages), "elapsed_ms", time.Since(start).Milliseconds())
	return pages, nil
}

// cleanMarkdown drops image placeholders; only text is useful downstream.
func cleanMarkdown(markdown string) string {
	return strings.TrimSpace(reImagePlaceholder.ReplaceAllString(markdown, ""))
}

func (c *Client) upload(ctx context.Context, name string, content []byte) (*uploadedFile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "ocr"); err != nil {
		return nil, err
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/files", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out uploadedFile
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("upload returned no file id")
	}
	return &out, nil
}

func (c *Client) signedURLFor(ctx context.Context, fileID string) (*signedURL, error) {
	expiry := int(c.cfg.SignedURLTTL / time.Minute)
	path := fmt.Sprintf("/files/%s/url?expiry=%d", fileID, expiry)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	var out signedURL
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, fmt.Errorf("no signed url in response")
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(bs))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mistral http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			c.log.Warn("mistral response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mistral status %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode mistral response: %w", err)
	}
	return nil
}
