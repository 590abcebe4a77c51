// Package lookup is a thin client for the resource lookup backend: language
// directory, shared resource types, and document generation requests.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default endpoint paths under the API root.
const (
	DefaultLangCodesNamesPath      = "/language_codes_and_names"
	DefaultSharedResourceTypesPath = "/shared_resource_types/"
	DefaultResourceCodesPath       = "/resource_codes_for_lang/"
	DefaultDocumentsPath           = "/documents"
)

// Language is one entry of the language directory. The backend serializes it
// as a three-element JSON array: [code, name, isGateway].
type Language struct {
	Code      string
	Name      string
	IsGateway bool
}

// UnmarshalJSON decodes the [code, name, isGateway] tuple form.
func (l *Language) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("language entry is not an array: %w", err)
	}
	if len(tuple) != 3 {
		return fmt.Errorf("language entry has %d elements, want 3", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &l.Code); err != nil {
		return fmt.Errorf("language code: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &l.Name); err != nil {
		return fmt.Errorf("language name: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &l.IsGateway); err != nil {
		return fmt.Errorf("language gateway flag: %w", err)
	}
	return nil
}

// TypePair is one entry of the shared resource types response, serialized by
// the backend as a two-element JSON array: [typeCode, typeName].
type TypePair struct {
	Code string
	Name string
}

// UnmarshalJSON decodes the [typeCode, typeName] tuple form.
func (p *TypePair) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("resource type entry is not an array: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("resource type entry has %d elements, want 2", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &p.Code); err != nil {
		return fmt.Errorf("resource type code: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &p.Name); err != nil {
		return fmt.Errorf("resource type name: %w", err)
	}
	return nil
}

// Client issues lookup queries against the backend API root.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Endpoint paths, overridable for nonstandard deployments.
	LangCodesNamesPath      string
	SharedResourceTypesPath string
	ResourceCodesPath       string
	DocumentsPath           string
}

// New creates a lookup client for the given API root.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:                 strings.TrimRight(baseURL, "/"),
		HTTPClient:              &http.Client{Timeout: 30 * time.Second},
		LangCodesNamesPath:      DefaultLangCodesNamesPath,
		SharedResourceTypesPath: DefaultSharedResourceTypesPath,
		ResourceCodesPath:       DefaultResourceCodesPath,
		DocumentsPath:           DefaultDocumentsPath,
	}
}

// LangCodesNames fetches the full language directory.
// Non-2xx responses are returned as an error carrying the status text.
func (c *Client) LangCodesNames(ctx context.Context) ([]Language, error) {
	body, err := c.get(ctx, c.BaseURL+c.LangCodesNamesPath, false)
	if err != nil {
		return nil, fmt.Errorf("language directory: %w", err)
	}

	var langs []Language
	if err := json.Unmarshal(body, &langs); err != nil {
		return nil, fmt.Errorf("language directory: decode: %w", err)
	}
	return langs, nil
}

// SharedResourceTypes fetches the resource types available for a language
// across all of the given books. Book codes are sent as repeated query
// parameters. Non-2xx responses are returned as an error carrying the status
// text.
func (c *Client) SharedResourceTypes(ctx context.Context, langCode string, bookCodes []string) ([]TypePair, error) {
	u, err := url.Parse(c.BaseURL + c.SharedResourceTypesPath + url.PathEscape(langCode) + "/")
	if err != nil {
		return nil, fmt.Errorf("shared resource types: build url: %w", err)
	}
	q := u.Query()
	for _, code := range bookCodes {
		q.Add("book_codes", code)
	}
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String(), false)
	if err != nil {
		return nil, fmt.Errorf("shared resource types: %w", err)
	}

	var pairs []TypePair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("shared resource types: decode: %w", err)
	}
	return pairs, nil
}

// ResourceCodesForLang fetches the resource codes published for a language.
// Non-2xx responses are returned as an error carrying the response body.
func (c *Client) ResourceCodesForLang(ctx context.Context, langCode string) ([]string, error) {
	body, err := c.get(ctx, c.BaseURL+c.ResourceCodesPath+url.PathEscape(langCode), true)
	if err != nil {
		return nil, fmt.Errorf("resource codes: %w", err)
	}

	var codes []string
	if err := json.Unmarshal(body, &codes); err != nil {
		return nil, fmt.Errorf("resource codes: decode: %w", err)
	}
	return codes, nil
}

// ResourceRequest is one (language, resource type, book) cell of a document
// generation request.
type ResourceRequest struct {
	LangCode     string `json:"lang_code"`
	ResourceType string `json:"resource_type"`
	BookCode     string `json:"book_code"`
}

// DocumentRequest is the payload submitted to the document composer backend.
type DocumentRequest struct {
	Email            string            `json:"email,omitempty"`
	AssemblyStrategy string            `json:"assembly_strategy"`
	ChunkSize        string            `json:"chunk_size"`
	LayoutForPrint   bool              `json:"layout_for_print"`
	GeneratePDF      bool              `json:"generate_pdf"`
	GenerateEPub     bool              `json:"generate_epub"`
	GenerateDocx     bool              `json:"generate_docx"`
	Resources        []ResourceRequest `json:"resource_requests"`
}

// RequestDocument submits a generation request and returns the opaque task
// key assigned by the backend.
func (c *Client) RequestDocument(ctx context.Context, req DocumentRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("document request: encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+c.DocumentsPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("document request: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("document request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("document request: status %s", resp.Status)
	}

	var result struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("document request: decode: %w", err)
	}
	if result.TaskID == "" {
		return "", fmt.Errorf("document request: backend returned no task key")
	}
	return result.TaskID, nil
}

// get issues a GET and returns the body for 2xx responses. For non-2xx the
// error carries either the status text or, when bodyInError is set, the
// response body.
func (c *Client) get(ctx context.Context, rawURL string, bodyInError bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if bodyInError {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return body, nil
}
