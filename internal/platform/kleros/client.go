// Package kleros fetches dispute meta-evidence and evidence documents from
// the Kleros API and content gateway.
package kleros

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// Client is the REST client for the Kleros API and its CDN.
type Client struct {
	apiURL     string
	cdnURL     string
	ipfsURL    string
	httpClient *http.Client
}

// NewClient creates a new Kleros client.
//
// apiURL is the functions root, e.g.
// "https://kleros-api.netlify.app/.netlify/functions"; cdnURL serves
// content-addressed JSON, e.g. "https://cdn.kleros.link"; ipfsURL is used to
// build links to policy documents.
func NewClient(apiURL, cdnURL, ipfsURL string) *Client {
	return &Client{
		apiURL:  strings.TrimRight(apiURL, "/"),
		cdnURL:  strings.TrimRight(cdnURL, "/"),
		ipfsURL: strings.TrimRight(ipfsURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchMetaEvidenceURI asks the Kleros API which meta-evidence a dispute was
// created with. It returns domain.ErrNotFound when the API knows none.
func (c *Client) FetchMetaEvidenceURI(ctx context.Context, chainID int64, disputeID string) (string, error) {
	params := url.Values{}
	params.Set("chainId", strconv.FormatInt(chainID, 10))
	params.Set("disputeId", disputeID)

	body, err := c.doGet(ctx, c.apiURL+"/get-dispute-metaevidence?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("kleros: get meta-evidence uri %s: %w", disputeID, err)
	}

	var resp struct {
		MetaEvidenceURI string `json:"metaEvidenceUri"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("kleros: decode meta-evidence uri: %w", err)
	}
	if resp.MetaEvidenceURI == "" {
		return "", fmt.Errorf("kleros: meta-evidence uri %s: %w", disputeID, domain.ErrNotFound)
	}
	return resp.MetaEvidenceURI, nil
}

// FetchMetaEvidence downloads and decodes a meta-evidence document.
func (c *Client) FetchMetaEvidence(ctx context.Context, uri string) (domain.MetaEvidence, error) {
	body, err := c.doGet(ctx, c.ContentURL(uri))
	if err != nil {
		return domain.MetaEvidence{}, fmt.Errorf("kleros: get meta-evidence %s: %w", uri, err)
	}

	var meta domain.MetaEvidence
	if err := json.Unmarshal(body, &meta); err != nil {
		return domain.MetaEvidence{}, fmt.Errorf("kleros: decode meta-evidence: %w", err)
	}
	return meta, nil
}

// FetchEvidenceContents downloads and decodes one evidence document.
func (c *Client) FetchEvidenceContents(ctx context.Context, uri string) (domain.EvidenceContents, error) {
	body, err := c.doGet(ctx, c.ContentURL(uri))
	if err != nil {
		return domain.EvidenceContents{}, fmt.Errorf("kleros: get evidence %s: %w", uri, err)
	}

	var contents domain.EvidenceContents
	if err := json.Unmarshal(body, &contents); err != nil {
		return domain.EvidenceContents{}, fmt.Errorf("kleros: decode evidence: %w", err)
	}
	return contents, nil
}

// ContentURL resolves a content URI (e.g. "/ipfs/Qm.../file.json") against
// the CDN. Absolute http(s) URIs are returned unchanged; ipfs:// URIs are
// rewritten onto the CDN.
func (c *Client) ContentURL(uri string) string {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return uri
	case strings.HasPrefix(uri, "ipfs://"):
		return c.cdnURL + "/ipfs/" + strings.TrimPrefix(uri, "ipfs://")
	case strings.HasPrefix(uri, "/"):
		return c.cdnURL + uri
	default:
		return c.cdnURL + "/" + uri
	}
}

// PolicyURL links to a policy or attachment document on the IPFS gateway.
func (c *Client) PolicyURL(fileURI string) string {
	if fileURI == "" {
		return ""
	}
	if strings.HasPrefix(fileURI, "http://") || strings.HasPrefix(fileURI, "https://") {
		return fileURI
	}
	if !strings.HasPrefix(fileURI, "/") {
		fileURI = "/" + fileURI
	}
	return c.ipfsURL + fileURI
}

// DisplayParams are the query parameters an evidence display interface
// expects.
type DisplayParams struct {
	DisputeID                 string
	ArbitrableChainID         string
	ArbitrableJSONRPCURL      string
	ArbitrableContractAddress string
	ArbitratorContractAddress string
	ArbitratorJSONRPCURL      string
	ArbitratorChainID         int64
}

// EvidenceDisplayURL builds the URL of the meta-evidence's display interface
// for a dispute, or "" when the meta-evidence declares none.
func (c *Client) EvidenceDisplayURL(meta domain.MetaEvidence, p DisplayParams) string {
	if meta.EvidenceDisplayInterfaceURI == "" || p.DisputeID == "" {
		return ""
	}
	q := url.Values{}
	q.Set("disputeID", p.DisputeID)
	q.Set("arbitrableChainID", p.ArbitrableChainID)
	q.Set("arbitrableJsonRpcUrl", p.ArbitrableJSONRPCURL)
	q.Set("arbitrableContractAddress", p.ArbitrableContractAddress)
	q.Set("arbitratorContractAddress", p.ArbitratorContractAddress)
	q.Set("arbitratorJsonRpcUrl", p.ArbitratorJSONRPCURL)
	q.Set("arbitratorChainID", strconv.FormatInt(p.ArbitratorChainID, 10))
	return c.ContentURL(meta.EvidenceDisplayInterfaceURI) + "?" + q.Encode()
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx responses onto domain errors where one fits.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := strings.TrimSpace(string(body))
	if len(bodyStr) > 256 {
		bodyStr = bodyStr[:256] + "..."
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
