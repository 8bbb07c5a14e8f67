package kleros

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /fn/get-dispute-metaevidence", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("chainId") != "1" {
			t.Errorf("chainId = %q", r.URL.Query().Get("chainId"))
		}
		switch r.URL.Query().Get("disputeId") {
		case "1621":
			io.WriteString(w, `{"metaEvidenceUri":"/ipfs/QmMeta/metaEvidence.json"}`)
		default:
			io.WriteString(w, `{}`)
		}
	})
	mux.HandleFunc("GET /ipfs/QmMeta/metaEvidence.json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"title": "Realitio question",
			"description": "A question was asked",
			"question": "Will it rain?",
			"fileURI": "/ipfs/QmPolicy/policy.pdf",
			"evidenceDisplayInterfaceURI": "/ipfs/QmDisplay/index.html",
			"arbitrableChainID": "100",
			"rulingOptions": {"type": "single-select", "titles": ["Yes", "No"]}
		}`)
	})
	mux.HandleFunc("GET /ipfs/QmEvidence/evidence.json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name":"Weather report","description":"It rained.","fileURI":"/ipfs/QmFile"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestMetaEvidenceFlow(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/fn", srv.URL, "https://ipfs.kleros.io")
	ctx := context.Background()

	uri, err := c.FetchMetaEvidenceURI(ctx, 1, "1621")
	if err != nil {
		t.Fatalf("FetchMetaEvidenceURI: %v", err)
	}
	meta, err := c.FetchMetaEvidence(ctx, uri)
	if err != nil {
		t.Fatalf("FetchMetaEvidence: %v", err)
	}
	if meta.Question != "Will it rain?" || meta.ArbitrableChainID != "100" {
		t.Errorf("meta = %+v", meta)
	}
	if meta.RulingOptions == nil || len(meta.RulingOptions.Titles) != 2 {
		t.Errorf("ruling options = %+v", meta.RulingOptions)
	}

	if got := c.PolicyURL(meta.FileURI); got != "https://ipfs.kleros.io/ipfs/QmPolicy/policy.pdf" {
		t.Errorf("PolicyURL = %q", got)
	}
}

func TestFetchMetaEvidenceURIMissing(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/fn", srv.URL, "")

	_, err := c.FetchMetaEvidenceURI(context.Background(), 1, "7")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchEvidenceContents(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("", srv.URL, "")

	got, err := c.FetchEvidenceContents(context.Background(), "/ipfs/QmEvidence/evidence.json")
	if err != nil {
		t.Fatalf("FetchEvidenceContents: %v", err)
	}
	if got.Name != "Weather report" || got.FileURI != "/ipfs/QmFile" {
		t.Errorf("contents = %+v", got)
	}

	_, err = c.FetchEvidenceContents(context.Background(), "/ipfs/missing.json")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing evidence err = %v, want ErrNotFound", err)
	}
}

func TestContentURL(t *testing.T) {
	c := NewClient("", "https://cdn.kleros.link/", "")
	tests := []struct {
		in   string
		want string
	}{
		{"/ipfs/Qm/a.json", "https://cdn.kleros.link/ipfs/Qm/a.json"},
		{"ipfs://Qm/a.json", "https://cdn.kleros.link/ipfs/Qm/a.json"},
		{"Qm/a.json", "https://cdn.kleros.link/Qm/a.json"},
		{"https://example.com/a.json", "https://example.com/a.json"},
	}
	for _, tt := range tests {
		if got := c.ContentURL(tt.in); got != tt.want {
			t.Errorf("ContentURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEvidenceDisplayURL(t *testing.T) {
	c := NewClient("", "https://cdn.kleros.link", "")
	meta := domain.MetaEvidence{EvidenceDisplayInterfaceURI: "/ipfs/QmDisplay/index.html", ArbitrableChainID: "100"}

	raw := c.EvidenceDisplayURL(meta, DisplayParams{
		DisputeID:                 "1621",
		ArbitrableChainID:         meta.ArbitrableChainID,
		ArbitrableJSONRPCURL:      "https://rpc.ankr.com/gnosis",
		ArbitrableContractAddress: "0xabc",
		ArbitratorContractAddress: "0x988b3A538b618C7A603e1c11Ab82Cd16dbE28069",
		ArbitratorJSONRPCURL:      "https://rpc.ankr.com/eth",
		ArbitratorChainID:         1,
	})
	if !strings.HasPrefix(raw, "https://cdn.kleros.link/ipfs/QmDisplay/index.html?") {
		t.Fatalf("EvidenceDisplayURL = %q", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("disputeID") != "1621" || q.Get("arbitratorChainID") != "1" || q.Get("arbitrableJsonRpcUrl") != "https://rpc.ankr.com/gnosis" {
		t.Errorf("query = %v", q)
	}

	if got := c.EvidenceDisplayURL(domain.MetaEvidence{}, DisplayParams{DisputeID: "1"}); got != "" {
		t.Errorf("no display interface should yield empty url, got %q", got)
	}
}
