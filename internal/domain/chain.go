package domain

import "strings"

// Chain is a network whose oracle questions the dashboard can show.
type Chain struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ChainID     int64  `json:"chain_id"`
	SubgraphURL string `json:"-"`
	RPCURL      string `json:"-"`
	Currency    string `json:"currency"`
}

// Bridge links a home-chain arbitrator proxy to the foreign-chain proxy that
// raises the actual dispute. An empty ForeignProxy means the home proxy is a
// native arbitrator and disputes live on the home chain.
type Bridge struct {
	Name         string `yaml:"name" json:"name"`
	HomeChain    string `yaml:"home_chain" json:"home_chain"`
	HomeProxy    string `yaml:"home_proxy" json:"home_proxy"`
	ForeignChain string `yaml:"foreign_chain" json:"foreign_chain,omitempty"`
	ForeignProxy string `yaml:"foreign_proxy" json:"foreign_proxy,omitempty"`
}

// HomeAddress returns the lower-cased home proxy address without any
// "#fragment" suffix.
func (b Bridge) HomeAddress() string {
	addr, _, _ := strings.Cut(b.HomeProxy, "#")
	return strings.ToLower(strings.TrimSpace(addr))
}

// Native reports whether disputes are raised on the home chain itself.
func (b Bridge) Native() bool {
	return strings.TrimSpace(b.ForeignProxy) == ""
}

// Court is the static description of the court that hears disputes.
type Court struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PolicyURI   string `json:"policy_uri"`
	PolicyURL   string `json:"policy_url"`
}

// IndexerStatus compares the block a chain's subgraph has indexed with the
// chain head. Error is set when either side could not be read.
type IndexerStatus struct {
	ChainID      string `json:"chain_id"`
	IndexedBlock int64  `json:"indexed_block"`
	HeadBlock    int64  `json:"head_block"`
	Lag          int64  `json:"lag"`
	Error        string `json:"error,omitempty"`
}
