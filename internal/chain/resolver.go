// Package chain resolves question IDs to court dispute IDs by scanning
// arbitration proxy event logs over JSON-RPC.
package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

const proxyEventsABI = `[
	{
		"anonymous": false,
		"name": "ArbitrationCreated",
		"type": "event",
		"inputs": [
			{"indexed": true, "name": "_questionID", "type": "bytes32"},
			{"indexed": true, "name": "_requester", "type": "address"},
			{"indexed": true, "name": "_disputeID", "type": "uint256"}
		]
	},
	{
		"anonymous": false,
		"name": "DisputeIDToQuestionID",
		"type": "event",
		"inputs": [
			{"indexed": true, "name": "_disputeID", "type": "uint256"},
			{"indexed": true, "name": "_questionID", "type": "bytes32"}
		]
	}
]`

var (
	proxyABI              = mustParseABI(proxyEventsABI)
	arbitrationCreated    = proxyABI.Events["ArbitrationCreated"]
	disputeIDToQuestionID = proxyABI.Events["DisputeIDToQuestionID"]
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("chain: parse proxy abi: %v", err))
	}
	return parsed
}

// LogReader is the part of an Ethereum JSON-RPC client the resolver uses.
type LogReader interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// DialFunc opens a LogReader for an RPC endpoint.
type DialFunc func(ctx context.Context, rpcURL string) (LogReader, error)

// DialEthclient dials rpcURL with go-ethereum's ethclient.
func DialEthclient(ctx context.Context, rpcURL string) (LogReader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Options configures a Resolver.
type Options struct {
	// FromBlock is the first block scanned.
	FromBlock uint64
	// BlockRange splits scans into windows of this many blocks, oldest
	// first. Zero issues a single request up to the latest block.
	BlockRange uint64
	// Timeout bounds one lookup including every window.
	Timeout time.Duration
	// Dial defaults to DialEthclient.
	Dial DialFunc
}

// Resolver looks up dispute IDs in arbitration proxy logs.
type Resolver struct {
	dial       DialFunc
	fromBlock  uint64
	blockRange uint64
	timeout    time.Duration
	logger     *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(opts Options, logger *slog.Logger) *Resolver {
	if opts.Dial == nil {
		opts.Dial = DialEthclient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Resolver{
		dial:       opts.Dial,
		fromBlock:  opts.FromBlock,
		blockRange: opts.BlockRange,
		timeout:    opts.Timeout,
		logger:     logger.With(slog.String("component", "dispute_resolver")),
	}
}

// DisputeID finds the dispute a foreign-chain proxy created for questionID
// by matching ArbitrationCreated logs on the question topic. It returns
// domain.ErrNotFound when no log matches.
func (r *Resolver) DisputeID(ctx context.Context, foreignProxy, questionID, rpcURL string) (*big.Int, error) {
	qid, err := NormalizeQuestionID(questionID)
	if err != nil {
		return nil, err
	}
	proxy, err := parseAddress(foreignProxy)
	if err != nil {
		return nil, err
	}

	topics := [][]common.Hash{{arbitrationCreated.ID}, {qid}}
	log, err := r.firstLog(ctx, rpcURL, proxy, topics)
	if err != nil {
		return nil, fmt.Errorf("chain: dispute id for %s: %w", qid.Hex(), err)
	}

	id, err := decodeIndexed(arbitrationCreated, log, "_disputeID")
	if err != nil {
		return nil, fmt.Errorf("chain: decode ArbitrationCreated: %w", err)
	}
	return id, nil
}

// DisputeIDNative finds the dispute a home-chain arbitrator raised for
// questionID by matching DisputeIDToQuestionID logs on their second indexed
// topic. It returns domain.ErrNotFound when no log matches.
func (r *Resolver) DisputeIDNative(ctx context.Context, homeProxy, questionID, rpcURL string) (*big.Int, error) {
	qid, err := NormalizeQuestionID(questionID)
	if err != nil {
		return nil, err
	}
	proxy, err := parseAddress(homeProxy)
	if err != nil {
		return nil, err
	}

	topics := [][]common.Hash{{disputeIDToQuestionID.ID}, nil, {qid}}
	log, err := r.firstLog(ctx, rpcURL, proxy, topics)
	if err != nil {
		return nil, fmt.Errorf("chain: native dispute id for %s: %w", qid.Hex(), err)
	}

	id, err := decodeIndexed(disputeIDToQuestionID, log, "_disputeID")
	if err != nil {
		return nil, fmt.Errorf("chain: decode DisputeIDToQuestionID: %w", err)
	}
	return id, nil
}

// LatestBlock returns the head block number of the chain behind rpcURL.
func (r *Resolver) LatestBlock(ctx context.Context, rpcURL string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	client, err := r.dial(ctx, rpcURL)
	if err != nil {
		return 0, fmt.Errorf("chain: dial rpc: %w", err)
	}
	defer client.Close()

	n, err := client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain: latest block: %w", err)
	}
	return n, nil
}

// firstLog returns the oldest log emitted by address that matches topics.
func (r *Resolver) firstLog(ctx context.Context, rpcURL string, address common.Address, topics [][]common.Hash) (types.Log, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	client, err := r.dial(ctx, rpcURL)
	if err != nil {
		return types.Log{}, fmt.Errorf("dial rpc: %w", err)
	}
	defer client.Close()

	query := ethereum.FilterQuery{
		Addresses: []common.Address{address},
		Topics:    topics,
		FromBlock: new(big.Int).SetUint64(r.fromBlock),
	}

	if r.blockRange == 0 {
		logs, err := client.FilterLogs(ctx, query)
		if err != nil {
			return types.Log{}, fmt.Errorf("filter logs: %w", err)
		}
		r.logger.DebugContext(ctx, "log scan finished",
			slog.String("address", address.Hex()),
			slog.Int("matches", len(logs)),
		)
		if len(logs) == 0 {
			return types.Log{}, domain.ErrNotFound
		}
		return logs[0], nil
	}

	latest, err := client.BlockNumber(ctx)
	if err != nil {
		return types.Log{}, fmt.Errorf("latest block: %w", err)
	}

	for from := r.fromBlock; from <= latest; from += r.blockRange {
		to := from + r.blockRange - 1
		if to > latest || to < from {
			to = latest
		}
		query.FromBlock = new(big.Int).SetUint64(from)
		query.ToBlock = new(big.Int).SetUint64(to)

		logs, err := client.FilterLogs(ctx, query)
		if err != nil {
			return types.Log{}, fmt.Errorf("filter logs %d-%d: %w", from, to, err)
		}
		if len(logs) > 0 {
			r.logger.DebugContext(ctx, "log scan matched",
				slog.String("address", address.Hex()),
				slog.Uint64("from", from),
				slog.Uint64("to", to),
			)
			return logs[0], nil
		}
		if to == latest {
			break
		}
	}
	return types.Log{}, domain.ErrNotFound
}

// decodeIndexed reads one indexed argument of event from log's topics.
func decodeIndexed(event abi.Event, log types.Log, name string) (*big.Int, error) {
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return nil, fmt.Errorf("log is not a %s event", event.Name)
	}
	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	out := make(map[string]any, len(indexed))
	if err := abi.ParseTopicsIntoMap(out, indexed, log.Topics[1:]); err != nil {
		return nil, err
	}
	id, ok := out[name].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("missing %s", name)
	}
	return id, nil
}

// NormalizeQuestionID parses a hex question ID and left-pads it to 32
// bytes. The 0x prefix is optional.
func NormalizeQuestionID(id string) (common.Hash, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "0x")
	if s == "" || len(s) > 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("chain: %q: %w", id, domain.ErrInvalidQuestionID)
	}
	s = strings.Repeat("0", 2*common.HashLength-len(s)) + s
	b, err := hex.DecodeString(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: %q: %w", id, domain.ErrInvalidQuestionID)
	}
	return common.BytesToHash(b), nil
}

func parseAddress(addr string) (common.Address, error) {
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("chain: address %q: %w", addr, domain.ErrInvalidInput)
	}
	return common.HexToAddress(addr), nil
}
