package chain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

const (
	foreignProxy = "0xfe0eb5fc686f929eb26d541d75bb59f816c0aa68"
	homeProxy    = "0x29f39de98d750eb77b5fafb31b2837f079fce222"
	questionID   = "0x8a0e5c4c5f1f6d5e3d2c1b0a9f8e7d6c5b4a39281706f5e4d3c2b1a098765432"
)

type fakeReader struct {
	logs     []types.Log
	latest   uint64
	queries  []ethereum.FilterQuery
	err      error
	blockErr error
	closed   bool
}

func (f *fakeReader) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	var out []types.Log
	for _, l := range f.logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if !topicsMatch(q.Topics, l.Topics) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeReader) BlockNumber(context.Context) (uint64, error) { return f.latest, f.blockErr }
func (f *fakeReader) Close()                                      { f.closed = true }

func topicsMatch(filter [][]common.Hash, topics []common.Hash) bool {
	for i, want := range filter {
		if len(want) == 0 {
			continue
		}
		if i >= len(topics) {
			return false
		}
		found := false
		for _, h := range want {
			if h == topics[i] {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func newTestResolver(reader *fakeReader, opts Options) *Resolver {
	opts.Dial = func(context.Context, string) (LogReader, error) { return reader, nil }
	return NewResolver(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func uintTopic(n int64) common.Hash {
	return common.BigToHash(big.NewInt(n))
}

func TestDisputeID(t *testing.T) {
	qid, _ := NormalizeQuestionID(questionID)
	requester := common.HexToHash("0x000000000000000000000000742d35cc6634c0532925a3b844bc454e4438f44e")
	reader := &fakeReader{logs: []types.Log{
		{BlockNumber: 10, Topics: []common.Hash{arbitrationCreated.ID, uintTopic(1), requester, uintTopic(99)}},
		{BlockNumber: 20, Topics: []common.Hash{arbitrationCreated.ID, qid, requester, uintTopic(1621)}},
		{BlockNumber: 30, Topics: []common.Hash{arbitrationCreated.ID, qid, requester, uintTopic(1700)}},
	}}

	id, err := newTestResolver(reader, Options{}).DisputeID(context.Background(), foreignProxy, questionID, "http://rpc")
	if err != nil {
		t.Fatalf("DisputeID: %v", err)
	}
	if id.Int64() != 1621 {
		t.Errorf("dispute id = %s, want 1621", id)
	}
	if !reader.closed {
		t.Error("client was not closed")
	}
	q := reader.queries[0]
	if len(q.Addresses) != 1 || q.Addresses[0] != common.HexToAddress(foreignProxy) {
		t.Errorf("addresses = %v", q.Addresses)
	}
	if len(q.Topics) != 2 || q.Topics[1][0] != qid {
		t.Errorf("topics = %v, want question id in position 1", q.Topics)
	}
}

func TestDisputeIDNativeFiltersSecondTopic(t *testing.T) {
	qid, _ := NormalizeQuestionID(questionID)
	reader := &fakeReader{logs: []types.Log{
		// Question ID placed in data-only position must not match.
		{BlockNumber: 5, Topics: []common.Hash{disputeIDToQuestionID.ID, uintTopic(3), uintTopic(4)}, Data: qid.Bytes()},
		{BlockNumber: 8, Topics: []common.Hash{disputeIDToQuestionID.ID, uintTopic(42), qid}},
	}}

	id, err := newTestResolver(reader, Options{}).DisputeIDNative(context.Background(), homeProxy, questionID, "http://rpc")
	if err != nil {
		t.Fatalf("DisputeIDNative: %v", err)
	}
	if id.Int64() != 42 {
		t.Errorf("dispute id = %s, want 42", id)
	}
	q := reader.queries[0]
	if len(q.Topics) != 3 || q.Topics[1] != nil || q.Topics[2][0] != qid {
		t.Errorf("topics = %v, want [sig, nil, qid]", q.Topics)
	}
}

func TestDisputeIDNotFound(t *testing.T) {
	reader := &fakeReader{}
	_, err := newTestResolver(reader, Options{}).DisputeID(context.Background(), foreignProxy, "0x01", "http://rpc")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDisputeIDRPCError(t *testing.T) {
	reader := &fakeReader{err: errors.New("connection refused")}
	_, err := newTestResolver(reader, Options{}).DisputeID(context.Background(), foreignProxy, "0x01", "http://rpc")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want rpc failure", err)
	}
}

func TestDisputeIDChunkedScan(t *testing.T) {
	qid, _ := NormalizeQuestionID(questionID)
	reader := &fakeReader{
		latest: 250,
		logs: []types.Log{
			{BlockNumber: 180, Topics: []common.Hash{arbitrationCreated.ID, qid, {}, uintTopic(7)}},
		},
	}

	id, err := newTestResolver(reader, Options{FromBlock: 0, BlockRange: 100}).DisputeID(context.Background(), foreignProxy, questionID, "http://rpc")
	if err != nil {
		t.Fatalf("DisputeID: %v", err)
	}
	if id.Int64() != 7 {
		t.Errorf("dispute id = %s, want 7", id)
	}
	if len(reader.queries) != 2 {
		t.Fatalf("queries = %d, want 2 windows scanned", len(reader.queries))
	}
	if reader.queries[1].FromBlock.Uint64() != 100 || reader.queries[1].ToBlock.Uint64() != 199 {
		t.Errorf("second window = %s-%s", reader.queries[1].FromBlock, reader.queries[1].ToBlock)
	}
}

func TestDisputeIDChunkedNotFound(t *testing.T) {
	reader := &fakeReader{latest: 250}
	_, err := newTestResolver(reader, Options{FromBlock: 50, BlockRange: 100}).DisputeID(context.Background(), foreignProxy, "0x01", "http://rpc")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(reader.queries) != 3 {
		t.Errorf("queries = %d, want 3", len(reader.queries))
	}
	if last := reader.queries[2]; last.ToBlock.Uint64() != 250 {
		t.Errorf("last window ends at %s, want 250", last.ToBlock)
	}
}

func TestNormalizeQuestionID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0x01", "0x0000000000000000000000000000000000000000000000000000000000000001", false},
		{"ABCDEF", "0x0000000000000000000000000000000000000000000000000000000000abcdef", false},
		{questionID, questionID, false},
		{"", "", true},
		{"0x", "", true},
		{"0xzz", "", true},
		{"0x" + questionID[2:] + "00", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeQuestionID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidQuestionID) {
					t.Fatalf("err = %v, want ErrInvalidQuestionID", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Hex() != tt.want {
				t.Errorf("got %s, want %s", got.Hex(), tt.want)
			}
		})
	}
}

func TestInvalidProxyAddress(t *testing.T) {
	_, err := newTestResolver(&fakeReader{}, Options{}).DisputeID(context.Background(), "0x123", "0x01", "http://rpc")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestLatestBlock(t *testing.T) {
	reader := &fakeReader{latest: 41_234_567}
	n, err := newTestResolver(reader, Options{}).LatestBlock(context.Background(), "http://rpc")
	if err != nil || n != 41_234_567 {
		t.Fatalf("LatestBlock = %d, %v", n, err)
	}
	if !reader.closed {
		t.Error("client not closed")
	}

	reader = &fakeReader{blockErr: errors.New("rate limited")}
	if _, err := newTestResolver(reader, Options{}).LatestBlock(context.Background(), "http://rpc"); err == nil {
		t.Error("expected error")
	}
}
