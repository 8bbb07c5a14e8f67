package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/platform/subgraph"
)

const homeProxy = "0x29f39de98d750eb77b5fafb31b2837f079fce222"

var testNow = time.Unix(1_700_000_000, 0)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher serves questions ordered by createdTimestamp descending and
// honours the createdBefore cursor like the subgraph does.
type fakeFetcher struct {
	questions []subgraph.APIQuestion
	cursors   []int64
	err       error
}

func (f *fakeFetcher) FetchQuestions(_ context.Context, arbitrators []string, before int64, first int) ([]subgraph.APIQuestion, error) {
	f.cursors = append(f.cursors, before)
	if f.err != nil {
		return nil, f.err
	}
	var out []subgraph.APIQuestion
	for _, q := range f.questions {
		if int64(q.CreatedTimestamp) < before {
			out = append(out, q)
		}
		if len(out) == first {
			break
		}
	}
	return out, nil
}

func (f *fakeFetcher) FetchQuestion(_ context.Context, id string) (subgraph.APIQuestion, error) {
	for _, q := range f.questions {
		if q.QuestionID == id {
			return q, nil
		}
	}
	return subgraph.APIQuestion{}, domain.ErrNotFound
}

// fakeQuestions generates n questions created one second apart, newest
// first.
func fakeQuestions(n int) []subgraph.APIQuestion {
	faker := gofakeit.New(42)
	out := make([]subgraph.APIQuestion, n)
	for i := range out {
		out[i] = subgraph.APIQuestion{
			ID:               faker.UUID(),
			QuestionID:       faker.HexUint256(),
			Arbitrator:       homeProxy,
			Data:             faker.Sentence(6) + `␟"Yes","No"␟misc␟en`,
			CreatedTimestamp: subgraph.BigInt(testNow.Unix() - int64(i) - 1),
			Timeout:          86400,
			CurrentAnswer:    domain.AnswerUnresolved,
		}
	}
	return out
}

func newQuestionService(f *fakeFetcher) *QuestionService {
	svc := NewQuestionService(
		[]ChainSource{{Chain: domain.Chain{ID: "gnosis", ChainID: 100}, Questions: f}},
		[]domain.Bridge{{HomeChain: "gnosis", HomeProxy: strings.ToUpper(homeProxy[:2]) + homeProxy[2:] + "#xdai"}},
		discardLogger(),
	)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestListPagesUntilShortPage(t *testing.T) {
	f := &fakeFetcher{questions: fakeQuestions(2*subgraph.PageSize + 17)}
	svc := newQuestionService(f)

	got, err := svc.List(context.Background(), "gnosis")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != len(f.questions) {
		t.Fatalf("listed %d questions, want %d", len(got), len(f.questions))
	}
	if len(f.cursors) != 3 {
		t.Fatalf("fetched %d pages, want 3", len(f.cursors))
	}
	if f.cursors[0] != testNow.Unix() {
		t.Errorf("first cursor = %d, want now", f.cursors[0])
	}
	if want := int64(f.questions[subgraph.PageSize-1].CreatedTimestamp); f.cursors[1] != want {
		t.Errorf("second cursor = %d, want %d", f.cursors[1], want)
	}
}

func TestListExactPageSizeStopsOnEmptyPage(t *testing.T) {
	f := &fakeFetcher{questions: fakeQuestions(subgraph.PageSize)}
	got, err := newQuestionService(f).List(context.Background(), "gnosis")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != subgraph.PageSize || len(f.cursors) != 2 {
		t.Errorf("got %d questions over %d pages", len(got), len(f.cursors))
	}
}

func TestListErrors(t *testing.T) {
	t.Run("unknown chain", func(t *testing.T) {
		_, err := newQuestionService(&fakeFetcher{}).List(context.Background(), "mars")
		if !errors.Is(err, domain.ErrUnknownChain) {
			t.Fatalf("err = %v, want ErrUnknownChain", err)
		}
	})
	t.Run("subgraph failure", func(t *testing.T) {
		boom := errors.New("graphql error: boom")
		_, err := newQuestionService(&fakeFetcher{err: boom}).List(context.Background(), "gnosis")
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want wrapped subgraph error", err)
		}
	})
	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := &fakeFetcher{questions: fakeQuestions(3)}
		_, err := newQuestionService(f).List(ctx, "gnosis")
		if !errors.Is(err, context.Canceled) || len(f.cursors) != 0 {
			t.Fatalf("err = %v after %d fetches, want context.Canceled before fetching", err, len(f.cursors))
		}
	})
}

func TestArbitratorsStripsFragmentAndCase(t *testing.T) {
	got := newQuestionService(&fakeFetcher{}).Arbitrators("gnosis")
	if len(got) != 1 || got[0] != homeProxy {
		t.Errorf("arbitrators = %v", got)
	}
}

func TestPaginate(t *testing.T) {
	qs := []domain.Question{
		{ID: "0x01", Title: "Will ETH flip BTC?", Phase: domain.PhaseOpen},
		{ID: "0x02", Title: "Rain in Paris", Description: "Options: Yes, No", Phase: domain.PhaseFinalized},
		{ID: "0x03", Title: "Election winner", Phase: domain.PhasePendingArbitration},
		{ID: "0x04", Title: "Paris marathon record", Phase: domain.PhaseOpen},
		{ID: "0xabc5", Title: "Launch date", Phase: domain.PhaseSettledTooSoon},
	}

	tests := []struct {
		name      string
		filter    domain.QuestionFilter
		wantIDs   []string
		wantTotal int
		wantPages int
		active    int
	}{
		{"all", domain.QuestionFilter{}, []string{"0x01", "0x02", "0x03", "0x04", "0xabc5"}, 5, 1, 4},
		{"phase", domain.QuestionFilter{Phase: domain.PhaseOpen}, []string{"0x01", "0x04"}, 2, 1, 2},
		{"search title", domain.QuestionFilter{Search: "PARIS"}, []string{"0x02", "0x04"}, 2, 1, 1},
		{"search description", domain.QuestionFilter{Search: "options: yes"}, []string{"0x02"}, 1, 1, 0},
		{"search id", domain.QuestionFilter{Search: "abc"}, []string{"0xabc5"}, 1, 1, 1},
		{"second page", domain.QuestionFilter{Page: 2, Limit: 2}, []string{"0x03", "0x04"}, 5, 3, 4},
		{"past the end", domain.QuestionFilter{Page: 9, Limit: 2}, nil, 5, 3, 4},
		{"huge page", domain.QuestionFilter{Page: math.MaxInt / 2, Limit: 20}, nil, 5, 1, 4},
		{"max page", domain.QuestionFilter{Page: math.MaxInt, Limit: 100}, nil, 5, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(qs, tt.filter)
			var ids []string
			for _, q := range page.Questions {
				ids = append(ids, q.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
			if page.Total != tt.wantTotal || page.Pages != tt.wantPages || page.Active != tt.active {
				t.Errorf("total=%d pages=%d active=%d, want %d/%d/%d",
					page.Total, page.Pages, page.Active, tt.wantTotal, tt.wantPages, tt.active)
			}
			if page.Counts[domain.PhaseOpen] != 2 || page.Counts[domain.PhaseNotCreated] != 0 {
				t.Errorf("counts = %v", page.Counts)
			}
		})
	}
}

func TestPaginateClampsLimit(t *testing.T) {
	page := Paginate(nil, domain.QuestionFilter{Limit: 10_000})
	if page.Limit != MaxPageLimit || page.Page != 1 {
		t.Errorf("limit=%d page=%d", page.Limit, page.Page)
	}
	if page := Paginate(nil, domain.QuestionFilter{}); page.Limit != DefaultPageLimit {
		t.Errorf("default limit = %d", page.Limit)
	}
}

func TestGet(t *testing.T) {
	f := &fakeFetcher{questions: fakeQuestions(3)}
	svc := newQuestionService(f)
	want := f.questions[1].QuestionID

	q, err := svc.Get(context.Background(), "gnosis", strings.ToUpper(want[2:]))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if q.ID != want || q.Phase != domain.PhaseOpen || q.ChainID != "gnosis" {
		t.Errorf("question = %+v", q)
	}

	if _, err := svc.Get(context.Background(), "gnosis", "0xnothex"); !errors.Is(err, domain.ErrInvalidQuestionID) {
		t.Errorf("err = %v, want ErrInvalidQuestionID", err)
	}
	if _, err := svc.Get(context.Background(), "gnosis", "0x01"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
