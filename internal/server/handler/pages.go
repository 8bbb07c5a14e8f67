package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/format"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler renders the dashboard pages.
type PageHandler struct {
	questions QuestionService
	disputes  DisputeService
	wallet    WalletProvider
	tmpl      *template.Template
	now       func() time.Time
	logger    *slog.Logger
}

// NewPageHandler parses the embedded templates and returns a PageHandler.
func NewPageHandler(questions QuestionService, disputes DisputeService, wallet WalletProvider, logger *slog.Logger) *PageHandler {
	h := &PageHandler{
		questions: questions,
		disputes:  disputes,
		wallet:    wallet,
		now:       time.Now,
		logger:    logHandler(logger, "pages"),
	}
	h.tmpl = template.Must(template.New("pages").Funcs(h.funcs()).ParseFS(templateFS, "templates/*.html"))
	return h
}

func (h *PageHandler) funcs() template.FuncMap {
	return template.FuncMap{
		"ether":     format.Ether,
		"short":     format.ShortAddress,
		"timestamp": format.Timestamp,
		"relative": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return format.Relative(t, h.now(), true)
		},
		"countdown": func(ms int64) string {
			return format.Countdown(time.Duration(ms) * time.Millisecond)
		},
		"phaseLabel": phaseLabel,
		"lower":      strings.ToLower,
		"inc":        func(i int) int { return i + 1 },
	}
}

// phaseTab is one entry of the phase filter bar.
type phaseTab struct {
	Label  string
	URL    string
	Count  int
	Active bool
}

type indexPage struct {
	Title   string
	Chains  []domain.Chain
	Chain   domain.Chain
	Filter  domain.QuestionFilter
	Page    domain.QuestionPage
	Tabs    []phaseTab
	PrevURL string
	NextURL string
	Wallet  domain.Wallet
	Error   string
}

// Index renders the question list of one chain with phase tabs, search and
// pagination.
// GET /{$}?chain=gnosis&phase=OPEN&q=rain&page=2
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	chains := h.questions.Chains()
	chainID := r.URL.Query().Get("chain")
	if chainID == "" && len(chains) > 0 {
		chainID = chains[0].ID
	}

	chain, err := h.questions.Chain(chainID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	filter, err := parseQuestionFilter(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := indexPage{
		Title:  chain.Name + " questions",
		Chains: chains,
		Chain:  chain,
		Filter: filter,
		Wallet: h.wallet.Wallet(),
	}

	page, err := h.questions.Query(r.Context(), chain.ID, filter)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "handler: render index failed",
				slog.String("chain", chain.ID),
				slog.String("error", err.Error()),
			)
			msg = "Questions could not be loaded from the indexer."
		}
		data.Error = msg
	} else {
		data.Page = page
		data.Tabs = tabs(chain.ID, filter, page)
		if page.Page > 1 {
			data.PrevURL = listURL(chain.ID, filter.Phase, filter.Search, page.Page-1)
		}
		if page.Page < page.Pages {
			data.NextURL = listURL(chain.ID, filter.Phase, filter.Search, page.Page+1)
		}
	}

	h.render(w, r, "index.html", data)
}

type questionPage struct {
	Title        string
	Chain        domain.Chain
	Question     domain.Question
	Dispute      *domain.DisputeView
	DisputeError string
	Court        domain.Court
	Wallet       domain.Wallet
	APIBase      string
}

// Question renders the detail page of a question: answer history, the action
// panel for its phase and, once arbitration was requested, the dispute.
// GET /chains/{chain}/questions/{id}
func (h *PageHandler) Question(w http.ResponseWriter, r *http.Request) {
	chainID := pathParam(r, "chain")
	chain, err := h.questions.Chain(chainID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	q, err := h.questions.Get(r.Context(), chain.ID, pathParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := questionPage{
		Title:    q.Title,
		Chain:    chain,
		Question: q,
		Court:    h.disputes.Court(),
		Wallet:   h.wallet.Wallet(),
		APIBase:  "/api/chains/" + url.PathEscape(chain.ID) + "/questions/" + url.PathEscape(q.ID),
	}

	if q.Phase == domain.PhasePendingArbitration || q.ArbitrationRequestedBy != "" {
		view, err := h.disputes.ForQuestion(r.Context(), chain.ID, q)
		if err != nil {
			h.logger.WarnContext(r.Context(), "handler: dispute unavailable",
				slog.String("question_id", q.ID),
				slog.String("error", err.Error()),
			)
			_, data.DisputeError = statusFor(err)
		} else {
			data.Dispute = &view
		}
	}

	h.render(w, r, "question.html", data)
}

type errorPage struct {
	Title   string
	Status  int
	Message string
	Wallet  domain.Wallet
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "handler: render page failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	h.renderStatus(w, r, status, "error.html", errorPage{
		Title:   http.StatusText(status),
		Status:  status,
		Message: msg,
		Wallet:  h.wallet.Wallet(),
	})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	h.renderStatus(w, r, http.StatusOK, name, data)
}

// renderStatus executes into a buffer first so a template failure can still
// produce a clean 500.
func (h *PageHandler) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: execute template failed",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// tabs builds the phase filter bar. Counts come from the unfiltered list.
func tabs(chainID string, filter domain.QuestionFilter, page domain.QuestionPage) []phaseTab {
	all := 0
	for _, n := range page.Counts {
		all += n
	}
	out := []phaseTab{{
		Label:  "All",
		URL:    listURL(chainID, "", filter.Search, 1),
		Count:  all,
		Active: filter.Phase == "",
	}}
	for _, p := range domain.Phases {
		out = append(out, phaseTab{
			Label:  phaseLabel(p),
			URL:    listURL(chainID, p, filter.Search, 1),
			Count:  page.Counts[p],
			Active: filter.Phase == p,
		})
	}
	return out
}

func listURL(chainID string, phase domain.Phase, search string, page int) string {
	v := url.Values{}
	v.Set("chain", chainID)
	if phase != "" {
		v.Set("phase", string(phase))
	}
	if search != "" {
		v.Set("q", search)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return "/?" + v.Encode()
}

// phaseLabel turns PENDING_ARBITRATION into "Pending arbitration".
func phaseLabel(p domain.Phase) string {
	s := strings.ReplaceAll(strings.ToLower(string(p)), "_", " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
