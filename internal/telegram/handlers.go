package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"portfolioBench/internal/analytics"
	"portfolioBench/internal/client"
	"portfolioBench/internal/coordinator"
	"portfolioBench/internal/finance"
	"portfolioBench/internal/openai"
	"portfolioBench/internal/portfolio"
)

var (
	reHelp      = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
	rePortfolio = regexp.MustCompile(`^/portfolio(?:@[\w_]+)?$`)
	// /set VNM:30 VIC:30 HPG:40
	reSet = regexp.MustCompile(`^/set(?:@[\w_]+)?(?:\s+(.+))?$`)
	// /window 90 | 3m | 1y
	reWindow = regexp.MustCompile(`^/window(?:@[\w_]+)?(?:\s+(\S+))?$`)
	// /save [VNM:50 FPT:50]
	reSave    = regexp.MustCompile(`^/save(?:@[\w_]+)?(?:\s+(.+))?$`)
	reReset   = regexp.MustCompile(`^/reset(?:@[\w_]+)?$`)
	reRecent  = regexp.MustCompile(`^/recent(?:@[\w_]+)?(?:\s+(\d+))?$`)
	reChart   = regexp.MustCompile(`^/chart(?:@[\w_]+)?$`)
	reInsight = regexp.MustCompile(`^/insight(?:@[\w_]+)?$`)
	reStop    = regexp.MustCompile(`^/stop(?:@[\w_]+)?$`)
)

const (
	maxRecent      = 30
	backendTimeout = 30 * time.Second
)

// Sender delivers messages to Telegram; *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Backend is the performance service plus default-portfolio persistence.
type Backend interface {
	FetchPerformance(ctx context.Context, p portfolio.Portfolio, w portfolio.Window) (*client.Performance, error)
	LoadDefault(ctx context.Context) (portfolio.Portfolio, error)
	SaveDefault(ctx context.Context, p portfolio.Portfolio) error
}

// Commentator writes commentary on a finished comparison.
type Commentator interface {
	Comment(ctx context.Context, cmp openai.Comparison) (string, error)
}

type Handlers struct {
	api     Sender
	backend Backend
	comment Commentator // nil disables /insight
	charts  *finance.ChartCache
	log     zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

func NewHandlers(api Sender, backend Backend, comment Commentator, log zerolog.Logger) *Handlers {
	return &Handlers{
		api:      api,
		backend:  backend,
		comment:  comment,
		charts:   finance.NewChartCache(finance.DefaultChartTTL),
		log:      log.With().Str("component", "telegram").Logger(),
		sessions: map[int64]*session{},
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	chatID := m.Chat.ID
	txt := strings.TrimSpace(m.Text)

	switch {
	case reHelp.MatchString(txt):
		h.reply(chatID, helpText)

	case rePortfolio.MatchString(txt):
		s := h.session(chatID)
		h.reply(chatID, describePortfolio(s.store.Portfolio(), s.store.Window())+"\n\n"+describeState(s.coord.State()))

	case reSet.MatchString(txt):
		args := reSet.FindStringSubmatch(txt)[1]
		draft, err := portfolio.ParseHoldings(strings.Fields(args))
		if err != nil {
			h.reply(chatID, "Couldn’t read portfolio: "+err.Error()+"\nExample: /set VNM:30 VIC:30 HPG:40")
			return
		}
		s := h.session(chatID)
		p, err := s.store.SetPortfolio(draft)
		if err != nil {
			h.reply(chatID, validationMessage(err))
			return
		}
		h.reply(chatID, describePortfolio(p, s.store.Window())+"\n\nCalculating…")

	case reWindow.MatchString(txt):
		arg := reWindow.FindStringSubmatch(txt)[1]
		if arg == "" {
			h.reply(chatID, "Usage: /window 7d|1m|3m|6m|1y|...|10y")
			return
		}
		w, err := portfolio.ParseWindow(arg)
		if err != nil {
			h.reply(chatID, err.Error())
			return
		}
		s := h.session(chatID)
		if err := s.store.SetWindow(w); err != nil {
			h.reply(chatID, err.Error())
			return
		}
		h.reply(chatID, "Window: "+w.Label()+"\n\nCalculating…")

	case reSave.MatchString(txt):
		h.handleSave(chatID, reSave.FindStringSubmatch(txt)[1])

	case reReset.MatchString(txt):
		s := h.session(chatID)
		ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		p, err := s.store.ResetDefault(ctx)
		if err != nil {
			h.reply(chatID, "Reset failed: "+err.Error())
			return
		}
		h.reply(chatID, "Default portfolio restored: "+p.String())

	case reRecent.MatchString(txt):
		k := analytics.DefaultRecent
		if g := reRecent.FindStringSubmatch(txt)[1]; g != "" {
			k, _ = strconv.Atoi(g)
			if k < 1 {
				k = 1
			}
			if k > maxRecent {
				k = maxRecent
			}
		}
		st := h.session(chatID).coord.State()
		rows := st.Recent(k)
		if len(rows) == 0 {
			h.reply(chatID, describeState(st))
			return
		}
		h.replyMarkdown(chatID, recentText(rows))

	case reChart.MatchString(txt):
		h.handleChart(chatID)

	case reInsight.MatchString(txt):
		h.handleInsight(chatID)

	case reStop.MatchString(txt):
		s := h.session(chatID)
		if s.coord.State().Status != coordinator.Pending {
			h.reply(chatID, "Nothing to stop.")
			return
		}
		s.coord.Cancel()
	}
}

func (h *Handlers) handleSave(chatID int64, args string) {
	s := h.session(chatID)
	draft := s.store.Portfolio().Holdings
	if strings.TrimSpace(args) != "" {
		var err error
		if draft, err = portfolio.ParseHoldings(strings.Fields(args)); err != nil {
			h.reply(chatID, "Couldn’t read portfolio: "+err.Error())
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()
	p, err := s.store.SaveDefault(ctx, draft)
	var persist *client.PersistenceError
	switch {
	case err == nil:
		h.reply(chatID, "Saved as default: "+p.String())
	case errors.As(err, &persist):
		h.reply(chatID, "Save failed: "+persist.Error())
	default:
		h.reply(chatID, validationMessage(err))
	}
}

func (h *Handlers) handleChart(chatID int64) {
	st := h.session(chatID).coord.State()
	if st.Status != coordinator.Succeeded {
		h.reply(chatID, describeState(st))
		return
	}

	id := st.Key.ID()
	img, ok := h.charts.Get(id)
	if !ok {
		var err error
		title := "Portfolio vs " + analytics.BenchmarkName + " • " + st.Key.Window.Label()
		img, err = finance.RenderComparison(st.Rows(), title, analytics.Verdict(st.Summary))
		if err != nil {
			h.reply(chatID, "Chart failed: "+err.Error())
			return
		}
		h.charts.Set(id, img)
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "portfolio_" + st.Key.Window.String() + ".png", Bytes: img})
	photo.Caption = st.Key.Portfolio.String() + " • " + st.Key.Window.Label()
	h.send(photo)
}

func (h *Handlers) handleInsight(chatID int64) {
	if h.comment == nil {
		h.reply(chatID, "Commentary is not enabled on this bot.")
		return
	}
	st := h.session(chatID).coord.State()
	if st.Status != coordinator.Succeeded {
		h.reply(chatID, describeState(st))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()
	out, err := h.comment.Comment(ctx, openai.Comparison{
		Portfolio: st.Key.Portfolio,
		Window:    st.Key.Window,
		Summary:   st.Summary,
		Risk:      analytics.Risk(st.Series),
	})
	if err != nil {
		h.reply(chatID, "Commentary failed: "+err.Error())
		return
	}
	h.replyMarkdown(chatID, out)
}

// publish posts a settled query state to its chat.
func (h *Handlers) publish(chatID int64, st coordinator.State) {
	h.log.Debug().Int64("chat_id", chatID).Str("status", st.Status.String()).Str("key", st.Key.ID()).Msg("publishing result")
	h.reply(chatID, describeState(st))
}

// session returns the chat's session, creating and initialising it on first
// use. The default-portfolio read runs outside h.mu.
func (h *Handlers) session(chatID int64) *session {
	h.mu.Lock()
	s, ok := h.sessions[chatID]
	if !ok {
		s = newSession(chatID, h.backend, h.publish, h.log)
		h.sessions[chatID] = s
	}
	h.mu.Unlock()

	s.load(backendTimeout)
	return s
}

// Close cancels every chat's outstanding query.
func (h *Handlers) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = map[int64]*session{}
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

func validationMessage(err error) string {
	var over *portfolio.OverAllocatedError
	switch {
	case errors.As(err, &over):
		return fmt.Sprintf("Total is %.1f%%, which exceeds 100%%. Reduce some weights and try again.", over.Total)
	case errors.Is(err, portfolio.ErrEmpty):
		return "Please add at least one stock with a percentage, e.g. /set VNM:50"
	default:
		return err.Error()
	}
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	h.send(msg)
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Warn().Err(err).Msg("telegram send failed")
	}
}
