package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/rublebot/internal/access"
	"github.com/edgard/rublebot/internal/config"
	"github.com/edgard/rublebot/internal/currency"
)

// apiCall is one request received by the fake Bot API.
type apiCall struct {
	method string
	params map[string]string
}

// fakeAPI is a minimal Telegram Bot API answering every method with success.
type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	params := map[string]string{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				params[k] = strings.Join(v, ",")
			}
		}
	} else if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		var raw map[string]json.RawMessage
		if json.Unmarshal(body, &raw) == nil {
			for k, v := range raw {
				var s string
				if json.Unmarshal(v, &s) == nil {
					params[k] = s
				} else {
					params[k] = string(v)
				}
			}
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, params: params})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "sendMessage":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":99,"date":0,"chat":{"id":1,"type":"private"}}}`)
	case "getChatMember":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"status":"left","user":{"id":1,"is_bot":false,"first_name":"x"}}}`)
	default:
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeAPI) byMethod(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAssistant struct {
	mu      sync.Mutex
	reply   string
	err     error
	queries []string
	resets  []int64
}

func (a *fakeAssistant) ResetChatHistory(_ context.Context, chatID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resets = append(a.resets, chatID)
	return nil
}

func (a *fakeAssistant) GetChatResponse(_ context.Context, _ int64, query string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queries = append(a.queries, query)
	return a.reply, a.err
}

type fixedRates map[string]float64

func (r fixedRates) Rate(_ context.Context, code string) (float64, error) {
	rate, ok := r[code]
	if !ok {
		return 0, currency.ErrRateNotFound
	}
	return rate, nil
}

type harness struct {
	api       *fakeAPI
	bot       *bot.Bot
	deps      HandlerDeps
	assistant *fakeAssistant
}

func newHarness(t *testing.T, allow string) *harness {
	t.Helper()

	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test-token", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("bot.New: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Messages: config.MessagesConfig{
			Help:        config.DefaultMsgHelp,
			NotAllowed:  config.DefaultMsgNotAllowed,
			ResetDone:   config.DefaultMsgResetDone,
			InlineTitle: config.DefaultMsgInlineTitle,
		},
	}
	asst := &fakeAssistant{reply: "*hi* there"}
	converter := currency.NewConverter(fixedRates{"usd": 90.5, "eur": 100}, log)

	return &harness{
		api:       api,
		bot:       b,
		assistant: asst,
		deps: HandlerDeps{
			Logger:    log,
			Config:    cfg,
			Assistant: asst,
			Gate:      access.NewGate(config.ParseAllowList(allow), log),
			Lookups:   currency.NewLookups(converter, 2, time.Second, log),
		},
	}
}

func textUpdate(text string, chatType models.ChatType) *models.Update {
	msg := &models.Message{
		ID:   7,
		Chat: models.Chat{ID: 555, Type: chatType},
		From: &models.User{ID: 42, FirstName: "Test"},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		end := strings.IndexByte(text, ' ')
		if end < 0 {
			end = len(text)
		}
		msg.Entities = []models.MessageEntity{{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: end}}
	}
	return &models.Update{ID: 1, Message: msg}
}

func TestHelpHandler(t *testing.T) {
	h := newHarness(t, "1")

	NewHelpHandler(h.deps)(context.Background(), h.bot, textUpdate("/help", models.ChatTypePrivate))

	sent := h.api.byMethod("sendMessage")
	if len(sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sent))
	}
	if sent[0].params["text"] != config.DefaultMsgHelp {
		t.Errorf("text = %q", sent[0].params["text"])
	}
	if !strings.Contains(sent[0].params["link_preview_options"], `"is_disabled":true`) {
		t.Errorf("link previews not disabled: %q", sent[0].params["link_preview_options"])
	}
	if strings.Contains(sent[0].params["reply_parameters"], "message_id") {
		t.Error("private help should not quote the command")
	}
}

func TestResetHandler(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		h := newHarness(t, "*")
		handler := AllowedOnly(h.deps, "reset")(NewResetHandler(h.deps))

		handler(context.Background(), h.bot, textUpdate("/reset", models.ChatTypePrivate))

		if len(h.assistant.resets) != 1 || h.assistant.resets[0] != 555 {
			t.Fatalf("resets = %v, want [555]", h.assistant.resets)
		}
		sent := h.api.byMethod("sendMessage")
		if len(sent) != 1 || sent[0].params["text"] != "Done!" {
			t.Fatalf("unexpected replies %+v", sent)
		}
	})

	t.Run("denied", func(t *testing.T) {
		h := newHarness(t, "1")
		handler := AllowedOnly(h.deps, "reset")(NewResetHandler(h.deps))

		handler(context.Background(), h.bot, textUpdate("/reset", models.ChatTypePrivate))

		if len(h.assistant.resets) != 0 {
			t.Fatalf("history reset for a denied user: %v", h.assistant.resets)
		}
		sent := h.api.byMethod("sendMessage")
		if len(sent) != 1 || sent[0].params["text"] != config.DefaultMsgNotAllowed {
			t.Fatalf("unexpected replies %+v", sent)
		}
	})
}

func TestMessageHandlerCurrency(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "100 usd", want: "100.0 USD = 9050.0 RUB"},
		{text: "500 рублей", want: "500.0 RUB = 500.0 RUB"},
		{text: "100$ в рублях", want: "100.0 USD = 9050.0 RUB"},
		{text: "100€ сколько рублей", want: "100.0 EUR = 10000.0 RUB"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			// Conversions are not gated, so an empty allow-list must still get a reply.
			h := newHarness(t, "")

			NewMessageHandler(h.deps)(context.Background(), h.bot, textUpdate(tt.text, models.ChatTypePrivate))
			h.deps.Lookups.Wait()

			sent := h.api.byMethod("sendMessage")
			if len(sent) != 1 {
				t.Fatalf("expected one message, got %+v", sent)
			}
			if sent[0].params["text"] != tt.want {
				t.Errorf("text = %q, want %q", sent[0].params["text"], tt.want)
			}
			if len(h.assistant.queries) != 0 {
				t.Errorf("currency message forwarded to assistant: %v", h.assistant.queries)
			}
		})
	}
}

func TestMessageHandlerSilentFailures(t *testing.T) {
	for _, text := range []string{
		"курс евро",    // amount missing
		"10 фунтов",    // rate lookup fails
		"/unknown cmd", // commands never reach the text handler logic
	} {
		t.Run(text, func(t *testing.T) {
			h := newHarness(t, "*")

			NewMessageHandler(h.deps)(context.Background(), h.bot, textUpdate(text, models.ChatTypePrivate))
			h.deps.Lookups.Wait()

			if n := h.api.count(); n != 0 {
				t.Errorf("expected no API calls, got %d", n)
			}
			if len(h.assistant.queries) != 0 {
				t.Errorf("forwarded to assistant: %v", h.assistant.queries)
			}
		})
	}
}

func TestMessageHandlerPrompt(t *testing.T) {
	h := newHarness(t, "42")

	NewMessageHandler(h.deps)(context.Background(), h.bot, textUpdate("tell me a joke", models.ChatTypePrivate))

	if len(h.assistant.queries) != 1 || h.assistant.queries[0] != "tell me a joke" {
		t.Fatalf("queries = %v", h.assistant.queries)
	}
	actions := h.api.byMethod("sendChatAction")
	if len(actions) != 1 || !strings.Contains(actions[0].params["action"], "typing") {
		t.Errorf("expected a typing action, got %+v", actions)
	}

	sent := h.api.byMethod("sendMessage")
	if len(sent) != 1 {
		t.Fatalf("expected one reply, got %+v", sent)
	}
	reply := sent[0].params
	if reply["text"] != "*hi* there" {
		t.Errorf("reply text = %q, want verbatim assistant text", reply["text"])
	}
	if !strings.Contains(reply["parse_mode"], "Markdown") {
		t.Errorf("parse_mode = %q", reply["parse_mode"])
	}
	if !strings.Contains(reply["reply_parameters"], `"message_id":7`) {
		t.Errorf("reply_parameters = %q", reply["reply_parameters"])
	}
}

func TestMessageHandlerPromptDenied(t *testing.T) {
	h := newHarness(t, "1,2")

	NewMessageHandler(h.deps)(context.Background(), h.bot, textUpdate("hello", models.ChatTypePrivate))

	if len(h.assistant.queries) != 0 {
		t.Fatalf("denied prompt reached the assistant: %v", h.assistant.queries)
	}
	sent := h.api.byMethod("sendMessage")
	if len(sent) != 1 || sent[0].params["text"] != config.DefaultMsgNotAllowed {
		t.Fatalf("unexpected replies %+v", sent)
	}
}

func TestMessageHandlerGroupMembership(t *testing.T) {
	// The fake API reports every user as having left, so nobody is a member.
	h := newHarness(t, "1")

	NewMessageHandler(h.deps)(context.Background(), h.bot, textUpdate("hello", models.ChatTypeGroup))

	if got := len(h.api.byMethod("getChatMember")); got != 1 {
		t.Errorf("getChatMember calls = %d, want 1", got)
	}
	if len(h.assistant.queries) != 0 {
		t.Fatalf("prompt from a chat without allowed members reached the assistant")
	}
}

func TestInlineHandler(t *testing.T) {
	h := newHarness(t, "*")
	handler := NewInlineHandler(h.deps)

	handler(context.Background(), h.bot, &models.Update{InlineQuery: &models.InlineQuery{ID: "q1", Query: "", ChatType: "group"}})
	if n := h.api.count(); n != 0 {
		t.Fatalf("empty query answered with %d calls", n)
	}

	handler(context.Background(), h.bot, &models.Update{InlineQuery: &models.InlineQuery{ID: "q2", Query: "what is go", ChatType: "group"}})
	answers := h.api.byMethod("answerInlineQuery")
	if len(answers) != 1 {
		t.Fatalf("expected one answer, got %d", len(answers))
	}
	if answers[0].params["inline_query_id"] != "q2" {
		t.Errorf("inline_query_id = %q", answers[0].params["inline_query_id"])
	}

	var results []map[string]any
	if err := json.Unmarshal([]byte(answers[0].params["results"]), &results); err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0]["title"] != "Ask ChatGPT" || results[0]["description"] != "what is go" || results[0]["id"] != "what is go" {
		t.Errorf("unexpected article %v", results[0])
	}
}

func TestMatchGroupInlineQuery(t *testing.T) {
	tests := []struct {
		update *models.Update
		want   bool
	}{
		{update: &models.Update{InlineQuery: &models.InlineQuery{ChatType: "group"}}, want: true},
		{update: &models.Update{InlineQuery: &models.InlineQuery{ChatType: "supergroup"}}, want: true},
		{update: &models.Update{InlineQuery: &models.InlineQuery{ChatType: "private"}}, want: false},
		{update: &models.Update{InlineQuery: &models.InlineQuery{ChatType: "sender"}}, want: false},
		{update: &models.Update{Message: &models.Message{}}, want: false},
	}
	for i, tt := range tests {
		if got := MatchGroupInlineQuery(tt.update); got != tt.want {
			t.Errorf("case %d: got %v, want %v", i, got, tt.want)
		}
	}
}

func TestInlineResultID(t *testing.T) {
	if got := inlineResultID("short"); got != "short" {
		t.Errorf("short query id = %q", got)
	}
	long := strings.Repeat("ж", 40)
	if got := inlineResultID(long); len(got) > maxInlineResultID || got == long {
		t.Errorf("long query id = %q", got)
	}
}

func TestRegisterAll(t *testing.T) {
	h := newHarness(t, "*")
	registered := RegisterAll(h.deps)

	for _, name := range []string{"/start", "/help", "/reset", "inline_query"} {
		if _, ok := registered[name]; !ok {
			t.Errorf("%s not registered", name)
		}
	}
	if len(registered["/reset"].Middleware) != 1 {
		t.Error("/reset must be access controlled")
	}
	if registered["inline_query"].MatchFunc == nil {
		t.Error("inline queries must be routed by chat type")
	}
}
