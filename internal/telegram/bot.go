// Package telegram is a chat front-end for portfolio comparisons. Each chat
// keeps its own active portfolio and window.
package telegram

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
	log zerolog.Logger
}

func NewBot(token, webhookURL string, backend Backend, comment Commentator, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	log.Info().Str("webhook", webhookURL).Str("bot", api.Self.UserName).Msg("telegram: webhook set")

	return &Bot{api: api, h: NewHandlers(api, backend, comment, log), log: log}, nil
}

// WebhookHandler is registered at /telegram/webhook.
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	handleUpdate(w, r, b.h, b.log)
}

// Close cancels all outstanding queries.
func (b *Bot) Close() { b.h.Close() }

func handleUpdate(w http.ResponseWriter, r *http.Request, h *Handlers, log zerolog.Logger) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	if m := update.Message; m != nil && m.Chat != nil {
		ev := log.Debug().Int64("chat_id", m.Chat.ID).Str("text", m.Text)
		if m.From != nil {
			ev = ev.Int64("from", m.From.ID)
		}
		ev.Msg("webhook: message")
		go h.HandleMessage(m)
	} else {
		log.Debug().Int("update_id", update.UpdateID).Msg("webhook: non-message update received")
	}
	w.WriteHeader(http.StatusOK)
}
