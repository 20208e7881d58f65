package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game"
)

// CallbackUnique is the callback prefix of prompt buttons.
const CallbackUnique = "ask"

// Sender is the part of *tele.Bot the prompter needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
}

// Telegram implements game.Prompter and game.Announcer on top of a bot.
type Telegram struct {
	sender Sender
	broker *Broker
}

// NewTelegram creates a Telegram prompter.
func NewTelegram(sender Sender, broker *Broker) *Telegram {
	return &Telegram{sender: sender, broker: broker}
}

// Ask posts question with one button per option in chatID and waits for
// actor to press one.
func (t *Telegram) Ask(ctx context.Context, chatID int64, actor game.Actor, question string, options []game.Option, timeout time.Duration) (game.Option, bool, error) {
	var sent *tele.Message
	idx, ok, err := t.broker.Await(ctx, actor.ID, len(options), timeout, func(token string) error {
		markup := &tele.ReplyMarkup{}
		rows := make([]tele.Row, 0, len(options))
		for i, opt := range options {
			rows = append(rows, markup.Row(markup.Data(opt.Label, CallbackUnique, token, strconv.Itoa(i))))
		}
		markup.Inline(rows...)

		msg, err := t.sender.Send(tele.ChatID(chatID), question, markup)
		if err != nil {
			return fmt.Errorf("failed to send prompt: %w", err)
		}
		sent = msg
		return nil
	})

	if sent != nil {
		if _, editErr := t.sender.EditReplyMarkup(sent, nil); editErr != nil {
			log.Debug().Err(editErr).Int64("chat_id", chatID).Msg("Failed to clear prompt keyboard")
		}
	}
	if err != nil || !ok {
		return game.Option{}, false, err
	}
	return options[idx], true, nil
}

// Announce posts text to the chat.
func (t *Telegram) Announce(ctx context.Context, chatID int64, text string) error {
	if _, err := t.sender.Send(tele.ChatID(chatID), text); err != nil {
		return fmt.Errorf("failed to announce: %w", err)
	}
	return nil
}

// Whisper sends text to actor in a private chat. It fails if the actor
// never started the bot.
func (t *Telegram) Whisper(ctx context.Context, actor game.Actor, text string) error {
	if _, err := t.sender.Send(&tele.User{ID: actor.ID}, text); err != nil {
		return fmt.Errorf("failed to whisper: %w", err)
	}
	return nil
}

// ParseCallback extracts the prompt token and option index from button data.
func ParseCallback(data string) (token string, idx int, ok bool) {
	data = strings.TrimPrefix(data, "\f")
	parts := strings.Split(data, "|")
	if len(parts) != 3 || parts[0] != CallbackUnique {
		return "", 0, false
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, false
	}
	return parts[1], idx, true
}

// HandleCallback routes a prompt button press to the waiting game.
func (t *Telegram) HandleCallback(c tele.Context) error {
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	token, idx, ok := ParseCallback(callback.Data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid action"})
	}

	err := t.broker.Resolve(token, sender.ID, idx)
	switch {
	case err == nil:
		return c.Respond(&tele.CallbackResponse{Text: "✅ Got it"})
	case errors.Is(err, ErrNotYourPrompt):
		return c.Respond(&tele.CallbackResponse{Text: "❌ " + err.Error(), ShowAlert: true})
	default:
		return c.Respond(&tele.CallbackResponse{Text: "❌ " + err.Error()})
	}
}
