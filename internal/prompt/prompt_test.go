package prompt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game"
)

func TestBroker_ResolveDeliversAnswer(t *testing.T) {
	b := NewBroker()
	tokens := make(chan string, 1)

	go func() {
		token := <-tokens
		assert.ErrorIs(t, b.Resolve(token, 99, 0), ErrNotYourPrompt)
		assert.ErrorIs(t, b.Resolve(token, 7, 3), ErrInvalidChoice)
		assert.NoError(t, b.Resolve(token, 7, 2))
		assert.ErrorIs(t, b.Resolve(token, 7, 1), ErrUnknownPrompt)
	}()

	idx, ok, err := b.Await(context.Background(), 7, 3, 5*time.Second, func(token string) error {
		tokens <- token
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Zero(t, b.Pending())
}

func TestBroker_TimeoutIsNotAnError(t *testing.T) {
	b := NewBroker()
	var token string

	_, ok, err := b.Await(context.Background(), 7, 2, 10*time.Millisecond, func(tk string) error {
		token = tk
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, b.Pending())
	assert.ErrorIs(t, b.Resolve(token, 7, 0), ErrUnknownPrompt)
}

func TestBroker_ContextCancel(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())

	_, ok, err := b.Await(ctx, 7, 2, time.Hour, func(string) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
	assert.Zero(t, b.Pending())
}

func TestBroker_SendFailure(t *testing.T) {
	b := NewBroker()
	boom := errors.New("boom")

	_, _, err := b.Await(context.Background(), 7, 2, time.Hour, func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, b.Pending())

	_, _, err = b.Await(context.Background(), 7, 0, time.Hour, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data  string
		token string
		idx   int
		ok    bool
	}{
		{data: "\fask|abc|2", token: "abc", idx: 2, ok: true},
		{data: "ask|abc|0", token: "abc", idx: 0, ok: true},
		{data: "ask|abc", ok: false},
		{data: "ask|abc|x", ok: false},
		{data: "duel_accept|1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			token, idx, ok := ParseCallback(tt.data)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.token, token)
				assert.Equal(t, tt.idx, idx)
			}
		})
	}
}

type sentMessage struct {
	to     tele.Recipient
	what   interface{}
	markup *tele.ReplyMarkup
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	cleared int
	onSend  func(m sentMessage)
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	m := sentMessage{to: to, what: what}
	for _, o := range opts {
		if markup, ok := o.(*tele.ReplyMarkup); ok {
			m.markup = markup
		}
	}
	f.mu.Lock()
	f.sent = append(f.sent, m)
	onSend := f.onSend
	f.mu.Unlock()
	if onSend != nil {
		onSend(m)
	}
	return &tele.Message{ID: len(f.sent)}, nil
}

func (f *fakeSender) EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil, nil
}

func TestTelegram_AskRoundTrip(t *testing.T) {
	broker := NewBroker()
	sender := &fakeSender{}
	tg := NewTelegram(sender, broker)

	sender.onSend = func(m sentMessage) {
		require.NotNil(t, m.markup)
		require.Len(t, m.markup.InlineKeyboard, 2)
		btn := m.markup.InlineKeyboard[1][0]
		assert.Equal(t, "bob", btn.Text)

		data := btn.Data
		if !strings.HasPrefix(data, "\f") {
			data = "\f" + btn.Unique + "|" + data
		}
		token, idx, ok := ParseCallback(data)
		require.True(t, ok)
		go func() {
			assert.NoError(t, broker.Resolve(token, 1, idx))
		}()
	}

	options := []game.Option{{Key: "2", Label: "alice"}, {Key: "3", Label: "bob"}}
	choice, ok, err := tg.Ask(context.Background(), 100, game.Actor{ID: 1, Name: "carol"}, "pick", options, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, options[1], choice)
	assert.Equal(t, 1, sender.cleared)
	assert.Equal(t, tele.ChatID(100), sender.sent[0].to)
}

func TestTelegram_AnnounceAndWhisper(t *testing.T) {
	sender := &fakeSender{}
	tg := NewTelegram(sender, NewBroker())

	require.NoError(t, tg.Announce(context.Background(), 100, "hello"))
	require.NoError(t, tg.Whisper(context.Background(), game.Actor{ID: 5}, "psst"))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, tele.ChatID(100), sender.sent[0].to)
	assert.Equal(t, "5", sender.sent[1].to.Recipient())
	assert.Equal(t, "psst", sender.sent[1].what)
}
