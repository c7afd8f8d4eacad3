package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/Leopold1975/awr_control/pkg/logger"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

// fakeTelegram принимает sendMessage и запоминает параметры запросов.
type fakeTelegram struct {
	mu   sync.Mutex
	sent []map[string]string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := map[string]string{}
	_ = json.NewDecoder(r.Body).Decode(&params)

	if strings.HasSuffix(r.URL.Path, "/sendMessage") {
		f.mu.Lock()
		f.sent = append(f.sent, params)
		f.mu.Unlock()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":-100123}}}`)) //nolint:errcheck
}

func (f *fakeTelegram) messages() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]map[string]string(nil), f.sent...)
}

func offlineNotifier(t *testing.T) (*Notifier, *fakeTelegram) {
	t.Helper()

	fake := &fakeTelegram{} //nolint:exhaustruct
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	n, err := NewWithSettings(tele.Settings{ //nolint:exhaustruct
		URL:         srv.URL,
		Token:       "123:test",
		Offline:     true,
		Synchronous: true,
		OnError: func(err error, _ tele.Context) {
			t.Errorf("handler error: %s", err.Error())
		},
	}, config.NotifyReply, logger.NewNop())
	require.NoError(t, err)

	return n, fake
}

func groupChat() *tele.Chat {
	return &tele.Chat{ID: -100123, Title: "AWR бригады", Type: tele.ChatSuperGroup} //nolint:exhaustruct
}

func TestUserJoinedIsReported(t *testing.T) {
	n, fake := offlineNotifier(t)

	n.api.ProcessUpdate(tele.Update{ //nolint:exhaustruct
		ID: 1,
		Message: &tele.Message{ //nolint:exhaustruct
			ID:         10,
			ThreadID:   42,
			Chat:       groupChat(),
			Sender:     &tele.User{ID: 777, FirstName: "Иван", LastName: "Петров"}, //nolint:exhaustruct
			UserJoined: &tele.User{ID: 777, FirstName: "Иван", LastName: "Петров"}, //nolint:exhaustruct
		},
	})

	sent := fake.messages()
	require.Len(t, sent, 1)
	require.Equal(t, "-100123", sent[0]["chat_id"])
	require.Equal(t, "42", sent[0]["message_thread_id"])
	require.Contains(t, sent[0]["text"], "Chat title: AWR бригады")
	require.Contains(t, sent[0]["text"], "User: Иван Петров (777)")
	require.Contains(t, sent[0]["text"], "Message: [joined: Иван Петров]")
}

func TestServiceMessagesAreReported(t *testing.T) {
	sender := &tele.User{ID: 777, FirstName: "Иван"} //nolint:exhaustruct

	cases := []struct {
		name string
		msg  *tele.Message
		text string
	}{
		{
			name: "new title",
			msg:  &tele.Message{NewGroupTitle: "AWR север"}, //nolint:exhaustruct
			text: "Message: [new title: AWR север]",
		},
		{
			name: "pinned",
			msg:  &tele.Message{PinnedMessage: &tele.Message{ID: 5}}, //nolint:exhaustruct
			text: "Message: [pinned message 5]",
		},
		{
			name: "topic created",
			msg:  &tele.Message{TopicCreated: &tele.Topic{Name: "Ленина"}}, //nolint:exhaustruct
			text: "Message: [topic created: Ленина]",
		},
		{
			name: "user left",
			msg:  &tele.Message{UserLeft: &tele.User{ID: 8, Username: "brig8"}}, //nolint:exhaustruct
			text: "Message: [left: brig8]",
		},
		{
			name: "photo",
			msg:  &tele.Message{Photo: &tele.Photo{}, Caption: "муфта"}, //nolint:exhaustruct
			text: "Message: муфта",
		},
		{
			name: "plain text",
			msg:  &tele.Message{Text: "кабель проложен"}, //nolint:exhaustruct
			text: "Message: кабель проложен",
		},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, fake := offlineNotifier(t)

			tc.msg.Chat = groupChat()
			tc.msg.Sender = sender

			n.api.ProcessUpdate(tele.Update{ID: i + 1, Message: tc.msg}) //nolint:exhaustruct

			sent := fake.messages()
			require.Len(t, sent, 1)
			require.Contains(t, sent[0]["text"], tc.text)
		})
	}
}

func TestChannelPostIsReported(t *testing.T) {
	n, fake := offlineNotifier(t)

	n.api.ProcessUpdate(tele.Update{ //nolint:exhaustruct
		ID: 1,
		ChannelPost: &tele.Message{ //nolint:exhaustruct
			Text:       "объявление",
			Chat:       &tele.Chat{ID: -200, Title: "Канал", Type: tele.ChatChannel}, //nolint:exhaustruct
			SenderChat: &tele.Chat{ID: -200, Title: "Канал", Type: tele.ChatChannel}, //nolint:exhaustruct
		},
	})

	sent := fake.messages()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0]["text"], "User: Канал (-200)")
}
