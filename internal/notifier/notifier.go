package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/Leopold1975/awr_control/pkg/logger"
	tele "gopkg.in/telebot.v3"
)

// Event - входящее сообщение с метаданными чата.
type Event struct {
	ChatID     int64
	ChatTitle  string
	ThreadID   int
	SenderID   int64
	SenderName string
	Text       string
}

// Summary собирает построчную сводку по сообщению.
// Название чата и ID темы выводятся, только если они есть.
func Summary(e Event) string {
	var sb strings.Builder

	sb.WriteString("==========\n")

	if e.ChatTitle != "" {
		fmt.Fprintf(&sb, "Chat title: %s\n", e.ChatTitle)
	}

	fmt.Fprintf(&sb, "Chat ID: %d\n", e.ChatID)

	if e.ThreadID != 0 {
		fmt.Fprintf(&sb, "Topic ID (message_thread_id): %d\n", e.ThreadID)
	}

	fmt.Fprintf(&sb, "User: %s (%d)\n", e.SenderName, e.SenderID)
	fmt.Fprintf(&sb, "Message: %s", e.Text)

	return sb.String()
}

// EventFrom достаёт событие из контекста telebot. ok == false, если в апдейте нет сообщения.
func EventFrom(c tele.Context) (Event, bool) {
	msg := c.Message()
	if msg == nil {
		return Event{}, false
	}

	e := Event{
		ThreadID: msg.ThreadID,
		Text:     msg.Text,
	}

	if e.Text == "" {
		e.Text = msg.Caption
	}

	if e.Text == "" {
		e.Text = serviceText(msg)
	}

	if chat := c.Chat(); chat != nil {
		e.ChatID = chat.ID
		e.ChatTitle = chat.Title
	}

	switch u := c.Sender(); {
	case u != nil:
		e.SenderID = u.ID
		e.SenderName = fullName(u)
	case msg.SenderChat != nil:
		e.SenderID = msg.SenderChat.ID
		e.SenderName = msg.SenderChat.Title
	}

	return e, true
}

// serviceText описывает служебное сообщение, у которого нет ни текста, ни подписи.
func serviceText(msg *tele.Message) string {
	switch {
	case msg.UserJoined != nil:
		return "[joined: " + fullName(msg.UserJoined) + "]"
	case len(msg.UsersJoined) > 0:
		names := make([]string, 0, len(msg.UsersJoined))
		for i := range msg.UsersJoined {
			names = append(names, fullName(&msg.UsersJoined[i]))
		}

		return "[joined: " + strings.Join(names, ", ") + "]"
	case msg.UserLeft != nil:
		return "[left: " + fullName(msg.UserLeft) + "]"
	case msg.NewGroupTitle != "":
		return "[new title: " + msg.NewGroupTitle + "]"
	case msg.PinnedMessage != nil:
		return "[pinned message " + strconv.Itoa(msg.PinnedMessage.ID) + "]"
	case msg.TopicCreated != nil:
		return "[topic created: " + msg.TopicCreated.Name + "]"
	case msg.GroupPhotoDeleted:
		return "[chat photo deleted]"
	case msg.NewGroupPhoto != nil:
		return "[new chat photo]"
	}

	return ""
}

func fullName(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}

	return name
}

// Handler пишет сводку в лог или отправляет её обратно в чат.
type Handler struct {
	mode string
	lg   logger.Logger
}

func NewHandler(mode string, lg logger.Logger) (*Handler, error) {
	switch mode {
	case config.NotifyLog, config.NotifyReply:
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownMode, mode)
	}

	return &Handler{mode: mode, lg: lg}, nil
}

func (h *Handler) Handle(c tele.Context) error {
	e, ok := EventFrom(c)
	if !ok {
		return nil
	}

	s := Summary(e)

	if h.mode == config.NotifyReply {
		if err := c.Send(s, &tele.SendOptions{ThreadID: e.ThreadID}); err != nil { //nolint:exhaustruct
			return fmt.Errorf("send summary to chat %d error: %w", e.ChatID, err)
		}

		return nil
	}

	h.lg.With("chat_id", e.ChatID).Info(s)

	return nil
}

type Notifier struct {
	api *tele.Bot
	lg  logger.Logger
}

func New(cfg config.Telegram, lg logger.Logger) (*Notifier, error) {
	pref := tele.Settings{ //nolint:exhaustruct
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout}, //nolint:exhaustruct
	}

	return NewWithSettings(pref, cfg.Mode, lg)
}

// NewWithSettings собирает бота из готовых настроек telebot.
func NewWithSettings(pref tele.Settings, mode string, lg logger.Logger) (*Notifier, error) {
	h, err := NewHandler(mode, lg)
	if err != nil {
		return nil, err
	}

	if pref.OnError == nil {
		pref.OnError = func(err error, c tele.Context) {
			lg.Errorf("handle update error: %s", err.Error())
		}
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("new bot error: %w", err)
	}

	n := &Notifier{api: b, lg: lg}
	n.register(h)

	return n, nil
}

// messageEndpoints - все события telebot, в которых есть сообщение.
// Общего обработчика в telebot нет, поэтому служебные сообщения перечислены явно.
var messageEndpoints = []string{ //nolint:gochecknoglobals
	tele.OnText,
	tele.OnMedia,
	tele.OnContact,
	tele.OnLocation,
	tele.OnVenue,
	tele.OnGame,
	tele.OnDice,
	tele.OnInvoice,
	tele.OnPayment,
	tele.OnPinned,
	tele.OnChannelPost,
	tele.OnTopicCreated,
	tele.OnTopicReopened,
	tele.OnTopicClosed,
	tele.OnTopicEdited,
	tele.OnGeneralTopicHidden,
	tele.OnGeneralTopicUnhidden,
	tele.OnWriteAccessAllowed,
	tele.OnAddedToGroup,
	tele.OnUserJoined,
	tele.OnUserLeft,
	tele.OnUserShared,
	tele.OnChatShared,
	tele.OnNewGroupTitle,
	tele.OnNewGroupPhoto,
	tele.OnGroupPhotoDeleted,
	tele.OnGroupCreated,
	tele.OnSuperGroupCreated,
	tele.OnChannelCreated,
	tele.OnMigration,
	tele.OnVideoChatStarted,
	tele.OnVideoChatEnded,
	tele.OnVideoChatParticipants,
	tele.OnVideoChatScheduled,
	tele.OnWebApp,
	tele.OnProximityAlert,
	tele.OnAutoDeleteTimer,
}

func (n *Notifier) register(h *Handler) {
	for _, endpoint := range messageEndpoints {
		n.api.Handle(endpoint, h.Handle)
	}
}

// Run запускает long polling и останавливает его при отмене ctx.
func (n *Notifier) Run(ctx context.Context) {
	n.lg.Infof("bot started: %s", n.api.Me.Username)

	done := make(chan struct{})

	go func() {
		n.api.Start()
		close(done)
	}()

	<-ctx.Done()

	n.api.Stop()
	<-done

	n.lg.Info("bot stopped")
}
