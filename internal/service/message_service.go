package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/tracing"
	"github.com/aryan0dhankhar/wardenlink/internal/presence"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
	"github.com/aryan0dhankhar/wardenlink/internal/security/crypto"
)

const maxMessageLength = 4000

// MessageService stores messages encrypted and pushes them to live clients
type MessageService struct {
	messages  domain.MessageRepository
	users     domain.UserRepository
	groups    domain.GroupRepository
	cipher    *crypto.MessageCipher
	publisher presence.Publisher
	authz     *security.Authorizer
	logger    *slog.Logger
	now       func() time.Time
}

func NewMessageService(
	messages domain.MessageRepository,
	users domain.UserRepository,
	groups domain.GroupRepository,
	cipher *crypto.MessageCipher,
	publisher presence.Publisher,
	authz *security.Authorizer,
	logger *slog.Logger,
) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{
		messages:  messages,
		users:     users,
		groups:    groups,
		cipher:    cipher,
		publisher: publisher,
		authz:     authz,
		logger:    logger,
		now:       utcNow,
	}
}

// SendInput is the body of POST /api/messages. Exactly one of To and Group
// is set, and at least one of Text and Attachment.
type SendInput struct {
	To         string             `json:"to"`
	Group      string             `json:"group"`
	Text       string             `json:"text"`
	Attachment *domain.Attachment `json:"attachment"`
}

func (in SendInput) validate() error {
	if (in.To == "") == (in.Group == "") {
		return domain.Invalid("exactly one of to or group is required")
	}
	if strings.TrimSpace(in.Text) == "" && in.Attachment == nil {
		return domain.Invalid("text or attachment is required")
	}
	if utf8.RuneCountInString(in.Text) > maxMessageLength {
		return domain.Invalid("message text is too long")
	}
	if a := in.Attachment; a != nil {
		if strings.TrimSpace(a.URL) == "" {
			return domain.Invalid("attachment url is required")
		}
		if !a.Kind.Valid() {
			return domain.Invalid("attachment kind must be image, voice or document")
		}
	}
	return nil
}

// Send persists the message and pushes the decrypted view to the recipient
// or group room. The push is best effort.
func (s *MessageService) Send(ctx context.Context, sender *domain.User, in SendInput) (view *domain.MessageView, err error) {
	ctx, span := tracing.Start(ctx, "message.send")
	defer func() { tracing.End(span, err) }()

	if err := in.validate(); err != nil {
		return nil, err
	}

	kind := "direct"
	if in.Group != "" {
		kind = "group"
		if err := s.checkGroupPost(ctx, sender, in.Group); err != nil {
			return nil, err
		}
	} else {
		if in.To == sender.ID {
			return nil, domain.Invalid("you cannot message yourself")
		}
		if _, err := s.users.GetByID(ctx, in.To); err != nil {
			return nil, err
		}
	}

	env, err := s.cipher.Encrypt(in.Text)
	if err != nil {
		return nil, err
	}
	m := &domain.Message{
		SenderID:    sender.ID,
		RecipientID: in.To,
		GroupID:     in.Group,
		Envelope:    env,
		Attachment:  in.Attachment,
		ReadBy:      []string{},
		CreatedAt:   s.now(),
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("message.id", m.ID), attribute.String("message.kind", kind))
	metrics.ObserveMessage(kind)

	view, err = s.view(m)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, presence.MessageEvent(view))
	return view, nil
}

// checkGroupPost requires membership, and admin rights in read-only groups.
func (s *MessageService) checkGroupPost(ctx context.Context, sender *domain.User, groupID string) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	p := security.PrincipalOf(sender)
	if p.IsSuperAdmin() {
		return nil
	}
	if !g.HasMember(sender.ID) {
		return domain.Forbidden("not a member of this group")
	}
	if g.IsReadOnly && !g.HasAdmin(sender.ID) {
		return domain.Forbidden("group is read-only")
	}
	return nil
}

// History returns up to domain.HistoryLimit messages, oldest first, for a
// conversation with withUser or for groupID.
func (s *MessageService) History(ctx context.Context, caller *domain.User, withUser, groupID string) ([]*domain.MessageView, error) {
	if (withUser == "") == (groupID == "") {
		return nil, domain.Invalid("exactly one of withUser or groupId is required")
	}

	var (
		msgs []*domain.Message
		err  error
	)
	if withUser != "" {
		msgs, err = s.directHistory(ctx, caller, withUser)
	} else if err = s.checkGroupRead(ctx, caller, groupID); err == nil {
		msgs, err = s.messages.ListGroup(ctx, groupID, domain.HistoryLimit)
	}
	if err != nil {
		return nil, err
	}

	views := make([]*domain.MessageView, 0, len(msgs))
	for _, m := range msgs {
		v, err := s.view(m)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *MessageService) directHistory(ctx context.Context, caller *domain.User, peerID string) ([]*domain.Message, error) {
	has, err := s.messages.HasConversation(ctx, caller.ID, peerID)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, domain.Forbidden("no conversation with this user")
	}
	return s.messages.ListDirect(ctx, caller.ID, peerID, domain.HistoryLimit)
}

func (s *MessageService) checkGroupRead(ctx context.Context, caller *domain.User, groupID string) error {
	member, err := s.groups.IsMember(ctx, groupID, caller.ID)
	if err != nil {
		return err
	}
	if !member && !security.PrincipalOf(caller).IsSuperAdmin() {
		return domain.Forbidden("not a member of this group")
	}
	return nil
}

// MarkRead records that the caller has read a message addressed to them.
func (s *MessageService) MarkRead(ctx context.Context, caller *domain.User, messageID string) error {
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.IsDirect() {
		if m.RecipientID != caller.ID && m.SenderID != caller.ID {
			return domain.Forbidden("not a participant in this conversation")
		}
	} else if err := s.checkGroupRead(ctx, caller, m.GroupID); err != nil {
		return err
	}
	return s.messages.MarkRead(ctx, messageID, caller.ID)
}

// view decrypts m for delivery. The plaintext is never stored.
func (s *MessageService) view(m *domain.Message) (*domain.MessageView, error) {
	text, err := s.cipher.Decrypt(m.Envelope)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			s.logger.Error("message failed authentication", slog.String("message_id", m.ID))
		}
		return nil, err
	}
	readBy := m.ReadBy
	if readBy == nil {
		readBy = []string{}
	}
	return &domain.MessageView{
		ID:         m.ID,
		SenderID:   m.SenderID,
		To:         m.RecipientID,
		Group:      m.GroupID,
		Text:       text,
		Attachment: m.Attachment,
		ReadBy:     readBy,
		CreatedAt:  m.CreatedAt,
	}, nil
}
