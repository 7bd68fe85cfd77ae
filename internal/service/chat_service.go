package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyMessage    = errors.New("message cannot be empty")
	ErrMessageNotFound = errors.New("message not found")
)

type SendMessageRequest struct {
	Message     string            `json:"message" binding:"required"`
	MessageType string            `json:"message_type"`
	Attachments model.Attachments `json:"attachments"`
}

// ChatService handles per-project conversations. Access piggybacks on
// project membership; the first interaction registers the user as a
// participant.
type ChatService interface {
	Send(ctx context.Context, actor Actor, projectID string, req SendMessageRequest) (*model.ChatMessage, error)
	List(ctx context.Context, actor Actor, projectID string, limit int) ([]model.ChatMessage, error)
	MarkRead(ctx context.Context, actor Actor, projectID, messageID string) (*model.ChatMessage, error)
	UnreadCount(ctx context.Context, actor Actor, projectID string) (int64, error)
}

type chatService struct {
	chats      repository.ChatRepository
	projectSvc ProjectService
	events     EventPublisher
}

func NewChatService(chats repository.ChatRepository, projectSvc ProjectService, events EventPublisher) ChatService {
	return &chatService{chats: chats, projectSvc: projectSvc, events: events}
}

// requireAccess loads the project and checks the actor can see it.
func (s *chatService) requireAccess(ctx context.Context, actor Actor, projectID string) error {
	_, err := s.projectSvc.Get(ctx, actor, projectID)
	return err
}

func (s *chatService) Send(ctx context.Context, actor Actor, projectID string, req SendMessageRequest) (*model.ChatMessage, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	if err := s.requireAccess(ctx, actor, projectID); err != nil {
		return nil, err
	}

	senderID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, err
	}
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, err
	}

	msgType := req.MessageType
	if msgType == "" {
		msgType = model.MessageText
	}

	if err := s.chats.EnsureParticipant(ctx, projectID, actor.ID); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		ProjectID:   pid,
		SenderID:    senderID,
		Message:     req.Message,
		MessageType: msgType,
		Attachments: req.Attachments,
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	created, err := s.chats.GetMessage(ctx, projectID, msg.ID.String())
	if err != nil {
		return msg, nil
	}
	publish(s.events, EventChatMessage, created)
	return created, nil
}

func (s *chatService) List(ctx context.Context, actor Actor, projectID string, limit int) ([]model.ChatMessage, error) {
	if err := s.requireAccess(ctx, actor, projectID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if err := s.chats.EnsureParticipant(ctx, projectID, actor.ID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, projectID, limit)
}

func (s *chatService) MarkRead(ctx context.Context, actor Actor, projectID, messageID string) (*model.ChatMessage, error) {
	if err := s.requireAccess(ctx, actor, projectID); err != nil {
		return nil, err
	}

	msg, err := s.chats.GetMessage(ctx, projectID, messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}
	// Reading your own message is a no-op.
	if msg.SenderID.String() != actor.ID && !msg.IsRead {
		now := time.Now()
		if err := s.chats.MarkRead(ctx, messageID, now); err != nil {
			return nil, err
		}
		if err := s.chats.TouchLastRead(ctx, projectID, actor.ID, now); err != nil {
			return nil, err
		}
	}
	return s.chats.GetMessage(ctx, projectID, messageID)
}

func (s *chatService) UnreadCount(ctx context.Context, actor Actor, projectID string) (int64, error) {
	if err := s.requireAccess(ctx, actor, projectID); err != nil {
		return 0, err
	}
	return s.chats.CountUnread(ctx, projectID, actor.ID)
}
