package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/otayori/internal/metrics"
	"github.com/sakif/otayori/internal/model"
	"github.com/sakif/otayori/internal/repository"
)

// SubmitMessageInput is a student's submission.
//
// SchoolYear and SchoolClass are combined into one display label; IPAddress
// is filled in by the handler, never decoded from the body.
type SubmitMessageInput struct {
	SenderName  string `json:"sender_name"`
	RadioName   string `json:"radio_name" validate:"required"`
	SchoolYear  string `json:"school_year"`
	SchoolClass string `json:"school_class"`
	ThemeID     string `json:"theme_id" validate:"omitempty,xid"`
	Content     string `json:"content" validate:"required"`
	ShareName   bool   `json:"share_name"`
	ShareClass  bool   `json:"share_class"`
	ShareTheme  bool   `json:"share_theme"`
	IPAddress   string `json:"-"`
}

type MessageService struct {
	repo   repository.MessageRepository
	logger *slog.Logger
}

func NewMessageService(repo repository.MessageRepository, logger *slog.Logger) *MessageService {
	return &MessageService{repo: repo, logger: logger}
}

// Submit validates and stores a message, returning its id.
//
// theme_id is only checked for shape. A well-formed id of a theme that does
// not exist is stored as given.
func (s *MessageService) Submit(ctx context.Context, input SubmitMessageInput) (string, error) {
	input.RadioName = strings.TrimSpace(input.RadioName)
	input.ThemeID = strings.TrimSpace(input.ThemeID)

	// Content is stored as written; whitespace-only still counts as empty.
	check := input
	check.Content = strings.TrimSpace(input.Content)
	if err := checkStruct(check); err != nil {
		return "", err
	}

	msg := &model.Message{
		SenderName:  optional(input.SenderName),
		RadioName:   input.RadioName,
		SchoolClass: model.SchoolClassLabel(strings.TrimSpace(input.SchoolYear), strings.TrimSpace(input.SchoolClass)),
		ThemeID:     optional(input.ThemeID),
		Content:     input.Content,
		ShareName:   input.ShareName,
		ShareClass:  input.ShareClass,
		ShareTheme:  input.ShareTheme,
		IPAddress:   optional(input.IPAddress),
	}

	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		s.logger.Error("failed to store message",
			slog.String("radio_name", msg.RadioName),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("storing message: %w", err)
	}

	metrics.MessagesSubmitted.Inc()
	s.logger.Info("message submitted",
		slog.String("id", msg.ID),
		slog.Bool("has_theme", msg.ThemeID != nil),
	)

	return msg.ID, nil
}

// ListForStaff returns every message with its theme title, newest first.
func (s *MessageService) ListForStaff(ctx context.Context) ([]model.StaffMessage, error) {
	messages, err := s.repo.ListStaffMessages(ctx)
	if err != nil {
		s.logger.Error("failed to list messages", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags a message as read. Repeating it, or naming a message
// that does not exist, succeeds without effect.
func (s *MessageService) MarkRead(ctx context.Context, id string) error {
	if err := requireID("message", id); err != nil {
		return err
	}

	if err := s.repo.MarkMessageRead(ctx, id); err != nil {
		s.logger.Error("failed to mark message read",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("marking message read: %w", err)
	}
	return nil
}

// ListLogs is the teacher's audit view: every message, reduced to the
// identifying fields, regardless of what the student agreed to share.
func (s *MessageService) ListLogs(ctx context.Context) ([]model.MessageLog, error) {
	messages, err := s.ListForStaff(ctx)
	if err != nil {
		return nil, err
	}

	logs := make([]model.MessageLog, len(messages))
	for i, m := range messages {
		logs[i] = m.Log()
	}
	return logs, nil
}
