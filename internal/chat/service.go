package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"taskdesk/server/internal/db"
	"taskdesk/server/internal/logging"
	"taskdesk/server/internal/store"
	"taskdesk/server/internal/tools"
)

// ConversationStore is the slice of the conversation store a turn needs.
// Implemented by *store.ConversationStore.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID, title string) (*db.Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID string) (*db.Conversation, error)
	AppendMessage(ctx context.Context, in store.AppendMessageInput) (*db.Message, error)
	History(ctx context.Context, userID, conversationID string) ([]db.Message, error)
}

// maxAnswerLength matches the store's message size cap.
const maxAnswerLength = 10000

type TurnInput struct {
	Message        string
	ConversationID string
}

type TurnResult struct {
	ConversationID string
	Answer         string
	Records        []tools.Record
}

// Service executes chat turns. Stateless across turns: every call starts
// from durable storage, and nothing about a conversation is cached between
// requests.
type Service struct {
	convs         ConversationStore
	registry      *tools.Registry
	engine        CompletionClient
	maxToolRounds int
	log           *slog.Logger
}

func NewService(convs ConversationStore, registry *tools.Registry, engine CompletionClient, maxToolRounds int, log *slog.Logger) *Service {
	if maxToolRounds <= 0 {
		maxToolRounds = 4
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		convs:         convs,
		registry:      registry,
		engine:        engine,
		maxToolRounds: maxToolRounds,
		log:           log,
	}
}

// ProcessMessage runs one full turn: resolve the conversation, persist the
// inbound message, rebuild history, drive the reasoning engine through a
// bounded number of tool rounds, then persist the agent's answer together
// with the operation audit trail.
func (s *Service) ProcessMessage(ctx context.Context, userID string, in TurnInput) (*TurnResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", store.ErrInvalidInput)
	}

	conv, err := s.resolveConversation(ctx, userID, in.ConversationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.convs.AppendMessage(ctx, store.AppendMessageInput{
		ConversationID: conv.ID,
		UserID:         userID,
		Role:           store.RoleUser,
		Content:        in.Message,
	}); err != nil {
		return nil, err
	}

	history, err := s.convs.History(ctx, userID, conv.ID)
	if err != nil {
		return nil, err
	}

	answer, records := s.runEngine(ctx, userID, history)
	// Keep the reply within the message size cap so the append cannot fail.
	if utf8.RuneCountInString(answer) > maxAnswerLength {
		answer = string([]rune(answer)[:maxAnswerLength])
	}

	var toolCalls json.RawMessage
	if len(records) > 0 {
		raw, err := json.Marshal(records)
		if err != nil {
			return nil, err
		}
		toolCalls = raw
	}
	if _, err := s.convs.AppendMessage(ctx, store.AppendMessageInput{
		ConversationID: conv.ID,
		UserID:         userID,
		Role:           store.RoleAgent,
		Content:        answer,
		ToolCalls:      toolCalls,
	}); err != nil {
		return nil, err
	}

	return &TurnResult{
		ConversationID: conv.ID,
		Answer:         answer,
		Records:        records,
	}, nil
}

func (s *Service) resolveConversation(ctx context.Context, userID, conversationID string) (*db.Conversation, error) {
	if strings.TrimSpace(conversationID) != "" {
		return s.convs.GetConversation(ctx, userID, conversationID)
	}
	return s.convs.CreateConversation(ctx, userID, "")
}

// runEngine drives the bounded tool loop. Any engine failure collapses to
// the fixed apology with zero records; operation errors do not abort the
// turn, they are reported back to the engine inside the envelope.
func (s *Service) runEngine(ctx context.Context, userID string, history []db.Message) (string, []tools.Record) {
	transcript := make([]TranscriptMessage, 0, len(history)+1)
	transcript = append(transcript, TranscriptMessage{Role: "system", Content: systemPrompt})
	for _, msg := range history {
		role := "user"
		if msg.Role == string(store.RoleAgent) {
			role = "assistant"
		}
		transcript = append(transcript, TranscriptMessage{Role: role, Content: msg.Content})
	}

	specs := s.registry.Specs()
	var records []tools.Record

	for round := 0; ; round++ {
		offered := specs
		if round >= s.maxToolRounds {
			// Safety limit reached: force a final answer.
			offered = nil
		}

		res, err := s.engine.Complete(ctx, CompletionRequest{Messages: transcript, Tools: offered})
		if err != nil {
			s.log.Error("reasoning engine call failed", "round", round, "error", err)
			return apologyAnswer, nil
		}
		if len(res.ToolRequests) == 0 || offered == nil {
			answer := strings.TrimSpace(res.Text)
			if answer == "" {
				answer = apologyAnswer
			}
			return answer, records
		}

		assistantText := strings.TrimSpace(res.Text)
		if assistantText == "" {
			assistantText = "I'll help you with that."
		}
		transcript = append(transcript, TranscriptMessage{Role: "assistant", Content: assistantText})

		for _, req := range res.ToolRequests {
			input := req.Arguments
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			result := s.registry.Dispatch(ctx, userID, req.Name, input)
			records = append(records, tools.Record{
				ToolName: req.Name,
				Input:    input,
				Result:   result,
			})

			raw, err := json.Marshal(result)
			if err != nil {
				raw = []byte(`{"success":false}`)
			}
			transcript = append(transcript, TranscriptMessage{
				Role:    "user",
				Content: fmt.Sprintf("Tool %s returned: %s", req.Name, raw),
			})
		}
	}
}
