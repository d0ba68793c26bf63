package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sretter/boardflow/database"
)

// Rubric holds the seven coaching scores, each expected in [1,5].
// Range checking is the caller's contract; Recommend itself does not
// validate.
type Rubric struct {
	Intent     int `json:"intent"`
	Framing    int `json:"framing"`
	Alignment  int `json:"alignment"`
	Boundaries int `json:"boundaries"`
	Concision  int `json:"concision"`
	Follow     int `json:"follow"`
	Tone       int `json:"tone"`
}

// RecommendationDraft is one rule-engine hit before persistence.
type RecommendationDraft struct {
	Kind      string
	Title     string
	Body      string
	Rationale string
}

// Recommend maps a rubric to recommendations. Rules are evaluated in
// fixed order and are not exclusive; when none fires, a single READ
// fallback is emitted. The result is never empty.
func Recommend(r Rubric) []RecommendationDraft {
	var drafts []RecommendationDraft

	if r.Intent < 3 && r.Concision < 3 {
		drafts = append(drafts, RecommendationDraft{
			Kind:  database.KindExercise,
			Title: "BLUF Sprint",
			Body: "Take your last three written updates and rewrite each one so the " +
				"first sentence states the decision or ask. Cut everything that does " +
				"not support it.",
			Rationale: "Low intent and concision scores: updates are burying the point.",
		})
	}
	if r.Boundaries < 3 && r.Framing >= 4 {
		drafts = append(drafts, RecommendationDraft{
			Kind:  database.KindScript,
			Title: "Tradeoff Script",
			Body: "\"I can take that on. To do it well I'd push X out a week - which " +
				"matters more to you?\" Practice delivering this before your next " +
				"planning conversation.",
			Rationale: "Framing is strong but boundaries are weak: reuse the framing skill to say no.",
		})
	}
	if r.Alignment < 3 {
		drafts = append(drafts, RecommendationDraft{
			Kind:  database.KindTask,
			Title: "Manager Scoreboard",
			Body: "Write down the three outcomes your manager is measured on this " +
				"quarter and map each of your active projects to one of them.",
			Rationale: "Low alignment score: current work is not visibly tied to what leadership tracks.",
		})
	}

	if len(drafts) == 0 {
		drafts = append(drafts, RecommendationDraft{
			Kind:  database.KindRead,
			Title: "Executive Summaries 101",
			Body: "Read one strong executive summary per day this week and note the " +
				"structure: headline, evidence, ask.",
			Rationale: "No weak axis this round; keep sharpening the baseline.",
		})
	}
	return drafts
}

// CoachStore is the persistence surface for conversations and their
// recommendations.
type CoachStore interface {
	InsertConversation(ctx context.Context, c *database.Conversation) error
	InsertRecommendation(ctx context.Context, r *database.Recommendation) error
}

// TaskCreator pushes TASK-kind recommendations onto the board.
type TaskCreator interface {
	Create(ctx context.Context, draft TaskDraft) (*database.Task, error)
}

// ConversationInput is one coaching submission.
type ConversationInput struct {
	Summary string
	Plus    string
	Delta   string
	Rubric
}

// CoachService persists coaching submissions and runs the rule engine
// over them.
type CoachService struct {
	store  CoachStore
	tasks  TaskCreator
	logger *zap.Logger

	// taskColumnID is where TASK-kind recommendations land on the board.
	taskColumnID string
}

func NewCoachService(store CoachStore, tasks TaskCreator, logger *zap.Logger) *CoachService {
	return &CoachService{
		store:        store,
		tasks:        tasks,
		logger:       logger,
		taskColumnID: "uncategorized",
	}
}

// Submit validates the input, persists the conversation, runs the rule
// engine, and persists the resulting recommendations. TASK-kind
// recommendations are pushed onto the board best-effort: a failed push
// is logged and the recommendation is kept without an external id.
func (s *CoachService) Submit(ctx context.Context, in ConversationInput) (*database.Conversation, []database.Recommendation, error) {
	if strings.TrimSpace(in.Summary) == "" {
		return nil, nil, validationErrorf("summary is required")
	}
	for _, score := range []struct {
		name  string
		value int
	}{
		{"intent", in.Intent},
		{"framing", in.Framing},
		{"alignment", in.Alignment},
		{"boundaries", in.Boundaries},
		{"concision", in.Concision},
		{"follow", in.Follow},
		{"tone", in.Tone},
	} {
		if score.value < 1 || score.value > 5 {
			return nil, nil, validationErrorf("%s must be between 1 and 5, got %d", score.name, score.value)
		}
	}

	conversation := &database.Conversation{
		Summary:    strings.TrimSpace(in.Summary),
		Plus:       in.Plus,
		Delta:      in.Delta,
		Intent:     in.Intent,
		Framing:    in.Framing,
		Alignment:  in.Alignment,
		Boundaries: in.Boundaries,
		Concision:  in.Concision,
		Follow:     in.Follow,
		Tone:       in.Tone,
	}
	if err := s.store.InsertConversation(ctx, conversation); err != nil {
		return nil, nil, storeError("failed to save conversation", err)
	}

	drafts := Recommend(in.Rubric)
	recommendations := make([]database.Recommendation, 0, len(drafts))
	for _, draft := range drafts {
		rec := database.Recommendation{
			ConversationID: conversation.ID,
			Kind:           draft.Kind,
			Title:          draft.Title,
			Body:           draft.Body,
			Rationale:      draft.Rationale,
		}

		if draft.Kind == database.KindTask {
			task, err := s.tasks.Create(ctx, TaskDraft{
				Title:    draft.Title,
				Project:  "coach",
				ColumnID: s.taskColumnID,
			})
			if err != nil {
				s.logger.Warn("recommendation not pushed to board",
					zap.String("title", draft.Title), zap.Error(err))
			} else {
				rec.PushedToKanban = true
				rec.KanbanExternalID = &task.ID
			}
		}

		if err := s.store.InsertRecommendation(ctx, &rec); err != nil {
			return nil, nil, storeError("failed to save recommendation", err)
		}
		recommendations = append(recommendations, rec)
	}

	return conversation, recommendations, nil
}
