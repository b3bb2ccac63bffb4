package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatRepo is an in-memory ChatHistoryRepository. Rows are kept in
// insertion order, which doubles as chat time order.
type fakeChatRepo struct {
	rows []models.ChatHistory
}

func (f *fakeChatRepo) Insert(_ context.Context, history *models.ChatHistory) error {
	f.rows = append(f.rows, *history)
	return nil
}

func (f *fakeChatRepo) LatestSessionID(_ context.Context, userID string) (string, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			return f.rows[i].SessionID, nil
		}
	}
	return "", nil
}

func (f *fakeChatRepo) SessionIDs(_ context.Context, userID string, limit int) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID != userID || seen[f.rows[i].SessionID] {
			continue
		}
		if len(ids) >= limit {
			break
		}
		seen[f.rows[i].SessionID] = true
		ids = append(ids, f.rows[i].SessionID)
	}
	return ids, nil
}

func (f *fakeChatRepo) HistoryBySession(_ context.Context, sessionID string) ([]models.ChatHistory, error) {
	var rows []models.ChatHistory
	for _, row := range f.rows {
		if row.SessionID == sessionID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func TestFollowupChat(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("You missed the recursion base case.")})
	svc := NewChatService(provider, &fakeChatRepo{}, testLogger())

	answer, err := svc.FollowupChat(context.Background(), models.FollowupChatRequest{
		Quiz:    `{"quiz":[]}`,
		Result:  `{"total_score":"1/2"}`,
		Message: "Why was question 2 wrong?",
		ChatHistory: []models.ChatMessage{
			{Type: "human", Content: "hi"},
			{Type: "ai", Content: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "You missed the recursion base case.", answer)

	call := provider.Calls[0]
	assert.Contains(t, call.System, "helpful and friendly expert for Computer Science students")
	assert.Contains(t, call.System, `{"quiz":[]}`)
	assert.Contains(t, call.System, `{"total_score":"1/2"}`)

	// History turns precede the new message with mapped roles.
	require.Len(t, call.Messages, 3)
	assert.Equal(t, llm.RoleUser, call.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, call.Messages[1].Role)
	assert.Equal(t, "Why was question 2 wrong?", call.Messages[2].Content)
}

func TestFollowupChat_EmptyMessage(t *testing.T) {
	svc := NewChatService(llm.NewMockProvider(), &fakeChatRepo{}, testLogger())

	_, err := svc.FollowupChat(context.Background(), models.FollowupChatRequest{Message: "  "})
	assert.ErrorIs(t, err, ErrChatEmptyMessage)
}

func TestCareerAdvice_SessionResolution(t *testing.T) {
	// Each subtest gets its own repo: CareerAdvice persists the exchange,
	// so a shared repo would leak session rows between subtests.
	newRepo := func() *fakeChatRepo {
		return &fakeChatRepo{rows: []models.ChatHistory{
			{UserID: "u1", SessionID: "old-session", History: []byte(`{}`)},
			{UserID: "u1", SessionID: "latest-session", History: []byte(`{}`)},
		}}
	}

	t.Run("new session requested", func(t *testing.T) {
		provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("plan")})
		svc := NewChatService(provider, newRepo(), testLogger())

		resp, err := svc.CareerAdvice(context.Background(), models.CareerChatRequest{
			UserID: "u1", SessionID: "latest-session", IsNewSession: true, Message: "help",
		})
		require.NoError(t, err)
		assert.NotEqual(t, "latest-session", resp.SessionID)
		_, err = uuid.Parse(resp.SessionID)
		assert.NoError(t, err)
	})

	t.Run("explicit session kept", func(t *testing.T) {
		provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("plan")})
		svc := NewChatService(provider, newRepo(), testLogger())

		resp, err := svc.CareerAdvice(context.Background(), models.CareerChatRequest{
			UserID: "u1", SessionID: "old-session", Message: "help",
		})
		require.NoError(t, err)
		assert.Equal(t, "old-session", resp.SessionID)
	})

	t.Run("falls back to latest session", func(t *testing.T) {
		provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("plan")})
		svc := NewChatService(provider, newRepo(), testLogger())

		resp, err := svc.CareerAdvice(context.Background(), models.CareerChatRequest{
			UserID: "u1", Message: "help",
		})
		require.NoError(t, err)
		assert.Equal(t, "latest-session", resp.SessionID)
	})

	t.Run("unknown user gets fresh session", func(t *testing.T) {
		provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("plan")})
		svc := NewChatService(provider, newRepo(), testLogger())

		resp, err := svc.CareerAdvice(context.Background(), models.CareerChatRequest{
			UserID: "nobody", Message: "help",
		})
		require.NoError(t, err)
		_, err = uuid.Parse(resp.SessionID)
		assert.NoError(t, err)
	})
}

func TestCareerAdvice_PersistsExchange(t *testing.T) {
	repo := &fakeChatRepo{}
	provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("Here is your plan.")})
	svc := NewChatService(provider, repo, testLogger())

	resp, err := svc.CareerAdvice(context.Background(), models.CareerChatRequest{
		UserID: "u1", IsNewSession: true, Message: "How do I become an SRE?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Here is your plan.", resp.Message)

	require.Len(t, repo.rows, 1)
	row := repo.rows[0]
	assert.Equal(t, "u1", row.UserID)
	assert.Equal(t, resp.SessionID, row.SessionID)

	var record models.HistoryRecord
	require.NoError(t, json.Unmarshal(row.History, &record))
	assert.Equal(t, "careerAdvisor", record.Chatbot)
	assert.Nil(t, record.Status)
	require.Len(t, record.Messages, 2)
	assert.Equal(t, "human", record.Messages[0].Type)
	assert.Equal(t, "How do I become an SRE?", record.Messages[0].Content)
	assert.NotEmpty(t, record.Messages[0].CreatedAt)
	assert.Equal(t, "ai", record.Messages[1].Type)
	assert.Equal(t, "Here is your plan.", record.Messages[1].Content)
}

func TestGuidance_SplitsLines(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Content: []byte("How do I pick a specialization?\n\nWhat certifications matter?\nHow do I find a mentor?\n"),
	})
	svc := NewChatService(provider, &fakeChatRepo{}, testLogger())

	guidance, err := svc.Guidance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"How do I pick a specialization?",
		"What certifications matter?",
		"How do I find a mentor?",
	}, guidance)

	assert.Contains(t, provider.Calls[0].System, "generate exactly 3 unique questions about achieving career goals")
}

func TestHistoryByUser(t *testing.T) {
	repo := &fakeChatRepo{rows: []models.ChatHistory{
		{UserID: "u1", SessionID: "s1", History: []byte(`{"chatbot":"careerAdvisor"}`)},
		{UserID: "u1", SessionID: "s2", History: []byte(`{"chatbot":"careerAdvisor","n":1}`)},
		{UserID: "u1", SessionID: "s2", History: []byte(`{"chatbot":"careerAdvisor","n":2}`)},
	}}
	svc := NewChatService(llm.NewMockProvider(), repo, testLogger())

	// Latest session only, in chronological order.
	history, err := svc.HistoryByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.JSONEq(t, `{"chatbot":"careerAdvisor","n":1}`, string(history[0]))
	assert.JSONEq(t, `{"chatbot":"careerAdvisor","n":2}`, string(history[1]))

	// Unknown user gets an empty list, not an error.
	history, err = svc.HistoryByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSessions_Limit(t *testing.T) {
	repo := &fakeChatRepo{}
	for i := 0; i < 7; i++ {
		repo.rows = append(repo.rows, models.ChatHistory{
			UserID:    "u1",
			SessionID: uuid.NewString(),
			History:   []byte(`{}`),
		})
	}
	svc := NewChatService(llm.NewMockProvider(), repo, testLogger())

	sessions, err := svc.Sessions(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, sessions, 5)
}
