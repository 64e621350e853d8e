// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/campus-chat/internal/model"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "files"))
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

// =============================================================================
// STORE CONTRACT TESTS
// =============================================================================

func TestStore_Contract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("missing")
			assert.True(t, errors.Is(err, ErrNotFound), "Get(missing) err = %v", err)

			require.NoError(t, store.Set("chat-session-a", `{"id":"a"}`))
			require.NoError(t, store.Set("chat-session-b", `{"id":"b"}`))
			require.NoError(t, store.Set("other", `[]`))
			require.NoError(t, store.Set("chat-session-a", `{"id":"a2"}`))

			v, err := store.Get("chat-session-a")
			require.NoError(t, err)
			assert.Equal(t, `{"id":"a2"}`, v)

			keys, err := store.Keys("chat-session-")
			require.NoError(t, err)
			assert.Equal(t, []string{"chat-session-a", "chat-session-b"}, keys)

			all, err := store.Keys("")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, store.Remove("chat-session-a"))
			require.NoError(t, store.Remove("chat-session-a"))
			_, err = store.Get("chat-session-a")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStore_InvalidKey(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Set("../escape", "x")
			assert.True(t, errors.Is(err, ErrInvalidKey), "err = %v", err)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("redis", t.TempDir())
	assert.Error(t, err)

	s, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}

// =============================================================================
// CONVERSATION REPOSITORY TESTS
// =============================================================================

func TestConversationRepo_RoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := NewConversationRepo(store)

			course, _ := model.LookupCourse("math201")
			conv := model.NewConversation("session-1-abc")
			conv.Messages = append(conv.Messages,
				model.NewUserMessage("Explain limits", nil, &course),
				model.NewAssistantMessage("A limit is...", &course),
				model.NewPendingMessage(),
			)
			require.NoError(t, repo.Save(conv))

			loaded, err := repo.Load("session-1-abc")
			require.NoError(t, err)
			require.Len(t, loaded.Messages, 2, "pending placeholder must not be persisted")
			assert.Equal(t, conv.Messages[0].ID, loaded.Messages[0].ID)
			assert.Equal(t, model.SenderAssistant, loaded.Messages[1].Sender)
			assert.True(t, conv.Messages[0].Timestamp.Equal(loaded.Messages[0].Timestamp))
			require.NotNil(t, loaded.Messages[0].Course)
			assert.Equal(t, "MATH 201", loaded.Messages[0].Course.Code)

			require.NoError(t, repo.Delete("session-1-abc"))
			_, err = repo.Load("session-1-abc")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestConversationRepo_CorruptEntry(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(ConversationKey("bad"), "{not json"))

	repo := NewConversationRepo(store)
	_, err := repo.Load("bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	convs, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestConversationRepo_LegacyPayload(t *testing.T) {
	store := NewMemoryStore()
	legacy := `{"id":"s1","createdAt":"2024-03-01T09:00:00.000Z","messages":[` +
		`{"id":"user-1","content":"hi","sender":"user","timestamp":"2024-03-01T09:00:01.000Z"},` +
		`{"id":"bot-1","content":"hello","sender":"bot","timestamp":"2024-03-01T09:00:02.000Z"}]}`
	require.NoError(t, store.Set(ConversationKey("s1"), legacy))

	conv, err := NewConversationRepo(store).Load("s1")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, model.SenderAssistant, conv.Messages[1].Sender)
}

func TestConversationRepo_AllMessagesSorted(t *testing.T) {
	store := NewMemoryStore()
	repo := NewConversationRepo(store)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	a := model.NewConversation("a")
	a.CreatedAt = base
	a.Messages = []model.Message{
		{ID: "user-a1", Content: "a1", Sender: model.SenderUser, Timestamp: base.Add(1 * time.Minute)},
		{ID: "user-a2", Content: "a2", Sender: model.SenderUser, Timestamp: base.Add(3 * time.Minute)},
	}
	b := model.NewConversation("b")
	b.CreatedAt = base.Add(time.Second)
	b.Messages = []model.Message{
		{ID: "user-b1", Content: "b1", Sender: model.SenderUser, Timestamp: base.Add(2 * time.Minute)},
	}
	require.NoError(t, repo.Save(a))
	require.NoError(t, repo.Save(b))

	all, err := repo.AllMessages()
	require.NoError(t, err)
	var got []string
	for _, m := range all {
		got = append(got, m.Content)
	}
	assert.Equal(t, []string{"a1", "b1", "a2"}, got)
}

// =============================================================================
// STUDY REPOSITORY TESTS
// =============================================================================

func TestStudyRepo_AppendAndLoad(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := NewStudyRepo(store)

			sessions, err := repo.Load()
			require.NoError(t, err)
			assert.Empty(t, sessions)

			start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
			end := start.Add(45 * time.Minute)
			require.NoError(t, repo.Append(model.StudySession{ID: "1", StartTime: start, EndTime: &end, MessageCount: 4}))
			require.NoError(t, repo.Append(model.StudySession{ID: "2", StartTime: end, EndTime: &end}))

			sessions, err = repo.Load()
			require.NoError(t, err)
			require.Len(t, sessions, 2)
			assert.Equal(t, int64(2700), sessions[0].Seconds())
			assert.Equal(t, 4, sessions[0].MessageCount)
		})
	}
}

func TestStudyRepo_Active(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := NewStudyRepo(store)

			active, err := repo.LoadActive()
			require.NoError(t, err)
			assert.Nil(t, active)

			start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
			require.NoError(t, repo.SaveActive(&model.StudySession{ID: "run", StartTime: start, Active: true}))

			active, err = repo.LoadActive()
			require.NoError(t, err)
			require.NotNil(t, active)
			assert.Equal(t, "run", active.ID)
			assert.True(t, active.StartTime.Equal(start))

			require.NoError(t, repo.SaveActive(nil))
			active, err = repo.LoadActive()
			require.NoError(t, err)
			assert.Nil(t, active)
		})
	}
}
