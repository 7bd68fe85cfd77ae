package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hungle-gif/operisbe/internal/repository"
)

func newChatFixture(t *testing.T) (*workflowFixture, ChatService) {
	t.Helper()
	f := newWorkflowFixture(t)
	users := repository.NewUserRepository(f.db)
	projectSvc := NewProjectService(f.projectRepo, users)
	chats := NewChatService(repository.NewChatRepository(f.db), projectSvc, nil)
	return f, chats
}

func TestChatSendAndList(t *testing.T) {
	f, chats := newChatFixture(t)
	ctx := context.Background()
	projectID := f.project.ID.String()

	_, err := chats.Send(ctx, f.customer, projectID, SendMessageRequest{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = chats.Send(ctx, f.outsider, projectID, SendMessageRequest{Message: "hello?"})
	assert.Error(t, err, "non-members cannot post")

	msg, err := chats.Send(ctx, f.customer, projectID, SendMessageRequest{Message: "when do we start?"})
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, msg.SenderID.String())
	assert.False(t, msg.IsRead)

	_, err = chats.Send(ctx, f.sales, projectID, SendMessageRequest{Message: "after the deposit clears"})
	require.NoError(t, err)

	list, err := chats.List(ctx, f.sales, projectID, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = chats.List(ctx, f.outsider, projectID, 50)
	assert.Error(t, err)
}

func TestChatMarkRead(t *testing.T) {
	f, chats := newChatFixture(t)
	ctx := context.Background()
	projectID := f.project.ID.String()

	own, err := chats.Send(ctx, f.customer, projectID, SendMessageRequest{Message: "ping"})
	require.NoError(t, err)
	theirs, err := chats.Send(ctx, f.sales, projectID, SendMessageRequest{Message: "pong"})
	require.NoError(t, err)

	// Reading your own message changes nothing.
	got, err := chats.MarkRead(ctx, f.customer, projectID, own.ID.String())
	require.NoError(t, err)
	assert.False(t, got.IsRead)

	got, err = chats.MarkRead(ctx, f.customer, projectID, theirs.ID.String())
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	require.NotNil(t, got.ReadAt)

	// Marking twice stays read.
	got, err = chats.MarkRead(ctx, f.customer, projectID, theirs.ID.String())
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	_, err = chats.MarkRead(ctx, f.customer, projectID, "3b1c2f2e-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestChatUnreadCount(t *testing.T) {
	f, chats := newChatFixture(t)
	ctx := context.Background()
	projectID := f.project.ID.String()

	_, err := chats.Send(ctx, f.customer, projectID, SendMessageRequest{Message: "one"})
	require.NoError(t, err)
	_, err = chats.Send(ctx, f.customer, projectID, SendMessageRequest{Message: "two"})
	require.NoError(t, err)
	reply, err := chats.Send(ctx, f.sales, projectID, SendMessageRequest{Message: "three"})
	require.NoError(t, err)

	// Own messages never count as unread.
	n, err := chats.UnreadCount(ctx, f.customer, projectID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = chats.UnreadCount(ctx, f.sales, projectID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = chats.MarkRead(ctx, f.customer, projectID, reply.ID.String())
	require.NoError(t, err)

	n, err = chats.UnreadCount(ctx, f.customer, projectID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
