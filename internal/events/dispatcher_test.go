package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
)

func TestDispatcher_RunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []Event
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, e)
		return errors.New("first failed")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, e)
		return nil
	})
	d.Subscribe(EventUserCreated, func(context.Context, Event) error {
		t.Fatal("unrelated handler called")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failed")
	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0].ID)
	assert.False(t, seen[0].Timestamp.IsZero())
	assert.Equal(t, seen[0].ID, seen[1].ID)
}

func TestDispatcher_NoHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventUserDeleted}))
}

func TestActor(t *testing.T) {
	assert.Nil(t, ActorFrom(nil).UserRef())

	actor := ActorFrom(&domain.Identity{UserID: 4, Role: domain.RoleAdmin})
	require.NotNil(t, actor.UserRef())
	assert.EqualValues(t, 4, *actor.UserRef())
	assert.Equal(t, domain.RoleAdmin, actor.Role)
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	ran := false
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		panic("boom")
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		ran = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketAssigned})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic: boom")
	assert.True(t, ran)
}
