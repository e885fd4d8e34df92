package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwild/emberwild/internal/game/actor"
	"github.com/emberwild/emberwild/internal/game/battle"
	"github.com/emberwild/emberwild/internal/game/event"
	"github.com/emberwild/emberwild/internal/storage/postgres"
	"github.com/emberwild/emberwild/internal/testutil"
)

func TestBattleRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	actors := postgres.NewActorRepository(pc.RawPool)
	repo := postgres.NewBattleRepository(pc.RawPool)
	ctx := context.Background()

	for _, id := range []string{"hero", "boar"} {
		require.NoError(t, actors.Create(ctx, &actor.Actor{ID: id, Location: "clearing", HP: 20, Alive: true}))
	}

	session := &battle.Session{
		ID:       uuid.NewString(),
		Location: "clearing",
		State:    battle.StateRunning,
	}
	require.NoError(t, repo.CreateSession(ctx, session))

	t.Run("participants keep join order and rejoin is a no-op", func(t *testing.T) {
		require.NoError(t, repo.AddParticipant(ctx, session.ID, battle.Participant{ActorID: "hero", Alive: true}))
		require.NoError(t, repo.AddParticipant(ctx, session.ID, battle.Participant{ActorID: "boar", Alive: true}))
		require.NoError(t, repo.AddParticipant(ctx, session.ID, battle.Participant{ActorID: "hero", Alive: true}))

		got, err := repo.GetSession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, got.Participants, 2)
		assert.Equal(t, "hero", got.Participants[0].ActorID)
		assert.Equal(t, "boar", got.Participants[1].ActorID)
	})

	t.Run("find running by location", func(t *testing.T) {
		got, err := repo.FindRunningByLocation(ctx, "clearing")
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)

		_, err = repo.FindRunningByLocation(ctx, "ridge")
		assert.ErrorIs(t, err, postgres.ErrSessionNotFound)
	})

	t.Run("turn index and active actor", func(t *testing.T) {
		require.NoError(t, repo.SetTurnIndex(ctx, session.ID, 3))
		require.NoError(t, repo.SetActiveActor(ctx, session.ID, "boar"))
		got, err := repo.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.TurnIndex)
		assert.Equal(t, "boar", got.ActiveActor)
	})

	t.Run("skills expire by turn arithmetic", func(t *testing.T) {
		require.NoError(t, repo.AddSkill(ctx, session.ID, battle.Skill{
			ActorID: "hero", SkillID: "shield-wall", AppliedAtTurn: 3, DurationTurns: 2,
		}))
		purged, err := repo.PurgeExpiredSkills(ctx, session.ID, 4)
		require.NoError(t, err)
		assert.Zero(t, purged)

		purged, err = repo.PurgeExpiredSkills(ctx, session.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, 1, purged)
	})

	t.Run("finish purges skills and frees the location", func(t *testing.T) {
		require.NoError(t, repo.AddSkill(ctx, session.ID, battle.Skill{
			ActorID: "hero", SkillID: "shield-wall", AppliedAtTurn: 3, DurationTurns: 99,
		}))
		require.NoError(t, repo.FinishSession(ctx, session.ID))

		got, err := repo.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, battle.StateFinished, got.State)
		assert.Empty(t, got.Skills)

		_, err = repo.FindRunningByLocation(ctx, "clearing")
		assert.ErrorIs(t, err, postgres.ErrSessionNotFound)

		next := &battle.Session{ID: uuid.NewString(), Location: "clearing", State: battle.StateRunning}
		assert.NoError(t, repo.CreateSession(ctx, next))
	})
}

func TestEventRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	battles := postgres.NewBattleRepository(pc.RawPool)
	repo := postgres.NewEventRepository(pc.RawPool)
	ctx := context.Background()

	session := &battle.Session{ID: uuid.NewString(), Location: "clearing", State: battle.StateRunning}
	require.NoError(t, battles.CreateSession(ctx, session))

	events := []event.Event{
		{Type: event.TypeAttackStart, Actor: "hero", Target: "boar"},
		{Type: event.TypeHitRoll, Actor: "hero", Target: "boar", Roll: 42, Accuracy: 90},
		{Type: event.TypeDamageApply, Actor: "hero", Target: "boar", Amount: 5},
	}
	for _, e := range events {
		require.NoError(t, repo.Append(ctx, session.ID, 1, e))
	}

	got, err := repo.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, event.TypeAttackStart, got[0].Event.Type)
	assert.Equal(t, 42, got[1].Event.Roll)
	assert.Equal(t, 90, got[1].Event.Accuracy)
	assert.Equal(t, 5, got[2].Event.Amount)
	assert.Equal(t, 1, got[0].TurnIndex)
}
