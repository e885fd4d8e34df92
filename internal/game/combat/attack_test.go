package combat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberwild/emberwild/internal/game/actor"
	"github.com/emberwild/emberwild/internal/game/combat"
	"github.com/emberwild/emberwild/internal/game/event"
	"github.com/emberwild/emberwild/internal/game/geometry"
	"github.com/emberwild/emberwild/internal/game/item"
	"github.com/emberwild/emberwild/internal/game/status"
)

// fixedSource feeds predetermined rolls to the resolver. The stored values
// are the desired 1..100 results.
type fixedSource struct {
	rolls []int
	next  int
}

func (f *fixedSource) Intn(n int) int {
	if f.next >= len(f.rolls) {
		return 0
	}
	r := f.rolls[f.next]
	f.next++
	return r - 1
}

type harness struct {
	store    *actor.MemoryStore
	loadout  *actor.Loadout
	statuses *status.Engine
	recorder *event.Recorder
	dice     *fixedSource
	blocks   geometry.BlocksFunc
}

func newHarness(rolls ...int) *harness {
	h := &harness{
		store:    actor.NewMemoryStore(),
		loadout:  actor.NewLoadout(),
		recorder: event.NewRecorder(),
		dice:     &fixedSource{rolls: rolls},
	}
	h.statuses = status.NewEngine(h.store, h.recorder, zap.NewNop())
	return h
}

func (h *harness) resolver() *combat.Resolver {
	return combat.NewResolver(h.store, h.loadout, h.statuses, h.blocks, h.dice, h.recorder, zap.NewNop())
}

func (h *harness) addActor(id string, x, y, hp int) {
	h.store.Put(&actor.Actor{ID: id, Location: "clearing", X: x, Y: y, HP: hp, Alive: true})
}

func (h *harness) hp(t *testing.T, id string) int {
	t.Helper()
	a, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return a.HP
}

func TestPerformAttack_AlignedRangedHit(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 10)
	h.loadout.SetPrimary("hunter", item.NewWeapon(rangedDef()))

	res, err := h.resolver().PerformAttack(context.Background(), "hunter", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeHit, res.Outcome)
	assert.Equal(t, 90, res.Accuracy)
	assert.Equal(t, 50, res.Roll)
	assert.False(t, res.Crit)
	assert.Equal(t, 5, res.Damage)
	assert.Equal(t, 5, res.TargetHP)
	assert.Equal(t, 5, h.hp(t, "boar"))

	types := h.recorder.Types()
	assert.Equal(t, event.TypeAttackStart, types[0])
	assert.Contains(t, types, event.TypeHitRoll)
	assert.Contains(t, types, event.TypeDamageApply)
	assert.Contains(t, types, event.TypeAttackHit)
	assert.NotContains(t, types, event.TypeAttackCrit)
}

func TestPerformAttack_MeleeNotAdjacent(t *testing.T) {
	h := newHarness(50)
	h.addActor("brawler", 0, 0, 30)
	h.addActor("boar", 2, 0, 10)
	sword := item.NewWeapon(&item.WeaponDef{ID: "sword", Name: "Sword", Class: item.ClassMelee, DamageType: "slash"})
	h.loadout.SetPrimary("brawler", sword)

	res, err := h.resolver().PerformAttack(context.Background(), "brawler", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeOutOfRange, res.Outcome)
	assert.Equal(t, 10, h.hp(t, "boar"))

	var found bool
	for _, e := range res.Events {
		if e.Type == event.TypeAttackOutOfRange {
			found = true
			assert.Equal(t, "melee_requires_adjacent", e.Detail)
		}
	}
	assert.True(t, found)
}

func TestPerformAttack_LOSBlocked(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 4, 0, 10)
	h.blocks = func(location string, x, y int) bool { return x == 2 && y == 0 }
	h.loadout.SetPrimary("hunter", item.NewWeapon(rangedDef()))

	res, err := h.resolver().PerformAttack(context.Background(), "hunter", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeBlocked, res.Outcome)
	assert.Equal(t, 10, h.hp(t, "boar"))
	assert.Contains(t, h.recorder.Types(), event.TypeLOSBlocked)
}

func TestPerformAttack_EmptySelfChargedWeapon(t *testing.T) {
	h := newHarness(50)
	h.addActor("mage", 0, 0, 30)
	h.addActor("boar", 2, 0, 10)
	wand := item.NewWeapon(&item.WeaponDef{ID: "wand", Name: "Wand", Class: item.ClassMagic, DamageType: "arcane", MaxCharges: 3, MaxRange: 8})
	wand.Charges = item.Counted(0)
	h.loadout.SetPrimary("mage", wand)

	res, err := h.resolver().PerformAttack(context.Background(), "mage", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeNoAmmo, res.Outcome)
	assert.Equal(t, 10, h.hp(t, "boar"))
	n, _ := h.loadout.Item(wand.ID).Charges.Count()
	assert.Equal(t, 0, n)
}

func TestPerformAttack_LastChargeEmitsAmmoEmpty(t *testing.T) {
	h := newHarness(50)
	h.addActor("mage", 0, 0, 30)
	h.addActor("boar", 2, 0, 10)
	wand := item.NewWeapon(&item.WeaponDef{ID: "wand", Name: "Wand", Class: item.ClassMagic, DamageType: "arcane", MaxCharges: 3, MaxRange: 8})
	wand.Charges = item.Counted(1)
	h.loadout.SetPrimary("mage", wand)

	res, err := h.resolver().PerformAttack(context.Background(), "mage", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeHit, res.Outcome)
	assert.Contains(t, h.recorder.Types(), event.TypeAmmoEmpty)
	n, _ := h.loadout.Item(wand.ID).Charges.Count()
	assert.Equal(t, 0, n)
}

func TestPerformAttack_ExternalAmmoDepletesStack(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 10)
	def := rangedDef()
	def.AmmoType = "arrow"
	h.loadout.SetPrimary("hunter", item.NewWeapon(def))
	stack := item.NewAmmo("arrow", 1)
	h.loadout.AddToPack("hunter", stack)

	res, err := h.resolver().PerformAttack(context.Background(), "hunter", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeHit, res.Outcome)
	assert.Contains(t, h.recorder.Types(), event.TypeAmmoDepleted)
	assert.Nil(t, h.loadout.Item(stack.ID), "depleted stack is deleted, not left at zero")
}

func TestPerformAttack_NoAmmoFound(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 10)
	def := rangedDef()
	def.AmmoType = "arrow"
	h.loadout.SetPrimary("hunter", item.NewWeapon(def))

	res, err := h.resolver().PerformAttack(context.Background(), "hunter", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeNoAmmo, res.Outcome)
	assert.Equal(t, 10, h.hp(t, "boar"))
}

func TestPerformAttack_MissStillCostsAmmo(t *testing.T) {
	h := newHarness(96)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 10)
	def := rangedDef()
	def.AmmoType = "arrow"
	h.loadout.SetPrimary("hunter", item.NewWeapon(def))
	stack := item.NewAmmo("arrow", 3)
	h.loadout.AddToPack("hunter", stack)

	res, err := h.resolver().PerformAttack(context.Background(), "hunter", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeMiss, res.Outcome)
	assert.Equal(t, 10, h.hp(t, "boar"))
	n, _ := h.loadout.Item(stack.ID).Charges.Count()
	assert.Equal(t, 2, n)
	assert.Contains(t, h.recorder.Types(), event.TypeAttackMiss)
}

func TestPerformAttack_NoWeapon(t *testing.T) {
	h := newHarness(50)
	h.addActor("wanderer", 0, 0, 30)
	h.addActor("boar", 1, 0, 10)

	res, err := h.resolver().PerformAttack(context.Background(), "wanderer", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeNoWeapon, res.Outcome)
	assert.Contains(t, h.recorder.Types(), event.TypeNoWeapon)
}

func TestPerformAttack_TargetAlreadyDead(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.store.Put(&actor.Actor{ID: "corpse", Location: "clearing", X: 1, Y: 0, HP: 0, Alive: false})
	h.loadout.SetPrimary("hunter", item.NewWeapon(rangedDef()))

	res, err := h.resolver().PerformAttack(context.Background(), "hunter", "corpse")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeTargetDead, res.Outcome)
}

func TestPerformAttack_UnknownActorIsHardError(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)

	_, err := h.resolver().PerformAttack(context.Background(), "hunter", "ghost")
	assert.ErrorIs(t, err, actor.ErrActorNotFound)
}

func TestPerformAttack_CrossLocationIsHardError(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.store.Put(&actor.Actor{ID: "far", Location: "ridge", X: 1, Y: 0, HP: 10, Alive: true})

	_, err := h.resolver().PerformAttack(context.Background(), "hunter", "far")
	assert.Error(t, err)
}

func TestPerformAttack_KillFlipsAliveAndFiresHook(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 4)
	h.loadout.SetPrimary("hunter", item.NewWeapon(rangedDef()))

	var hooked []string
	r := h.resolver()
	r.OnDeath(func(id string) { hooked = append(hooked, id) })

	res, err := r.PerformAttack(context.Background(), "hunter", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeHit, res.Outcome)
	assert.True(t, res.TargetDied)
	assert.Equal(t, 0, res.TargetHP)
	assert.Equal(t, []string{"boar"}, hooked)

	boar, err := h.store.Get(context.Background(), "boar")
	require.NoError(t, err)
	assert.False(t, boar.Alive)
	assert.Contains(t, h.recorder.Types(), event.TypeDeath)
}

func TestPerformAttack_StatusModsShapeOutcome(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 30)
	h.loadout.SetPrimary("hunter", item.NewWeapon(rangedDef()))
	ctx := context.Background()
	require.NoError(t, h.statuses.Apply(ctx, "hunter", status.Active{Kind: status.KindRage, Remaining: 2}))
	require.NoError(t, h.statuses.Apply(ctx, "boar", status.Active{Kind: status.KindGuard, Remaining: 2}))

	res, err := h.resolver().PerformAttack(ctx, "hunter", "boar")
	require.NoError(t, err)

	// 5 × 1.5 rage × 0.5 guard = 3.75 → 4.
	assert.Equal(t, combat.OutcomeHit, res.Outcome)
	assert.Equal(t, 4, res.Damage)
}

// failingHPStore wraps a MemoryStore and refuses HP writes.
type failingHPStore struct {
	*actor.MemoryStore
}

var errStorage = errors.New("storage down")

func (s *failingHPStore) ApplyHPDelta(ctx context.Context, id string, delta int) (int, error) {
	return 0, errStorage
}

func TestPerformAttack_StorageFailureRollsBackAmmo(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 10)
	def := rangedDef()
	def.AmmoType = "arrow"
	h.loadout.SetPrimary("hunter", item.NewWeapon(def))
	stack := item.NewAmmo("arrow", 3)
	h.loadout.AddToPack("hunter", stack)

	r := combat.NewResolver(&failingHPStore{h.store}, h.loadout, h.statuses, nil, h.dice, h.recorder, zap.NewNop())
	_, err := r.PerformAttack(context.Background(), "hunter", "boar")
	require.ErrorIs(t, err, errStorage)

	n, _ := h.loadout.Item(stack.ID).Charges.Count()
	assert.Equal(t, 3, n, "reserved charge returned on abort")
}

// failingDeadStore wraps a MemoryStore and refuses death marks.
type failingDeadStore struct {
	*actor.MemoryStore
}

func (s *failingDeadStore) MarkDead(ctx context.Context, id string) error {
	return errStorage
}

func TestPerformAttack_MarkDeadFailureRestoresTarget(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 3)
	def := rangedDef()
	def.AmmoType = "arrow"
	h.loadout.SetPrimary("hunter", item.NewWeapon(def))
	stack := item.NewAmmo("arrow", 3)
	h.loadout.AddToPack("hunter", stack)

	r := combat.NewResolver(&failingDeadStore{h.store}, h.loadout, h.statuses, nil, h.dice, h.recorder, zap.NewNop())
	var hooked bool
	r.OnDeath(func(string) { hooked = true })

	_, err := r.PerformAttack(context.Background(), "hunter", "boar")
	require.ErrorIs(t, err, errStorage)

	assert.Equal(t, 3, h.hp(t, "boar"), "lost hp restored on abort")
	boar, getErr := h.store.Get(context.Background(), "boar")
	require.NoError(t, getErr)
	assert.True(t, boar.Alive)
	n, _ := h.loadout.Item(stack.ID).Charges.Count()
	assert.Equal(t, 3, n, "reserved charge returned on abort")
	assert.False(t, hooked)
	assert.NotContains(t, h.recorder.Types(), event.TypeDeath)
}

// failingDeleteEquipment wraps a Loadout and refuses stack deletions.
type failingDeleteEquipment struct {
	*actor.Loadout
}

func (e *failingDeleteEquipment) DeleteItem(itemID string) error {
	return errStorage
}

func TestPerformAttack_StackDeleteFailureDoesNotVoidHit(t *testing.T) {
	h := newHarness(50)
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 10)
	def := rangedDef()
	def.AmmoType = "arrow"
	h.loadout.SetPrimary("hunter", item.NewWeapon(def))
	stack := item.NewAmmo("arrow", 1)
	h.loadout.AddToPack("hunter", stack)

	r := combat.NewResolver(h.store, &failingDeleteEquipment{h.loadout}, h.statuses, nil, h.dice, h.recorder, zap.NewNop())
	res, err := r.PerformAttack(context.Background(), "hunter", "boar")
	require.NoError(t, err)

	assert.Equal(t, combat.OutcomeHit, res.Outcome)
	assert.Equal(t, 5, h.hp(t, "boar"))
	_, found := h.loadout.FindAmmo("hunter", "arrow")
	assert.False(t, found, "zero-charge stack stays invisible to ammo search")
}

func TestPreview_ReportsGeometryAndAccuracy(t *testing.T) {
	h := newHarness()
	h.addActor("hunter", 0, 0, 30)
	h.addActor("boar", 5, 0, 10)
	h.loadout.SetPrimary("hunter", item.NewWeapon(rangedDef()))

	p, err := h.resolver().Preview(context.Background(), "hunter", "boar")
	require.NoError(t, err)

	assert.Equal(t, 5, p.Distance)
	assert.True(t, p.Aligned)
	assert.True(t, p.HasLOS)
	assert.True(t, p.InRange)
	assert.Equal(t, 90, p.Accuracy)
	assert.Equal(t, "hunting-bow", p.Weapon)

	assert.Equal(t, 10, h.hp(t, "boar"), "preview mutates nothing")
}

func TestPreview_NoWeapon(t *testing.T) {
	h := newHarness()
	h.addActor("wanderer", 0, 0, 30)
	h.addActor("boar", 5, 0, 10)

	p, err := h.resolver().Preview(context.Background(), "wanderer", "boar")
	require.NoError(t, err)
	assert.Empty(t, p.Weapon)
	assert.Zero(t, p.Accuracy)
}
