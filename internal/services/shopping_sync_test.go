package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

// fakeStore is an in-memory SyncStore/SyncTx for engine tests. It mirrors
// the database behavior the engine relies on: slots expand meals to recipe
// ids, recipe lookups deduplicate ids, manual items are invisible.
type fakeStore struct {
	nextItemID int
	nextSlotID int

	slots      []models.ActiveSlot
	meals      map[int][]int
	lines      map[int][]models.RecipeIngredientLine
	categories map[string]string
	rules      []models.UnitOverrideRule
	items      map[int]*models.ShoppingItem
	contribs   map[int][]models.ShoppingItemContribution

	failTx bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextItemID: 1,
		nextSlotID: 1,
		meals:      make(map[int][]int),
		lines:      make(map[int][]models.RecipeIngredientLine),
		categories: make(map[string]string),
		items:      make(map[int]*models.ShoppingItem),
		contribs:   make(map[int][]models.ShoppingItemContribution),
	}
}

func (f *fakeStore) InSyncTx(ctx context.Context, userID int, fn func(tx SyncTx) error) error {
	if f.failTx {
		return errors.New("connection refused")
	}
	return fn(f)
}

func (f *fakeStore) addSlot(mode models.ShoppingMode, recipeIDs ...int) int {
	id := f.nextSlotID
	f.nextSlotID++
	f.slots = append(f.slots, models.ActiveSlot{SlotID: id, ShoppingMode: mode, RecipeIDs: recipeIDs})
	return id
}

func (f *fakeStore) removeSlot(slotID int) {
	kept := f.slots[:0]
	for _, s := range f.slots {
		if s.SlotID != slotID {
			kept = append(kept, s)
		}
	}
	f.slots = kept
}

func (f *fakeStore) addRecipeLine(recipeID int, name string, qty float64, unit string) {
	q := qty
	var category *string
	if c, ok := f.categories[strings.ToLower(name)]; ok {
		category = &c
	}
	f.lines[recipeID] = append(f.lines[recipeID], models.RecipeIngredientLine{
		RecipeID:           recipeID,
		IngredientName:     name,
		IngredientCategory: category,
		Quantity:           &q,
		Unit:               unit,
	})
}

func (f *fakeStore) itemByName(name string) *models.ShoppingItem {
	for _, item := range f.items {
		if item.IngredientName == name {
			return item
		}
	}
	return nil
}

func (f *fakeStore) ActiveSlots(ctx context.Context, userID int) ([]models.ActiveSlot, error) {
	var out []models.ActiveSlot
	for _, s := range f.slots {
		if s.ShoppingMode != models.ShoppingModeNone {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) RecipeIngredientLines(ctx context.Context, recipeIDs []int) ([]models.RecipeIngredientLine, error) {
	seen := make(map[int]struct{}, len(recipeIDs))
	var out []models.RecipeIngredientLine
	for _, id := range recipeIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, f.lines[id]...)
	}
	return out, nil
}

func (f *fakeStore) IngredientCategory(ctx context.Context, userID int, name string) (*string, error) {
	if c, ok := f.categories[strings.ToLower(name)]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) OverrideRules(ctx context.Context, userID int) ([]models.UnitOverrideRule, error) {
	return f.rules, nil
}

func (f *fakeStore) RecipeItems(ctx context.Context, userID int) ([]*models.ShoppingItem, error) {
	var out []*models.ShoppingItem
	for _, item := range f.items {
		if item.Source == models.SourceRecipe {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) RecipeItemContributions(ctx context.Context, userID int) (map[int][]models.ShoppingItemContribution, error) {
	out := make(map[int][]models.ShoppingItemContribution)
	for id, rows := range f.contribs {
		if item, ok := f.items[id]; ok && item.Source == models.SourceRecipe {
			out[id] = append([]models.ShoppingItemContribution(nil), rows...)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateRecipeItem(ctx context.Context, item *models.ShoppingItem) (int, error) {
	id := f.nextItemID
	f.nextItemID++
	stored := *item
	stored.ID = id
	stored.Source = models.SourceRecipe
	f.items[id] = &stored
	return id, nil
}

func (f *fakeStore) UpdateRecipeItem(ctx context.Context, userID, itemID int, quantity float64, unit string, resetOwnedFlags bool) error {
	item, ok := f.items[itemID]
	if !ok {
		return errors.New("no such item")
	}
	item.Quantity = quantity
	item.Unit = unit
	if resetOwnedFlags {
		item.Have = false
		item.Flagged = false
	}
	return nil
}

func (f *fakeStore) DeleteRecipeItems(ctx context.Context, userID int, itemIDs []int) error {
	for _, id := range itemIDs {
		delete(f.items, id)
		delete(f.contribs, id)
	}
	return nil
}

func (f *fakeStore) ReplaceContributions(ctx context.Context, itemID int, contribs []models.ShoppingItemContribution) error {
	rows := make([]models.ShoppingItemContribution, len(contribs))
	for i, c := range contribs {
		c.ShoppingItemID = itemID
		rows[i] = c
	}
	f.contribs[itemID] = rows
	return nil
}

func (f *fakeStore) AddPlannerEntry(ctx context.Context, userID, mealID int, mode models.ShoppingMode) (*models.PlannerEntry, error) {
	recipes, ok := f.meals[mealID]
	if !ok {
		return nil, errors.New("no such meal")
	}
	id := f.addSlot(mode, recipes...)
	return &models.PlannerEntry{ID: id, UserID: userID, MealID: mealID, ShoppingMode: mode}, nil
}

func (f *fakeStore) ClearPlannerEntry(ctx context.Context, userID, entryID int) error {
	f.removeSlot(entryID)
	return nil
}

func (f *fakeStore) ClearAllPlannerEntries(ctx context.Context, userID int) error {
	f.slots = nil
	return nil
}

func (f *fakeStore) SetPlannerShoppingMode(ctx context.Context, userID, entryID int, mode models.ShoppingMode) (*models.PlannerEntry, error) {
	for i := range f.slots {
		if f.slots[i].SlotID == entryID {
			f.slots[i].ShoppingMode = mode
			return &models.PlannerEntry{ID: entryID, UserID: userID, ShoppingMode: mode}, nil
		}
	}
	return nil, errors.New("no such slot")
}

const testUserID = 7

func newTestSync(store *fakeStore) *ShoppingSync {
	return NewShoppingSync(store, zap.NewNop())
}

func TestSync_AggregatesAcrossSlots(t *testing.T) {
	store := newFakeStore()
	store.categories["ground beef"] = "meat"
	store.addRecipeLine(1, "ground beef", 1, "lb")
	store.addRecipeLine(2, "ground beef", 1, "lb")
	store.addSlot(models.ShoppingModeAll, 1)
	store.addSlot(models.ShoppingModeAll, 2)

	result, err := newTestSync(store).Sync(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ItemsCreated)
	assert.Equal(t, 2, result.ContributionsSynced)

	item := store.itemByName("ground beef")
	require.NotNil(t, item)
	assert.InDelta(t, 2.0, item.Quantity, 1e-6)
	assert.Equal(t, "pound", item.Unit)
	require.NotNil(t, item.Category)
	assert.Equal(t, "meat", *item.Category)
	require.NotNil(t, item.AggregationKey)
	assert.Equal(t, "ground beef::mass", *item.AggregationKey)

	require.Len(t, store.contribs[item.ID], 2)
}

func TestSync_SecondRunIsNoOp(t *testing.T) {
	store := newFakeStore()
	store.addRecipeLine(1, "rice", 2, "cup")
	store.addRecipeLine(1, "onion", 1, "")
	store.addSlot(models.ShoppingModeAll, 1)

	sync := newTestSync(store)
	first, err := sync.Sync(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ItemsCreated)

	second, err := sync.Sync(context.Background(), testUserID)
	require.NoError(t, err)
	assert.True(t, second.IsZero(), "unchanged planner must sync to zero changes, got %+v", second)
}

func TestSync_SlotOrderDoesNotMatter(t *testing.T) {
	build := func(slotOrder []int) float64 {
		store := newFakeStore()
		store.addRecipeLine(1, "ground beef", 0.75, "lb")
		store.addRecipeLine(2, "ground beef", 0.4, "lb")
		for _, recipe := range slotOrder {
			store.addSlot(models.ShoppingModeAll, recipe)
		}
		_, err := newTestSync(store).Sync(context.Background(), testUserID)
		require.NoError(t, err)
		item := store.itemByName("ground beef")
		require.NotNil(t, item)
		return item.Quantity
	}

	assert.InDelta(t, build([]int{1, 2}), build([]int{2, 1}), 1e-6)
}

func TestSync_DuplicateRecipeInMealDoubles(t *testing.T) {
	store := newFakeStore()
	store.addRecipeLine(1, "rice", 1, "cup")
	// Same recipe as main and side.
	store.addSlot(models.ShoppingModeAll, 1, 1)

	_, err := newTestSync(store).Sync(context.Background(), testUserID)
	require.NoError(t, err)

	item := store.itemByName("rice")
	require.NotNil(t, item)
	assert.InDelta(t, 2.0, item.Quantity, 1e-6)
	assert.Equal(t, "cup", item.Unit)
}

func TestSync_FlagsResetOnlyOnIncrease(t *testing.T) {
	store := newFakeStore()
	store.addRecipeLine(1, "ground beef", 1, "lb")
	store.addRecipeLine(2, "ground beef", 1, "lb")
	slot1 := store.addSlot(models.ShoppingModeAll, 1)
	store.addSlot(models.ShoppingModeAll, 2)

	sync := newTestSync(store)
	_, err := sync.Sync(context.Background(), testUserID)
	require.NoError(t, err)

	item := store.itemByName("ground beef")
	require.NotNil(t, item)
	item.Have = true
	item.Flagged = true

	// A decrease updates the quantity but leaves the user's flags alone.
	store.removeSlot(slot1)
	result, err := sync.Sync(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsUpdated)
	assert.InDelta(t, 1.0, item.Quantity, 1e-6)
	assert.True(t, item.Have)
	assert.True(t, item.Flagged)

	// An increase means more is needed: both flags reset.
	store.addSlot(models.ShoppingModeAll, 1)
	result, err = sync.Sync(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsUpdated)
	assert.InDelta(t, 2.0, item.Quantity, 1e-6)
	assert.False(t, item.Have)
	assert.False(t, item.Flagged)
}

func TestSync_OrphanCleanupSparesManualItems(t *testing.T) {
	store := newFakeStore()
	store.addRecipeLine(1, "rice", 1, "cup")
	store.addSlot(models.ShoppingModeAll, 1)

	manual := &models.ShoppingItem{
		ID:             99,
		UserID:         testUserID,
		IngredientName: "paper towels",
		Quantity:       1,
		Source:         models.SourceManual,
	}
	store.items[99] = manual
	store.nextItemID = 100

	sync := newTestSync(store)
	_, err := sync.Sync(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, store.itemByName("rice"))

	store.slots = nil
	result, err := sync.Sync(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ItemsDeleted)
	assert.Nil(t, store.itemByName("rice"))
	assert.Equal(t, manual, store.itemByName("paper towels"))
}

func TestSync_ProduceOnlyMode(t *testing.T) {
	store := newFakeStore()
	store.categories["tomato"] = "produce"
	store.categories["flour"] = "pantry"
	store.addRecipeLine(1, "tomato", 2, "")
	store.addRecipeLine(1, "flour", 1, "cup")
	store.addSlot(models.ShoppingModeProduceOnly, 1)

	result, err := newTestSync(store).Sync(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ItemsCreated)
	assert.NotNil(t, store.itemByName("tomato"))
	assert.Nil(t, store.itemByName("flour"))
}

func TestSync_UnitOverride(t *testing.T) {
	store := newFakeStore()
	store.rules = []models.UnitOverrideRule{
		{IngredientName: "butter", FromUnit: "tablespoon", ToUnit: "stick", Factor: 8, RoundUp: true},
	}
	store.addRecipeLine(1, "butter", 8, "tbsp")
	store.addSlot(models.ShoppingModeAll, 1)

	_, err := newTestSync(store).Sync(context.Background(), testUserID)
	require.NoError(t, err)

	item := store.itemByName("butter")
	require.NotNil(t, item)
	assert.Equal(t, 1.0, item.Quantity)
	assert.Equal(t, "stick", item.Unit)
}

func TestSync_MixedDimensionsStaySeparate(t *testing.T) {
	store := newFakeStore()
	store.addRecipeLine(1, "butter", 2, "tbsp")
	store.addRecipeLine(2, "butter", 1, "stick")
	store.addSlot(models.ShoppingModeAll, 1, 2)

	result, err := newTestSync(store).Sync(context.Background(), testUserID)
	require.NoError(t, err)

	// Volume tablespoons and count sticks never merge.
	assert.Equal(t, 2, result.ItemsCreated)
}

func TestSyncWithMutation_AddsSlotAndSyncsAtomically(t *testing.T) {
	store := newFakeStore()
	store.meals[1] = []int{1}
	store.addRecipeLine(1, "rice", 1, "cup")

	sync := newTestSync(store)
	var entry *models.PlannerEntry
	result, err := sync.SyncWithMutation(context.Background(), testUserID, func(tx SyncTx) error {
		var err error
		entry, err = tx.AddPlannerEntry(context.Background(), testUserID, 1, models.ShoppingModeAll)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, entry)

	// The sync saw the slot the mutation just added.
	assert.Equal(t, 1, result.ItemsCreated)
	assert.NotNil(t, store.itemByName("rice"))
}

func TestSyncWithMutation_MutationErrorAborts(t *testing.T) {
	store := newFakeStore()
	sync := newTestSync(store)

	boom := errors.New("boom")
	_, err := sync.SyncWithMutation(context.Background(), testUserID, func(tx SyncTx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestBestEffortSync_SwallowsFailure(t *testing.T) {
	store := newFakeStore()
	store.failTx = true

	result := newTestSync(store).BestEffortSync(context.Background(), testUserID)
	assert.True(t, result.IsZero())
}
