package services

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

// syncEpsilon is the tolerance for "did the quantity actually change"
// comparisons; base-unit sums of floats drift below this.
const syncEpsilon = 1e-6

// SyncStore opens the transaction a sync pass runs in. The whole pass is
// one unit of atomicity: if anything inside fails, no partial item or
// contribution state is left behind. Implementations serialize concurrent
// passes for the same user.
type SyncStore interface {
	InSyncTx(ctx context.Context, userID int, fn func(tx SyncTx) error) error
}

// SyncTx is everything the engine reads and writes within one sync
// transaction, plus the planner mutations that must commit or roll back
// together with the sync they trigger. All operations are scoped to one
// user's data.
type SyncTx interface {
	// Desired-state inputs.
	ActiveSlots(ctx context.Context, userID int) ([]models.ActiveSlot, error)
	RecipeIngredientLines(ctx context.Context, recipeIDs []int) ([]models.RecipeIngredientLine, error)
	IngredientCategory(ctx context.Context, userID int, name string) (*string, error)
	OverrideRules(ctx context.Context, userID int) ([]models.UnitOverrideRule, error)

	// Current persisted state. Manual items are never returned here.
	RecipeItems(ctx context.Context, userID int) ([]*models.ShoppingItem, error)
	RecipeItemContributions(ctx context.Context, userID int) (map[int][]models.ShoppingItemContribution, error)

	// Writes, scoped to recipe-sourced rows only.
	CreateRecipeItem(ctx context.Context, item *models.ShoppingItem) (int, error)
	UpdateRecipeItem(ctx context.Context, userID, itemID int, quantity float64, unit string, resetOwnedFlags bool) error
	DeleteRecipeItems(ctx context.Context, userID int, itemIDs []int) error
	ReplaceContributions(ctx context.Context, itemID int, contribs []models.ShoppingItemContribution) error

	// Planner mutations that ride in the sync transaction.
	AddPlannerEntry(ctx context.Context, userID, mealID int, mode models.ShoppingMode) (*models.PlannerEntry, error)
	ClearPlannerEntry(ctx context.Context, userID, entryID int) error
	ClearAllPlannerEntries(ctx context.Context, userID int) error
	SetPlannerShoppingMode(ctx context.Context, userID, entryID int, mode models.ShoppingMode) (*models.PlannerEntry, error)
}

// ShoppingSync reconciles the persisted shopping list against the
// aggregate of all active planner slots with minimal create/update/delete
// operations. User-entered state (have, flagged, manual items) survives.
type ShoppingSync struct {
	store SyncStore
	log   *zap.Logger
}

// NewShoppingSync creates the sync engine.
func NewShoppingSync(store SyncStore, log *zap.Logger) *ShoppingSync {
	return &ShoppingSync{store: store, log: log}
}

// Sync recomputes the full desired shopping state for the user and applies
// the difference. Running it twice with no planner change in between is a
// no-op the second time.
func (s *ShoppingSync) Sync(ctx context.Context, userID int) (models.SyncResult, error) {
	return s.SyncWithMutation(ctx, userID, nil)
}

// SyncWithMutation runs a planner mutation and the sync it triggers inside
// one transaction, so the planner and the shopping list never diverge: if
// the sync fails, the mutation rolls back with it.
func (s *ShoppingSync) SyncWithMutation(ctx context.Context, userID int, mutate func(tx SyncTx) error) (models.SyncResult, error) {
	var result models.SyncResult
	err := s.store.InSyncTx(ctx, userID, func(tx SyncTx) error {
		if mutate != nil {
			if err := mutate(tx); err != nil {
				return err
			}
		}
		r, err := s.run(ctx, tx, userID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return models.SyncResult{}, err
	}
	return result, nil
}

// BestEffortSync is for planner changes that do not require shopping-list
// consistency (marking a meal cooked): a sync failure is logged and
// swallowed so the primary action still succeeds. The list stays stale
// until the next mutation syncs again.
func (s *ShoppingSync) BestEffortSync(ctx context.Context, userID int) models.SyncResult {
	result, err := s.Sync(ctx, userID)
	if err != nil {
		s.log.Warn("shopping list sync failed, list may be stale until next planner change",
			zap.Int("user_id", userID),
			zap.Error(err))
		return models.SyncResult{}
	}
	return result
}

// sourceKey identifies one contribution source: one recipe occurrence
// inside one planner slot.
type sourceKey struct {
	SlotID   int
	RecipeID int
}

// desiredAggregate is the computed target state for one aggregation key.
type desiredAggregate struct {
	ingredientName string
	dimension      Dimension
	originalUnit   string // first non-empty unit seen, in slot then line order
	perSource      map[sourceKey]float64
}

func (s *ShoppingSync) run(ctx context.Context, tx SyncTx, userID int) (models.SyncResult, error) {
	var result models.SyncResult

	desired, err := s.desiredState(ctx, tx, userID)
	if err != nil {
		return result, err
	}

	rules, err := tx.OverrideRules(ctx, userID)
	if err != nil {
		return result, err
	}
	overrides := NewOverrideRules(rules)

	items, err := tx.RecipeItems(ctx, userID)
	if err != nil {
		return result, err
	}
	currentContribs, err := tx.RecipeItemContributions(ctx, userID)
	if err != nil {
		return result, err
	}

	itemsByKey := make(map[string]*models.ShoppingItem, len(items))
	orphans := make(map[int]struct{}, len(items))
	for _, item := range items {
		if item.AggregationKey != nil {
			itemsByKey[*item.AggregationKey] = item
		}
		orphans[item.ID] = struct{}{}
	}

	// Deterministic key order keeps reruns byte-identical.
	keys := make([]string, 0, len(desired))
	for key := range desired {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		agg := desired[key]

		var total float64
		for _, base := range agg.perSource {
			total += base
		}

		displayQty, displayUnit := ToDisplayUnit(total, agg.dimension, agg.originalUnit)
		displayQty = RoundFriendly(displayQty, displayUnit)
		displayQty, displayUnit = overrides.Apply(agg.ingredientName, displayQty, displayUnit)

		fresh := freshContributions(agg)

		if item, ok := itemsByKey[key]; ok {
			delete(orphans, item.ID)

			if math.Abs(displayQty-item.Quantity) > syncEpsilon || displayUnit != item.Unit {
				// A strict increase means "you now need more": clear the
				// user's have/flagged so they re-confirm.
				reset := displayQty > item.Quantity+syncEpsilon
				if err := tx.UpdateRecipeItem(ctx, userID, item.ID, displayQty, displayUnit, reset); err != nil {
					return result, err
				}
				result.ItemsUpdated++
			}

			if !contributionsEqual(currentContribs[item.ID], fresh) {
				if err := tx.ReplaceContributions(ctx, item.ID, fresh); err != nil {
					return result, err
				}
				result.ContributionsSynced += len(fresh)
			}
			continue
		}

		category, err := tx.IngredientCategory(ctx, userID, agg.ingredientName)
		if err != nil {
			return result, err
		}
		aggKey := key
		itemID, err := tx.CreateRecipeItem(ctx, &models.ShoppingItem{
			UserID:         userID,
			IngredientName: agg.ingredientName,
			Quantity:       displayQty,
			Unit:           displayUnit,
			Category:       category,
			Source:         models.SourceRecipe,
			AggregationKey: &aggKey,
		})
		if err != nil {
			return result, err
		}
		if err := tx.ReplaceContributions(ctx, itemID, fresh); err != nil {
			return result, err
		}
		result.ItemsCreated++
		result.ContributionsSynced += len(fresh)
	}

	// Everything not touched above lost its last supporting slot.
	if len(orphans) > 0 {
		orphanIDs := make([]int, 0, len(orphans))
		for id := range orphans {
			orphanIDs = append(orphanIDs, id)
		}
		sort.Ints(orphanIDs)
		if err := tx.DeleteRecipeItems(ctx, userID, orphanIDs); err != nil {
			return result, err
		}
		result.ItemsDeleted = len(orphanIDs)
	}

	return result, nil
}

// desiredState aggregates every active slot and merges the contribution
// tuples by aggregation key. Slots are processed in id order so the
// representative original unit per key is deterministic; the sums
// themselves are commutative and do not depend on order.
func (s *ShoppingSync) desiredState(ctx context.Context, tx SyncTx, userID int) (map[string]*desiredAggregate, error) {
	slots, err := tx.ActiveSlots(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].SlotID < slots[j].SlotID })

	desired := make(map[string]*desiredAggregate)
	for _, slot := range slots {
		lines, err := tx.RecipeIngredientLines(ctx, slot.RecipeIDs)
		if err != nil {
			return nil, err
		}

		contribs := AggregateSlot(slot.RecipeIDs, lines, slot.ShoppingMode.CategoryFilter())
		for _, c := range contribs {
			agg, ok := desired[c.AggregationKey]
			if !ok {
				agg = &desiredAggregate{
					ingredientName: c.IngredientName,
					dimension:      c.Dimension,
					perSource:      make(map[sourceKey]float64),
				}
				desired[c.AggregationKey] = agg
			}
			if agg.originalUnit == "" && NormalizeUnit(c.OriginalUnit) != "" {
				agg.originalUnit = c.OriginalUnit
			}
			agg.perSource[sourceKey{SlotID: slot.SlotID, RecipeID: c.RecipeID}] += c.BaseQuantity
		}
	}
	return desired, nil
}

// freshContributions materializes the desired (slot, recipe) map as
// contribution rows, ordered for stable inserts.
func freshContributions(agg *desiredAggregate) []models.ShoppingItemContribution {
	sources := make([]sourceKey, 0, len(agg.perSource))
	for sk := range agg.perSource {
		sources = append(sources, sk)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].SlotID != sources[j].SlotID {
			return sources[i].SlotID < sources[j].SlotID
		}
		return sources[i].RecipeID < sources[j].RecipeID
	})

	rows := make([]models.ShoppingItemContribution, 0, len(sources))
	for _, sk := range sources {
		rows = append(rows, models.ShoppingItemContribution{
			RecipeID:       sk.RecipeID,
			PlannerEntryID: sk.SlotID,
			BaseQuantity:   agg.perSource[sk],
			Dimension:      string(agg.dimension),
		})
	}
	return rows
}

// contributionsEqual compares the persisted contribution set for an item
// against the freshly computed one. Equal sets are skipped entirely so an
// unchanged planner produces zero writes.
func contributionsEqual(current, fresh []models.ShoppingItemContribution) bool {
	if len(current) != len(fresh) {
		return false
	}
	type triple struct {
		recipeID, slotID int
		dimension        string
	}
	existing := make(map[triple]float64, len(current))
	for _, c := range current {
		existing[triple{c.RecipeID, c.PlannerEntryID, c.Dimension}] = c.BaseQuantity
	}
	for _, f := range fresh {
		base, ok := existing[triple{f.RecipeID, f.PlannerEntryID, f.Dimension}]
		if !ok || math.Abs(base-f.BaseQuantity) > syncEpsilon {
			return false
		}
	}
	return true
}
