// Package match scores lost reports against found reports and drives the
// administrator's approve / reject / revert decisions on item pairs.
package match

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/sanitize"
	"github.com/erazemk/najdeno/internal/store"
)

// NotificationPusher delivers already stored notifications to connected users.
type NotificationPusher interface {
	Push(n *model.Notification)
}

// Pair is the result of a decision on two items.
type Pair struct {
	Item        *model.Item `json:"item"`
	MatchedItem *model.Item `json:"matchedItem"`
}

// Workflow owns every state change of items. Mutations are serialized by a
// workflow-wide lock and each runs in a single transaction, so both sides of
// a pair change together or not at all. Reads share the lock and therefore
// never see a half-updated pair.
type Workflow struct {
	db       *sql.DB
	notifier NotificationPusher
	metrics  metrics.Recorder

	mu sync.RWMutex
}

// NewWorkflow creates a Workflow. A nil recorder disables metrics.
func NewWorkflow(db *sql.DB, notifier NotificationPusher, rec metrics.Recorder) *Workflow {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Workflow{db: db, notifier: notifier, metrics: rec}
}

// CreateItem stores a new report owned by the caller.
func (w *Workflow) CreateItem(ctx context.Context, owner model.Identity, in model.ItemInput) (*model.Item, error) {
	in = cleanInput(in)
	if !model.ValidItemStatus(in.Status) {
		return nil, fmt.Errorf("%w: status must be %q or %q", model.ErrValidation, model.ItemStatusLost, model.ItemStatusFound)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name required", model.ErrValidation)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	item, err := store.CreateItem(ctx, w.db, owner.UserID, in)
	if err != nil {
		return nil, err
	}
	slog.Info("item reported", "item", item.ID, "status", item.Status, "user", owner.UserID)
	return item, nil
}

// GetItem returns a single item.
func (w *Workflow) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return mustGetItem(ctx, w.db, id)
}

// ListPublicLost returns the lost reports that are not part of an approved pair.
func (w *Workflow) ListPublicLost(ctx context.Context) ([]model.Item, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return store.ListItems(ctx, w.db, store.ItemFilter{Status: model.ItemStatusLost, Unmatched: true})
}

// ListFound returns every found report.
func (w *Workflow) ListFound(ctx context.Context) ([]model.Item, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return store.ListItems(ctx, w.db, store.ItemFilter{Status: model.ItemStatusFound})
}

// ListOwned returns the reports owned by a user.
func (w *Workflow) ListOwned(ctx context.Context, userID int64) ([]model.Item, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return store.ListItems(ctx, w.db, store.ItemFilter{UserID: userID})
}

// ListCandidates returns a lost item with its ranked found candidates.
// Rejected and approved candidates are flagged, not filtered.
func (w *Workflow) ListCandidates(ctx context.Context, lostID int64) (*model.LostWithCandidates, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	lost, err := mustGetItem(ctx, w.db, lostID)
	if err != nil {
		return nil, err
	}
	if lost.Status != model.ItemStatusLost {
		return nil, fmt.Errorf("%w: item %d is not a lost report", model.ErrValidation, lostID)
	}

	founds, err := store.ListItems(ctx, w.db, store.ItemFilter{Status: model.ItemStatusFound})
	if err != nil {
		return nil, err
	}

	return &model.LostWithCandidates{Item: *lost, Candidates: Rank(lost, founds)}, nil
}

// ListAllCandidates returns every lost item with its ranked candidates.
func (w *Workflow) ListAllCandidates(ctx context.Context) ([]model.LostWithCandidates, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	losts, err := store.ListItems(ctx, w.db, store.ItemFilter{Status: model.ItemStatusLost})
	if err != nil {
		return nil, err
	}
	founds, err := store.ListItems(ctx, w.db, store.ItemFilter{Status: model.ItemStatusFound})
	if err != nil {
		return nil, err
	}

	out := make([]model.LostWithCandidates, 0, len(losts))
	for i := range losts {
		out = append(out, model.LostWithCandidates{Item: losts[i], Candidates: Rank(&losts[i], founds)})
	}
	return out, nil
}

// ApproveItem marks a single report as approved without touching its pairing.
func (w *Workflow) ApproveItem(ctx context.Context, id int64) (*model.Item, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var item *model.Item
	err := store.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		if _, err := mustGetItem(ctx, tx, id); err != nil {
			return err
		}
		if err := store.SetItemApproved(ctx, tx, id, true); err != nil {
			return err
		}
		var err error
		item, err = store.GetItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	w.metrics.RecordMatchDecision(metrics.DecisionApproveItem)
	slog.Info("item approved", "item", id)
	return item, nil
}

// ApproveMatch pairs two items, notifies both owners and makes sure they
// share a chat. Approving the current pair again changes nothing. An item
// that is already approved with a different counterpart must be reverted
// first.
func (w *Workflow) ApproveMatch(ctx context.Context, id, counterpartID int64) (*Pair, error) {
	if id == counterpartID {
		return nil, fmt.Errorf("%w: an item cannot be matched with itself", model.ErrValidation)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var pair *Pair
	var created []*model.Notification
	err := store.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		item, other, err := loadPair(ctx, tx, id, counterpartID)
		if err != nil {
			return err
		}
		if item.Status == other.Status {
			return fmt.Errorf("%w: items %d and %d are both %s reports", model.ErrValidation, id, counterpartID, item.Status)
		}

		if item.IsMatchedWith(other.ID) && other.IsMatchedWith(item.ID) {
			pair = &Pair{Item: item, MatchedItem: other}
			return nil
		}
		for _, it := range []*model.Item{item, other} {
			peer := counterpartID
			if it == other {
				peer = id
			}
			if it.MatchStatus == model.MatchStatusApproved && !it.IsMatchedWith(peer) {
				return fmt.Errorf("%w: item %d is already matched with item %d, revert that match first",
					model.ErrInvalidState, it.ID, *it.MatchedWith)
			}
		}

		if err := store.SetItemMatch(ctx, tx, item.ID, other.ID, other.UserID); err != nil {
			return err
		}
		if err := store.SetItemMatch(ctx, tx, other.ID, item.ID, item.UserID); err != nil {
			return err
		}
		if err := clearRejections(ctx, tx, item.ID, other.ID); err != nil {
			return err
		}

		for _, side := range [][2]*model.Item{{item, other}, {other, item}} {
			n, err := store.CreateNotification(ctx, tx, matchNotification(side[0], side[1]))
			if err != nil {
				return err
			}
			created = append(created, n)
		}

		if item.UserID != other.UserID {
			if err := ensureChat(ctx, tx, item, other); err != nil {
				return err
			}
		}

		pair, err = reloadPair(ctx, tx, item.ID, other.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	w.metrics.RecordMatchDecision(metrics.DecisionApproveMatch)
	if len(created) > 0 {
		slog.Info("match approved", "item", id, "matched_item", counterpartID)
	}
	for _, n := range created {
		w.metrics.RecordNotification()
		if w.notifier != nil {
			w.notifier.Push(n)
		}
	}
	return pair, nil
}

// RejectMatch records that the two items are not a pair. Repeated rejections
// are no-ops. Approval state is not changed.
func (w *Workflow) RejectMatch(ctx context.Context, id, counterpartID int64) (*Pair, error) {
	if id == counterpartID {
		return nil, fmt.Errorf("%w: an item cannot be matched with itself", model.ErrValidation)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var pair *Pair
	err := store.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		if _, _, err := loadPair(ctx, tx, id, counterpartID); err != nil {
			return err
		}
		if err := store.AddRejectedMatch(ctx, tx, id, counterpartID); err != nil {
			return err
		}
		if err := store.AddRejectedMatch(ctx, tx, counterpartID, id); err != nil {
			return err
		}
		var err error
		pair, err = reloadPair(ctx, tx, id, counterpartID)
		return err
	})
	if err != nil {
		return nil, err
	}

	w.metrics.RecordMatchDecision(metrics.DecisionRejectMatch)
	slog.Info("match rejected", "item", id, "matched_item", counterpartID)
	return pair, nil
}

// RevertMatch undoes an approved pair and forgets any rejection between the
// two items. Items that are not matched with each other keep their approval
// state.
func (w *Workflow) RevertMatch(ctx context.Context, id, counterpartID int64) (*Pair, error) {
	if id == counterpartID {
		return nil, fmt.Errorf("%w: an item cannot be matched with itself", model.ErrValidation)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var pair *Pair
	err := store.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		item, other, err := loadPair(ctx, tx, id, counterpartID)
		if err != nil {
			return err
		}

		if item.IsMatchedWith(other.ID) {
			if err := store.ClearItemMatch(ctx, tx, item.ID); err != nil {
				return err
			}
		}
		if other.IsMatchedWith(item.ID) {
			if err := store.ClearItemMatch(ctx, tx, other.ID); err != nil {
				return err
			}
		}
		if err := clearRejections(ctx, tx, item.ID, other.ID); err != nil {
			return err
		}

		pair, err = reloadPair(ctx, tx, item.ID, other.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	w.metrics.RecordMatchDecision(metrics.DecisionRevertMatch)
	slog.Info("match reverted", "item", id, "matched_item", counterpartID)
	return pair, nil
}

// DeleteItem removes a report. Owners may delete their own unapproved
// reports; administrators may delete any report that is not in an approved
// pair.
func (w *Workflow) DeleteItem(ctx context.Context, id int64, requester model.Identity) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := store.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		item, err := mustGetItem(ctx, tx, id)
		if err != nil {
			return err
		}

		if requester.IsAdmin() {
			if item.MatchStatus == model.MatchStatusApproved {
				return fmt.Errorf("%w: item %d is matched, revert the match first", model.ErrInvalidState, id)
			}
		} else {
			if item.UserID != requester.UserID {
				return fmt.Errorf("%w: item %d belongs to another user", model.ErrForbidden, id)
			}
			if item.Approved {
				return fmt.Errorf("%w: approved items cannot be deleted", model.ErrInvalidState)
			}
		}

		return store.DeleteItem(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	slog.Info("item deleted", "item", id, "by", requester.UserID)
	return nil
}

// UpdateItem applies an owner's edits to an unapproved report.
func (w *Workflow) UpdateItem(ctx context.Context, id int64, requester model.Identity, patch model.ItemPatch) (*model.Item, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var item *model.Item
	err := store.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		var err error
		item, err = editableItem(ctx, tx, id, requester)
		if err != nil {
			return err
		}

		cleanPatch(patch).Apply(item)
		if item.Name == "" {
			return fmt.Errorf("%w: name required", model.ErrValidation)
		}

		if err := store.UpdateItemFields(ctx, tx, item); err != nil {
			return err
		}
		item, err = store.GetItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SetItemImage stores a processed photo on an owner's unapproved report.
func (w *Workflow) SetItemImage(ctx context.Context, id int64, requester model.Identity, data []byte, mime string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return store.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		if _, err := editableItem(ctx, tx, id, requester); err != nil {
			return err
		}
		return store.SetItemImage(ctx, tx, id, data, mime)
	})
}

// ItemImage returns a report's photo.
func (w *Workflow) ItemImage(ctx context.Context, id int64) ([]byte, string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	data, mime, err := store.GetItemImage(ctx, w.db, id)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		return nil, "", fmt.Errorf("%w: item %d has no image", model.ErrNotFound, id)
	}
	return data, mime, nil
}

func mustGetItem(ctx context.Context, q store.Querier, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", model.ErrNotFound, id)
	}
	return item, nil
}

func loadPair(ctx context.Context, q store.Querier, id, counterpartID int64) (*model.Item, *model.Item, error) {
	item, err := mustGetItem(ctx, q, id)
	if err != nil {
		return nil, nil, err
	}
	other, err := mustGetItem(ctx, q, counterpartID)
	if err != nil {
		return nil, nil, err
	}
	return item, other, nil
}

func reloadPair(ctx context.Context, q store.Querier, id, counterpartID int64) (*Pair, error) {
	item, other, err := loadPair(ctx, q, id, counterpartID)
	if err != nil {
		return nil, err
	}
	return &Pair{Item: item, MatchedItem: other}, nil
}

func clearRejections(ctx context.Context, q store.Querier, a, b int64) error {
	if err := store.RemoveRejectedMatch(ctx, q, a, b); err != nil {
		return err
	}
	return store.RemoveRejectedMatch(ctx, q, b, a)
}

// editableItem loads an item the requester owns and may still change.
func editableItem(ctx context.Context, q store.Querier, id int64, requester model.Identity) (*model.Item, error) {
	item, err := mustGetItem(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != requester.UserID {
		return nil, fmt.Errorf("%w: item %d belongs to another user", model.ErrForbidden, id)
	}
	if item.Approved {
		return nil, fmt.Errorf("%w: approved items cannot be changed", model.ErrInvalidState)
	}
	return item, nil
}

func matchNotification(item, other *model.Item) model.NewNotification {
	itemID, otherID, otherUser := item.ID, other.ID, other.UserID
	return model.NewNotification{
		UserID:        item.UserID,
		Message:       fmt.Sprintf("Your %s item \"%s\" has been matched!", item.Status, item.Name),
		ItemID:        &itemID,
		MatchedItemID: &otherID,
		MatchedUserID: &otherUser,
	}
}

// ensureChat opens a chat between the owners of a newly approved pair. Names
// are captured now and not re-synced later.
func ensureChat(ctx context.Context, tx *sql.Tx, item, other *model.Item) error {
	name1, err := store.UserDisplayName(ctx, tx, item.UserID)
	if err != nil {
		return err
	}
	name2, err := store.UserDisplayName(ctx, tx, other.UserID)
	if err != nil {
		return err
	}
	itemID := item.ID
	_, _, err = store.GetOrCreateChat(ctx, tx, item.UserID, other.UserID, name1, name2, &itemID)
	return err
}

func cleanInput(in model.ItemInput) model.ItemInput {
	return model.ItemInput{
		Status:      sanitize.Text(in.Status),
		Name:        sanitize.Text(in.Name),
		Category:    sanitize.Text(in.Category),
		Description: sanitize.Text(in.Description),
		Location:    sanitize.Text(in.Location),
		Color:       sanitize.Text(in.Color),
		Date:        sanitize.Text(in.Date),
	}
}

func cleanPatch(p model.ItemPatch) model.ItemPatch {
	clean := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := sanitize.Text(*s)
		return &v
	}
	return model.ItemPatch{
		Name:        clean(p.Name),
		Category:    clean(p.Category),
		Description: clean(p.Description),
		Location:    clean(p.Location),
		Color:       clean(p.Color),
		Date:        clean(p.Date),
	}
}
