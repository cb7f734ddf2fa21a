// Package ingest applies inbound chat events to the repository.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"react-analytics/internal/domain"
	"react-analytics/internal/metrics"
)

// Applier applies one event. The Ingestor is the production implementation.
type Applier interface {
	Apply(ctx context.Context, ev domain.Event) error
}

type Ingestor struct {
	repo    domain.Repository
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var _ Applier = (*Ingestor)(nil)

func NewIngestor(repo domain.Repository, logger *slog.Logger, m *metrics.Metrics) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{repo: repo, logger: logger, metrics: m}
}

// Apply validates ev and mutates the repository. A post for a message that is
// already stored is logged and skipped. Repository failures are returned
// as-is, wrapped with the event kind; nothing is retried here.
func (i *Ingestor) Apply(ctx context.Context, ev domain.Event) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", domain.ErrUnknownEvent)
	}
	if err := ev.Validate(); err != nil {
		i.metrics.Event(ev.Kind(), metrics.StatusFailed)
		return err
	}

	err := i.apply(ctx, ev)
	if err != nil {
		i.metrics.Event(ev.Kind(), metrics.StatusFailed)
		return fmt.Errorf("apply %s %s: %w", ev.Kind(), ev.MessageID(), err)
	}
	i.metrics.Event(ev.Kind(), metrics.StatusApplied)
	return nil
}

// ApplySnapshot stores a message together with the reactions it already
// carries, as read from channel history. Message and reactions are written
// in one transaction, so a failed call leaves nothing behind and can simply
// be repeated; a message that is already stored counts nothing again. It
// reports whether the message was new.
func (i *Ingestor) ApplySnapshot(ctx context.Context, posted domain.MessagePosted, reactions []domain.ReactionAdded) (bool, error) {
	if err := posted.Validate(); err != nil {
		return false, err
	}

	id := posted.MessageID()
	reacts := make([]domain.UserReact, 0, len(reactions))
	for _, r := range reactions {
		if err := r.Validate(); err != nil {
			return false, err
		}
		if r.MessageID() != id {
			return false, fmt.Errorf("%w: reaction on %s in snapshot of %s", domain.ErrInvalidEvent, r.MessageID(), id)
		}
		reacts = append(reacts, domain.UserReact{UserID: r.UserID, React: r.React})
	}

	err := i.repo.InsertMessageWithReacts(ctx, domain.Message{
		ID:     id,
		TeamID: posted.TeamID,
		UserID: posted.UserID,
		Text:   posted.Text,
	}, reacts)
	if errors.Is(err, domain.ErrDuplicateMessage) {
		i.metrics.Duplicate()
		return false, nil
	}
	if err != nil {
		i.metrics.Event(posted.Kind(), metrics.StatusFailed)
		return false, fmt.Errorf("apply %s %s: %w", posted.Kind(), id, err)
	}

	i.metrics.Event(posted.Kind(), metrics.StatusApplied)
	for range reacts {
		i.metrics.Event(domain.KindReactionAdded, metrics.StatusApplied)
	}
	return true, nil
}

func (i *Ingestor) apply(ctx context.Context, ev domain.Event) error {
	switch ev := ev.(type) {
	case domain.MessagePosted:
		err := i.repo.InsertMessage(ctx, domain.Message{
			ID:     ev.MessageID(),
			TeamID: ev.TeamID,
			UserID: ev.UserID,
			Text:   ev.Text,
		})
		if errors.Is(err, domain.ErrDuplicateMessage) {
			i.logger.Warn("message already stored, skipping", "message_id", ev.MessageID().String())
			i.metrics.Duplicate()
			return nil
		}
		return err

	case domain.MessageRemoved:
		return i.repo.DeleteMessage(ctx, ev.MessageID())

	case domain.ReactionAdded:
		return i.repo.IncrementReact(ctx, ev.MessageID(), ev.UserID, ev.React)

	case domain.ReactionRemoved:
		return i.repo.DecrementReact(ctx, ev.MessageID(), ev.UserID, ev.React)

	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownEvent, ev)
	}
}
