package cards

import (
	"context"

	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Notifier is told about cards expired by the sweep. Optional.
type Notifier interface {
	NotifyCardExpired(ctx context.Context, card *models.Card) error
}

// Sweeper expires overdue cards on a schedule.
type Sweeper struct {
	store    CardStore
	notifier Notifier
	log      *logrus.Logger
}

// NewSweeper initializes the expiration sweeper. notifier may be nil.
func NewSweeper(store CardStore, notifier Notifier, log *logrus.Logger) *Sweeper {
	return &Sweeper{store: store, notifier: notifier, log: log}
}

// Sweep flips every overdue card to EXPIRED. A store conflict on an
// individual card is logged and skipped; the sweep itself never fails
// because of one card.
func (s *Sweeper) Sweep(ctx context.Context) error {
	candidates, err := s.store.FindExpiredCandidates(ctx)
	if err != nil {
		return err
	}

	expired := 0
	for i := range candidates {
		card := &candidates[i]
		if err := s.store.UpdateStatus(ctx, card.ID, models.StatusExpired); err != nil {
			s.log.Warnf("Skipping card %s in expiration sweep: %v", card.ID, err)
			continue
		}
		expired++
		metrics.CardsExpiredTotal.Inc()

		if s.notifier != nil {
			if err := s.notifier.NotifyCardExpired(ctx, card); err != nil {
				s.log.Warnf("Failed to notify owner of expired card %s: %v", card.ID, err)
			}
		}
	}

	s.log.Infof("Expiration sweep finished: %d of %d cards expired", expired, len(candidates))
	return nil
}
