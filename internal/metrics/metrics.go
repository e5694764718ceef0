package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersTotal counts successful card-to-card transfers.
	TransfersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "card_transfers_total",
		Help: "Number of completed card-to-card transfers.",
	})

	// CardsCreatedTotal counts issued cards.
	CardsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cards_created_total",
		Help: "Number of cards issued.",
	})

	// CardsExpiredTotal counts cards flipped to EXPIRED by the sweeper.
	CardsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cards_expired_total",
		Help: "Number of cards expired by the scheduled sweep.",
	})
)
