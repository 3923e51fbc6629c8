package settlement

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/kivo-app/kivo/internal/domain"
	"github.com/kivo-app/kivo/internal/store"
)

// Archiver receives transactions that reached a terminal status. Archiving
// is fire-and-forget; implementations log their own failures.
type Archiver interface {
	Archive(ctx context.Context, tx domain.Transaction)
}

// Processor is the normal-path settlement handler: it re-reads the
// transaction by id and approves it. Re-delivery of an already-settled
// transaction acks without writing, so a terminal status can never regress.
type Processor struct {
	txs     store.TransactionRepository
	archive Archiver
	log     zerolog.Logger
}

// NewProcessor creates the settlement processor. archive may be nil.
func NewProcessor(txs store.TransactionRepository, archive Archiver, log zerolog.Logger) *Processor {
	return &Processor{txs: txs, archive: archive, log: log}
}

// Handle implements Handler.
func (p *Processor) Handle(ctx context.Context, ev Event) Outcome {
	id := ev.Transaction.ID

	tx, err := p.txs.GetByID(ctx, id)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		// An event for a record we never wrote is corrupted or foreign;
		// retrying cannot resolve it.
		p.log.Error().Stringer("transaction_id", id).Msg("Settlement event for unknown transaction")
		return Fail
	}
	if err != nil {
		p.log.Warn().Err(err).Stringer("transaction_id", id).Msg("Settlement lookup failed, will retry")
		return RetryLater
	}

	if tx.Status.Terminal() {
		p.log.Debug().Stringer("transaction_id", id).Str("status", string(tx.Status)).Msg("Re-delivery of settled transaction, acking")
		return Done
	}

	err = p.txs.Transition(ctx, id, domain.StatusPending, domain.StatusApproved)
	if errors.Is(err, domain.ErrInvalidTransition) {
		// A concurrent delivery won the transition; the record is terminal.
		p.log.Debug().Stringer("transaction_id", id).Msg("Lost settlement race, acking")
		return Done
	}
	if err != nil {
		p.log.Warn().Err(err).Stringer("transaction_id", id).Msg("Approving transaction failed, will retry")
		return RetryLater
	}

	p.log.Info().Stringer("transaction_id", id).Str("kind", string(tx.Kind)).Msg("Transaction approved")

	if p.archive != nil {
		tx.Status = domain.StatusApproved
		p.archive.Archive(ctx, tx)
	}
	return Done
}

// DeadLetter marks transactions that exhausted the retry budget as errored.
// If the transaction cannot be resolved the failure is logged and dropped.
type DeadLetter struct {
	txs     store.TransactionRepository
	archive Archiver
	log     zerolog.Logger
}

// NewDeadLetter creates the dead-letter handler. archive may be nil.
func NewDeadLetter(txs store.TransactionRepository, archive Archiver, log zerolog.Logger) *DeadLetter {
	return &DeadLetter{txs: txs, archive: archive, log: log}
}

// HandleDead implements DeadLetterHandler.
func (d *DeadLetter) HandleDead(ctx context.Context, ev Event) {
	id := ev.Transaction.ID

	tx, err := d.txs.GetByID(ctx, id)
	if err != nil {
		d.log.Error().Err(err).Stringer("transaction_id", id).Msg("Dead-lettered transaction unresolvable, dropping")
		return
	}
	if tx.Status.Terminal() {
		d.log.Debug().Stringer("transaction_id", id).Str("status", string(tx.Status)).Msg("Dead-lettered transaction already settled")
		return
	}

	if err := d.txs.Transition(ctx, id, domain.StatusPending, domain.StatusError); err != nil {
		d.log.Error().Err(err).Stringer("transaction_id", id).Msg("Marking transaction errored failed, dropping")
		return
	}

	d.log.Warn().Stringer("transaction_id", id).Str("kind", string(tx.Kind)).Msg("Transaction dead-lettered, marked errored")

	if d.archive != nil {
		tx.Status = domain.StatusError
		d.archive.Archive(ctx, tx)
	}
}

var _ Handler = (*Processor)(nil)
var _ DeadLetterHandler = (*DeadLetter)(nil)
