// Package warehouse streams settled transactions into BigQuery for offline
// reporting. The warehouse is an archive, not the system of record: writes
// are fire-and-forget and failures never affect the settlement pipeline.
package warehouse

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/kivo-app/kivo/internal/domain"
)

// Row is the warehouse schema for one settled transaction.
type Row struct {
	TransactionID  string              `bigquery:"transaction_id"` // REQUIRED
	OwnerID        string              `bigquery:"owner_id"`       // REQUIRED
	CounterpartyID bigquery.NullString `bigquery:"counterparty_id"`

	Kind     string `bigquery:"kind"`
	Category string `bigquery:"category"`
	Status   string `bigquery:"status"`

	Amount   *big.Rat `bigquery:"amount"` // NUMERIC
	Rate     *big.Rat `bigquery:"rate"`   // NUMERIC
	Currency string   `bigquery:"currency"`

	CreatedAt   time.Time  `bigquery:"created_at"`
	SettledDate civil.Date `bigquery:"settled_date"`
}

// Archiver streams rows into one BigQuery table.
type Archiver struct {
	client  *bigquery.Client
	project string
	dataset string
	table   string
	log     zerolog.Logger
}

// NewArchiver creates an archiver with its own BigQuery client.
func NewArchiver(ctx context.Context, project, dataset, table string, log zerolog.Logger) (*Archiver, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("warehouse: creating bigquery client: %w", err)
	}
	return &Archiver{
		client:  client,
		project: project,
		dataset: dataset,
		table:   table,
		log:     log,
	}, nil
}

// Archive streams one transaction into the warehouse table. Failures are
// logged and swallowed.
func (a *Archiver) Archive(ctx context.Context, tx domain.Transaction) {
	row := &Row{
		TransactionID: tx.ID.String(),
		OwnerID:       tx.OwnerID.String(),
		Kind:          string(tx.Kind),
		Category:      string(tx.Category),
		Status:        string(tx.Status),
		Amount:        tx.Amount.Rat(),
		Rate:          tx.Rate.Rat(),
		Currency:      tx.Currency,
		CreatedAt:     tx.CreatedAt,
		SettledDate:   civil.DateOf(time.Now().UTC()),
	}
	if tx.CounterpartyID != nil {
		row.CounterpartyID = bigquery.NullString{StringVal: tx.CounterpartyID.String(), Valid: true}
	}

	table := a.client.DatasetInProject(a.project, a.dataset).Table(a.table)
	if err := table.Inserter().Put(ctx, []*Row{row}); err != nil {
		a.log.Warn().Err(err).Stringer("transaction_id", tx.ID).Msg("Archiving settled transaction failed")
	}
}

// Close releases the BigQuery client.
func (a *Archiver) Close() error {
	return a.client.Close()
}
