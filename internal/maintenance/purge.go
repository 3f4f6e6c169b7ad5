package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/folio-studio/folio-backend/internal/access"
	"github.com/folio-studio/folio-backend/internal/logging"
)

// StaleClientWindow is how long a dynamically registered OAuth client may
// sit without completing a token exchange before it is removed.
const StaleClientWindow = 30 * 24 * time.Hour

// ClientPurger is implemented by oauth repository.ClientRepository.
type ClientPurger interface {
	DeleteStaleDynamic(ctx context.Context, cutoff time.Time) (int64, error)
}

// Report counts the rows a purge removed.
type Report struct {
	Tables  map[string]int64 `json:"tables"`
	Clients int64            `json:"clients"`
}

// Purger hard-deletes soft-deleted content past the retention period and
// abandoned OAuth clients.
type Purger struct {
	db        *sql.DB
	clients   ClientPurger
	retention time.Duration
	now       func() time.Time
}

func NewPurger(db *sql.DB, clients ClientPurger, retentionDays int) *Purger {
	return &Purger{
		db:        db,
		clients:   clients,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

func (p *Purger) Run(ctx context.Context) (*Report, error) {
	logger := logging.FromContext(ctx)
	now := p.now().UTC()
	cutoff := now.Add(-p.retention)
	report := &Report{Tables: map[string]int64{}}

	for _, t := range access.Tables() {
		if !t.SoftDelete {
			continue
		}
		q := `DELETE FROM ` + pq.QuoteIdentifier(t.Name) + ` WHERE deleted_at IS NOT NULL AND deleted_at < $1`
		res, err := p.db.ExecContext(ctx, q, cutoff)
		if err != nil {
			return report, fmt.Errorf("purge %s: %w", t.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return report, fmt.Errorf("purge %s: %w", t.Name, err)
		}
		report.Tables[t.Name] = n
		if n > 0 {
			logger.Info("maintenance.purge.table", "table", t.Name, "rows", n, "cutoff", cutoff)
		}
	}

	if p.clients != nil {
		n, err := p.clients.DeleteStaleDynamic(ctx, now.Add(-StaleClientWindow))
		if err != nil {
			return report, fmt.Errorf("purge oauth clients: %w", err)
		}
		report.Clients = n
	}

	logger.Info("maintenance.purge.done", "clients", report.Clients, "retention_days", int(p.retention.Hours()/24))
	return report, nil
}
