package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type CommunicationLogRepository struct {
	DB *sqlx.DB
}

func (r *CommunicationLogRepository) Create(ctx context.Context, l *model.CommunicationLog) error {
	if l.ID == "" {
		l.ID = model.NewID()
	}
	query := `
        INSERT INTO communication_logs
            (id, campaign_id, customer_id, customer_name, customer_email, message, status, sent_at, created_at)
        VALUES
            (:id, :campaign_id, :customer_id, :customer_name, :customer_email, :message, :status, :sent_at, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, logRow(*l))
	return appErrors.NewPersistence("insert communication log", err)
}

func (r *CommunicationLogRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.CommunicationLog, error) {
	query := `
        SELECT id, campaign_id, customer_id, customer_name, customer_email, message, status, sent_at, created_at
        FROM communication_logs WHERE campaign_id=$1 ORDER BY created_at ASC
    `
	var rows []logRow
	if err := r.DB.SelectContext(ctx, &rows, query, campaignID); err != nil {
		return nil, appErrors.NewPersistence("list communication logs", err)
	}
	out := make([]model.CommunicationLog, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.CommunicationLog(row))
	}
	return out, nil
}

func (r *CommunicationLogRepository) CountByStatus(ctx context.Context, campaignID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM communication_logs WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, appErrors.NewPersistence("count communication logs", err)
	}
	defer rows.Close()

	stats := repository.EmptyStats()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, appErrors.NewPersistence("scan log stats", err)
		}
		stats[status] = count
	}
	return stats, appErrors.NewPersistence("iterate log stats", rows.Err())
}

var _ repository.CommunicationLogRepositoryInterface = (*CommunicationLogRepository)(nil)
