package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type CampaignRepository struct {
	DB *sqlx.DB
}

const campaignColumns = `id, name, message, rules, audience_size, status, sent_count, failed_count, claimed_at, created_at, updated_at`

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	query := `
        INSERT INTO campaigns (` + campaignColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.Name, c.Message, ruleList(c.Rules), c.AudienceSize, c.Status,
		c.SentCount, c.FailedCount, c.ClaimedAt, c.CreatedAt, c.UpdatedAt,
	)
	return appErrors.NewPersistence("insert campaign", err)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	var row campaignRow
	err := r.DB.GetContext(ctx, &row, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	if err != nil {
		return nil, appErrors.NewPersistence("get campaign", err)
	}
	c := row.model()
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context) ([]model.Campaign, error) {
	return r.selectCampaigns(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
}

func (r *CampaignRepository) ListUnclaimed(ctx context.Context, olderThan time.Time) ([]model.Campaign, error) {
	query := `
        SELECT ` + campaignColumns + ` FROM campaigns
        WHERE status=$1 AND claimed_at IS NULL AND created_at < $2
        ORDER BY created_at ASC
    `
	return r.selectCampaigns(ctx, query, model.CampaignStatusSending, olderThan)
}

func (r *CampaignRepository) selectCampaigns(ctx context.Context, query string, args ...interface{}) ([]model.Campaign, error) {
	var rows []campaignRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, appErrors.NewPersistence("list campaigns", err)
	}
	out := make([]model.Campaign, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *CampaignRepository) Claim(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE campaigns SET claimed_at=$1, updated_at=$1 WHERE id=$2 AND status=$3 AND claimed_at IS NULL`,
		at, id, model.CampaignStatusSending,
	)
	if err != nil {
		return false, appErrors.NewPersistence("claim campaign", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, appErrors.NewPersistence("claim campaign", err)
	}
	if n == 1 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *CampaignRepository) Finish(ctx context.Context, id string, sent, failed, audienceSize int) error {
	query := `
        UPDATE campaigns
        SET status=$1, sent_count=$2, failed_count=$3, audience_size=$4, updated_at=NOW()
        WHERE id=$5 AND status=$6
    `
	res, err := r.DB.ExecContext(ctx, query,
		model.CampaignStatusCompleted, sent, failed, audienceSize, id, model.CampaignStatusSending)
	return r.checkTransition(ctx, id, res, err)
}

func (r *CampaignRepository) MarkFailed(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		model.CampaignStatusFailed, id, model.CampaignStatusSending)
	return r.checkTransition(ctx, id, res, err)
}

func (r *CampaignRepository) checkTransition(ctx context.Context, id string, res sql.Result, err error) error {
	if err != nil {
		return appErrors.NewPersistence("update campaign", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return appErrors.NewPersistence("update campaign", err)
	}
	if n == 1 {
		return nil
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return appErrors.NewValidation("campaign %s is %s, not sending", id, current.Status)
}

func (r *CampaignRepository) DeleteAll(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns`)
	return appErrors.NewPersistence("delete campaigns", err)
}

var _ repository.CampaignRepositoryInterface = (*CampaignRepository)(nil)
