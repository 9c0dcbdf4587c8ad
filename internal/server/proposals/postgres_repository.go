package proposals

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
)

const proposalColumns = `id, owner_id, name, description, typology, start_date, end_date,
		min_price, max_price, max_participants, stops, activities, image_urls,
		participants, pending_applications, status, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

// stops, activities and image_urls live in JSONB columns; they travel as
// marshaled JSON in both directions.
func marshalList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

func scanProposal(row interface{ Scan(...any) error }) (*core.Proposal, error) {
	p := &core.Proposal{}
	var stops, activities, imageURLs []byte

	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Typology,
		&p.StartDate, &p.EndDate, &p.MinPrice, &p.MaxPrice, &p.MaxParticipants,
		&stops, &activities, &imageURLs,
		&p.Participants, &p.PendingApplications, &p.Status, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stops, &p.Stops); err != nil {
		return nil, fmt.Errorf("error decoding stops: %w", err)
	}
	if err := json.Unmarshal(activities, &p.Activities); err != nil {
		return nil, fmt.Errorf("error decoding activities: %w", err)
	}
	if err := json.Unmarshal(imageURLs, &p.ImageURLs); err != nil {
		return nil, fmt.Errorf("error decoding image urls: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *core.Proposal) error {
	query :=
		`INSERT INTO proposals (id, owner_id, name, description, typology, start_date, end_date,
		 min_price, max_price, max_participants, stops, activities, image_urls,
		 participants, pending_applications, status, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 `

	stops, err := marshalList(p.Stops)
	if err != nil {
		return err
	}
	activities, err := marshalList(p.Activities)
	if err != nil {
		return err
	}
	imageURLs, err := marshalList(p.ImageURLs)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.Name, p.Description, p.Typology, p.StartDate, p.EndDate,
		p.MinPrice, p.MaxPrice, p.MaxParticipants, stops, activities, imageURLs,
		p.Participants, p.PendingApplications, p.Status, p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *core.Proposal) error {
	query :=
		`UPDATE proposals
		 SET name = $2, description = $3, typology = $4, start_date = $5, end_date = $6,
		     min_price = $7, max_price = $8, max_participants = $9,
		     stops = $10, activities = $11, image_urls = $12,
		     participants = $13, pending_applications = $14, status = $15, updated_at = $16
		 WHERE id = $1
		 `

	stops, err := marshalList(p.Stops)
	if err != nil {
		return err
	}
	activities, err := marshalList(p.Activities)
	if err != nil {
		return err
	}
	imageURLs, err := marshalList(p.ImageURLs)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Typology, p.StartDate, p.EndDate,
		p.MinPrice, p.MaxPrice, p.MaxParticipants, stops, activities, imageURLs,
		p.Participants, p.PendingApplications, p.Status, p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM proposals WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*core.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`

	p, err := scanProposal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) SelectAll(ctx context.Context) ([]core.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals ORDER BY id`
	return r.selectMany(ctx, query)
}

func (r *PostgresRepository) SelectByOwner(ctx context.Context, ownerID string) ([]core.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE owner_id = $1 ORDER BY id`
	return r.selectMany(ctx, query, ownerID)
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]core.Proposal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	result := []core.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
