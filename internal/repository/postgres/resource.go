package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/repository"
)

const resourceColumns = `id, name, location, capacity_per_hour, open_time, close_time, status, price_per_100, priority_access, created_on, updated_on`

type resourceRepository struct {
	db *sql.DB
}

func NewResourceRepository(db *sql.DB) repository.ResourceRepository {
	return &resourceRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner, r *domain.Resource) error {
	return row.Scan(&r.ID, &r.Name, &r.Location, &r.CapacityPerHour, &r.OpenTime, &r.CloseTime, &r.Status, &r.PricePer100, &r.PriorityAccess, &r.CreatedOn, &r.UpdatedOn)
}

func (r *resourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	logger.EnterMethod("resourceRepository.Create", "name", res.Name)

	query := `INSERT INTO resources (name, location, capacity_per_hour, open_time, close_time, status, price_per_100, priority_access, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	now := time.Now()
	logger.DatabaseCall("INSERT", "resources", "name", res.Name)
	err := r.db.QueryRowContext(ctx, query, res.Name, res.Location, res.CapacityPerHour, res.OpenTime, res.CloseTime, res.Status, res.PricePer100, res.PriorityAccess, now, now).Scan(&res.ID)
	logger.DatabaseResult("INSERT", 1, err, "resourceID", res.ID)
	if err != nil {
		logger.ExitMethodWithError("resourceRepository.Create", err)
		return err
	}
	res.CreatedOn, res.UpdatedOn = now, now
	logger.ExitMethod("resourceRepository.Create", "resourceID", res.ID)
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id int32) (*domain.Resource, error) {
	res := &domain.Resource{}
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	if err := scanResource(r.db.QueryRowContext(ctx, query, id), res); err != nil {
		return nil, notFound(err, "resource %d", id)
	}
	return res, nil
}

func (r *resourceRepository) Update(ctx context.Context, res *domain.Resource) error {
	query := `UPDATE resources SET name=$1, location=$2, capacity_per_hour=$3, open_time=$4, close_time=$5, status=$6, price_per_100=$7, priority_access=$8, updated_on=$9 WHERE id=$10`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, res.Name, res.Location, res.CapacityPerHour, res.OpenTime, res.CloseTime, res.Status, res.PricePer100, res.PriorityAccess, now, res.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: resource %d", domain.ErrNotFound, res.ID)
	}
	res.UpdatedOn = now
	return nil
}

func (r *resourceRepository) List(ctx context.Context, status domain.ResourceStatus) ([]domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		var res domain.Resource
		if err := scanResource(rows, &res); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}
