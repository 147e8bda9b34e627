package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"water-scheduler-backend/internal/domain"
)

func TestResourceRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewResourceRepository(db)
	res := &domain.Resource{
		Name:            "Well-A",
		Location:        "North",
		CapacityPerHour: 5,
		OpenTime:        domain.MustParseTimeOfDay("08:00"),
		CloseTime:       domain.MustParseTimeOfDay("11:00"),
		Status:          domain.ResourceStatusActive,
		PricePer100:     decimal.RequireFromString("0.05"),
		PriorityAccess:  domain.PriorityAccessFor(domain.PriorityHigh, domain.PriorityNormal),
	}

	mock.ExpectQuery("INSERT INTO resources").
		WithArgs("Well-A", "North", int32(5), "08:00", "11:00", "active", sqlmock.AnyArg(), "high,normal", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err = repo.Create(context.Background(), res)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), res.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewResourceRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("FROM resources WHERE id").WithArgs(int32(1)).WillReturnRows(resourceRows("active", "high,normal"))

		res, err := repo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Well-A", res.Name)
		assert.Equal(t, "08:00", res.OpenTime.String())
		assert.False(t, res.PriorityAccess.Admits(domain.PriorityLow))
		assert.Equal(t, "0.05", res.PricePer100.StringFixed(2))
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("FROM resources WHERE id").WithArgs(int32(2)).WillReturnRows(sqlmock.NewRows(resourceCols))

		_, err := repo.GetByID(context.Background(), 2)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestResourceRepository_UpdateMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewResourceRepository(db)
	mock.ExpectExec("UPDATE resources SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), &domain.Resource{ID: 9, Name: "Gone"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
