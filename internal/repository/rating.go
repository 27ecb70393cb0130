package repository

import (
	"github.com/unisabana/wheels-core/internal/dao"

	"gorm.io/gorm"
)

// RatingRepository es de solo lectura desde este core: el flujo de
// escritura de calificaciones vive fuera de su alcance (spec §9, pregunta
// abierta 3). Solo expone el agregado que el Trip Engine usa para
// enriquecer el listado de viajes con la reputación del conductor.
type RatingRepository interface {
	DriverAverage(driverID uint64) (avg float64, count int64, err error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository crea una nueva instancia del repositorio de
// calificaciones.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) DriverAverage(driverID uint64) (float64, int64, error) {
	var result struct {
		Avg   float64
		Count int64
	}
	err := r.db.Model(&dao.RatingDAO{}).
		Select("COALESCE(AVG(score), 0) as avg, COUNT(*) as count").
		Where("rated_user_id = ?", driverID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Avg, result.Count, nil
}
