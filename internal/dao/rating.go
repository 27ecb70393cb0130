package dao

import "time"

// RatingDAO es el agregado de calificaciones tal como lo consulta este
// core. El flujo de escritura (quién califica a quién y cuándo) vive en
// otro componente fuera de este alcance (spec §9, pregunta abierta 3);
// aquí solo se lee para enriquecer el listado de viajes con la reputación
// del conductor.
type RatingDAO struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement;column:id"`
	RaterID     uint64 `gorm:"not null;index;column:rater_id"`
	RatedUserID uint64 `gorm:"not null;index;column:rated_user_id"`
	TripID      string `gorm:"type:varchar(24);not null;index;column:trip_id"`
	Score       int    `gorm:"not null;column:score"`
	Comment     string `gorm:"type:text;column:comment"`

	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at"`
}

// TableName especifica el nombre de la tabla en la base de datos.
func (RatingDAO) TableName() string {
	return "ratings"
}
