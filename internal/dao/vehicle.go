package dao

import "time"

// VehicleDAO representa la estructura de datos para la tabla vehicles en
// MySQL.
type VehicleDAO struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement;column:id"`
	OwnerID uint64 `gorm:"not null;index;column:owner_id"`

	Plate    string `gorm:"type:varchar(10);unique;not null;column:plate"`
	Brand    string `gorm:"type:varchar(50);not null;column:brand"`
	Model    string `gorm:"type:varchar(50);not null;column:model"`
	Capacity int    `gorm:"not null;column:capacity"`
	Year     *int   `gorm:"column:year"`
	Color    string `gorm:"type:varchar(30);column:color"`

	VehiclePhotoURL string `gorm:"type:varchar(255);column:vehicle_photo_url"`
	SoatPhotoURL    string `gorm:"type:varchar(255);column:soat_photo_url"`
	LicensePhotoURL string `gorm:"type:varchar(255);column:license_photo_url"`

	SoatExpiration    time.Time `gorm:"not null;column:soat_expiration"`
	LicenseNumber     string    `gorm:"type:varchar(50);not null;column:license_number"`
	LicenseExpiration time.Time `gorm:"not null;column:license_expiration"`

	Status            string     `gorm:"type:varchar(20);not null;default:'pending';column:status"`
	StatusUpdatedAt   time.Time  `gorm:"column:status_updated_at"`
	RequestedReviewAt *time.Time `gorm:"column:requested_review_at"`
	ReviewedAt        *time.Time `gorm:"column:reviewed_at"`
	ReviewedBy        *uint64    `gorm:"column:reviewed_by"`
	VerificationNotes string     `gorm:"type:text;column:verification_notes"`

	PickupPoints []PickupPointDAO `gorm:"foreignKey:VehicleID"`

	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at"`
}

// TableName especifica el nombre de la tabla en la base de datos.
func (VehicleDAO) TableName() string {
	return "vehicles"
}

// PickupPointDAO es un punto de recogida del catálogo de un vehículo.
type PickupPointDAO struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement;column:id"`
	VehicleID   uint64  `gorm:"not null;index;column:vehicle_id"`
	Name        string  `gorm:"type:varchar(100);not null;column:name"`
	Description string  `gorm:"type:varchar(255);column:description"`
	Lat         float64 `gorm:"not null;column:lat"`
	Lng         float64 `gorm:"not null;column:lng"`
}

// TableName especifica el nombre de la tabla en la base de datos.
func (PickupPointDAO) TableName() string {
	return "vehicle_pickup_points"
}
