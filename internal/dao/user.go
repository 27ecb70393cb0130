package dao

import "time"

// UserDAO representa la estructura de datos para la tabla users en MySQL.
// Roles se persiste como una lista separada por comas (p.ej. "passenger,driver")
// porque el motor destino no tiene un tipo conjunto nativo portable.
type UserDAO struct {
	ID               uint64  `gorm:"primaryKey;autoIncrement;column:id"`
	Email            string  `gorm:"type:varchar(255);unique;not null;index;column:email"`
	PasswordHash     string  `gorm:"type:varchar(255);not null;column:password_hash"`
	FirstName        string  `gorm:"type:varchar(100);not null;column:first_name"`
	LastName         string  `gorm:"type:varchar(100);not null;column:last_name"`
	UniversityID     string  `gorm:"type:varchar(50);unique;not null;column:university_id"`
	Phone            string  `gorm:"type:varchar(20);not null;column:phone"`
	PhotoURL         string  `gorm:"type:varchar(255);column:photo_url"`
	Roles            string  `gorm:"type:varchar(64);not null;default:'passenger';column:roles"`
	ActiveRole       string  `gorm:"type:varchar(16);not null;default:'passenger';column:active_role"`
	ActiveVehicleID  *uint64 `gorm:"column:active_vehicle_id"`
	EmergencyName    string  `gorm:"type:varchar(100);column:emergency_name"`
	EmergencyPhone   string  `gorm:"type:varchar(20);column:emergency_phone"`
	PreferredPayment string  `gorm:"type:varchar(16);not null;default:'cash';column:preferred_payment_method"`

	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at"`
}

// TableName especifica el nombre de la tabla en la base de datos.
func (UserDAO) TableName() string {
	return "users"
}

// PasswordResetDAO es un token de recuperación de contraseña de un solo
// uso. Solo se persiste el hash SHA-256 del secreto crudo (spec §3, §9
// pregunta abierta 2): nunca el token en claro.
type PasswordResetDAO struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement;column:id"`
	UserID    uint64    `gorm:"not null;index;column:user_id"`
	TokenHash string    `gorm:"type:varchar(64);unique;not null;column:token_hash"`
	ExpiresAt time.Time `gorm:"not null;column:expires_at"`
	Used      bool      `gorm:"not null;default:false;column:used"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at"`
}

// TableName especifica el nombre de la tabla en la base de datos.
func (PasswordResetDAO) TableName() string {
	return "password_resets"
}
