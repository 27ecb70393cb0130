package domain

import "time"

// Role es uno de los roles que un usuario puede ejercer.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
)

// PaymentMethod es el medio de pago preferido del usuario. El cobro en sí
// está fuera de alcance: solo se registra la preferencia.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentNequi PaymentMethod = "nequi"
)

// EmergencyContact es el contacto de emergencia declarado por el usuario.
type EmergencyContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// User representa un usuario en el dominio de negocio.
type User struct {
	ID                  uint64            `json:"id"`
	Email               string            `json:"email"`
	FirstName           string            `json:"first_name"`
	LastName            string            `json:"last_name"`
	UniversityID        string            `json:"university_id"`
	Phone               string            `json:"phone"`
	PhotoURL            string            `json:"photo_url,omitempty"`
	Roles               []Role            `json:"roles"`
	ActiveRole          Role              `json:"active_role"`
	ActiveVehicleID     *uint64           `json:"active_vehicle_id"`
	EmergencyContact    *EmergencyContact `json:"emergency_contact,omitempty"`
	PreferredPayment    PaymentMethod     `json:"preferred_payment_method"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// HasRole indica si el usuario tiene el rol dado habilitado.
func (u *User) HasRole(r Role) bool {
	for _, role := range u.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// RegisterRequest son los datos necesarios para registrar un usuario nuevo.
// Cuando Role es driver, Vehicle es obligatorio y se crea atómicamente con
// el usuario.
type RegisterRequest struct {
	Email        string          `json:"email" binding:"required,email"`
	Password     string          `json:"password" binding:"required,min=8"`
	FirstName    string          `json:"first_name" binding:"required"`
	LastName     string          `json:"last_name" binding:"required"`
	UniversityID string          `json:"university_id" binding:"required"`
	Phone        string          `json:"phone" binding:"required"`
	PhotoURL     string          `json:"photo_url,omitempty"`
	Role         Role            `json:"role" binding:"required,oneof=passenger driver"`
	Vehicle      *VehicleRequest `json:"vehicle,omitempty"`
}

// UpdateProfileRequest son los campos editables del perfil.
type UpdateProfileRequest struct {
	FirstName        *string           `json:"first_name,omitempty"`
	LastName          *string           `json:"last_name,omitempty"`
	Phone             *string           `json:"phone,omitempty"`
	PhotoURL          *string           `json:"photo_url,omitempty"`
	EmergencyContact  *EmergencyContact `json:"emergency_contact,omitempty"`
	PreferredPayment  *PaymentMethod    `json:"preferred_payment_method,omitempty"`
}

// LoginRequest son las credenciales de inicio de sesión.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse es la respuesta del login, con el usuario y el bearer token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// SwitchRoleRequest cambia el rol activo del usuario.
type SwitchRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=passenger driver"`
}

// ForgotPasswordRequest inicia el flujo de recuperación de contraseña.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest consume un token de recuperación.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
