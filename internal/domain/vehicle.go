package domain

import (
	"regexp"
	"time"
)

// VehicleStatus es el estado de verificación del vehículo.
type VehicleStatus string

const (
	VehiclePending     VehicleStatus = "pending"
	VehicleUnderReview VehicleStatus = "under_review"
	VehicleVerified    VehicleStatus = "verified"
	VehicleRejected    VehicleStatus = "rejected"
	VehicleNeedsUpdate VehicleStatus = "needs_update"
)

// plateRegexes son las dos formas aceptadas de placa colombiana:
// tres letras + tres dígitos (carros) o tres letras + dos dígitos + una
// letra (motos).
var plateRegexes = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{3}[0-9]{3}$`),
	regexp.MustCompile(`^[A-Z]{3}[0-9]{2}[A-Z]$`),
}

// MatchesPlateFormat indica si plate (ya normalizada) cumple alguno de los
// dos formatos aceptados.
func MatchesPlateFormat(plate string) bool {
	for _, re := range plateRegexes {
		if re.MatchString(plate) {
			return true
		}
	}
	return false
}

// PickupPoint es un punto de recogida con nombre y coordenadas, tanto del
// catálogo de un vehículo como, embebido, de un viaje.
type PickupPoint struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// Vehicle representa un vehículo registrado por un conductor.
type Vehicle struct {
	ID          uint64 `json:"id"`
	OwnerID     uint64 `json:"owner_id"`
	Plate       string `json:"plate"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Capacity    int    `json:"capacity"`
	Year        *int   `json:"year,omitempty"`
	Color       string `json:"color,omitempty"`

	VehiclePhotoURL string `json:"vehicle_photo_url,omitempty"`
	SoatPhotoURL    string `json:"soat_photo_url"`
	LicensePhotoURL string `json:"license_photo_url"`

	SoatExpiration    time.Time `json:"soat_expiration"`
	LicenseNumber     string    `json:"license_number"`
	LicenseExpiration time.Time `json:"license_expiration"`

	Status           VehicleStatus `json:"status"`
	StatusUpdatedAt  time.Time     `json:"status_updated_at"`
	RequestedReviewAt *time.Time   `json:"requested_review_at,omitempty"`
	ReviewedAt        *time.Time   `json:"reviewed_at,omitempty"`
	ReviewedBy        *uint64      `json:"reviewed_by,omitempty"`
	VerificationNotes string        `json:"verification_notes,omitempty"`

	PickupPoints []PickupPoint `json:"pickup_points"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentStatus es el estado de un documento individual en la decoración.
type DocumentStatus string

const (
	DocValid    DocumentStatus = "valid"
	DocExpiring DocumentStatus = "expiring"
	DocExpired  DocumentStatus = "expired"
	DocMissing  DocumentStatus = "missing"
	DocInvalid  DocumentStatus = "invalid"
)

const expiringSoonWindow = 30 * 24 * time.Hour

// VehicleMeta es el bloque decorado y calculado que acompaña cada lectura
// de un vehículo (spec §4.2 "Decoración").
type VehicleMeta struct {
	SoatStatus    DocumentStatus `json:"soat_status"`
	LicenseStatus DocumentStatus `json:"license_status"`
	Warnings      []string       `json:"warnings"`
	DocumentsOK   bool           `json:"documents_ok"`
	CanRequestReview bool        `json:"can_request_review"`
	CanActivate   bool           `json:"can_activate"`
	StatusLabel   string         `json:"status_label"`
	Severity      string         `json:"severity"`
}

// documentStatus clasifica una fecha de expiración respecto a now.
func documentStatus(expiration time.Time) DocumentStatus {
	if expiration.IsZero() {
		return DocMissing
	}
	if expiration.Before(time.Now()) {
		return DocExpired
	}
	if time.Until(expiration) <= expiringSoonWindow {
		return DocExpiring
	}
	return DocValid
}

// Decorate calcula el bloque meta de un vehículo de forma pura y
// determinística dado el estado actual y el reloj del sistema.
func (v *Vehicle) Decorate() VehicleMeta {
	soat := documentStatus(v.SoatExpiration)
	license := documentStatus(v.LicenseExpiration)

	var warnings []string
	if soat == DocExpired {
		warnings = append(warnings, "el SOAT está vencido")
	} else if soat == DocExpiring {
		warnings = append(warnings, "el SOAT vence pronto")
	}
	if license == DocExpired {
		warnings = append(warnings, "la licencia de conducción está vencida")
	} else if license == DocExpiring {
		warnings = append(warnings, "la licencia de conducción vence pronto")
	}

	documentsOK := soat != DocExpired && soat != DocMissing && soat != DocInvalid &&
		license != DocExpired && license != DocMissing && license != DocInvalid

	canRequestReview := documentsOK && (v.Status == VehiclePending || v.Status == VehicleRejected || v.Status == VehicleNeedsUpdate)
	canActivate := v.Status == VehicleVerified && documentsOK

	label, severity := statusLabel(v.Status)

	return VehicleMeta{
		SoatStatus:       soat,
		LicenseStatus:    license,
		Warnings:         warnings,
		DocumentsOK:      documentsOK,
		CanRequestReview: canRequestReview,
		CanActivate:      canActivate,
		StatusLabel:      label,
		Severity:         severity,
	}
}

func statusLabel(status VehicleStatus) (label, severity string) {
	switch status {
	case VehiclePending:
		return "Pendiente de revisión", "info"
	case VehicleUnderReview:
		return "En revisión", "info"
	case VehicleVerified:
		return "Verificado", "success"
	case VehicleRejected:
		return "Rechazado", "error"
	case VehicleNeedsUpdate:
		return "Requiere actualización", "warning"
	default:
		return string(status), "info"
	}
}

// IsDocumentsValidAt indica si ambos documentos están vigentes en el
// instante dado (usado por el gate de creación de viaje/activación).
func (v *Vehicle) IsDocumentsValidAt(at time.Time) bool {
	return v.SoatExpiration.After(at) && v.LicenseExpiration.After(at)
}

// VehicleRequest son los datos para crear (o validar sin persistir) un
// vehículo. Year es un puntero para distinguir "no enviado" de cero; las
// actualizaciones parciales usan VehicleUpdateRequest.
type VehicleRequest struct {
	Plate             string        `json:"plate" binding:"required"`
	Brand             string        `json:"brand" binding:"required"`
	Model             string        `json:"model" binding:"required"`
	Capacity          int           `json:"capacity" binding:"required"`
	Year              *int          `json:"year,omitempty"`
	Color             string        `json:"color,omitempty"`
	VehiclePhotoURL   string        `json:"vehicle_photo_url,omitempty"`
	SoatPhotoURL      string        `json:"soat_photo_url"`
	SoatExpiration    time.Time     `json:"soat_expiration" binding:"required"`
	LicenseNumber     string        `json:"license_number" binding:"required"`
	LicensePhotoURL   string        `json:"license_photo_url"`
	LicenseExpiration time.Time     `json:"license_expiration" binding:"required"`
	PickupPoints      []PickupPoint `json:"pickup_points,omitempty"`
}

// VehicleUpdateRequest es la variante parcial usada por PUT /vehicles/:id.
type VehicleUpdateRequest struct {
	Plate             *string       `json:"plate,omitempty"`
	Brand             *string       `json:"brand,omitempty"`
	Model             *string       `json:"model,omitempty"`
	Capacity          *int          `json:"capacity,omitempty"`
	Year              *int          `json:"year,omitempty"`
	Color             *string       `json:"color,omitempty"`
	VehiclePhotoURL   *string       `json:"vehicle_photo_url,omitempty"`
	SoatPhotoURL      *string       `json:"soat_photo_url,omitempty"`
	SoatExpiration    *time.Time    `json:"soat_expiration,omitempty"`
	LicenseNumber     *string       `json:"license_number,omitempty"`
	LicensePhotoURL   *string       `json:"license_photo_url,omitempty"`
	LicenseExpiration *time.Time    `json:"license_expiration,omitempty"`
	PickupPoints      []PickupPoint `json:"pickup_points,omitempty"`
}

// IsMaterial indica si la actualización toca un campo que dispara el reset
// a status=pending (spec §4.2 "Update").
func (r *VehicleUpdateRequest) IsMaterial() bool {
	return r.Plate != nil || r.Brand != nil || r.Model != nil || r.Capacity != nil ||
		r.VehiclePhotoURL != nil || r.SoatPhotoURL != nil || r.SoatExpiration != nil ||
		r.LicenseNumber != nil || r.LicensePhotoURL != nil || r.LicenseExpiration != nil
}

// PickupPointRequest son los datos para crear/actualizar un punto de
// recogida del catálogo de un vehículo.
type PickupPointRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat" binding:"required"`
	Lng         float64 `json:"lng" binding:"required"`
}
