package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/unisabana/wheels-core/internal/config"
	"github.com/unisabana/wheels-core/internal/dao"
	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService agrupa registro, login y el ciclo de vida de la sesión y la
// contraseña.
type AuthService interface {
	Register(req domain.RegisterRequest) (*domain.User, error)
	Login(req domain.LoginRequest) (*domain.LoginResponse, error)
	Logout(tokenString string) error
	SwitchRole(userID uint64, req domain.SwitchRoleRequest) (*domain.User, error)

	GenerateJWT(userID uint64, email string, activeRole domain.Role) (string, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	IsRevoked(tokenString string) bool

	ForgotPassword(req domain.ForgotPasswordRequest) error
	ResetPassword(req domain.ResetPasswordRequest) error
}

type authService struct {
	cfg          *config.Config
	userRepo     repository.UserRepository
	vehicleRepo  repository.VehicleRepository
	resetRepo    repository.PasswordResetRepository
	emailService EmailService
	revoker      SessionRevoker
}

// NewAuthService crea una nueva instancia del servicio de autenticación.
func NewAuthService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	vehicleRepo repository.VehicleRepository,
	resetRepo repository.PasswordResetRepository,
	emailService EmailService,
	revoker SessionRevoker,
) AuthService {
	return &authService{
		cfg:          cfg,
		userRepo:     userRepo,
		vehicleRepo:  vehicleRepo,
		resetRepo:    resetRepo,
		emailService: emailService,
		revoker:      revoker,
	}
}

// Register crea un usuario nuevo. Cuando req.Role es driver, req.Vehicle
// es obligatorio y se crea en la misma operación; si sus documentos ya
// están vencidos, el registro se rechaza por completo (spec §4.1).
func (s *authService) Register(req domain.RegisterRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.HasSuffix(email, "@"+s.cfg.InstitutionalDomain) {
		return nil, domain.ErrInvalidEmailDomain
	}

	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, domain.ErrDuplicateEmail
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	if req.Role == domain.RoleDriver {
		if req.Vehicle == nil {
			return nil, domain.ErrValidation.WithMessage("se requiere el vehículo para registrarse como conductor")
		}
		if !req.Vehicle.SoatExpiration.After(time.Now()) || !req.Vehicle.LicenseExpiration.After(time.Now()) {
			return nil, domain.ErrExpiredDocument
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// passenger siempre está presente en el conjunto de roles, sin importar
	// con cuál se registre el usuario (spec §4.1 "Roles"): un registro
	// role=driver habilita ambos, nunca solo driver.
	roles := string(domain.RolePassenger)
	if req.Role == domain.RoleDriver {
		roles = string(domain.RolePassenger) + "," + string(domain.RoleDriver)
	}

	userDAO := &dao.UserDAO{
		Email:            email,
		PasswordHash:     string(hashedPassword),
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		UniversityID:     req.UniversityID,
		Phone:            req.Phone,
		PhotoURL:         req.PhotoURL,
		Roles:            roles,
		ActiveRole:       string(req.Role),
		PreferredPayment: string(domain.PaymentCash),
	}

	if err := s.userRepo.Create(userDAO); err != nil {
		return nil, err
	}

	if req.Role == domain.RoleDriver {
		vehicleDAO := &dao.VehicleDAO{
			OwnerID:           userDAO.ID,
			Plate:             strings.ToUpper(strings.TrimSpace(req.Vehicle.Plate)),
			Brand:             req.Vehicle.Brand,
			Model:             req.Vehicle.Model,
			Capacity:          req.Vehicle.Capacity,
			Year:              req.Vehicle.Year,
			Color:             req.Vehicle.Color,
			VehiclePhotoURL:   req.Vehicle.VehiclePhotoURL,
			SoatPhotoURL:      req.Vehicle.SoatPhotoURL,
			LicensePhotoURL:   req.Vehicle.LicensePhotoURL,
			SoatExpiration:    req.Vehicle.SoatExpiration,
			LicenseNumber:     req.Vehicle.LicenseNumber,
			LicenseExpiration: req.Vehicle.LicenseExpiration,
			Status:            string(domain.VehiclePending),
			StatusUpdatedAt:   time.Now(),
		}
		if !domain.MatchesPlateFormat(vehicleDAO.Plate) {
			return nil, domain.ErrValidation.WithMessage("la placa no cumple el formato esperado")
		}
		if err := s.vehicleRepo.Create(vehicleDAO); err != nil {
			return nil, err
		}
		if err := s.userRepo.SetActiveVehicle(userDAO.ID, &vehicleDAO.ID); err != nil {
			return nil, err
		}
		userDAO.ActiveVehicleID = &vehicleDAO.ID
	}

	go s.emailService.SendWelcomeEmail(userDAO.Email, userDAO.FirstName)

	return toDomainUser(userDAO), nil
}

// Login autentica al usuario y emite un JWT con el rol activo actual.
func (s *authService) Login(req domain.LoginRequest) (*domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.GenerateJWT(user.ID, user.Email, domain.Role(user.ActiveRole))
	if err != nil {
		return nil, err
	}

	return &domain.LoginResponse{
		User:  toDomainUser(user),
		Token: token,
	}, nil
}

// Logout revoca el token presentado; a partir de este punto AuthMiddleware
// lo rechaza aunque su firma y exp sigan siendo válidos.
func (s *authService) Logout(tokenString string) error {
	claims, err := s.parseClaims(tokenString)
	if err != nil {
		return domain.ErrUnauthenticated
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return domain.ErrUnauthenticated
	}
	s.revoker.Revoke(tokenString, exp.Time)
	return nil
}

// SwitchRole cambia el rol activo del usuario, siempre que esté habilitado
// (spec §4.1): pasajero→conductor exige un vehículo verificado con
// documentos vigentes.
func (s *authService) SwitchRole(userID uint64, req domain.SwitchRoleRequest) (*domain.User, error) {
	userDAO, err := s.userRepo.FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	roles := splitRoles(userDAO.Roles)
	hasRole := false
	for _, r := range roles {
		if r == string(req.Role) {
			hasRole = true
			break
		}
	}
	if !hasRole {
		return nil, domain.ErrRoleNotEnabled
	}

	if req.Role == domain.RoleDriver {
		vehicles, err := s.vehicleRepo.FindByOwner(userID)
		if err != nil {
			return nil, err
		}
		if !anyVehicleUsable(vehicles) {
			return nil, domain.ErrDocumentsInvalid
		}
		if userDAO.ActiveVehicleID == nil {
			if eligible := firstUsableVehicle(vehicles); eligible != nil {
				if err := s.userRepo.SetActiveVehicle(userID, &eligible.ID); err != nil {
					return nil, err
				}
				userDAO.ActiveVehicleID = &eligible.ID
			}
		}
	}

	if err := s.userRepo.SetRolesAndActiveRole(userID, roles, string(req.Role)); err != nil {
		return nil, err
	}
	userDAO.ActiveRole = string(req.Role)
	return toDomainUser(userDAO), nil
}

func anyVehicleUsable(vehicles []*dao.VehicleDAO) bool {
	return firstUsableVehicle(vehicles) != nil
}

func firstUsableVehicle(vehicles []*dao.VehicleDAO) *dao.VehicleDAO {
	now := time.Now()
	for _, v := range vehicles {
		if v.Status == string(domain.VehicleVerified) &&
			v.SoatExpiration.After(now) && v.LicenseExpiration.After(now) {
			return v
		}
	}
	return nil
}

// GenerateJWT emite un token HS256 con el rol activo embebido como claim,
// de modo que el middleware no necesite consultar la base de datos en
// cada request para saberlo.
func (s *authService) GenerateJWT(userID uint64, email string, activeRole domain.Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":     userID,
		"email":       email,
		"active_role": string(activeRole),
		"iat":         now.Unix(),
		"exp":         now.Add(time.Duration(s.cfg.JWTTTLHours) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenExpired
	}
	return token, nil
}

func (s *authService) IsRevoked(tokenString string) bool {
	return s.revoker.IsRevoked(tokenString)
}

func (s *authService) parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims inválidos")
	}
	return claims, nil
}

// ForgotPassword emite un token de recuperación de un solo uso. Nunca
// revela si el correo existe, para evitar enumeración de cuentas; solo se
// persiste el hash SHA-256 del token (spec §9, pregunta abierta 2).
func (s *authService) ForgotPassword(req domain.ForgotPasswordRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}

	rawToken := uuid.NewString()
	hash := hashToken(rawToken)
	expiresAt := time.Now().Add(time.Duration(s.cfg.ResetTTLMin) * time.Minute)

	if err := s.resetRepo.IssueToken(user.ID, hash, expiresAt); err != nil {
		return err
	}

	go s.emailService.SendPasswordResetEmail(user.Email, rawToken)
	return nil
}

// ResetPassword consume el token de recuperación y fija la nueva
// contraseña. Un token inexistente, ya usado o expirado devuelve
// TOKEN_INVALID_OR_EXPIRED; tras un cambio exitoso el token queda marcado
// usado para que no pueda reintentarse.
func (s *authService) ResetPassword(req domain.ResetPasswordRequest) error {
	hash := hashToken(req.Token)
	reset, err := s.resetRepo.FindValidByHash(hash)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.ErrTokenInvalidOrExpired
		}
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(reset.UserID, string(hashedPassword)); err != nil {
		return err
	}
	return s.resetRepo.MarkUsed(reset.ID)
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func splitRoles(joined string) []string {
	var roles []string
	for _, r := range strings.Split(joined, ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

func toDomainUser(u *dao.UserDAO) *domain.User {
	roles := make([]domain.Role, 0, 2)
	for _, r := range splitRoles(u.Roles) {
		roles = append(roles, domain.Role(r))
	}

	var contact *domain.EmergencyContact
	if u.EmergencyName != "" || u.EmergencyPhone != "" {
		contact = &domain.EmergencyContact{Name: u.EmergencyName, Phone: u.EmergencyPhone}
	}

	return &domain.User{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		UniversityID:     u.UniversityID,
		Phone:            u.Phone,
		PhotoURL:         u.PhotoURL,
		Roles:            roles,
		ActiveRole:       domain.Role(u.ActiveRole),
		ActiveVehicleID:  u.ActiveVehicleID,
		EmergencyContact: contact,
		PreferredPayment: domain.PaymentMethod(u.PreferredPayment),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
