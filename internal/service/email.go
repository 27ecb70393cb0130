package service

import (
	"fmt"
	"net/smtp"

	"github.com/unisabana/wheels-core/internal/config"

	"github.com/rs/zerolog/log"
)

// EmailService define las operaciones de envío de correo del core. El
// transporte real (SMTP) es reemplazable; lo que no está en alcance es su
// contenido de marca (spec, Non-goals).
type EmailService interface {
	SendWelcomeEmail(toEmail, firstName string)
	SendPasswordResetEmail(toEmail, token string)
	SendTripCancelledEmail(toEmail, tripID string)
}

type emailService struct {
	config *config.Config
}

// NewEmailService crea una nueva instancia del servicio de correo.
func NewEmailService(cfg *config.Config) EmailService {
	return &emailService{config: cfg}
}

// SendWelcomeEmail se dispara en segundo plano al registrar un usuario
// nuevo; un fallo de envío nunca debe bloquear ni revertir el registro.
func (s *emailService) SendWelcomeEmail(toEmail, firstName string) {
	subject := "Bienvenido a Wheels"
	body := fmt.Sprintf(`
		<h2>Hola %s</h2>
		<p>Tu cuenta en Wheels fue creada correctamente.</p>
	`, firstName)

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		log.Warn().Err(err).Str("to", toEmail).Msg("no se pudo enviar el correo de bienvenida")
	}
}

// SendPasswordResetEmail envía el enlace de recuperación de contraseña.
// token es el valor crudo de un solo uso; nunca se persiste en claro en
// la base de datos (solo su hash).
func (s *emailService) SendPasswordResetEmail(toEmail, token string) {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.AppURL, token)

	subject := "Restablece tu contraseña - Wheels"
	body := fmt.Sprintf(`
		<h2>Restablecer contraseña</h2>
		<p>Haz clic en el siguiente enlace para restablecer tu contraseña:</p>
		<a href="%s">Restablecer contraseña</a>
		<p>Este enlace vence en %d minutos. Si no lo solicitaste, ignora este correo.</p>
	`, resetURL, s.config.ResetTTLMin)

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		log.Warn().Err(err).Str("to", toEmail).Msg("no se pudo enviar el correo de recuperación")
	}
}

// SendTripCancelledEmail notifica a un pasajero con reserva activa que el
// conductor canceló el viaje.
func (s *emailService) SendTripCancelledEmail(toEmail, tripID string) {
	subject := "Tu viaje fue cancelado - Wheels"
	body := fmt.Sprintf(`
		<h2>Viaje cancelado</h2>
		<p>El conductor canceló el viaje %s. Tu reserva fue cancelada automáticamente.</p>
	`, tripID)

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		log.Warn().Err(err).Str("to", toEmail).Msg("no se pudo enviar el correo de cancelación")
	}
}

func (s *emailService) sendEmail(to, subject, body string) error {
	from := s.config.SMTPFrom
	password := s.config.SMTPPassword
	smtpHost := s.config.SMTPHost
	smtpPort := s.config.SMTPPort

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", from, to, subject, body))

	auth := smtp.PlainAuth("", from, password, smtpHost)
	addr := fmt.Sprintf("%s:%s", smtpHost, smtpPort)
	return smtp.SendMail(addr, auth, from, []string{to}, msg)
}
