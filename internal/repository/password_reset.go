package repository

import (
	"time"

	"github.com/unisabana/wheels-core/internal/dao"

	"gorm.io/gorm"
)

// PasswordResetRepository gestiona tokens de recuperación de contraseña.
type PasswordResetRepository interface {
	// IssueToken invalida (marca used) cualquier token no usado previo del
	// usuario y crea el nuevo, en una sola transacción.
	IssueToken(userID uint64, tokenHash string, expiresAt time.Time) error
	FindValidByHash(tokenHash string) (*dao.PasswordResetDAO, error)
	MarkUsed(id uint64) error
}

type passwordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository crea una nueva instancia del repositorio.
func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) IssueToken(userID uint64, tokenHash string, expiresAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&dao.PasswordResetDAO{}).
			Where("user_id = ? AND used = ?", userID, false).
			Update("used", true).Error; err != nil {
			return err
		}

		reset := &dao.PasswordResetDAO{
			UserID:    userID,
			TokenHash: tokenHash,
			ExpiresAt: expiresAt,
			Used:      false,
		}
		return tx.Create(reset).Error
	})
}

func (r *passwordResetRepository) FindValidByHash(tokenHash string) (*dao.PasswordResetDAO, error) {
	var reset dao.PasswordResetDAO
	err := r.db.
		Where("token_hash = ? AND used = ? AND expires_at > ?", tokenHash, false, time.Now()).
		First(&reset).Error
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) MarkUsed(id uint64) error {
	return r.db.Model(&dao.PasswordResetDAO{}).
		Where("id = ?", id).
		Update("used", true).Error
}
