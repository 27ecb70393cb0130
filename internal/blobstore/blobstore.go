// Package blobstore guarda los documentos adjuntos (fotos de vehículo,
// SOAT, licencia) en disco local. El almacenamiento real (S3, GCS, etc.)
// está fuera de alcance (spec, Non-goals): esta es la fachada que un
// backend de blobs reemplazaría sin tocar el resto del core.
package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/unisabana/wheels-core/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// allowedMIMETypes son los tipos de contenido aceptados para documentos y
// fotos de vehículo.
var allowedMIMETypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
	"application/pdf": true,
}

// Store guarda y elimina archivos subidos por el usuario.
type Store interface {
	Save(originalName string, data io.Reader, maxBytes int64) (path string, err error)
	Delete(path string) error
}

type localStore struct {
	dir string
}

// NewLocalStore crea un Store que persiste en el directorio dir,
// creándolo si no existe.
func NewLocalStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("no se pudo crear el directorio de uploads: %w", err)
	}
	return &localStore{dir: dir}, nil
}

// Save valida el tamaño y el MIME real del contenido (no la extensión
// declarada) y persiste el archivo con un nombre generado, evitando
// colisiones y path traversal desde el nombre original.
func (s *localStore) Save(originalName string, data io.Reader, maxBytes int64) (string, error) {
	limited := io.LimitReader(data, maxBytes+1)
	buf, err := io.ReadAll(limited)
	if err != nil {
		return "", domain.ErrValidation.WithMessage("no se pudo leer el archivo")
	}
	if int64(len(buf)) > maxBytes {
		return "", domain.ErrValidation.WithMessage("el archivo supera el tamaño máximo permitido")
	}

	mtype := mimetype.Detect(buf)
	if !allowedMIMETypes[mtype.String()] {
		return "", domain.ErrValidation.WithMessage("tipo de archivo no permitido").WithDetails(mtype.String())
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = mtype.Extension()
	}
	filename := fmt.Sprintf("%s-%d%s", uuid.NewString(), time.Now().UnixNano(), ext)
	fullPath := filepath.Join(s.dir, filename)

	if err := os.WriteFile(fullPath, buf, 0o644); err != nil {
		return "", fmt.Errorf("no se pudo guardar el archivo: %w", err)
	}

	return fullPath, nil
}

func (s *localStore) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("no se pudo eliminar el archivo: %w", err)
	}
	return nil
}
