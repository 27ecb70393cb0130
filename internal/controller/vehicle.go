package controller

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/unisabana/wheels-core/internal/blobstore"
	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/middleware"
	"github.com/unisabana/wheels-core/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// VehicleController expone el registro, edición, verificación y catálogo
// de puntos de recogida de vehículos (spec §4.2).
type VehicleController interface {
	Create(c *gin.Context)
	Validate(c *gin.Context)
	Get(c *gin.Context)
	ListMine(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Activate(c *gin.Context)
	RequestReview(c *gin.Context)
	AddPickupPoint(c *gin.Context)
	UpdatePickupPoint(c *gin.Context)
	DeletePickupPoint(c *gin.Context)
	UploadDocument(c *gin.Context)
}

type vehicleController struct {
	vehicleService service.VehicleService
	tripService    service.TripService
	blobStore      blobstore.Store
	uploadMaxBytes int64
}

// NewVehicleController crea una nueva instancia del controlador de
// vehículos. tripService se usa únicamente para que Delete consulte
// viajes futuros activos (ActiveTripChecker).
func NewVehicleController(vehicleService service.VehicleService, tripService service.TripService, blobStore blobstore.Store, uploadMaxBytes int64) VehicleController {
	return &vehicleController{
		vehicleService: vehicleService,
		tripService:    tripService,
		blobStore:      blobStore,
		uploadMaxBytes: uploadMaxBytes,
	}
}

// Create registra un vehículo para el usuario autenticado. Acepta tanto
// JSON como multipart/form-data con los mismos campos más los archivos
// vehicle_photo/soat_photo/license_photo (spec §6 "POST /vehicles").
// POST /vehicles
func (ctrl *vehicleController) Create(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	req, savedPaths, err := ctrl.bindVehicleRequest(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	vehicle, err := ctrl.vehicleService.Create(ownerID, *req)
	if err != nil {
		ctrl.rollbackBlobs(savedPaths)
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": vehicleResponse(vehicle)})
}

// rollbackBlobs elimina los blobs subidos en una petición que terminó en
// error (spec §4.5: "on any downstream error all blobs saved in this call
// are rolled back"). Un fallo al borrar solo se registra; no enmascara el
// error original de la petición.
func (ctrl *vehicleController) rollbackBlobs(paths []string) {
	for _, path := range paths {
		if err := ctrl.blobStore.Delete(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("no se pudo revertir el blob tras un error")
		}
	}
}

// Validate corre las mismas validaciones que Create sin persistir nada.
// POST /vehicles/validate
func (ctrl *vehicleController) Validate(c *gin.Context) {
	if _, err := domain.GetUserIDFromContext(c); err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	req, savedPaths, err := ctrl.bindVehicleRequest(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	// Validate nunca persiste el vehículo: cualquier blob subido durante el
	// bind se revierte de inmediato, con o sin error de validación.
	defer ctrl.rollbackBlobs(savedPaths)

	if err := ctrl.vehicleService.Validate(*req); err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"valid": true}})
}

// bindVehicleRequest lee el cuerpo de la petición como JSON o, si el
// content-type es multipart, como form fields + archivos subidos al blob
// store (el flujo de dos pasos vía /vehicles/documents queda disponible
// para clientes que prefieran subir antes de enviar el formulario).
// bindVehicleRequest devuelve, junto con la petición, la lista de rutas de
// blobs guardadas en esta llamada. El llamador es responsable de
// revertirlas (rollbackBlobs) si algo después falla; si un archivo falla a
// mitad del bind, esta misma función revierte lo ya guardado antes de
// devolver el error (spec §4.5).
func (ctrl *vehicleController) bindVehicleRequest(c *gin.Context) (*domain.VehicleRequest, []string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var req domain.VehicleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, nil, domain.ErrValidation.WithMessage(err.Error())
		}
		return &req, nil, nil
	}

	capacity, _ := strconv.Atoi(c.PostForm("capacity"))
	soatExpiration, err := time.Parse(time.RFC3339, c.PostForm("soat_expiration"))
	if err != nil {
		return nil, nil, domain.ErrValidation.WithMessage("soat_expiration inválida, se espera RFC3339")
	}
	licenseExpiration, err := time.Parse(time.RFC3339, c.PostForm("license_expiration"))
	if err != nil {
		return nil, nil, domain.ErrValidation.WithMessage("license_expiration inválida, se espera RFC3339")
	}

	req := &domain.VehicleRequest{
		Plate:             c.PostForm("plate"),
		Brand:             c.PostForm("brand"),
		Model:             c.PostForm("model"),
		Capacity:          capacity,
		Color:             c.PostForm("color"),
		SoatExpiration:    soatExpiration,
		LicenseNumber:     c.PostForm("license_number"),
		LicenseExpiration: licenseExpiration,
	}
	if year, err := strconv.Atoi(c.PostForm("year")); err == nil {
		req.Year = &year
	}

	var savedPaths []string
	for _, field := range []struct {
		name string
		dest *string
	}{
		{"vehicle_photo", &req.VehiclePhotoURL},
		{"soat_photo", &req.SoatPhotoURL},
		{"license_photo", &req.LicensePhotoURL},
	} {
		path, err := ctrl.saveFormFile(c, field.name)
		if err != nil {
			ctrl.rollbackBlobs(savedPaths)
			return nil, nil, err
		}
		if path != "" {
			*field.dest = path
			savedPaths = append(savedPaths, path)
		}
	}

	return req, savedPaths, nil
}

// saveFormFile guarda el archivo field (si vino) en el blob store y
// devuelve la ruta relativa resultante. Devuelve "" sin error si el campo
// no fue enviado.
func (ctrl *vehicleController) saveFormFile(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	src, err := file.Open()
	if err != nil {
		return "", domain.ErrValidation.WithMessage("no se pudo abrir " + field)
	}
	defer src.Close()

	path, err := ctrl.blobStore.Save(file.Filename, src, ctrl.uploadMaxBytes)
	if err != nil {
		return "", err
	}
	return path, nil
}

// Get devuelve un vehículo propio por id.
// GET /vehicles/:id
func (ctrl *vehicleController) Get(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}
	id, err := parseVehicleID(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	vehicle, err := ctrl.vehicleService.Get(id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	if vehicle.OwnerID != ownerID {
		middleware.Abort(c, domain.ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": vehicleResponse(vehicle)})
}

// ListMine lista los vehículos del usuario autenticado.
// GET /vehicles
func (ctrl *vehicleController) ListMine(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	vehicles, err := ctrl.vehicleService.ListByOwner(ownerID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	out := make([]gin.H, len(vehicles))
	for i, v := range vehicles {
		out[i] = vehicleResponse(v)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

// Update aplica una actualización parcial. Tocar un campo material
// reinicia la verificación a pending.
// PUT /vehicles/:id
func (ctrl *vehicleController) Update(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}
	id, err := parseVehicleID(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var req domain.VehicleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	vehicle, err := ctrl.vehicleService.Update(ownerID, id, req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": vehicleResponse(vehicle)})
}

// Delete elimina el vehículo, a menos que tenga viajes futuros activos.
// DELETE /vehicles/:id
func (ctrl *vehicleController) Delete(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}
	id, err := parseVehicleID(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	if err := ctrl.vehicleService.Delete(ownerID, id, ctrl.tripService.HasActiveFutureTrips); err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"message": "vehículo eliminado"}})
}

// Activate fija el vehículo como el activo del dueño.
// PUT /vehicles/:id/activate
func (ctrl *vehicleController) Activate(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}
	id, err := parseVehicleID(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	vehicle, err := ctrl.vehicleService.Activate(ownerID, id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": vehicleResponse(vehicle)})
}

// RequestReview envía el vehículo a revisión (pending/rejected/needs_update
// con documentos vigentes -> under_review).
// POST /vehicles/:id/request-review
func (ctrl *vehicleController) RequestReview(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}
	id, err := parseVehicleID(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	vehicle, err := ctrl.vehicleService.RequestReview(ownerID, id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": vehicleResponse(vehicle)})
}

// AddPickupPoint agrega un punto al catálogo del vehículo.
// POST /vehicles/:id/pickup-points
func (ctrl *vehicleController) AddPickupPoint(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}
	id, err := parseVehicleID(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var req domain.PickupPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	vehicle, err := ctrl.vehicleService.AddPickupPoint(ownerID, id, req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": vehicleResponse(vehicle)})
}

// UpdatePickupPoint reemplaza los datos de un punto existente.
// PUT /vehicles/:id/pickup-points/:pointId
func (ctrl *vehicleController) UpdatePickupPoint(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}
	id, err := parseVehicleID(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var req domain.PickupPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	vehicle, err := ctrl.vehicleService.UpdatePickupPoint(ownerID, id, c.Param("pointId"), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": vehicleResponse(vehicle)})
}

// DeletePickupPoint elimina un punto del catálogo por id.
// DELETE /vehicles/:id/pickup-points/:pointId
func (ctrl *vehicleController) DeletePickupPoint(c *gin.Context) {
	ownerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}
	id, err := parseVehicleID(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	vehicle, err := ctrl.vehicleService.DeletePickupPoint(ownerID, id, c.Param("pointId"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": vehicleResponse(vehicle)})
}

// UploadDocument recibe un archivo (foto del vehículo, SOAT o licencia) por
// multipart y devuelve la ruta resultante para incluir en Create/Update. El
// backend de blobs real queda fuera de alcance; esta es la fachada local
// que lo reemplazaría.
// POST /vehicles/documents
func (ctrl *vehicleController) UploadDocument(c *gin.Context) {
	if _, err := domain.GetUserIDFromContext(c); err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage("falta el archivo 'file'"))
		return
	}

	src, err := file.Open()
	if err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage("no se pudo abrir el archivo"))
		return
	}
	defer src.Close()

	path, err := ctrl.blobStore.Save(file.Filename, src, ctrl.uploadMaxBytes)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"path": path}})
}

func parseVehicleID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, domain.ErrValidation.WithMessage("id de vehículo inválido")
	}
	return id, nil
}

func vehicleResponse(v *domain.Vehicle) gin.H {
	return gin.H{
		"vehicle": v,
		"meta":    v.Decorate(),
	}
}
