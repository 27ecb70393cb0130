package routes

import (
	"github.com/unisabana/wheels-core/internal/controller"
	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/middleware"
	"github.com/unisabana/wheels-core/internal/service"

	"github.com/gin-gonic/gin"
)

// Controllers agrupa los controladores que SetupRoutes necesita conectar.
type Controllers struct {
	Auth    controller.AuthController
	User    controller.UserController
	Vehicle controller.VehicleController
	Trip    controller.TripController
	Maps    controller.MapsController
}

// SetupRoutes registra todas las rutas del core sobre router (spec §6).
func SetupRoutes(router *gin.Engine, ctrls Controllers, authService service.AuthService) {
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORSMiddleware())

	// /health no se registra aquí: main.go la registra antes de conectar
	// las bases de datos.

	// ==================== AUTENTICACIÓN (pública) ====================
	auth := router.Group("/auth")
	{
		auth.POST("/register", ctrls.Auth.Register)
		auth.POST("/login", ctrls.Auth.Login)
		auth.POST("/forgot-password", ctrls.Auth.ForgotPassword)
		auth.POST("/reset-password", ctrls.Auth.ResetPassword)
	}

	// ==================== MAPAS (pública, spec §6) ====================
	maps := router.Group("/maps")
	{
		maps.GET("/distance", ctrls.Maps.Distance)
		maps.POST("/calculate", ctrls.Maps.Calculate)
		maps.GET("/route-suggest", ctrls.Maps.RouteSuggest)
		maps.GET("/transmilenio/stations", ctrls.Maps.Stations)
		maps.GET("/transmilenio/routes", ctrls.Maps.Routes)
		maps.GET("/transmilenio/stops", ctrls.Maps.Stops)
	}

	// ==================== PROTEGIDAS (requieren JWT) ====================
	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		protected.GET("/auth/me", ctrls.User.GetProfile)
		protected.PUT("/auth/me", ctrls.User.UpdateProfile)
		protected.POST("/auth/logout", ctrls.Auth.Logout)
		protected.PUT("/auth/role", ctrls.Auth.SwitchRole)

		// Vehículos: cualquier usuario autenticado puede registrar su
		// primer vehículo (spec §4.2 "Create" habilita el rol driver).
		vehicles := protected.Group("/vehicles")
		{
			vehicles.POST("", ctrls.Vehicle.Create)
			vehicles.POST("/validate", ctrls.Vehicle.Validate)
			vehicles.GET("", ctrls.Vehicle.ListMine)
			vehicles.GET("/:id", ctrls.Vehicle.Get)
			vehicles.PUT("/:id", ctrls.Vehicle.Update)
			vehicles.DELETE("/:id", ctrls.Vehicle.Delete)
			vehicles.PUT("/:id/activate", ctrls.Vehicle.Activate)
			vehicles.POST("/:id/request-review", ctrls.Vehicle.RequestReview)
			vehicles.POST("/:id/pickup-points", ctrls.Vehicle.AddPickupPoint)
			vehicles.PUT("/:id/pickup-points/:pointId", ctrls.Vehicle.UpdatePickupPoint)
			vehicles.DELETE("/:id/pickup-points/:pointId", ctrls.Vehicle.DeletePickupPoint)
			// Flujo alterno de dos pasos para clientes que prefieren subir el
			// documento antes de enviar el formulario de Create/Update.
			vehicles.POST("/documents", ctrls.Vehicle.UploadDocument)
		}

		// Viajes: publicar/cancelar/decidir exige el rol driver activo;
		// reservar y proponer puntos de recogida exige el rol passenger
		// activo; buscar y consultar viajes queda abierto a cualquier usuario
		// autenticado (spec §4.3).
		trips := protected.Group("/trips")
		{
			trips.GET("", ctrls.Trip.List)
			trips.GET("/:id", ctrls.Trip.Get)
			trips.POST("/tariff/suggest", ctrls.Trip.TariffSuggestion)
			// Cancelar una reserva (pending o confirmed) está abierto a ambos
			// roles: el servicio autoriza al pasajero dueño de la reserva o al
			// conductor dueño del viaje.
			trips.PUT("/:id/reservations/:resId/cancel", ctrls.Trip.CancelReservation)

			driverTrips := trips.Group("")
			driverTrips.Use(middleware.RequireRole(domain.RoleDriver))
			{
				driverTrips.POST("", ctrls.Trip.Create)
				driverTrips.GET("/mine", ctrls.Trip.ListMine)
				driverTrips.PUT("/:id/cancel", ctrls.Trip.Cancel)
				driverTrips.GET("/:id/passengers", ctrls.Trip.Passengers)
				driverTrips.PUT("/:id/reservations/:resId/confirm", ctrls.Trip.ConfirmReservation)
				driverTrips.PUT("/:id/reservations/:resId/reject", ctrls.Trip.RejectReservation)
				driverTrips.PUT("/:id/pickup-suggestions/:suggestionId/decision", ctrls.Trip.ResolvePickupSuggestion)
			}

			passengerTrips := trips.Group("")
			passengerTrips.Use(middleware.RequireRole(domain.RolePassenger))
			{
				passengerTrips.POST("/:id/reservations", ctrls.Trip.Reserve)
				passengerTrips.POST("/:id/pickup-suggestions", ctrls.Trip.ProposePickupSuggestion)
			}
		}
	}
}
