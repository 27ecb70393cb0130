package main

import (
	"context"
	"fmt"
	"time"

	"github.com/unisabana/wheels-core/internal/blobstore"
	"github.com/unisabana/wheels-core/internal/cache"
	"github.com/unisabana/wheels-core/internal/config"
	"github.com/unisabana/wheels-core/internal/controller"
	"github.com/unisabana/wheels-core/internal/dao"
	"github.com/unisabana/wheels-core/internal/providers"
	"github.com/unisabana/wheels-core/internal/repository"
	"github.com/unisabana/wheels-core/internal/routes"
	"github.com/unisabana/wheels-core/internal/service"
	"github.com/unisabana/wheels-core/internal/stops"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error cargando configuración")
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// El health check debe responder incluso sin bases de datos
	// disponibles (spec §6), así que se registra antes de intentar
	// cualquier conexión.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	db, err := connectMySQL(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error conectando a MySQL")
	}
	log.Info().Msg("conexión a MySQL establecida")

	if err := db.AutoMigrate(
		&dao.UserDAO{},
		&dao.PasswordResetDAO{},
		&dao.VehicleDAO{},
		&dao.PickupPointDAO{},
		&dao.RatingDAO{},
	); err != nil {
		log.Fatal().Err(err).Msg("error en auto-migración de MySQL")
	}
	log.Info().Msg("auto-migración de MySQL completada")

	mongoDB, err := connectMongo(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error conectando a MongoDB")
	}
	log.Info().Msg("conexión a MongoDB establecida")

	redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("error conectando a Redis")
	}
	log.Info().Msg("conexión a Redis establecida")

	blobStore, err := blobstore.NewLocalStore(cfg.UploadsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("error inicializando el almacenamiento de documentos")
	}

	// Repositorios
	userRepo := repository.NewUserRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	tripRepo := repository.NewTripRepository(mongoDB)

	// Servicios
	emailService := service.NewEmailService(cfg)
	revoker := service.NewSessionRevoker()
	authService := service.NewAuthService(cfg, userRepo, vehicleRepo, resetRepo, emailService, revoker)
	userService := service.NewUserService(userRepo)
	vehicleService := service.NewVehicleService(cfg, vehicleRepo, userRepo)
	tripService := service.NewTripService(tripRepo, vehicleRepo, userRepo, ratingRepo, emailService)
	tariffService := service.NewTariffService()

	routeProvider := providers.NewFromConfig(cfg)
	routeCache := providers.NewRouteCache(routeProvider, redisCache, time.Duration(cfg.RouteCacheTTLMin)*time.Minute)
	catalog := stops.NewCatalog()

	// Controladores
	ctrls := routes.Controllers{
		Auth:    controller.NewAuthController(authService),
		User:    controller.NewUserController(userService),
		Vehicle: controller.NewVehicleController(vehicleService, tripService, blobStore, int64(cfg.UploadMaxSizeMB)<<20),
		Trip:    controller.NewTripController(tripService, routeCache, catalog, tariffService),
		Maps:    controller.NewMapsController(routeCache, catalog),
	}

	routes.SetupRoutes(router, ctrls, authService)

	port := ":" + cfg.ServerPort
	log.Info().Str("port", port).Msg("servidor iniciado")
	if err := router.Run(port); err != nil {
		log.Fatal().Err(err).Msg("error iniciando el servidor")
	}
}

func connectMySQL(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func connectMongo(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database(cfg.MongoDB), nil
}
