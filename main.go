// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	amqp091 "github.com/rabbitmq/amqp091-go"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/starvisioncare/clinic-backend/config"
	_ "github.com/starvisioncare/clinic-backend/docs"
	"github.com/starvisioncare/clinic-backend/endpoint"
	"github.com/starvisioncare/clinic-backend/middleware"
	"github.com/starvisioncare/clinic-backend/model"
	"github.com/starvisioncare/clinic-backend/notify"
	"github.com/starvisioncare/clinic-backend/util"
)

// @title Star Vision Clinic Backend API
// @version 1.0
// @description Patient registration, examination records and referral management for the Star Vision eye clinic.
// @BasePath /

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectPostgres()
	if err != nil {
		log.Fatalf("error connecting to database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Role{}, &model.User{}, &model.Session{},
		&model.Patient{}, &model.Examination{}, &model.Finding{},
		&model.Diagnosis{}, &model.Payment{},
		&model.Clinic{}, &model.Referral{}, &model.AuditLog{},
	); err != nil {
		log.Fatalf("error migrating schema: %v", err)
	}
	if err := model.SeedRoles(db); err != nil {
		log.Fatalf("error seeding roles: %v", err)
	}

	util.SetAuditLoggerDB(db)
	util.InitUserEmailCacheFromEnv()
	if path := os.Getenv("GEOIP_DB_PATH"); path != "" {
		if err := util.InitGeoIP(path); err != nil {
			log.Printf("geoip lookups disabled: %v", err)
		}
	}
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("redis unavailable, session lookups fall back to the database: %v", err)
	}

	setupNotifiers(cfg)

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerRoutes(router)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

// setupNotifiers wires the WhatsApp welcome sender and the referral mailer.
// Either channel may be left unconfigured, in which case the handlers skip it.
func setupNotifiers(cfg *config.Config) {
	if cfg.WhatsAppURL != "" {
		endpoint.SetWelcomeSender(notify.NewWhatsAppClient(cfg.WhatsAppURL, cfg.WhatsAppTok))
	}

	if cfg.SMTPHost == "" {
		log.Print("SMTP not configured, referral emails disabled")
		return
	}
	smtpMailer := notify.NewSMTPMailer(cfg)

	if cfg.AMQPURL == "" {
		endpoint.SetReferralMailer(smtpMailer)
		return
	}

	// With a broker configured, emails are published to a durable queue and
	// delivered by a background worker so a slow SMTP server never holds up
	// a request.
	conn, err := amqp091.Dial(cfg.AMQPURL)
	if err != nil {
		log.Printf("amqp dial failed, sending referral emails synchronously: %v", err)
		endpoint.SetReferralMailer(smtpMailer)
		return
	}
	queue := cfg.MailQueue
	if queue == "" {
		queue = "clinic.mail"
	}
	queueMailer, err := notify.NewQueueMailer(conn, queue)
	if err != nil {
		log.Printf("mail queue setup failed, sending referral emails synchronously: %v", err)
		endpoint.SetReferralMailer(smtpMailer)
		return
	}
	if err := notify.StartMailWorker(context.Background(), conn, queue, smtpMailer); err != nil {
		log.Printf("mail worker failed to start, sending referral emails synchronously: %v", err)
		endpoint.SetReferralMailer(smtpMailer)
		return
	}
	endpoint.SetReferralMailer(queueMailer)
}

func registerRoutes(router *gin.Engine) {
	router.POST("/users/login", middleware.RateLimiter(middleware.RateLimitConfig{}), endpoint.Login)

	auth := router.Group("/")
	auth.Use(middleware.ValidateLoginToken())
	{
		auth.POST("/users/logout", endpoint.Logout)
		auth.GET("/users/token/validate", endpoint.ValidateToken)

		admin := auth.Group("/users")
		admin.Use(middleware.RequireRoles("Admin"))
		{
			admin.POST("/add-staff", endpoint.AddStaff)
			admin.GET("/staff", endpoint.ListStaff)
			admin.PUT("/staff/:id", endpoint.UpdateStaff)
			admin.DELETE("/staff/:id", endpoint.DeleteStaff)
			admin.GET("/staff-count", endpoint.StaffCount)
			admin.POST("/add-doctor", endpoint.AddDoctor)
			admin.GET("/doctors", endpoint.ListDoctors)
			admin.PUT("/doctors/:id", endpoint.UpdateDoctor)
			admin.DELETE("/doctors/:id", endpoint.DeleteDoctor)
		}

		// Doctors review records; registration and edits stay with staff.
		patientReads := auth.Group("/patients")
		patientReads.Use(middleware.RequireRoles("Staff", "Admin", "Doctor"))
		{
			patientReads.GET("", endpoint.ListPatients)
			patientReads.GET("/:id", endpoint.GetPatientFullRecord)
		}

		patients := auth.Group("/patients")
		patients.Use(middleware.RequireRoles("Staff", "Admin"))
		{
			patients.POST("", endpoint.RegisterPatient)
			patients.PUT("/:id", endpoint.UpdatePatient)
			patients.PUT("/examinations/:id", endpoint.UpdateExamination)
			patients.PUT("/examination_findings/:id", endpoint.UpdateFinding)
			patients.PUT("/diagnoses/:id", endpoint.UpdateDiagnosis)
			patients.POST("/:patientId/findings", endpoint.AddFinding)
			patients.POST("/:patientId/diagnoses", endpoint.AddDiagnosis)
		}

		referrals := auth.Group("/referrals")
		referrals.Use(middleware.RequireRoles("Doctor", "Admin"))
		{
			referrals.POST("", endpoint.CreateReferral)
			referrals.GET("", endpoint.ListReferrals)
			referrals.GET("/clinics", endpoint.ListClinics)
			referrals.POST("/add-clinic", endpoint.AddClinic)
			referrals.PUT("/clinic/:id", endpoint.UpdateClinic)
			referrals.GET("/patient/:patientId", endpoint.ListPatientReferrals)
		}
	}
}
