package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"dolgovnik/config"
	"dolgovnik/controllers"
	"dolgovnik/database"
	"dolgovnik/middleware"
	"dolgovnik/services"

	"github.com/gorilla/mux"
)

func initReminders(db *database.Database, emailService *services.EmailService, cfg *config.Config) {
	// Создаем сервис напоминаний о просроченных долгах
	reminders := services.NewReminderService(
		db.DB,
		emailService,
		time.Duration(cfg.Reminders.IntervalHours)*time.Hour,
		cfg.Reminders.OverdueDays,
	)

	// Запускаем рассылку
	reminders.Start()
	log.Println("Рассылка напоминаний запущена")
}

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем подключение к базе данных
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	// Инициализируем сервис email
	emailService := services.NewEmailService(cfg)

	// Инициализируем хранилище вложений
	attachmentService := services.NewAttachmentService(
		cfg.Uploads.Dir,
		cfg.Uploads.MaxSizeBytes,
		cfg.Uploads.AllowedExts,
	)

	// Инициализируем сервис курсов валют
	rateService := services.NewRateService(cfg.Rates.FeedURL)

	// Запускаем рассылку напоминаний
	initReminders(db, emailService, cfg)

	// Создаем роутер
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RateLimit)

	// Инициализируем контроллеры
	authController := controllers.NewAuthController(db, cfg, emailService)
	debtorController := controllers.NewDebtorController(db, attachmentService)
	debtController := controllers.NewDebtController(db, emailService, attachmentService)
	historyController := controllers.NewHistoryController(db)
	userController := controllers.NewUserController(db, emailService, rateService)

	// Публичные маршруты для аутентификации
	router.HandleFunc("/api/auth/signUp", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", authController.SignIn).Methods("POST")
	router.HandleFunc("/api/auth/requestPasswordReset", authController.RequestPasswordReset).Methods("POST")
	router.HandleFunc("/api/auth/resetPassword", authController.ResetPassword).Methods("POST")

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(authController.GetJWTKey())))
	protected.Use(middleware.Logger)

	// Сводные показатели
	protected.HandleFunc("/dashboard", debtorController.Dashboard).Methods("GET")

	// Маршруты для работы с должниками
	protected.HandleFunc("/debtors", debtorController.Create).Methods("POST")
	protected.HandleFunc("/debtors", debtorController.List).Methods("GET")
	protected.HandleFunc("/debtors/{id}", debtorController.Get).Methods("GET")
	protected.HandleFunc("/debtors/{id}", debtorController.Edit).Methods("PUT")
	protected.HandleFunc("/debtors/{id}", debtorController.Delete).Methods("DELETE")
	protected.HandleFunc("/debtors/{id}/report", debtorController.Report).Methods("GET")

	// Маршруты для работы с долгами
	protected.HandleFunc("/debts", debtController.Create).Methods("POST")
	protected.HandleFunc("/debts/{id}", debtController.Get).Methods("GET")
	protected.HandleFunc("/debts/{id}", debtController.Edit).Methods("PUT")
	protected.HandleFunc("/debts/{id}", debtController.Delete).Methods("DELETE")
	protected.HandleFunc("/debts/{id}/payments", debtController.ApplyPayment).Methods("POST")
	protected.HandleFunc("/debts/{id}/installments", debtController.PayInstallment).Methods("POST")
	protected.HandleFunc("/debts/{id}/markPaid", debtController.MarkPaid).Methods("POST")
	protected.HandleFunc("/debts/{id}/evidence", debtController.UploadEvidence).Methods("POST")
	protected.HandleFunc("/debts/{id}/files/{filename}", debtController.DownloadFile).Methods("GET")
	protected.HandleFunc("/debts/{id}/history", debtController.History).Methods("GET")

	// Журнал операций
	protected.HandleFunc("/history", historyController.List).Methods("GET")

	// Профиль и отчеты
	protected.HandleFunc("/profile", userController.Profile).Methods("GET")
	protected.HandleFunc("/profile/currency", userController.UpdateCurrency).Methods("PUT")
	protected.HandleFunc("/reports/full", userController.FullReport).Methods("GET")
	protected.HandleFunc("/rates", userController.Rate).Methods("GET")

	// Административные маршруты
	protected.HandleFunc("/admin/users", userController.ListUsers).Methods("GET")
	protected.HandleFunc("/admin/metrics", userController.Metrics).Methods("GET")

	// Запускаем сервер
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на порту %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
