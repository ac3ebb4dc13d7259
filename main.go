package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"loanService/cache"
	"loanService/config"
	"loanService/controllers"
	"loanService/database"
	"loanService/middleware"
	"loanService/services"
	"loanService/utils"
)

// newCache выбирает реализацию кэша. При недоступном Redis сервис
// продолжает работать без кэша: все чтения идут в базу.
func newCache(cfg *config.Config) cache.Cache {
	if !cfg.Redis.Enabled {
		log.Println("Redis отключен, кэширование не используется")
		return cache.NewNoopCache()
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		utils.LogError("Redis недоступен, кэширование отключено: %v", err)
		return cache.NewNoopCache()
	}

	log.Printf("Подключение к Redis установлено: %s", cfg.Redis.Addr)
	return redisCache
}

func initPaymentScheduler(db *database.Database, emailService *services.EmailService, cfg *config.Config) *services.PaymentSchedulerService {
	// Создаем планировщик напоминаний о платежах
	scheduler := services.NewPaymentSchedulerService(db.DB, emailService, cfg)

	// Запускаем планировщик
	scheduler.Start()
	log.Println("Планировщик напоминаний о платежах запущен")
	return scheduler
}

// healthHandler сообщает о готовности сервиса
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// metricsHandler возвращает снимок метрик приложения
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.GetMetrics().GetMetricsSnapshot())
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
	defer db.Close()

	// Инициализируем кэш
	cacheStore := newCache(cfg)

	// Инициализируем сервис email
	emailService := services.NewEmailService(cfg)

	// Запускаем планировщик напоминаний
	scheduler := initPaymentScheduler(db, emailService, cfg)
	defer scheduler.Stop()

	// Создаем роутер
	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.RateLimitMiddleware)

	// Инициализируем контроллеры
	authController := controllers.NewAuthController(db)
	loanController := controllers.NewLoanController(db.DB, cacheStore, cfg)
	paymentController := controllers.NewPaymentController(db.DB, cacheStore, emailService, cfg)

	// Служебные маршруты
	router.HandleFunc("/api/health", healthHandler).Methods("GET")
	router.HandleFunc("/api/metrics", metricsHandler).Methods("GET")

	// Публичные маршруты для аутентификации
	router.HandleFunc("/api/auth/signUp", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", authController.SignIn).Methods("POST")

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(authController.GetJWTKey())))
	protected.Use(middleware.LoggingMiddleware)

	// Маршруты для работы с кредитами
	protected.HandleFunc("/loans", loanController.CreateLoan).Methods("POST")
	protected.HandleFunc("/loans", loanController.GetLoans).Methods("GET")
	protected.HandleFunc("/loans/{id}", loanController.GetLoan).Methods("GET")
	protected.HandleFunc("/loans/{id}", loanController.UpdateLoan).Methods("PUT")
	protected.HandleFunc("/loans/{id}", loanController.DeleteLoan).Methods("DELETE")

	// Маршруты для работы с графиками платежей
	protected.HandleFunc("/loans/{id}/payments", paymentController.CreateSchedule).Methods("POST")
	protected.HandleFunc("/loans/{id}/payments", paymentController.GetSchedule).Methods("GET")
	protected.HandleFunc("/loans/{id}/payments", paymentController.DeleteSchedule).Methods("DELETE")

	// Запускаем сервер
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на порту %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
