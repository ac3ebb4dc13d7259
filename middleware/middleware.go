package middleware

import (
	"net/http"
	"strconv"
	"time"

	"loanService/utils"
)

var (
	// Глобальный rate limiter
	globalLimiter = utils.NewRateLimiter(100, time.Minute) // 100 запросов в минуту
)

// clientAddr возвращает адрес клиента с учетом прокси
func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

// RateLimitMiddleware ограничивает частоту запросов по адресу клиента
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientAddr(r)

		// Проверяем лимит
		if !globalLimiter.Allow(clientIP) {
			w.Header().Set("X-RateLimit-Reset", globalLimiter.GetResetTime(clientIP).Format(time.RFC3339))
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		// Добавляем заголовки с информацией о лимитах
		w.Header().Set("X-RateLimit-Limit", "100")
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(globalLimiter.GetRemaining(clientIP)))

		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware перехватывает паники обработчиков
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				utils.LogError("Panic recovered: %v", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
