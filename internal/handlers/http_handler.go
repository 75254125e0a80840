package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Krishtopa13/planet-learn-languages/internal/services"
	"github.com/Krishtopa13/planet-learn-languages/internal/storage"
)

// HTTPHandler обрабатывает HTTP запросы оператора
type HTTPHandler struct {
	users        *storage.UserStore
	queue        *storage.HelpQueueStore
	statsService *services.StatsService
}

// NewHTTPHandler создает новый HTTP обработчик
func NewHTTPHandler(users *storage.UserStore, queue *storage.HelpQueueStore, statsService *services.StatsService) *HTTPHandler {
	return &HTTPHandler{
		users:        users,
		queue:        queue,
		statsService: statsService,
	}
}

// Router возвращает маршрутизатор API
func (h *HTTPHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/users", h.GetUsersHandler()).Methods(http.MethodGet)
	r.HandleFunc("/v1/users/{id}", h.GetUserHandler()).Methods(http.MethodGet)
	r.HandleFunc("/v1/stats", h.GetStatsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/v1/helpqueue", h.GetHelpQueueHandler()).Methods(http.MethodGet)
	return r
}

// GetUsersHandler обрабатывает запрос на получение всех пользователей
func (h *HTTPHandler) GetUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.users.All()
		if err != nil {
			log.Printf("[HTTPHandler] Ошибка получения пользователей: %v", err)
			writeError(w, http.StatusInternalServerError, "Ошибка получения пользователей: "+err.Error())
			return
		}

		writeJSON(w, map[string]interface{}{
			"users":       users,
			"total_count": len(users),
		})
	}
}

// GetUserHandler обрабатывает запрос на получение одного пользователя
func (h *HTTPHandler) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		user, ok, err := h.users.Get(id)
		if err != nil {
			log.Printf("[HTTPHandler] Ошибка получения пользователя %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Ошибка получения пользователя: "+err.Error())
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "Пользователь не найден")
			return
		}

		writeJSON(w, map[string]interface{}{
			"id":   id,
			"user": user,
		})
	}
}

// GetStatsHandler обрабатывает запрос сводной статистики
func (h *HTTPHandler) GetStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.statsService.Calculate()
		if err != nil {
			log.Printf("[HTTPHandler] Ошибка расчёта статистики: %v", err)
			writeError(w, http.StatusInternalServerError, "Ошибка расчёта статистики: "+err.Error())
			return
		}

		writeJSON(w, map[string]interface{}{
			"total_users":    stats.TotalUsers,
			"total_premium":  stats.TotalPremium,
			"new_today":      stats.NewToday,
			"payments_today": stats.PaymentsToday,
		})
	}
}

// GetHelpQueueHandler обрабатывает запрос очереди заявок на помощь
func (h *HTTPHandler) GetHelpQueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queue, err := h.queue.Load()
		if err != nil {
			log.Printf("[HTTPHandler] Ошибка чтения очереди помощи: %v", err)
			writeError(w, http.StatusInternalServerError, "Ошибка чтения очереди: "+err.Error())
			return
		}

		writeJSON(w, map[string]interface{}{
			"queue":       queue,
			"total_count": len(queue),
		})
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": message,
	})
}
