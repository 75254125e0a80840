package services

import (
	"fmt"

	"github.com/Krishtopa13/planet-learn-languages/internal/config"
)

// AdminService проверяет права оператора бота.
// Единственный оператор задается в конфигурации; никакой другой
// аутентификации нет — только сравнение идентификатора отправителя.
type AdminService struct {
	config *config.Config
}

// NewAdminService создает новый сервис оператора
func NewAdminService(cfg *config.Config) *AdminService {
	return &AdminService{config: cfg}
}

// IsOperator проверяет, является ли пользователь оператором бота
func (s *AdminService) IsOperator(tgID int64) bool {
	return s.config.Admin.ChatID != 0 && s.config.Admin.ChatID == tgID
}

// OperatorChatID возвращает идентификатор чата оператора
func (s *AdminService) OperatorChatID() int64 {
	return s.config.Admin.ChatID
}

// ValidateOperatorConfig проверяет корректность конфигурации оператора
func (s *AdminService) ValidateOperatorConfig() error {
	if s.config.Admin.ChatID == 0 {
		return fmt.Errorf("ADMIN_CHAT_ID не установлен или равен 0")
	}
	return nil
}
