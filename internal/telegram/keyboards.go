package telegram

import (
	"log"
)

// Тексты кнопок — внешний протокол бота: маршрутизация идет
// по точному совпадению строки вместе с эмодзи
const (
	btnLearn      = "📚 Учиться"
	btnCheckLevel = "✅ Проверить уровень"
	btnProfile    = "👤 Профиль"
	btnSettings   = "⚙️ Настройки"
	btnPremium    = "💎 Премиум"
	btnFAQ        = "❓ Помощь (FAQ)"

	btnChangeLanguage = "🌍 Сменить язык"
	btnToggleVoice    = "🔊 Озвучка: Вкл/Выкл"
	btnDailyPlan      = "🎯 План на день"
	btnBackToMenu     = "⬅ Назад в меню"

	btnGuestMode = "🚀 Учиться без регистрации"

	callbackPaid        = "paid"
	callbackRequestHelp = "request_help"
)

// makeMainMenu возвращает главное меню бота
func makeMainMenu() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: btnLearn}, {Text: btnCheckLevel}},
			{{Text: btnProfile}, {Text: btnSettings}},
			{{Text: btnPremium}, {Text: btnFAQ}},
		},
		ResizeKeyboard: true,
	}
}

// makeGuestKeyboard возвращает клавиатуру первого контакта
func makeGuestKeyboard() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: btnGuestMode}},
		},
		ResizeKeyboard: true,
	}
}

// makeSettingsKeyboard возвращает меню настроек
func makeSettingsKeyboard() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: btnChangeLanguage}, {Text: btnToggleVoice}},
			{{Text: btnDailyPlan}, {Text: btnBackToMenu}},
		},
		ResizeKeyboard: true,
	}
}

// makeLanguageKeyboard возвращает выбор языка интерфейса
func makeLanguageKeyboard() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: "🇬🇧 English"}, {Text: "🇪🇸 Español"}},
			{{Text: "🇷🇺 Русский"}, {Text: "🇺🇦 Українська"}},
			{{Text: btnBackToMenu}},
		},
		ResizeKeyboard: true,
	}
}

// makePremiumButtons возвращает inline-кнопки премиум-оплаты
func makePremiumButtons() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: "✅ Я оплатил", CallbackData: callbackPaid}},
			{{Text: "🤝 Помощь в оплате (нет средств)", CallbackData: callbackRequestHelp}},
		},
	}
}

// sendMessage отправляет обычное сообщение
func (p *MessageProcessor) sendMessage(client *TelegramClient, chatID int64, text string) error {
	_, err := client.SendMessage(chatID, text, "")
	if err != nil {
		log.Printf("[MessageProcessor] Ошибка отправки сообщения: %v", err)
	}
	return err
}

// sendWithKeyboard отправляет сообщение с reply клавиатурой
func (p *MessageProcessor) sendWithKeyboard(client *TelegramClient, chatID int64, text string, keyboard *ReplyKeyboardMarkup) error {
	_, err := client.SendMessageWithReplyKeyboard(chatID, text, keyboard)
	if err != nil {
		log.Printf("[MessageProcessor] Ошибка отправки сообщения с клавиатурой: %v", err)
	}
	return err
}

// sendErrorMessage отправляет пользователю сообщение о внутренней ошибке
func (p *MessageProcessor) sendErrorMessage(client *TelegramClient, chatID int64, text string) error {
	return p.sendMessage(client, chatID, "❌ Ошибка: "+text)
}
