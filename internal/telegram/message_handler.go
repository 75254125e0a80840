package telegram

import (
	"fmt"
	"log"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Krishtopa13/planet-learn-languages/internal/config"
	"github.com/Krishtopa13/planet-learn-languages/internal/services"
	"github.com/Krishtopa13/planet-learn-languages/internal/storage"
)

// languageFlags сопоставляет код языка с флагом и названием для карточки профиля
var languageFlags = map[string]string{
	"en": "🇬🇧 English", "es": "🇪🇸 Español", "zh": "🇨🇳 中文", "ar": "🇦🇪 العربية",
	"ru": "🇷🇺 Русский", "uk": "🇺🇦 Українська", "fr": "🇫🇷 Français", "de": "🇩🇪 Deutsch",
	"pt": "🇵🇹 Português", "ja": "🇯🇵 日本語", "ko": "🇰🇷 한국어", "bn": "🇧🇩 বাংলা",
	"hi": "🇮🇳 हिन्दी", "tr": "🇹🇷 Türkçe", "sw": "🌍 Suahili", "ha": "🇳🇬 Hausa",
	"yo": "🇳🇬 Yoruba", "tw": "🇬🇭 Twi", "am": "🇪🇹 አማርኛ", "ln": "🇨🇩 Lingala",
}

// flagToLocale сопоставляет флаг из кнопки выбора языка с кодом языка
var flagToLocale = map[string]string{
	"🇬🇧": "en", "🇪🇸": "es", "🇷🇺": "ru", "🇺🇦": "uk",
}

// priceMap задает стоимость премиума в TON по языку пользователя
var priceMap = map[string]int{
	"ha": 1, "yo": 1, "sw": 1, "am": 1, "ln": 1, "bn": 1,
	"uk": 2, "hi": 2, "ar": 2, "tr": 2, "pt": 2,
	"en": 3, "es": 3, "fr": 3, "de": 3, "ja": 3, "ko": 3, "zh": 3, "ru": 2,
}

// Позитивные напутствия
var positiveMessagesKids = []string{
	"🌟 Сегодня ты узнаешь что-то новое!",
	"🦄 Учиться — это волшебство!",
	"🐣 Сегодня ты сделаешь маленькое чудо!",
}

var positiveMessagesAdults = []string{
	"☀️ Маленький шаг каждый день — большая победа.",
	"🚀 Учёба — это свобода. Ты справляешься!",
	"🌍 Новые знания открывают мир для тебя.",
}

var languageFlagPattern = regexp.MustCompile(`^(🇬🇧|🇪🇸|🇷🇺|🇺🇦)`)

// MessageProcessor обрабатывает сообщения Telegram бота
type MessageProcessor struct {
	users    *storage.UserStore
	queue    *storage.HelpQueueStore
	progress *services.ProgressService
	stats    *services.StatsService
	admin    *services.AdminService
	config   *config.Config

	mu                sync.Mutex
	positiveDate      string
	sentPositiveToday map[string]bool
}

// NewMessageProcessor создает новый обработчик сообщений
func NewMessageProcessor(
	users *storage.UserStore,
	queue *storage.HelpQueueStore,
	progress *services.ProgressService,
	stats *services.StatsService,
	admin *services.AdminService,
	cfg *config.Config,
) *MessageProcessor {
	return &MessageProcessor{
		users:             users,
		queue:             queue,
		progress:          progress,
		stats:             stats,
		admin:             admin,
		config:            cfg,
		sentPositiveToday: make(map[string]bool),
	}
}

// ProcessMessage обрабатывает входящее обновление
func (p *MessageProcessor) ProcessMessage(client *TelegramClient, update Update) error {
	if update.CallbackQuery != nil {
		return p.handleCallback(client, update)
	}
	if update.Message == nil || update.Message.Text == "" {
		return nil
	}
	return p.handleTextMessage(client, update)
}

// handleTextMessage — основной маршрутизатор команд и кнопок.
// Приоритет: ожидаемый структурированный ввод → таблица точных совпадений →
// шаблон выбора языка → триггер теста → сообщение молча игнорируется.
func (p *MessageProcessor) handleTextMessage(client *TelegramClient, update Update) error {
	userID := strconv.Itoa(update.Message.From.ID)
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	// Первый контакт с идентификатором создает профиль ровно один раз
	_, created, err := p.users.Create(userID, time.Now())
	if err != nil {
		log.Printf("[MessageProcessor] Ошибка создания профиля %s: %v", userID, err)
		return p.sendErrorMessage(client, chatID, "не удалось обработать сообщение, попробуйте позже")
	}

	switch p.progress.Pending(userID) {
	case services.PendingName:
		return p.handleNameAnswer(client, chatID, userID, text)
	case services.PendingGoal:
		return p.handleGoalAnswer(client, chatID, userID, text)
	case services.PendingPlan:
		return p.handlePlanAnswer(client, chatID, userID, text)
	case services.PendingTest:
		return p.handleTestAnswer(client, chatID, userID, text)
	}

	switch text {
	case "/start":
		return p.handleStart(client, chatID, userID, created)
	case "/admin":
		return p.handleAdmin(client, chatID, int64(update.Message.From.ID))
	case btnLearn:
		return p.handleLearn(client, chatID, userID)
	case btnCheckLevel:
		return p.handleCheckLevel(client, chatID, userID)
	case btnProfile:
		return p.handleProfile(client, chatID, userID)
	case btnSettings:
		return p.sendWithKeyboard(client, chatID, "⚙️ Настройки бота:", makeSettingsKeyboard())
	case btnPremium:
		return p.handlePremium(client, chatID, userID)
	case btnFAQ:
		return p.handleFAQ(client, chatID)
	case btnChangeLanguage:
		return p.sendWithKeyboard(client, chatID, "🌍 Выберите язык интерфейса:", makeLanguageKeyboard())
	case btnToggleVoice:
		return p.handleToggleVoice(client, chatID, userID)
	case btnDailyPlan:
		p.progress.SetPending(userID, services.PendingPlan)
		return p.sendMessage(client, chatID, "Сколько уроков вы хотите проходить в день?")
	case btnBackToMenu:
		return p.sendWithKeyboard(client, chatID, "Главное меню:", makeMainMenu())
	}

	if languageFlagPattern.MatchString(text) {
		return p.handleSetLanguage(client, chatID, userID, text)
	}
	if strings.ToLower(text) == "тест" {
		return p.handleStartTest(client, chatID, userID)
	}

	// Неизвестный текст игнорируется
	return nil
}

// handleStart обрабатывает команду /start
func (p *MessageProcessor) handleStart(client *TelegramClient, chatID int64, userID string, created bool) error {
	if created {
		p.progress.SetPending(userID, services.PendingName)
		return p.sendWithKeyboard(client, chatID,
			"👋 Привет в Planet Learn Languages!\n\nКак тебя зовут?",
			makeGuestKeyboard())
	}
	return p.sendWithKeyboard(client, chatID,
		"👋 Добро пожаловать обратно в Planet Learn Languages!",
		makeMainMenu())
}

// handleNameAnswer принимает имя при регистрации.
// Кнопка гостевого режима пропускает регистрацию целиком.
func (p *MessageProcessor) handleNameAnswer(client *TelegramClient, chatID int64, userID, text string) error {
	if text == btnGuestMode {
		if _, err := p.users.Update(userID, func(u *storage.Profile) {
			u.GuestMode = true
		}); err != nil {
			return p.sendErrorMessage(client, chatID, "не удалось сохранить профиль")
		}
		p.progress.ClearPending(userID)
		return p.sendWithKeyboard(client, chatID, "🚀 Гостевой режим включен! Можно начинать учиться.", makeMainMenu())
	}

	name := strings.TrimSpace(text)
	if _, err := p.users.Update(userID, func(u *storage.Profile) {
		u.Name = &name
	}); err != nil {
		return p.sendErrorMessage(client, chatID, "не удалось сохранить профиль")
	}
	p.progress.SetPending(userID, services.PendingGoal)
	return p.sendMessage(client, chatID, "🎯 Какая у тебя цель изучения языка?")
}

// handleGoalAnswer принимает цель при регистрации
func (p *MessageProcessor) handleGoalAnswer(client *TelegramClient, chatID int64, userID, text string) error {
	goal := strings.TrimSpace(text)
	if _, err := p.users.Update(userID, func(u *storage.Profile) {
		u.Goal = &goal
	}); err != nil {
		return p.sendErrorMessage(client, chatID, "не удалось сохранить профиль")
	}
	p.progress.ClearPending(userID)
	return p.sendWithKeyboard(client, chatID, "✅ Готово! Добро пожаловать в Planet Learn Languages!", makeMainMenu())
}

// handlePlanAnswer сохраняет план на день как есть, без валидации
func (p *MessageProcessor) handlePlanAnswer(client *TelegramClient, chatID int64, userID, text string) error {
	if _, err := p.users.Update(userID, func(u *storage.Profile) {
		u.PlanPerDay = &text
	}); err != nil {
		return p.sendErrorMessage(client, chatID, "не удалось сохранить план")
	}
	p.progress.ClearPending(userID)
	return p.sendWithKeyboard(client, chatID, "✅ План установлен!", makeMainMenu())
}

// handleLearn показывает текущий урок
func (p *MessageProcessor) handleLearn(client *TelegramClient, chatID int64, userID string) error {
	p.sendPositiveIfNeeded(client, chatID, userID)

	lesson, ok, err := p.progress.CurrentLesson(userID)
	if err != nil {
		log.Printf("[MessageProcessor] Ошибка получения урока для %s: %v", userID, err)
		return p.sendErrorMessage(client, chatID, "не удалось получить урок")
	}
	if !ok {
		return p.sendMessage(client, chatID, "🎉 Вы прошли все уроки этого уровня!")
	}

	if err := p.sendMessage(client, chatID, lesson.Text); err != nil {
		return err
	}
	return p.sendMessage(client, chatID, "✍️ Готов пройти тест? Напиши: Тест")
}

// handleStartTest запускает тест по текущему уроку
func (p *MessageProcessor) handleStartTest(client *TelegramClient, chatID int64, userID string) error {
	session, err := p.progress.StartTest(userID)
	if err != nil {
		if err == services.ErrNoQuestions || err == services.ErrNoProfile {
			return p.sendMessage(client, chatID, "❌ Нет вопросов.")
		}
		log.Printf("[MessageProcessor] Ошибка запуска теста для %s: %v", userID, err)
		return p.sendErrorMessage(client, chatID, "не удалось запустить тест")
	}
	return p.sendMessage(client, chatID, fmt.Sprintf("🧪 Вопрос 1:\n%s", session.Questions[0].Prompt))
}

// handleTestAnswer принимает ответ на вопрос активного теста
func (p *MessageProcessor) handleTestAnswer(client *TelegramClient, chatID int64, userID, text string) error {
	result, err := p.progress.SubmitAnswer(userID, text)
	if err != nil {
		if err == services.ErrNoSession {
			// Потерянная сессия не валит процесс: пользователю предлагается начать заново
			return p.sendErrorMessage(client, chatID, "что-то пошло не так. Начните тест заново: напишите Тест")
		}
		log.Printf("[MessageProcessor] Ошибка приема ответа от %s: %v", userID, err)
		return p.sendErrorMessage(client, chatID, "не удалось обработать ответ")
	}

	if result.Correct {
		if err := p.sendMessage(client, chatID, "✅ Верно!"); err != nil {
			return err
		}
	} else {
		if err := p.sendMessage(client, chatID, "❌ Неверно. Правильный ответ: "+result.Expected); err != nil {
			return err
		}
	}

	if !result.Done {
		return p.sendMessage(client, chatID, fmt.Sprintf("🧪 Вопрос %d:\n%s", result.NextNumber, result.NextPrompt))
	}
	if result.Passed {
		return p.sendMessage(client, chatID, "🎉 Отлично! Урок пройден! (+10 баллов)")
	}
	return p.sendMessage(client, chatID, fmt.Sprintf("📘 Результат: %d/%d", result.Score, result.Total))
}

// handleProfile показывает карточку профиля
func (p *MessageProcessor) handleProfile(client *TelegramClient, chatID int64, userID string) error {
	user, ok, err := p.users.Get(userID)
	if err != nil || !ok {
		return p.sendErrorMessage(client, chatID, "профиль не найден")
	}

	name := "Не указано"
	if user.Name != nil {
		name = *user.Name
	}
	goal := "Не указано"
	if user.Goal != nil {
		goal = *user.Goal
	}
	premium := "❌ Нет"
	if user.IsPremium {
		premium = "✅ Есть"
	}
	voiceStatus := "🔇 Выключена"
	if user.VoiceEnabled {
		voiceStatus = "🔊 Включена"
	}
	plan := "Не задан"
	if user.PlanPerDay != nil {
		plan = *user.PlanPerDay
	}
	lang, ok := languageFlags[user.Language]
	if !ok {
		lang = languageFlags["en"]
	}

	text := fmt.Sprintf(
		"👤 Имя: %s\n🎯 Цель: %s\n⭐ Баллы: %d\n💎 Премиум: %s\n📚 Уровень: %s\n🗓 План на день: %s\n🌍 Язык интерфейса: %s\n%s",
		name, goal, user.Points, premium, user.CurrentLevel, plan, lang, voiceStatus,
	)
	return p.sendMessage(client, chatID, text)
}

// handleCheckLevel показывает текущий уровень и позицию в нем
func (p *MessageProcessor) handleCheckLevel(client *TelegramClient, chatID int64, userID string) error {
	user, ok, err := p.users.Get(userID)
	if err != nil || !ok {
		return p.sendErrorMessage(client, chatID, "профиль не найден")
	}
	return p.sendMessage(client, chatID, fmt.Sprintf(
		"📚 Ваш уровень: %s\n📖 Текущий урок: %d\n⭐ Баллы: %d",
		user.CurrentLevel, user.LessonIndex+1, user.Points,
	))
}

// handleToggleVoice переключает озвучку
func (p *MessageProcessor) handleToggleVoice(client *TelegramClient, chatID int64, userID string) error {
	user, err := p.users.Update(userID, func(u *storage.Profile) {
		u.VoiceEnabled = !u.VoiceEnabled
	})
	if err != nil {
		return p.sendErrorMessage(client, chatID, "не удалось сохранить настройку")
	}

	status := "🔇 Выключена"
	if user.VoiceEnabled {
		status = "🔊 Включена"
	}
	return p.sendWithKeyboard(client, chatID, "Озвучка теперь: "+status, makeMainMenu())
}

// handleSetLanguage сохраняет язык по флагу из кнопки
func (p *MessageProcessor) handleSetLanguage(client *TelegramClient, chatID int64, userID, text string) error {
	flag := strings.Fields(text)[0]
	locale, ok := flagToLocale[flag]
	if !ok {
		locale = "en"
	}
	if _, err := p.users.Update(userID, func(u *storage.Profile) {
		u.Language = locale
	}); err != nil {
		return p.sendErrorMessage(client, chatID, "не удалось сохранить язык")
	}
	return p.sendWithKeyboard(client, chatID, "✅ Язык сохранён. Для применения перезапустите /start.", makeMainMenu())
}

// handlePremium показывает условия премиума с кнопками оплаты
func (p *MessageProcessor) handlePremium(client *TelegramClient, chatID int64, userID string) error {
	user, ok, err := p.users.Get(userID)
	if err != nil || !ok {
		return p.sendErrorMessage(client, chatID, "профиль не найден")
	}

	price, ok := priceMap[user.Language]
	if !ok {
		price = 3
	}

	text := fmt.Sprintf(
		"💎 Премиум-доступ открывает все уроки, тесты, озвучку, голосовую практику и статистику.\n\n"+
			"✅ Стоимость (разовая, навсегда): *%d TON*\n"+
			"💰 Адрес для оплаты:\n`%s`\n\n"+
			"*Ваш профиль сохраняется 60 дней. После оплаты — продолжите обучение с того же места.*\n\n"+
			"🤝 Цена символическая. Проект создан для развития единого мирового сообщества. Спасибо, что с нами!",
		price, p.config.Premium.TONWallet,
	)

	_, err = client.SendMessageMarkdownWithKeyboard(chatID, text, makePremiumButtons())
	if err != nil {
		log.Printf("[MessageProcessor] Ошибка отправки премиум-сообщения: %v", err)
	}
	return err
}

// handleFAQ показывает справку
func (p *MessageProcessor) handleFAQ(client *TelegramClient, chatID int64) error {
	text := "❓ Помощь:\n\n" +
		"📚 Учиться — показать текущий урок\n" +
		"Тест — начать тест по текущему уроку\n" +
		"👤 Профиль — ваш прогресс и настройки\n" +
		"⚙️ Настройки — язык, озвучка, план на день\n" +
		"💎 Премиум — открыть полный доступ\n\n" +
		"Урок засчитывается только при всех верных ответах теста (+10 баллов)."
	return p.sendMessage(client, chatID, text)
}

// handleAdmin показывает статистику оператору.
// Сообщения от всех остальных отправителей молча игнорируются.
func (p *MessageProcessor) handleAdmin(client *TelegramClient, chatID int64, senderID int64) error {
	if !p.admin.IsOperator(senderID) {
		return nil
	}

	stats, err := p.stats.Calculate()
	if err != nil {
		log.Printf("[MessageProcessor] Ошибка расчёта статистики: %v", err)
		return p.sendErrorMessage(client, chatID, "не удалось получить статистику")
	}

	return p.sendMessage(client, chatID, fmt.Sprintf(
		"📊 Статистика:\n👥 Всего пользователей: %d\n💎 Премиумов: %d\n➕ Новых сегодня: %d\n💰 Оплат сегодня: %d",
		stats.TotalUsers, stats.TotalPremium, stats.NewToday, stats.PaymentsToday,
	))
}

// handleCallback обрабатывает нажатия inline-кнопок премиум-потока
func (p *MessageProcessor) handleCallback(client *TelegramClient, update Update) error {
	callback := update.CallbackQuery
	userID := strconv.Itoa(callback.From.ID)
	chatID := int64(callback.From.ID)

	if _, err := client.AnswerCallbackQuery(callback.ID, ""); err != nil {
		log.Printf("[MessageProcessor] Ошибка ответа на callback: %v", err)
	}

	// Первый контакт через кнопку тоже создает профиль
	if _, _, err := p.users.Create(userID, time.Now()); err != nil {
		log.Printf("[MessageProcessor] Ошибка создания профиля %s: %v", userID, err)
		return p.sendErrorMessage(client, chatID, "не удалось обработать запрос")
	}

	switch callback.Data {
	case callbackPaid:
		return p.handlePaidCallback(client, chatID, userID)
	case callbackRequestHelp:
		return p.handleRequestHelpCallback(client, chatID, userID)
	default:
		log.Printf("[MessageProcessor] Неизвестный callback: %s", callback.Data)
		return nil
	}
}

// handlePaidCallback активирует премиум по самоотчету об оплате.
// Никакой проверки платежа нет — подтверждение на доверии.
func (p *MessageProcessor) handlePaidCallback(client *TelegramClient, chatID int64, userID string) error {
	today := time.Now().Format("2006-01-02")
	if _, err := p.users.Update(userID, func(u *storage.Profile) {
		u.IsPremium = true
		if u.PremiumTime == nil {
			u.PremiumTime = &today
		}
	}); err != nil {
		return p.sendErrorMessage(client, chatID, "не удалось активировать премиум")
	}
	return p.sendWithKeyboard(client, chatID, "✅ Спасибо! Премиум активирован навсегда!", makeMainMenu())
}

// handleRequestHelpCallback ставит пользователя в очередь спонсорской оплаты
func (p *MessageProcessor) handleRequestHelpCallback(client *TelegramClient, chatID int64, userID string) error {
	added, err := p.queue.Enqueue(userID)
	if err != nil {
		log.Printf("[MessageProcessor] Ошибка постановки %s в очередь помощи: %v", userID, err)
		return p.sendErrorMessage(client, chatID, "не удалось принять заявку")
	}
	if added {
		return p.sendMessage(client, chatID, "🤝 Ваша заявка принята. Если кто-то из участников оплатит за вас, вы получите Премиум.")
	}
	return p.sendMessage(client, chatID, "🔄 Ваша заявка уже есть в очереди.")
}

// sendPositiveIfNeeded отправляет позитивное напутствие не чаще раза в день
// на пользователя, избегая повторов текста в пределах дня процесса
func (p *MessageProcessor) sendPositiveIfNeeded(client *TelegramClient, chatID int64, userID string) {
	user, ok, err := p.users.Get(userID)
	if err != nil || !ok {
		return
	}

	today := time.Now().Format("2006-01-02")
	if !user.DailyPositiveEnabled || user.LastPositiveDate == today {
		return
	}

	pool := positiveMessagesAdults
	if user.GuestMode {
		pool = positiveMessagesKids
	}

	p.mu.Lock()
	if p.positiveDate != today {
		p.positiveDate = today
		p.sentPositiveToday = make(map[string]bool)
	}
	var available []string
	for _, m := range pool {
		if !p.sentPositiveToday[m] {
			available = append(available, m)
		}
	}
	var text string
	if len(available) > 0 {
		text = available[rand.IntN(len(available))]
		p.sentPositiveToday[text] = true
	}
	p.mu.Unlock()

	if text != "" {
		_ = p.sendMessage(client, chatID, text)
	}

	if _, err := p.users.Update(userID, func(u *storage.Profile) {
		u.LastPositiveDate = today
	}); err != nil {
		log.Printf("[MessageProcessor] Ошибка отметки напутствия для %s: %v", userID, err)
	}
}
