package contracts

// TelegramMessageSender определяет интерфейс для отправки сообщений оператору
// из фоновых задач (отчёты, архивы)
type TelegramMessageSender interface {
	SendMessage(chatID int64, message string) error
}

// TelegramDocumentSender определяет интерфейс для отправки локальных файлов
type TelegramDocumentSender interface {
	SendDocument(chatID int64, filePath, caption string) error
}
