// Package lessons содержит статический каталог уроков.
// Каталог неизменяем и определяется на старте процесса: уровень → язык → уроки.
package lessons

// QA представляет один вопрос теста и ожидаемый ответ
type QA struct {
	Prompt string
	Answer string
}

// Lesson представляет один урок: текст для показа и вопросы теста
type Lesson struct {
	Text string
	Test []QA
}

var catalog = map[string]map[string][]Lesson{
	"A1": {
		"en": {
			{
				Text: "Lesson 1: Greetings\n- Hello!\n- How are you?\n- I'm fine, thank you!",
				Test: []QA{
					{Prompt: "How do you say 'Привет'?", Answer: "hello"},
					{Prompt: "How do you answer 'How are you?'?", Answer: "I'm fine, thank you"},
				},
			},
			{
				Text: "Lesson 2: Numbers\n- One, two, three, four, five.",
				Test: []QA{
					{Prompt: "How do you say 'два'?", Answer: "two"},
					{Prompt: "How do you say 'пять'?", Answer: "five"},
				},
			},
		},
	},
}

// Get возвращает урок по уровню, языку и индексу
func Get(level, language string, index int) (*Lesson, bool) {
	list := catalog[level][language]
	if index < 0 || index >= len(list) {
		return nil, false
	}
	return &list[index], true
}

// Count возвращает количество уроков для уровня и языка
func Count(level, language string) int {
	return len(catalog[level][language])
}
