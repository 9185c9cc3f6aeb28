// Package learner содержит доменную модель ученика Polyglot Tutor.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package learner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// UserID представляет уникальный идентификатор пользователя Telegram.
type UserID int64

// IsValid проверяет, что UserID положительный.
func (u UserID) IsValid() bool {
	return u > 0
}

// LanguageCode представляет код языка в формате ISO 639-1 ("en", "es", "ru").
type LanguageCode string

// DefaultLanguage - базовый язык системы. Шаблоны ответов написаны на нём,
// перевод выполняется из него.
const DefaultLanguage LanguageCode = "en"

// IsValid проверяет корректность кода языка.
func (c LanguageCode) IsValid() bool {
	s := string(c)
	if len(s) < 2 || len(s) > 8 {
		return false
	}
	return s == strings.ToLower(s) && !strings.ContainsAny(s, " \t\n\r")
}

// IsDefault возвращает true, если это базовый язык системы.
func (c LanguageCode) IsDefault() bool {
	return c == DefaultLanguage
}

// String возвращает строковое представление кода.
func (c LanguageCode) String() string {
	return string(c)
}

// Confidence представляет уверенность определения языка в диапазоне [0, 1].
// Это эвристическая оценка от длины текста, а не калиброванная вероятность -
// используется только как относительный сигнал маршрутизации.
type Confidence float64

// IsValid проверяет, что уверенность в допустимом диапазоне.
func (c Confidence) IsValid() bool {
	return c >= 0 && c <= 1
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Difficulty определяет уровень сложности объяснений.
type Difficulty string

const (
	// DifficultyBeginner - простой язык, аналогии, пошаговые объяснения.
	DifficultyBeginner Difficulty = "beginner"
	// DifficultyIntermediate - баланс деталей и ясности, примеры.
	DifficultyIntermediate Difficulty = "intermediate"
	// DifficultyAdvanced - технический язык, глубокие концепции.
	DifficultyAdvanced Difficulty = "advanced"
)

// IsValid проверяет, что уровень сложности корректен.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// ParseDifficulty разбирает строку в Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", ErrInvalidDifficulty
	}
	return d, nil
}

// Style определяет предпочитаемый стиль обучения.
type Style string

const (
	// StyleVisual - диаграммы, списки, структурированный текст.
	StyleVisual Style = "visual"
	// StyleAuditory - разговорный тон, объяснение через диалог.
	StyleAuditory Style = "auditory"
	// StyleKinesthetic - практические примеры, обучение через действие.
	StyleKinesthetic Style = "kinesthetic"
	// StyleBalanced - смесь всех подходов. Значение по умолчанию.
	StyleBalanced Style = "balanced"
)

// IsValid проверяет, что стиль обучения корректен.
func (s Style) IsValid() bool {
	switch s {
	case StyleVisual, StyleAuditory, StyleKinesthetic, StyleBalanced:
		return true
	default:
		return false
	}
}

// ParseStyle разбирает строку в Style.
// "mixed" - исторический синоним для balanced, принимается при разборе.
func ParseStyle(s string) (Style, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "mixed" {
		return StyleBalanced, nil
	}
	st := Style(v)
	if !st.IsValid() {
		return "", ErrInvalidStyle
	}
	return st, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MaxLearningGoals - максимальное количество учебных целей.
	// При достижении лимита новые цели НЕ захватываются: сообщение уходит
	// в обычный обучающий путь.
	MaxLearningGoals = 10

	// LanguageAdoptionThreshold - порог уверенности, выше которого (строго)
	// предпочитаемый язык автоматически принимается из первого сильного
	// сигнала детекции. Срабатывает один раз, пока предпочтение на базовом.
	LanguageAdoptionThreshold Confidence = 0.7

	// LanguageRoutingThreshold - порог уверенности, выше которого (строго)
	// ответ генерируется на предпочитаемом языке, а не на детектированном.
	LanguageRoutingThreshold Confidence = 0.6
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidUserID - невалидный идентификатор пользователя.
	ErrInvalidUserID = errors.New("invalid user id: must be positive")

	// ErrInvalidDifficulty - невалидный уровень сложности.
	ErrInvalidDifficulty = errors.New("invalid difficulty: must be beginner, intermediate or advanced")

	// ErrInvalidStyle - невалидный стиль обучения.
	ErrInvalidStyle = errors.New("invalid learning style: must be visual, auditory, kinesthetic or balanced")

	// ErrInvalidLanguageCode - невалидный код языка.
	ErrInvalidLanguageCode = errors.New("invalid language code")

	// ErrGoalLimitReached - достигнут лимит учебных целей.
	ErrGoalLimitReached = fmt.Errorf("learning goal limit reached (%d)", MaxLearningGoals)
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile - центральная сущность системы: учебный профиль одного пользователя.
// Создаётся лениво при первом контакте, мутируется обработчиками сообщений
// и сохраняется полным upsert'ом в конце каждой обработки.
type Profile struct {
	// UserID - идентификатор пользователя Telegram. Первичный ключ, неизменяем.
	UserID UserID

	// FirstName - отображаемое имя. Обновляется при каждом сообщении
	// (последняя запись выигрывает).
	FirstName string

	// LearningGoals - учебные цели в порядке добавления (старые первыми).
	// Только добавление, до MaxLearningGoals. Дубликаты не устраняются.
	LearningGoals []string

	// Difficulty - уровень сложности. Меняется только явным действием.
	Difficulty Difficulty

	// Style - стиль обучения. Меняется только явным действием.
	Style Style

	// History - журнал диалога. Логически неограничен, при сохранении
	// усекается до последних HistoryLimit записей.
	History History

	// Progress - счётчик взаимодействий и полученные достижения.
	Progress Progress

	// PreferredLanguage - язык, на котором пользователь хочет получать
	// ответы. По умолчанию базовый язык; меняется явно или принимается
	// автоматически из первого сильного сигнала детекции.
	PreferredLanguage LanguageCode

	// DetectedLanguage - результат детекции последнего входящего сообщения.
	// Перезаписывается каждым сообщением.
	DetectedLanguage LanguageCode

	// LanguageConfidence - уверенность последней детекции.
	LanguageConfidence Confidence

	// CreatedAt - время создания профиля. Устанавливается один раз.
	CreatedAt time.Time

	// LastActive - время последней активности. Обновляется при каждом
	// сохранении.
	LastActive time.Time
}

// NewProfile создаёт новый профиль со значениями по умолчанию.
func NewProfile(userID UserID, firstName string) (*Profile, error) {
	if !userID.IsValid() {
		return nil, ErrInvalidUserID
	}

	now := time.Now().UTC()

	return &Profile{
		UserID:             userID,
		FirstName:          strings.TrimSpace(firstName),
		LearningGoals:      []string{},
		Difficulty:         DifficultyBeginner,
		Style:              StyleBalanced,
		History:            History{},
		Progress:           NewProgress(),
		PreferredLanguage:  DefaultLanguage,
		DetectedLanguage:   DefaultLanguage,
		LanguageConfidence: 0,
		CreatedAt:          now,
		LastActive:         now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// SetFirstName обновляет отображаемое имя (последняя запись выигрывает).
func (p *Profile) SetFirstName(name string) {
	name = strings.TrimSpace(name)
	if name != "" {
		p.FirstName = name
	}
}

// HasGoalCapacity возвращает true, если можно добавить ещё одну цель.
func (p *Profile) HasGoalCapacity() bool {
	return len(p.LearningGoals) < MaxLearningGoals
}

// AddGoal добавляет учебную цель.
// Возвращает ErrGoalLimitReached при достижении лимита - лимит не
// поднимается молча.
func (p *Profile) AddGoal(goal string) error {
	if !p.HasGoalCapacity() {
		return ErrGoalLimitReached
	}
	p.LearningGoals = append(p.LearningGoals, goal)
	return nil
}

// RecordDetection безусловно перезаписывает результат детекции языка
// текущим сообщением. История предыдущих детекций хранится только в
// журнале диалога.
func (p *Profile) RecordDetection(code LanguageCode, confidence Confidence) {
	p.DetectedLanguage = code
	p.LanguageConfidence = confidence
}

// ShouldAdoptDetectedLanguage проверяет правило первого сильного сигнала:
// уверенность строго выше порога И предпочтение ещё на базовом языке.
// Правило никогда не перекрывает предпочтение, изменённое с базового.
func (p *Profile) ShouldAdoptDetectedLanguage() bool {
	return p.LanguageConfidence > LanguageAdoptionThreshold && p.PreferredLanguage.IsDefault()
}

// AdoptDetectedLanguage принимает детектированный язык как предпочитаемый.
func (p *Profile) AdoptDetectedLanguage() {
	p.PreferredLanguage = p.DetectedLanguage
}

// ResponseLanguage вычисляет язык ответа по политике маршрутизации:
// при уверенности строго выше порога используется предпочитаемый язык,
// иначе - детектированный. Низкая уверенность не перекрывает явное
// предпочтение, но и не используется как авторитетный сигнал сама по себе.
func (p *Profile) ResponseLanguage() LanguageCode {
	if p.LanguageConfidence > LanguageRoutingThreshold {
		return p.PreferredLanguage
	}
	return p.DetectedLanguage
}

// SetDifficulty устанавливает уровень сложности.
func (p *Profile) SetDifficulty(d Difficulty) error {
	if !d.IsValid() {
		return ErrInvalidDifficulty
	}
	p.Difficulty = d
	return nil
}

// SetStyle устанавливает стиль обучения.
func (p *Profile) SetStyle(s Style) error {
	if !s.IsValid() {
		return ErrInvalidStyle
	}
	p.Style = s
	return nil
}

// SetPreferredLanguage явно устанавливает предпочитаемый язык.
func (p *Profile) SetPreferredLanguage(code LanguageCode) error {
	if !code.IsValid() {
		return ErrInvalidLanguageCode
	}
	p.PreferredLanguage = code
	return nil
}

// Touch обновляет время последней активности.
func (p *Profile) Touch(at time.Time) {
	p.LastActive = at.UTC()
}

// String возвращает строковое представление профиля для логирования.
func (p *Profile) String() string {
	return fmt.Sprintf(
		"Profile{UserID: %d, Goals: %d, Difficulty: %s, Interactions: %d, Lang: %s}",
		p.UserID, len(p.LearningGoals), p.Difficulty,
		p.Progress.TotalInteractions, p.PreferredLanguage,
	)
}

// Clone создаёт глубокую копию профиля.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	clone := *p
	clone.LearningGoals = append([]string(nil), p.LearningGoals...)
	clone.History = p.History.Clone()
	clone.Progress = p.Progress.Clone()
	return &clone
}
