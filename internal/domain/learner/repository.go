package learner

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Ошибки хранилища.
var (
	// ErrProfileNotFound - профиль не найден. Используется только внутри
	// реализаций: LoadOrCreate никогда не возвращает эту ошибку наружу.
	ErrProfileNotFound = errors.New("learner profile not found")
)

// Repository определяет операции над учебными профилями.
type Repository interface {
	// LoadOrCreate возвращает профиль пользователя, создавая профиль со
	// значениями по умолчанию при отсутствии. Никогда не возвращает
	// ErrProfileNotFound: поиск идемпотентен, на один UserID приходится
	// не более одной записи.
	LoadOrCreate(ctx context.Context, userID UserID, firstName string) (*Profile, error)

	// Save выполняет полный upsert профиля (замена всех колонок по UserID).
	// Перед записью обновляет LastActive текущим временем и усекает журнал
	// диалога до HistoryLimit записей. Конкурирующие Save для одного
	// UserID перезаписывают друг друга - выигрывает последняя запись.
	Save(ctx context.Context, profile *Profile) error
}

// Cache определяет операции кеширования профилей.
type Cache interface {
	// Get получает профиль из кеша. Возвращает ErrProfileNotFound при
	// промахе.
	Get(ctx context.Context, userID UserID) (*Profile, error)

	// Set сохраняет профиль в кеш.
	Set(ctx context.Context, profile *Profile, ttl time.Duration) error

	// Delete удаляет профиль из кеша.
	Delete(ctx context.Context, userID UserID) error
}
