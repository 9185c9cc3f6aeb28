package learner

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS & ACHIEVEMENTS (Достижения)
// Машина состояний достижений: состояние - подмножество множества достижений,
// переходы - только одиночные добавления, каждый закрыт своим пороговым
// предикатом и проверкой "ещё не получено". Машина монотонна: достижения
// никогда не отбираются.
// ══════════════════════════════════════════════════════════════════════════════

// Achievement - имя полученного достижения. Хранится как точная строка;
// идемпотентность выдачи определяется точным совпадением.
type Achievement string

const (
	// AchievementFirstQuestion - первый обучающий вопрос.
	AchievementFirstQuestion Achievement = "First Question!"
	// AchievementActiveLearner - десятое взаимодействие.
	AchievementActiveLearner Achievement = "Active Learner!"
	// AchievementGoalSetter - три и более учебных целей.
	AchievementGoalSetter Achievement = "Goal Setter!"
)

// Progress содержит счётчик взаимодействий и полученные достижения.
type Progress struct {
	// TotalInteractions - монотонно неубывающий счётчик входящих сообщений.
	TotalInteractions int `json:"total_interactions"`

	// Achievements - полученные достижения в порядке выдачи.
	Achievements []Achievement `json:"achievements"`
}

// NewProgress возвращает прогресс нового профиля.
func NewProgress() Progress {
	return Progress{
		TotalInteractions: 0,
		Achievements:      []Achievement{},
	}
}

// RecordInteraction увеличивает счётчик взаимодействий.
func (p *Progress) RecordInteraction() {
	p.TotalInteractions++
}

// Has проверяет, получено ли достижение.
func (p *Progress) Has(a Achievement) bool {
	for _, got := range p.Achievements {
		if got == a {
			return true
		}
	}
	return false
}

// Grant выдаёт достижение. Возвращает false, если оно уже получено
// (идемпотентное добавление по точному совпадению строки).
func (p *Progress) Grant(a Achievement) bool {
	if p.Has(a) {
		return false
	}
	p.Achievements = append(p.Achievements, a)
	return true
}

// Clone создаёт копию прогресса.
func (p Progress) Clone() Progress {
	out := p
	out.Achievements = append([]Achievement(nil), p.Achievements...)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT EVALUATION
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateAchievements проверяет пороги достижений против текущего состояния
// профиля и выдаёт максимум ОДНО достижение за вызов.
//
// Ярусы проверяются как взаимоисключающие альтернативы в фиксированном
// порядке приоритета: сообщение, одновременно удовлетворяющее двум порогам
// (например, ровно десятое взаимодействие при трёх целях), выдаёт только
// первый подошедший ярус. Этот порядок - наблюдаемое поведение и должен
// сохраняться точно.
//
// Возвращает выданное достижение и true, либо "" и false.
func (p *Profile) EvaluateAchievements() (Achievement, bool) {
	switch {
	case p.Progress.TotalInteractions == 1 && !p.Progress.Has(AchievementFirstQuestion):
		p.Progress.Grant(AchievementFirstQuestion)
		return AchievementFirstQuestion, true
	case p.Progress.TotalInteractions == 10 && !p.Progress.Has(AchievementActiveLearner):
		p.Progress.Grant(AchievementActiveLearner)
		return AchievementActiveLearner, true
	case len(p.LearningGoals) >= 3 && !p.Progress.Has(AchievementGoalSetter):
		p.Progress.Grant(AchievementGoalSetter)
		return AchievementGoalSetter, true
	default:
		return "", false
	}
}
