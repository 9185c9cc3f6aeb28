package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages runtime feature toggles.
// Supports gradual rollout and per-user overrides so tutoring behavior can be
// experimented with without redeploying the bot.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[int64]map[string]bool // telegramID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int
}

// Predefined feature flag names.
const (
	// === Tutoring Features ===
	FeatureTutorAIResponses     = "tutor.ai_responses"     // Claude-backed responses
	FeatureTutorTranslation     = "tutor.translation"      // Translate template replies
	FeatureTutorLanguageRouting = "tutor.language_routing" // Reply in detected language
	FeatureTutorAchievements    = "tutor.achievements"     // Milestone achievements

	// === Interface Features ===
	FeatureInterfaceRateLimiting = "interface.rate_limiting" // Per-user rate limits
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[int64]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureTutorAIResponses] = &Feature{
		Name:           FeatureTutorAIResponses,
		Description:    "Generate responses with the Claude API when a key is configured",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureTutorTranslation] = &Feature{
		Name:           FeatureTutorTranslation,
		Description:    "Translate template responses into the user's language",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureTutorLanguageRouting] = &Feature{
		Name:           FeatureTutorLanguageRouting,
		Description:    "Route replies to the detected message language",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureTutorAchievements] = &Feature{
		Name:           FeatureTutorAchievements,
		Description:    "Award milestone achievements",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureInterfaceRateLimiting] = &Feature{
		Name:           FeatureInterfaceRateLimiting,
		Description:    "Enforce per-user request rate limits",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_TUTOR_AI_RESPONSES=false
// Example: FEATURE_TUTOR_TRANSLATION=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "tutor.ai_responses" -> "FEATURE_TUTOR_AI_RESPONSES"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given user.
// userID 0 means no user context: only the global toggle applies.
func (ff *FeatureFlags) IsEnabled(featureName string, userID int64) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if userID != 0 {
		if overrides, ok := ff.userOverrides[userID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	if !feature.Enabled {
		return false
	}

	if feature.RolloutPercent < 100 && userID != 0 {
		return isInRollout(userID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func isInRollout(userID int64, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(strconv.FormatInt(userID, 10)))
	bucket := int(h.Sum32() % 100)
	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
func (ff *FeatureFlags) SetUserOverride(userID int64, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.userOverrides[userID] == nil {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID int64) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	delete(ff.userOverrides, userID)
}

// List returns a snapshot of all features, for diagnostics.
func (ff *FeatureFlags) List() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		out = append(out, *f)
	}
	return out
}
