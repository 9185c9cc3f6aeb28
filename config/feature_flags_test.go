package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureFlags_DefaultsEnabled(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureTutorAIResponses, 0))
	assert.True(t, ff.IsEnabled(FeatureTutorTranslation, 0))
	assert.True(t, ff.IsEnabled(FeatureTutorLanguageRouting, 42))
	assert.True(t, ff.IsEnabled(FeatureTutorAchievements, 42))
	assert.True(t, ff.IsEnabled(FeatureInterfaceRateLimiting, 0))
}

func TestFeatureFlags_UnknownFeatureDisabled(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled("tutor.does_not_exist", 42))
}

func TestFeatureFlags_EnvDisable(t *testing.T) {
	t.Setenv("FEATURE_TUTOR_AI_RESPONSES", "false")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureTutorAIResponses, 0))
	assert.False(t, ff.IsEnabled(FeatureTutorAIResponses, 42))
	assert.True(t, ff.IsEnabled(FeatureTutorTranslation, 0))
}

func TestFeatureFlags_EnvPercentRollout(t *testing.T) {
	t.Setenv("FEATURE_TUTOR_TRANSLATION", "50")

	ff := LoadFeatureFlags()

	// Without a user context a partial rollout still counts as on.
	assert.True(t, ff.IsEnabled(FeatureTutorTranslation, 0))

	// Bucketing is consistent: the same user always gets the same answer.
	first := ff.IsEnabled(FeatureTutorTranslation, 12345)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureTutorTranslation, 12345))
	}
}

func TestFeatureFlags_EnvZeroPercentDisables(t *testing.T) {
	t.Setenv("FEATURE_TUTOR_ACHIEVEMENTS", "0")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureTutorAchievements, 0))
	assert.False(t, ff.IsEnabled(FeatureTutorAchievements, 42))
}

func TestFeatureFlags_EnvInvalidValueIgnored(t *testing.T) {
	t.Setenv("FEATURE_TUTOR_AI_RESPONSES", "maybe")

	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureTutorAIResponses, 0))
}

func TestFeatureFlags_UserOverrideWins(t *testing.T) {
	ff := LoadFeatureFlags()

	ff.SetUserOverride(42, FeatureTutorAIResponses, false)
	assert.False(t, ff.IsEnabled(FeatureTutorAIResponses, 42))
	assert.True(t, ff.IsEnabled(FeatureTutorAIResponses, 7))

	ff.ClearUserOverrides(42)
	assert.True(t, ff.IsEnabled(FeatureTutorAIResponses, 42))
}

func TestFeatureFlags_OverrideCanEnableDisabledFeature(t *testing.T) {
	t.Setenv("FEATURE_TUTOR_TRANSLATION", "false")

	ff := LoadFeatureFlags()
	ff.SetUserOverride(42, FeatureTutorTranslation, true)

	assert.True(t, ff.IsEnabled(FeatureTutorTranslation, 42))
	assert.False(t, ff.IsEnabled(FeatureTutorTranslation, 7))
}

func TestFeatureNameToEnvKey(t *testing.T) {
	assert.Equal(t, "FEATURE_TUTOR_AI_RESPONSES", featureNameToEnvKey("tutor.ai_responses"))
	assert.Equal(t, "FEATURE_INTERFACE_RATE_LIMITING", featureNameToEnvKey("interface.rate_limiting"))
}

func TestFeatureFlags_List(t *testing.T) {
	ff := LoadFeatureFlags()

	features := ff.List()
	assert.Len(t, features, 5)

	names := make(map[string]bool, len(features))
	for _, f := range features {
		names[f.Name] = true
	}
	assert.True(t, names[FeatureTutorAIResponses])
	assert.True(t, names[FeatureInterfaceRateLimiting])
}
