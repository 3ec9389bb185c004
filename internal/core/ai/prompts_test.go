package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Korean", LanguageName("ko"))
	assert.Equal(t, "English", LanguageName("en"))

	// Unknown codes fall back to the deployment default.
	assert.Equal(t, "Korean", LanguageName("xx"))
	assert.Equal(t, "Korean", LanguageName(""))
}

func TestSystemPromptsEmbedTargetLanguage(t *testing.T) {
	assert.Contains(t, HealthExpertSystemPrompt("ko"), "provide the analysis in Korean")
	assert.Contains(t, HealthExpertSystemPrompt("en"), "provide the analysis in English")
	assert.Contains(t, ComprehensiveHealthExpertSystemPrompt("ko"), "provide the analysis in Korean")
}
