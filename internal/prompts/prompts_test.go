package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderKnownModes(t *testing.T) {
	p := NewProvider(nil)

	for _, key := range []string{ModeQualitative, ModeQuantitative} {
		mode, err := p.Mode(key)
		require.NoError(t, err)
		assert.Equal(t, key, mode.Key)
		assert.Contains(t, mode.SystemPrompt, "Beer Game")

		// The output instruction must name all six contract keys.
		for _, field := range []string{
			"quantitative_reasoning",
			"qualitative_reasoning",
			"short_quantitative_reasoning",
			"short_qualitative_reasoning",
			"quantitative_answer",
			"qualitative_answer",
		} {
			assert.Contains(t, mode.OutputInstruction, field)
		}
	}
}

func TestProviderModeEmphasisDiffers(t *testing.T) {
	p := NewProvider(nil)

	qual, err := p.Mode(ModeQualitative)
	require.NoError(t, err)
	quant, err := p.Mode(ModeQuantitative)
	require.NoError(t, err)

	assert.NotEqual(t, qual.SystemPrompt, quant.SystemPrompt)
	assert.NotEqual(t, qual.OutputInstruction, quant.OutputInstruction)
	assert.True(t, strings.Contains(quant.OutputInstruction, "calculation-first"))
}

func TestProviderUnknownMode(t *testing.T) {
	_, err := NewProvider(nil).Mode("BeerGameChaotic")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrUnknownMode))
}

func TestProviderOverrides(t *testing.T) {
	p := NewProvider(map[string]Mode{
		ModeQualitative: {SystemPrompt: "custom prompt", OutputInstruction: "custom schema"},
	})

	mode, err := p.Mode(ModeQualitative)
	require.NoError(t, err)
	assert.Equal(t, "custom prompt", mode.SystemPrompt)
	assert.Equal(t, ModeQualitative, mode.Key)
}
