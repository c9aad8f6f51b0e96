package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersonas(t *testing.T) {
	ps := Personas()
	assert.Len(t, ps, 6)
	assert.Equal(t, PersonalityDefault, ps[0].Key)

	seen := map[Personality]bool{}
	for _, p := range ps {
		assert.False(t, seen[p.Key], "duplicate persona %s", p.Key)
		seen[p.Key] = true
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.SystemPrompt)
	}
}

func TestResolvePersona(t *testing.T) {
	tests := []struct {
		key  string
		want Personality
	}{
		{"sargento", PersonalityStrict},
		{"mao_de_vaca", PersonalityFrugal},
		{"economista", PersonalityTechnical},
		{"", PersonalityDefault},
		{"pirata", PersonalityDefault},
		{"PADRAO", PersonalityDefault},
		{"Sargento", PersonalityDefault},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePersona(tt.key).Key)
		})
	}
}

func TestPersonalityPrompt(t *testing.T) {
	assert.Equal(t, ResolvePersona("padrao").SystemPrompt, PersonalityPrompt("desconhecida"))
	assert.NotEqual(t, PersonalityPrompt("padrao"), PersonalityPrompt("sarcastico"))
}
