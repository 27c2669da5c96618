package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
)

func TestDisplayLabel(t *testing.T) {
	male := entities.GenderMale
	female := entities.GenderFemale
	unicorn := entities.GenderUnicorn

	tests := []struct {
		name   string
		typ    entities.RelationType
		gender *entities.Gender
		want   string
	}{
		{"father", entities.RelationParent, &male, "father"},
		{"mother", entities.RelationParent, &female, "mother"},
		{"son", entities.RelationChild, &male, "son"},
		{"daughter", entities.RelationChild, &female, "daughter"},
		{"brother", entities.RelationSibling, &male, "brother"},
		{"sister", entities.RelationSibling, &female, "sister"},
		{"husband", entities.RelationSpouse, &male, "husband"},
		{"wife", entities.RelationSpouse, &female, "wife"},
		{"fiance", entities.RelationEngaged, &male, "fiancé"},
		{"fiancee", entities.RelationEngaged, &female, "fiancée"},
		{"no gender", entities.RelationParent, nil, "parent"},
		{"ungendered gender", entities.RelationSpouse, &unicorn, "spouse"},
		{"ungendered type", entities.RelationMentor, &female, "mentor"},
		{"custom type", entities.RelationType("rival"), &male, "rival"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayLabel(tt.typ, tt.gender))
		})
	}
}
