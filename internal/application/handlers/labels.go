package handlers

import "github.com/ersonp/lore-chronicle/internal/domain/entities"

// genderedLabels maps a canonical type and the related character's gender to
// the word shown to users. Storage only ever holds the canonical type.
var genderedLabels = map[entities.RelationType]map[entities.Gender]string{
	entities.RelationParent:  {entities.GenderMale: "father", entities.GenderFemale: "mother"},
	entities.RelationChild:   {entities.GenderMale: "son", entities.GenderFemale: "daughter"},
	entities.RelationSibling: {entities.GenderMale: "brother", entities.GenderFemale: "sister"},
	entities.RelationSpouse:  {entities.GenderMale: "husband", entities.GenderFemale: "wife"},
	entities.RelationEngaged: {entities.GenderMale: "fiancé", entities.GenderFemale: "fiancée"},
}

// DisplayLabel returns the label for an edge whose far end has gender g.
// Unknown genders and non-gendered types fall back to the canonical name.
func DisplayLabel(t entities.RelationType, g *entities.Gender) string {
	if g != nil {
		if label, ok := genderedLabels[t][*g]; ok {
			return label
		}
	}
	return string(t)
}
