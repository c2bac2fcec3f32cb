package constants

// DietaryRestriction is the fixed lookup set for menu items. The structuring
// model refers to these by code (1-5); rows are seeded by label.
type DietaryRestriction string

const (
	NoRestriction DietaryRestriction = "No Restriction"
	Vegan         DietaryRestriction = "Vegan"
	Vegetarian    DietaryRestriction = "Vegetarian"
	GlutenFree    DietaryRestriction = "Gluten-Free"
	LactoseFree   DietaryRestriction = "Lactose-Free"
)

var allRestrictions = []DietaryRestriction{
	NoRestriction,
	Vegan,
	Vegetarian,
	GlutenFree,
	LactoseFree,
}

// restrictionByCode maps the 1-based codes the prompt asks the model to emit.
var restrictionByCode = map[int]DietaryRestriction{
	1: NoRestriction,
	2: Vegan,
	3: Vegetarian,
	4: GlutenFree,
	5: LactoseFree,
}

// DietaryLabels returns the seedable labels in code order.
func DietaryLabels() []string {
	result := make([]string, len(allRestrictions))
	for i, r := range allRestrictions {
		result[i] = string(r)
	}
	return result
}

// RestrictionForCode resolves a model-assigned code to its label.
// Unknown or absent codes fall back to NoRestriction.
func RestrictionForCode(code int) DietaryRestriction {
	if r, ok := restrictionByCode[code]; ok {
		return r
	}
	return NoRestriction
}
