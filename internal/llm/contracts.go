package llm

import "context"

// StructuredMenu is the normalized shape we want from the model.
type StructuredMenu struct {
	Restaurant   RestaurantInfo `json:"restaurant"`
	MenuSections []MenuSection  `json:"menu_sections"`
}

type RestaurantInfo struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type MenuSection struct {
	SectionName string     `json:"section_name"`
	Items       []MenuItem `json:"items"`
}

type MenuItem struct {
	Name        string  `json:"name"`
	Description *string `json:"description"` // <=5 words or null
	// Price is number-or-string on the wire; the repository coerces invalid
	// or non-positive values to the minimum sentinel.
	Price                any  `json:"price"`
	DietaryRestrictionID *int `json:"dietary_restriction_id"` // 1-5
}

// MenuStructurer is the interface the pipeline depends on. Structure returns
// canonical JSON: the raw model response with code fences stripped, parsed,
// and re-serialized.
type MenuStructurer interface {
	Structure(ctx context.Context, text string) ([]byte, error)
}
