package llm

import "strings"

// BuildMenuPrompt composes the single user-role instruction the structuring
// service receives: the target schema, the dietary-code rubric, and the raw
// menu text.
func BuildMenuPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Given the following restaurant menu data:\n\n")
	b.WriteString(text)
	b.WriteString(`

Return ONLY valid JSON matching this structure:
{
    "restaurant": {
        "name": "string",
        "location": "string"
    },
    "menu_sections": [
        {
            "section_name": "string",
            "items": [
                {
                    "name": "string",
                    "description": "string",
                    "price": number,
                    "dietary_restriction_id": number
                }
            ]
        }
    ]
}

Rules:
1. CRITICALLY IMPORTANT: Analyze each menu item and assign appropriate dietary restrictions:
   - 1: No restriction (for meat/seafood dishes)
   - 2: Vegan (no animal products)
   - 3: Vegetarian (no meat but may have dairy/eggs)
   - 4: Gluten-Free
   - 5: Lactose-Free
2. Descriptions: 5 words max or null. If no meaningful description exists, use null, never placeholder text.
3. Prices: must be > 0.
4. Convert accented characters to their non-accented equivalents ('ñ' -> 'n', 'é' -> 'e').

For every item in the menu analyze or infer the ingredients to your knowledge and assign the correct dietary restriction that the item has. This is obligatory, no item should end up without a dietary restriction.

Output ONLY valid JSON. Do not include any additional text or explanation.`)
	return b.String()
}
