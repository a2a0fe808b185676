package gemini

import "google.golang.org/genai"

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func pairSchema(a, b string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			a: stringSchema(),
			b: stringSchema(),
		},
		Required: []string{a, b},
	}
}

var recipeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"dishName":        stringSchema(),
		"comment":         stringSchema(),
		"ingredientsList": stringSchema(),
		"easyRecipe":      stringSchema(),
		"gourmetRecipe":   stringSchema(),
		"similarRecipes":  {Type: genai.TypeArray, Items: pairSchema("title", "reason")},
		"referenceLinks":  {Type: genai.TypeArray, Items: pairSchema("title", "url")},
	},
	Required: []string{"dishName", "comment", "ingredientsList", "easyRecipe", "gourmetRecipe", "similarRecipes", "referenceLinks"},
}

var suggestionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subIngredients": {Type: genai.TypeArray, Items: stringSchema()},
		"sauces":         {Type: genai.TypeArray, Items: stringSchema()},
	},
	Required: []string{"subIngredients", "sauces"},
}

var ideaSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"items": {Type: genai.TypeArray, Items: pairSchema("name", "desc")},
	},
	Required: []string{"items"},
}
