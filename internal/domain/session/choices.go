package session

import (
	"strings"
)

// Defaults applied when a session starts
const (
	DefaultPartner = "👤 혼밥"
	DefaultTheme   = "🍚 든든한 한끼"
	DefaultLevel   = "Lv.2 평범한 주부"
)

// Option lists offered by the wizard screens
var (
	Cuisines = []string{"한식", "일식", "중식", "양식", "아시안 퓨전", "유럽 퓨전", "남미/동남아", "자유 퓨전"}
	Partners = []string{"👤 혼밥", "💑 부부", "👶 손주/아이", "👨‍👩‍👧 가족", "🍻 친구"}
	Themes   = []string{"🍺 안주", "💪 건강식", "🌿 다이어트", "🍚 든든한 밥", "🍝 특별한 날"}
	Levels   = []string{"Lv.1 요린이", "Lv.2 평범한 주부", "Lv.3 주방의 고수"}
)

// UserChoices is everything the user picked so far
type UserChoices struct {
	Mode        Mode     `json:"mode"`
	Ingredients string   `json:"ingredients"`
	Sauces      []string `json:"sauces"`
	Cuisine     string   `json:"cuisine"`
	Partner     string   `json:"partner"`
	Theme       string   `json:"theme"`
	Tools       []string `json:"tools"`
	Level       string   `json:"level"`
}

// DefaultChoices returns the choices of a fresh session
func DefaultChoices() UserChoices {
	return UserChoices{
		Mode:    ModeFridge,
		Sauces:  []string{},
		Partner: DefaultPartner,
		Theme:   DefaultTheme,
		Tools:   []string{},
		Level:   DefaultLevel,
	}
}

// Clone returns a deep copy safe to hand to the generator
func (c UserChoices) Clone() UserChoices {
	out := c
	out.Sauces = append([]string{}, c.Sauces...)
	out.Tools = append([]string{}, c.Tools...)
	return out
}

// IngredientList splits the comma separated ingredient text
func (c UserChoices) IngredientList() []string {
	parts := strings.Split(c.Ingredients, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ToggleIngredient adds the name to the ingredient text, or removes it when present
func (c *UserChoices) ToggleIngredient(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	items := c.IngredientList()
	kept := items[:0]
	found := false
	for _, it := range items {
		if it == name {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		kept = append(kept, name)
	}
	c.Ingredients = strings.Join(kept, ", ")
}

// ToggleSauce adds or removes a sauce from the set
func (c *UserChoices) ToggleSauce(sauce string) {
	c.Sauces = toggle(c.Sauces, sauce)
}

// ToggleTool adds or removes a cooking tool
func (c *UserChoices) ToggleTool(tool string) {
	c.Tools = toggle(c.Tools, tool)
}

// HasSauce reports set membership
func (c UserChoices) HasSauce(sauce string) bool {
	for _, s := range c.Sauces {
		if s == sauce {
			return true
		}
	}
	return false
}

func toggle(set []string, v string) []string {
	for i, s := range set {
		if s == v {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return append(set, v)
}

// ChoicesPatch is a partial update sent by a wizard screen. Nil fields are left alone.
type ChoicesPatch struct {
	Mode        *Mode    `json:"mode,omitempty" validate:"omitempty,oneof=fridge seasonal convenience"`
	Ingredients *string  `json:"ingredients,omitempty" validate:"omitempty,max=1000"`
	Cuisine     *string  `json:"cuisine,omitempty" validate:"omitempty,max=50"`
	Partner     *string  `json:"partner,omitempty" validate:"omitempty,max=50"`
	Theme       *string  `json:"theme,omitempty" validate:"omitempty,max=200"`
	Level       *string  `json:"level,omitempty" validate:"omitempty,max=50"`
	ToggleSauce []string `json:"toggle_sauces,omitempty" validate:"omitempty,dive,min=1,max=50"`
	ToggleItem  []string `json:"toggle_ingredients,omitempty" validate:"omitempty,dive,min=1,max=50"`
	ToggleTool  []string `json:"toggle_tools,omitempty" validate:"omitempty,dive,min=1,max=50"`
}

// Apply mutates the choices with the patch
func (c *UserChoices) Apply(p ChoicesPatch) {
	if p.Mode != nil {
		c.Mode = *p.Mode
	}
	if p.Ingredients != nil {
		c.Ingredients = *p.Ingredients
	}
	if p.Cuisine != nil {
		c.Cuisine = *p.Cuisine
	}
	if p.Partner != nil {
		c.Partner = *p.Partner
	}
	if p.Theme != nil {
		c.Theme = *p.Theme
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	for _, s := range p.ToggleSauce {
		c.ToggleSauce(s)
	}
	for _, s := range p.ToggleItem {
		c.ToggleIngredient(s)
	}
	for _, s := range p.ToggleTool {
		c.ToggleTool(s)
	}
}
