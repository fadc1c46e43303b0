package chat

import (
	"github.com/papercomputeco/chatstream/pkg/config"
)

// Model is an entry of the model-selection list.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Label is the display name, falling back to the ID.
func (m Model) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// Catalog is the ordered set of selectable models.
type Catalog struct {
	models       []Model
	defaultModel string
}

// NewCatalog builds a catalog from configured models. An empty list falls
// back to config.DefaultModels. defaultID names the preselected model; when
// it is not part of the list it is added first.
func NewCatalog(entries []config.ModelConfig, defaultID string) *Catalog {
	if len(entries) == 0 {
		entries = config.DefaultModels()
	}

	c := &Catalog{defaultModel: defaultID}
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		c.models = append(c.models, Model{ID: e.ID, Name: e.Name, Description: e.Description})
	}

	if defaultID == "" && len(c.models) > 0 {
		c.defaultModel = c.models[0].ID
	}
	if _, ok := c.Lookup(c.defaultModel); !ok && c.defaultModel != "" {
		c.models = append([]Model{{ID: c.defaultModel}}, c.models...)
	}

	return c
}

// Models returns the catalog entries in display order.
func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// Lookup finds a model by ID.
func (c *Catalog) Lookup(id string) (Model, bool) {
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Default returns the preselected model.
func (c *Catalog) Default() Model {
	m, _ := c.Lookup(c.defaultModel)
	return m
}

// Index returns the position of id, or -1.
func (c *Catalog) Index(id string) int {
	for i, m := range c.models {
		if m.ID == id {
			return i
		}
	}
	return -1
}
