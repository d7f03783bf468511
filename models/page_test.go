package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/browserwing/nopo/locator"
)

func githubPage() *PageDefinition {
	return &PageDefinition{
		Name: "github",
		Fields: []FieldDefinition{
			{Name: "main", Locators: []LocatorSpec{{By: "tag name", Value: "main"}}},
			{Name: "nav_links", Parent: "main", Plural: true, Locators: []LocatorSpec{
				{By: "xpath", Value: ".//nav[1]"},
				{By: "tag", Value: "a"},
			}},
		},
		Steps: []Step{
			{Action: ActionAssertCount, Field: "nav_links", Value: "4"},
			{Action: ActionClick, Field: "nav_links", Index: intp(-1)},
		},
	}
}

func intp(i int) *int { return &i }

func TestPageChainFollowsParents(t *testing.T) {
	p := githubPage()
	require.NoError(t, p.Validate())

	c, err := p.Chain("nav_links")
	require.NoError(t, err)
	xp, err := c.Path()
	require.NoError(t, err)
	assert.Equal(t, "//main/.//nav[1]//a", xp)
}

func TestPageValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *PageDefinition)
		want   string
	}{
		{"missing name", func(p *PageDefinition) { p.Name = "" }, "page name"},
		{"duplicate field", func(p *PageDefinition) { p.Fields = append(p.Fields, p.Fields[0]) }, "defined twice"},
		{"bad kind", func(p *PageDefinition) { p.Fields[0].Locators[0].By = "shadow" }, "invalid locator kind"},
		{"bad css", func(p *PageDefinition) { p.Fields[0].Locators[0] = LocatorSpec{By: "css", Value: "a::after"} }, "unsupported"},
		{"missing parent", func(p *PageDefinition) { p.Fields[1].Parent = "nope" }, "not defined"},
		{"cycle", func(p *PageDefinition) { p.Fields[0].Parent = "nav_links" }, "cycle"},
		{"unknown action", func(p *PageDefinition) { p.Steps[0].Action = "dance" }, "unknown action"},
		{"count on single", func(p *PageDefinition) { p.Steps[0].Field = "main" }, "not plural"},
		{"no locators", func(p *PageDefinition) { p.Fields[0].Locators = nil }, "no locators"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := githubPage()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPageCopyIsDeep(t *testing.T) {
	p := githubPage()
	cp := p.Copy()
	cp.Fields[0].Locators[0].Value = "section"
	cp.Steps[0].Value = "9"
	assert.Equal(t, "main", p.Fields[0].Locators[0].Value)
	assert.Equal(t, "4", p.Steps[0].Value)
}

func TestLocatorSpecJSON(t *testing.T) {
	var spec LocatorSpec
	require.NoError(t, json.Unmarshal([]byte(`{"by":"link text","value":"Home"}`), &spec))
	l, err := spec.Locator()
	require.NoError(t, err)
	assert.Equal(t, locator.LinkText("Home"), l)
}
