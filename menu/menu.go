// Package menu builds the front-end route tree returned by /getRouters.
package menu

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Router is one entry of the route tree consumed by the admin SPA.
type Router struct {
	Name       string   `json:"name,omitempty"`
	Path       string   `json:"path"`
	Hidden     bool     `json:"hidden"`
	Redirect   string   `json:"redirect,omitempty"`
	Component  string   `json:"component,omitempty"`
	AlwaysShow bool     `json:"alwaysShow,omitempty"`
	Meta       *Meta    `json:"meta,omitempty"`
	Children   []Router `json:"children,omitempty"`
}

type Meta struct {
	Title   string `json:"title"`
	Icon    string `json:"icon,omitempty"`
	NoCache bool   `json:"noCache"`
}

// Provider resolves the routes visible to a holder of permissions.
type Provider interface {
	Routers(ctx context.Context, permissions []string) ([]Router, error)
}

// Item is a node of the configured menu tree. Directories have children and
// no component; leaves name the view component to load.
type Item struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path"`
	Component string `yaml:"component"`
	Title     string `yaml:"title"`
	Icon      string `yaml:"icon"`
	Perms     string `yaml:"perms"`
	Hidden    bool   `yaml:"hidden"`
	NoCache   bool   `yaml:"no_cache"`
	Children  []Item `yaml:"children"`
}

const (
	allPermissions  = "*:*:*"
	layoutComponent = "Layout"
)

// Static serves a fixed menu tree.
type Static struct {
	items []Item
}

func NewStatic(items []Item) *Static {
	return &Static{items: items}
}

// LoadStatic reads a YAML document with a top-level "menus" list.
func LoadStatic(r io.Reader) (*Static, error) {
	var doc struct {
		Menus []Item `yaml:"menus"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode menus: %w", err)
	}
	if err := validate(doc.Menus, ""); err != nil {
		return nil, err
	}
	return NewStatic(doc.Menus), nil
}

func validate(items []Item, parent string) error {
	for i, it := range items {
		if strings.TrimSpace(it.Path) == "" {
			return fmt.Errorf("menu %s[%d]: path is required", parent, i)
		}
		if err := validate(it.Children, parent+"/"+it.Path); err != nil {
			return err
		}
	}
	return nil
}

func (s *Static) Routers(_ context.Context, permissions []string) ([]Router, error) {
	visible := filter(s.items, permissions)
	out := make([]Router, 0, len(visible))
	for _, it := range visible {
		out = append(out, build(it, true))
	}
	return out, nil
}

// filter drops leaves the caller may not see and directories left empty.
func filter(items []Item, permissions []string) []Item {
	var out []Item
	for _, it := range items {
		if len(it.Children) > 0 {
			it.Children = filter(it.Children, permissions)
			if len(it.Children) == 0 {
				continue
			}
			out = append(out, it)
			continue
		}
		if allowed(it.Perms, permissions) {
			out = append(out, it)
		}
	}
	return out
}

func allowed(required string, permissions []string) bool {
	if required == "" {
		return true
	}
	return slices.Contains(permissions, allPermissions) || slices.Contains(permissions, required)
}

func build(it Item, top bool) Router {
	r := Router{
		Name:   routeName(it),
		Path:   it.Path,
		Hidden: it.Hidden,
		Meta:   &Meta{Title: it.Title, Icon: it.Icon, NoCache: it.NoCache},
	}
	if top && !strings.HasPrefix(r.Path, "/") {
		r.Path = "/" + r.Path
	}

	if len(it.Children) == 0 {
		r.Component = it.Component
		return r
	}

	r.Component = it.Component
	if r.Component == "" {
		r.Component = layoutComponent
	}
	r.AlwaysShow = true
	r.Redirect = "noRedirect"
	for _, child := range it.Children {
		r.Children = append(r.Children, build(child, false))
	}
	return r
}

// routeName capitalizes the path segment, matching the SPA's naming.
func routeName(it Item) string {
	if it.Name != "" {
		return it.Name
	}
	p := strings.Trim(it.Path, "/")
	if p == "" {
		return ""
	}
	return strings.ToUpper(p[:1]) + p[1:]
}
