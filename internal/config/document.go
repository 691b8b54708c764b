// Package config loads tool settings and the declarative overlay plugin
// document that defines the render chain.
package config

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDocument is the plugin document used when none is given. It keeps
// the legacy XML name so existing setups run without -c.
const DefaultDocument = "gpt_config.xml"

const maxDocumentSize = 1 * 1024 * 1024 // 1MB

// legacyPluginPrefix is stripped from plugin references of XML documents,
// where plugins were named after their module, e.g. gpt_plugin_temperature.
const legacyPluginPrefix = "gpt_plugin_"

// Plugin is one overlay entry of the plugin document. Document order is
// chain order.
type Plugin struct {
	Label string `yaml:"label"`
	// Enabled is compared case-insensitively against "true".
	Enabled    string            `yaml:"enabled"`
	Horizontal string            `yaml:"horiz"`
	Vertical   string            `yaml:"vert"`
	Reference  string            `yaml:"plugin"`
	JSONTag    string            `yaml:"jsontag"`
	Unit       string            `yaml:"unit"`
	Params     map[string]string `yaml:"params"`
}

// IsEnabled reports whether the entry takes part in the chain.
func (p Plugin) IsEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(p.Enabled), "true")
}

// UnitName returns the unit field, falling back to the unit parameter used
// by older documents.
func (p Plugin) UnitName() string {
	if p.Unit != "" {
		return p.Unit
	}
	return p.Params["unit"]
}

// Param returns a plugin parameter or def when it is absent or empty.
func (p Plugin) Param(key, def string) string {
	if v, ok := p.Params[key]; ok && v != "" {
		return v
	}
	return def
}

// Document is the ordered list of configured plugins.
type Document struct {
	Plugins []Plugin
}

// Enabled returns the enabled entries in document order.
func (d Document) Enabled() []Plugin {
	var out []Plugin
	for _, p := range d.Plugins {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}

// LoadDocument reads a plugin document. Files ending in .xml use the legacy
// XML layout; everything else is parsed as YAML, which includes JSON.
// known reports whether a plugin reference resolves; enabled entries with an
// unknown reference are rejected.
func LoadDocument(path string, known func(ref string) bool) (Document, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat plugin document: %w", err)
	}
	if info.Size() > maxDocumentSize {
		return Document{}, fmt.Errorf("plugin document too large: %d bytes (max %d)", info.Size(), maxDocumentSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read plugin document: %w", err)
	}

	var doc Document
	if strings.EqualFold(filepath.Ext(cleanPath), ".xml") {
		doc, err = parseXML(data)
	} else {
		doc, err = parseYAML(data)
	}
	if err != nil {
		return Document{}, err
	}

	doc.applyDefaults()
	if err := doc.validate(known); err != nil {
		return Document{}, fmt.Errorf("invalid plugin document: %w", err)
	}
	return doc, nil
}

func (d *Document) applyDefaults() {
	for i := range d.Plugins {
		p := &d.Plugins[i]
		if p.Label == "" {
			p.Label = "[unnamed]"
		}
		if p.Enabled == "" {
			p.Enabled = "false"
		}
		if p.Horizontal == "" {
			p.Horizontal = "right"
		}
		if p.Vertical == "" {
			p.Vertical = "bottom"
		}
		if p.Params == nil {
			p.Params = map[string]string{}
		}
	}
}

func (d Document) validate(known func(ref string) bool) error {
	for i, p := range d.Plugins {
		if !p.IsEnabled() {
			continue
		}
		if p.Reference == "" {
			return fmt.Errorf("plugin %d (%s): missing plugin reference", i+1, p.Label)
		}
		if known != nil && !known(p.Reference) {
			return fmt.Errorf("plugin %d (%s): unknown plugin reference %q", i+1, p.Label, p.Reference)
		}
		if p.JSONTag == "" {
			return fmt.Errorf("plugin %d (%s): missing jsontag", i+1, p.Label)
		}
	}
	return nil
}

// yamlPlugin mirrors Plugin with scalar nodes, so that enabled: true and
// numeric parameters keep their literal text.
type yamlPlugin struct {
	Label    string    `yaml:"label"`
	Enabled  yaml.Node `yaml:"enabled"`
	Position struct {
		Horiz string `yaml:"horiz"`
		Vert  string `yaml:"vert"`
	} `yaml:"position"`
	Plugin  string               `yaml:"plugin"`
	JSONTag string               `yaml:"jsontag"`
	Unit    string               `yaml:"unit"`
	Params  map[string]yaml.Node `yaml:"params"`
}

func parseYAML(data []byte) (Document, error) {
	var raw struct {
		Plugins []yamlPlugin `yaml:"plugins"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("failed to parse plugin document: %w", err)
	}

	doc := Document{Plugins: make([]Plugin, 0, len(raw.Plugins))}
	for _, r := range raw.Plugins {
		p := Plugin{
			Label:      r.Label,
			Enabled:    r.Enabled.Value,
			Horizontal: r.Position.Horiz,
			Vertical:   r.Position.Vert,
			Reference:  r.Plugin,
			JSONTag:    r.JSONTag,
			Unit:       r.Unit,
			Params:     make(map[string]string, len(r.Params)),
		}
		for k, v := range r.Params {
			p.Params[k] = v.Value
		}
		doc.Plugins = append(doc.Plugins, p)
	}
	return doc, nil
}

type xmlDocument struct {
	XMLName xml.Name    `xml:"goprotelemetry"`
	Plugins []xmlPlugin `xml:"plugin"`
}

type xmlPlugin struct {
	Label    string `xml:"label"`
	Enabled  string `xml:"enabled"`
	Position struct {
		Horiz string `xml:"horiz"`
		Vert  string `xml:"vert"`
	} `xml:"position"`
	PluginLib string `xml:"pluginlib"`
	JSONTag   string `xml:"jsontag"`
	Unit      string `xml:"unit"`
	Params    struct {
		Items []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	} `xml:"params"`
}

func parseXML(data []byte) (Document, error) {
	var raw xmlDocument
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("failed to parse plugin document: %w", err)
	}

	doc := Document{Plugins: make([]Plugin, 0, len(raw.Plugins))}
	for _, r := range raw.Plugins {
		p := Plugin{
			Label:      strings.TrimSpace(r.Label),
			Enabled:    strings.TrimSpace(r.Enabled),
			Horizontal: strings.TrimSpace(r.Position.Horiz),
			Vertical:   strings.TrimSpace(r.Position.Vert),
			Reference:  strings.TrimPrefix(strings.TrimSpace(r.PluginLib), legacyPluginPrefix),
			JSONTag:    strings.TrimSpace(r.JSONTag),
			Unit:       strings.TrimSpace(r.Unit),
			Params:     make(map[string]string, len(r.Params.Items)),
		}
		for _, item := range r.Params.Items {
			p.Params[item.XMLName.Local] = strings.TrimSpace(item.Value)
		}
		doc.Plugins = append(doc.Plugins, p)
	}
	return doc, nil
}
