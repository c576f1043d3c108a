// Package mbtiles provides MBTiles format support for reading and writing tile databases.
package mbtiles

import (
	"fmt"
	"sort"
	"strconv"
)

// Metadata contains MBTiles metadata fields.
type Metadata struct {
	Name        string // Human-readable tileset identifier
	Format      string // Tile data type (png)
	Description string // Human-readable description
	Type        string // "baselayer" or "overlay"
	Version     string // Version string
	MinZoom     int    // Minimum zoom level
	MaxZoom     int    // Maximum zoom level
	// Params records the generator settings the tiles were rendered with,
	// stored as additional metadata rows.
	Params map[string]string
}

// reservedKeys are metadata names owned by the typed fields.
var reservedKeys = map[string]bool{
	"name": true, "format": true, "description": true, "type": true,
	"version": true, "minzoom": true, "maxzoom": true,
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	for k, v := range m.Params {
		if !reservedKeys[k] {
			result[k] = v
		}
	}

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Format != "" {
		result["format"] = m.Format
	}
	if m.MaxZoom >= m.MinZoom {
		result["minzoom"] = fmt.Sprintf("%d", m.MinZoom)
		result["maxzoom"] = fmt.Sprintf("%d", m.MaxZoom)
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Type != "" {
		result["type"] = m.Type
	}
	if m.Version != "" {
		result["version"] = m.Version
	}

	return result
}

// ParamKeys returns the Params keys in sorted order.
func (m Metadata) ParamKeys() []string {
	keys := make([]string, 0, len(m.Params))
	for k := range m.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// metadataFromMap is the inverse of ToMap. Unparsable zoom values read as 0.
func metadataFromMap(values map[string]string) Metadata {
	meta := Metadata{
		Name:        values["name"],
		Format:      values["format"],
		Description: values["description"],
		Type:        values["type"],
		Version:     values["version"],
	}
	meta.MinZoom, _ = strconv.Atoi(values["minzoom"])
	meta.MaxZoom, _ = strconv.Atoi(values["maxzoom"])

	for k, v := range values {
		if reservedKeys[k] {
			continue
		}
		if meta.Params == nil {
			meta.Params = make(map[string]string)
		}
		meta.Params[k] = v
	}
	return meta
}
