// Package drawing defines the decoded 2D drawing document consumed by
// the conversion pipeline. Raw drawing-file decoding (DXF and friends)
// is the job of an external front end; this package only defines the
// neutral entity model and a YAML codec for it.
package drawing

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"draftsolid/pkg/geom"
)

// EntityType identifies the kind of drawing entity.
type EntityType string

const (
	EntityLine     EntityType = "line"
	EntityArc      EntityType = "arc"
	EntityCircle   EntityType = "circle"
	EntityPolyline EntityType = "polyline"
	EntityText     EntityType = "text"
)

// Entity is one drawing entity. Which fields are meaningful depends on
// Type; the geometry parser validates the combination and rejects
// anything malformed. Entity order in the document is the drawing
// insertion order used for deterministic tie-breaking downstream.
type Entity struct {
	Type  EntityType `yaml:"type"`
	Layer string     `yaml:"layer,omitempty"`

	// line
	Start *geom.Point2D `yaml:"start,omitempty"`
	End   *geom.Point2D `yaml:"end,omitempty"`

	// arc, circle
	Center     *geom.Point2D `yaml:"center,omitempty"`
	Radius     float64       `yaml:"radius,omitempty"`
	StartAngle float64       `yaml:"start_angle,omitempty"` // degrees
	EndAngle   float64       `yaml:"end_angle,omitempty"`   // degrees

	// polyline
	Points []geom.Point2D `yaml:"points,omitempty"`
	Closed bool           `yaml:"closed,omitempty"`

	// text
	Text     string        `yaml:"text,omitempty"`
	Position *geom.Point2D `yaml:"position,omitempty"`
}

// Document is a complete decoded drawing.
type Document struct {
	Units    string   `yaml:"units,omitempty"` // informational; geometry is unit-agnostic
	Entities []Entity `yaml:"entities"`
}

// Decode reads a YAML drawing document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding drawing document: %w", err)
	}
	return &doc, nil
}

// Load reads a YAML drawing document from a file.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening drawing document: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
