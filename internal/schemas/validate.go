// Package schemas checks saved session snapshots against an embedded JSON
// Schema before they are written to or read back from the store.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed session_snapshot.schema.json
var sessionSnapshotSchema string

// snapshotSchema is compiled at init; a broken embedded schema is a build defect.
var snapshotSchema = mustCompile(sessionSnapshotSchema)

func mustCompile(doc string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("session snapshot schema does not compile: %v", err))
	}
	return schema
}

// Violation is one schema rule a snapshot broke. Path is dotted from the
// document root, "(root)" for the document itself.
type Violation struct {
	Path   string
	Reason string
}

// ValidationError lists every violation found in a snapshot.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Path + ": " + v.Reason
	}
	return "invalid session snapshot: " + strings.Join(parts, "; ")
}

// Paths returns the offending paths in report order.
func (e *ValidationError) Paths() []string {
	paths := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		paths[i] = v.Path
	}
	return paths
}

// SessionSnapshotSchema returns the embedded schema document.
func SessionSnapshotSchema() string {
	return sessionSnapshotSchema
}

// ValidateSnapshot checks an encoded session. Malformed JSON is a single
// violation at the root.
func ValidateSnapshot(data []byte) error {
	result, err := snapshotSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ValidationError{Violations: []Violation{{Path: "(root)", Reason: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		path := desc.Field()
		if path == "" {
			path = "(root)"
		}
		violations = append(violations, Violation{Path: path, Reason: desc.Description()})
	}
	return &ValidationError{Violations: violations}
}
