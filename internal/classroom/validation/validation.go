// Package validation holds the request-body schemas for each resource and a
// small helper that turns schema violations into ValidationError values.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"classroom/internal/domain"
)

func mustCompile(name, schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("compiling %s schema: %v", name, err))
	}
	return s
}

// Compiled request-body schemas, one per resource plus the admin claim body.
var (
	Student     = mustCompile("student", studentSchema)
	Course      = mustCompile("course", courseSchema)
	Assignment  = mustCompile("assignment", assignmentSchema)
	User        = mustCompile("user", userSchema)
	AdminClaims = mustCompile("adminClaims", adminClaimsSchema)
)

// Validate checks doc against schema and reports failures as a single
// ValidationError with the violation messages joined.
func Validate(schema *gojsonschema.Schema, doc map[string]any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return domain.New(domain.KindValidation, "Validation error: "+err.Error())
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return domain.New(domain.KindValidation, "Validation error: "+strings.Join(msgs, ", "))
}

const studentSchema = `{
	"type": "object",
	"required": ["name", "email", "GPA"],
	"properties": {
		"id":    {"type": "string", "minLength": 1},
		"name":  {"type": "string", "minLength": 1},
		"email": {"type": "string", "format": "email"},
		"GPA":   {"type": "number", "minimum": 0, "maximum": 4.5}
	},
	"additionalProperties": false
}`

const courseSchema = `{
	"type": "object",
	"required": ["name", "room", "studentCount"],
	"properties": {
		"id":           {"type": "string", "minLength": 1},
		"name":         {"type": "string", "minLength": 1},
		"room":         {"type": "string", "minLength": 1},
		"studentCount": {"type": "integer", "minimum": 0}
	},
	"additionalProperties": false
}`

const assignmentSchema = `{
	"type": "object",
	"required": ["name", "subject", "dueDate", "status"],
	"properties": {
		"id":          {"type": "string", "minLength": 1},
		"name":        {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"subject":     {"type": "string", "minLength": 1},
		"dueDate":     {"type": "string", "format": "date-time"},
		"status":      {"type": "string", "enum": ["ongoing", "closed", "graded", "pending"]}
	},
	"additionalProperties": false
}`

const userSchema = `{
	"type": "object",
	"required": ["name", "email"],
	"properties": {
		"id":    {"type": "string", "minLength": 1},
		"name":  {"type": "string", "minLength": 1},
		"email": {"type": "string", "format": "email"},
		"role":  {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

const adminClaimsSchema = `{
	"type": "object",
	"required": ["uid", "role"],
	"properties": {
		"uid":  {"type": "string", "minLength": 1},
		"role": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`
