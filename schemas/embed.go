// Package schemas embeds the JSON Schema documents for payloads exchanged with the interviewer service.
package schemas

import _ "embed"

// Report is the JSON Schema for the decoded end-of-interview report document.
//
//go:embed report.schema.json
var Report string
