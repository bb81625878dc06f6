package service

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/jonathan/mock-interview/internal/schemas"
	"github.com/jonathan/mock-interview/internal/types"
)

// DecodeReport decodes an end-of-interview report payload.
// The payload is either a JSON string holding the encoded report document or
// the document itself. Code fences around the document are removed. Any
// failure is returned as *MalformedReport.
func DecodeReport(payload []byte) (*types.Report, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, &MalformedReport{Message: "report payload is empty"}
	}

	doc := string(payload)
	if payload[0] == '"' {
		var encoded string
		if err := json.Unmarshal(payload, &encoded); err != nil {
			return nil, &MalformedReport{Message: "report payload is not a valid JSON string", Cause: err}
		}
		doc = encoded
	}
	doc = cleanJSONBlock(doc)
	if doc == "" {
		return nil, &MalformedReport{Message: "report document is empty"}
	}

	if err := schemas.ValidateReport(doc); err != nil {
		return nil, &MalformedReport{Message: "report document does not match schema", Cause: err}
	}

	var report types.Report
	if err := json.Unmarshal([]byte(doc), &report); err != nil {
		return nil, &MalformedReport{Message: "failed to decode report document", Cause: err}
	}
	if err := report.Validate(); err != nil {
		return nil, &MalformedReport{Message: "report scores out of range", Cause: err}
	}

	return &report, nil
}

// DecodeReportDocument decodes a saved document that is either the
// end-of-interview response envelope or a report payload on its own.
func DecodeReportDocument(data []byte) (*types.Report, error) {
	var envelope endInterviewResponse
	if err := json.Unmarshal(bytes.TrimSpace(data), &envelope); err == nil {
		if envelope.Error != "" {
			return nil, &ServiceError{Op: OpEndInterview, StatusCode: http.StatusOK, Detail: envelope.Error}
		}
		if len(envelope.Report) > 0 {
			return DecodeReport(envelope.Report)
		}
	}
	return DecodeReport(data)
}
