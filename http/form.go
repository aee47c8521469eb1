package http

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"houseprice/ml"
)

// FormError is a missing or malformed prediction field. It maps to 400.
type FormError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *FormError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// formValues keeps the submitted strings so the form can be re-rendered.
type formValues struct {
	Location  string
	TotalSqft string
	BHK       string
	Bath      string
}

// readFormValues parses the body and records which fields were sent.
func readFormValues(r *http.Request) (formValues, map[string]bool, error) {
	if err := r.ParseForm(); err != nil {
		return formValues{}, nil, &FormError{Field: "form", Reason: err.Error()}
	}
	present := make(map[string]bool, 4)
	for _, field := range []string{"total_sqft", "location", "bhk", "bath"} {
		_, present[field] = r.PostForm[field]
	}
	return formValues{
		Location:  r.PostForm.Get("location"),
		TotalSqft: r.PostForm.Get("total_sqft"),
		BHK:       r.PostForm.Get("bhk"),
		Bath:      r.PostForm.Get("bath"),
	}, present, nil
}

// parsePredictionForm converts form fields; fields are checked in the order
// total_sqft, location, bhk, bath.
func parsePredictionForm(values formValues, present map[string]bool) (ml.FeatureRequest, error) {
	var req ml.FeatureRequest

	if !present["total_sqft"] {
		return req, &FormError{Field: "total_sqft", Reason: "is required"}
	}
	sqft, err := parseSqft(values.TotalSqft)
	if err != nil {
		return req, err
	}
	if !present["location"] {
		return req, &FormError{Field: "location", Reason: "is required"}
	}
	if !present["bhk"] {
		return req, &FormError{Field: "bhk", Reason: "is required"}
	}
	bhk, err := parseCount("bhk", values.BHK)
	if err != nil {
		return req, err
	}
	if !present["bath"] {
		return req, &FormError{Field: "bath", Reason: "is required"}
	}
	bath, err := parseCount("bath", values.Bath)
	if err != nil {
		return req, err
	}

	req.Location = values.Location
	req.TotalSqft = sqft
	req.BHK = bhk
	req.Bath = bath
	return req, nil
}

// parseSqft accepts any finite number.
func parseSqft(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FormError{Field: "total_sqft", Reason: "must be a number"}
	}
	return v, nil
}

// parseCount accepts integers only.
func parseCount(field, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &FormError{Field: field, Reason: "must be an integer"}
	}
	return v, nil
}

// predictRequest is the JSON body for /api/predict and websocket frames.
// Pointers distinguish a missing field from a zero.
type predictRequest struct {
	Location  *string  `json:"location"`
	TotalSqft *float64 `json:"total_sqft"`
	BHK       *int     `json:"bhk"`
	Bath      *int     `json:"bath"`
}

// featureRequest checks presence in the same order as the form.
func (p predictRequest) featureRequest() (ml.FeatureRequest, error) {
	switch {
	case p.TotalSqft == nil:
		return ml.FeatureRequest{}, &FormError{Field: "total_sqft", Reason: "is required"}
	case p.Location == nil:
		return ml.FeatureRequest{}, &FormError{Field: "location", Reason: "is required"}
	case p.BHK == nil:
		return ml.FeatureRequest{}, &FormError{Field: "bhk", Reason: "is required"}
	case p.Bath == nil:
		return ml.FeatureRequest{}, &FormError{Field: "bath", Reason: "is required"}
	}
	return ml.FeatureRequest{
		Location:  *p.Location,
		TotalSqft: *p.TotalSqft,
		BHK:       *p.BHK,
		Bath:      *p.Bath,
	}, nil
}

// formatPrice prints a price the way the result line has always shown it:
// shortest form, at least one decimal.
func formatPrice(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
