package server

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/assessment-recommender/internal/filtering"
	"github.com/spigell/assessment-recommender/internal/recommender"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RecommendRequest is the POST /recommend body.
type RecommendRequest struct {
	Text string `json:"text" validate:"required_without=URL"`
	URL  string `json:"url" validate:"omitempty,http_url"`
}

// Validate trims the request and checks that it names a job to match.
func (r *RecommendRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	r.URL = strings.TrimSpace(r.URL)

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "URL":
		return &ValidationError{Field: "url", Message: "url must be a valid http(s) URL"}
	default:
		return &ValidationError{Field: "text", Message: recommender.ErrEmptyRequest.Error()}
	}
}

func (r *RecommendRequest) toRecommender() recommender.Request {
	return recommender.Request{Text: r.Text, URL: r.URL}
}

// AssessmentsQuery holds the optional GET /assessments filters.
type AssessmentsQuery struct {
	Query    string `form:"q"`
	TestType string `form:"test_type"`
	Remote   *bool  `form:"remote"`
	Adaptive *bool  `form:"adaptive"`
}

func (q AssessmentsQuery) criteria() filtering.Criteria {
	return filtering.Criteria{
		Query:    q.Query,
		TestType: q.TestType,
		Remote:   q.Remote,
		Adaptive: q.Adaptive,
	}
}
