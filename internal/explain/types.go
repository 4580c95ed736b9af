package explain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PedagogicalResult is the structured explanation and quiz for one section.
type PedagogicalResult struct {
	InquiryQuestion string      `json:"inquiryQuestion,omitempty"`
	Explanation     Explanation `json:"explanation"`
	ScaffoldedQuiz  Quiz        `json:"scaffoldedQuiz"`
}

// Explanation is the prose part of a result.
type Explanation struct {
	Introduction string `json:"introduction,omitempty"`
	CoreConcepts string `json:"coreConcepts" validate:"required"`
}

// Quiz is an ordered list of multiple-choice questions.
type Quiz struct {
	Questions []Question `json:"questions" validate:"min=1,max=4,dive"`
}

// Question is one multiple-choice question. Answer must equal one of
// Options verbatim.
type Question struct {
	ID      QuestionID `json:"id"`
	Text    string     `json:"text" validate:"required"`
	Options []string   `json:"options" validate:"min=1,max=4"`
	Answer  string     `json:"answer" validate:"required"`
}

// QuestionID accepts either a JSON string or a JSON number and always
// marshals as a string.
type QuestionID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question id must be a string or number: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

// fillQuestionIDs assigns positional ids to questions that came without one.
func (r *PedagogicalResult) fillQuestionIDs() {
	for i := range r.ScaffoldedQuiz.Questions {
		if r.ScaffoldedQuiz.Questions[i].ID == "" {
			r.ScaffoldedQuiz.Questions[i].ID = QuestionID("q" + strconv.Itoa(i+1))
		}
	}
}

// Result holds exactly one of a PedagogicalResult or an error.
type Result struct {
	data *PedagogicalResult
	err  error
}

// Success wraps a successful explanation.
func Success(data *PedagogicalResult) Result {
	return Result{data: data}
}

// Failure wraps a failed explanation.
func Failure(err error) Result {
	if err == nil {
		err = &Error{Kind: KindModel, Detail: "unknown failure"}
	}
	return Result{err: err}
}

// OK reports whether the result holds data.
func (r Result) OK() bool { return r.err == nil && r.data != nil }

// Data returns the explanation, or nil for a failure.
func (r Result) Data() *PedagogicalResult { return r.data }

// Err returns the failure, or nil for a success.
func (r Result) Err() error {
	if r.err == nil && r.data == nil {
		return &Error{Kind: KindModel, Detail: "empty result"}
	}
	return r.err
}

// MarshalJSON encodes a success as the PedagogicalResult itself and a
// failure as {"error": "<message>"}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.OK() {
		return json.Marshal(r.data)
	}
	return json.Marshal(struct {
		Error string `json:"error"`
	}{Error: r.Err().Error()})
}
