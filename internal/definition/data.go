package definition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	errors "github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

// Criteria are the engine-judged success and early-termination conditions
type Criteria struct {
	CompleteCriterion  string `json:"complete_criterion"`
	TerminateCriterion string `json:"terminate_criterion"`
}

// NavigationData is the payload of a navigation block
type NavigationData struct {
	NavigationGoal string `json:"navigation_goal"`
	URL            string `json:"url"`
	Criteria
}

// LoginData is the payload of a login block
type LoginData struct {
	NavigationGoal string `json:"navigation_goal"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Criteria
}

// TaskData is the payload of a task block
type TaskData struct {
	NavigationGoal       string                 `json:"navigation_goal"`
	DataExtractionSchema map[string]interface{} `json:"data_extraction_schema,omitempty"`
	Criteria
}

// ValidationData is the payload of a validation block
type ValidationData struct {
	ValidationGoal   string                 `json:"validation_goal"`
	ValidationSchema map[string]interface{} `json:"validation_schema"`
	Criteria
}

// ForLoopData is the payload of a for_loop block
type ForLoopData struct {
	// Reference resolving to a sequence, e.g. {{scan_output.items}}
	LoopOver string `json:"loop_over"`

	// Name binding each element inside the loop body
	LoopVariable string `json:"loop_variable"`

	// Upper bound on iterations
	MaxIterations Quantity `json:"max_iterations"`
}

// WaitData is the payload of a wait block
type WaitData struct {
	WaitSeconds Quantity `json:"wait_seconds"`
}

// Quantity is either a literal integer or a single placeholder reference
// resolved by the execution engine.
type Quantity struct {
	// Ref is the full placeholder text, e.g. "{{max_surveys_per_run}}"
	Ref string

	// Value is the literal, used when Ref is empty
	Value int
}

// Literal returns a literal quantity
func Literal(n int) Quantity {
	return Quantity{Value: n}
}

// Ref returns a quantity referencing the given parameter or output path
func Ref(path string) Quantity {
	return Quantity{Ref: "{{" + path + "}}"}
}

// IsRef reports whether q is a placeholder reference
func (q Quantity) IsRef() bool {
	return q.Ref != ""
}

// String returns the placeholder or the literal in decimal
func (q Quantity) String() string {
	if q.IsRef() {
		return q.Ref
	}
	return strconv.Itoa(q.Value)
}

// MarshalJSON encodes a reference as a string and a literal as a number
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.IsRef() {
		return json.Marshal(q.Ref)
	}
	return json.Marshal(q.Value)
}

// UnmarshalJSON accepts a number, a numeric string or a placeholder string
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if strings.Contains(s, "{{") {
			*q = Quantity{Ref: s}
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: %q is neither an integer nor a placeholder", errors.ErrInvalidArgument, s)
		}
		*q = Quantity{Value: n}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s is not an integer", errors.ErrInvalidArgument, string(data))
	}
	*q = Quantity{Value: n}
	return nil
}

// requireText adds a SchemaError for every blank required field
func requireText(block string, fields map[string]string) []error {
	var errs []error
	for _, name := range sortedKeys(fields) {
		if strings.TrimSpace(fields[name]) == "" {
			errs = append(errs, &errors.SchemaError{
				Block:   block,
				Field:   "data." + name,
				Message: "required field is missing or blank",
			})
		}
	}
	return errs
}

// checkQuantity requires a positive literal or exactly one placeholder
func checkQuantity(block, field string, q Quantity) error {
	if q.IsRef() {
		tokens, err := ScanString(q.Ref)
		if err != nil || len(tokens) != 1 || tokens[0].Raw != q.Ref {
			return &errors.SchemaError{
				Block:   block,
				Field:   "data." + field,
				Message: fmt.Sprintf("%q must be exactly one placeholder", q.Ref),
			}
		}
		return nil
	}
	if q.Value <= 0 {
		return &errors.SchemaError{
			Block:   block,
			Field:   "data." + field,
			Message: fmt.Sprintf("must be a positive integer or a placeholder reference, got %d", q.Value),
		}
	}
	return nil
}

func (c Criteria) fields() map[string]string {
	return map[string]string{
		"complete_criterion":  c.CompleteCriterion,
		"terminate_criterion": c.TerminateCriterion,
	}
}

func merge(a, b map[string]string) map[string]string {
	for k, v := range b {
		a[k] = v
	}
	return a
}

func (b *NavigationBlock) checkPayload() []error {
	return requireText(b.Name, merge(map[string]string{
		"navigation_goal": b.Data.NavigationGoal,
		"url":             b.Data.URL,
	}, b.Data.fields()))
}

func (b *LoginBlock) checkPayload() []error {
	return requireText(b.Name, merge(map[string]string{
		"navigation_goal": b.Data.NavigationGoal,
		"username":        b.Data.Username,
		"password":        b.Data.Password,
	}, b.Data.fields()))
}

func (b *TaskBlock) checkPayload() []error {
	return requireText(b.Name, merge(map[string]string{
		"navigation_goal": b.Data.NavigationGoal,
	}, b.Data.fields()))
}

func (b *ValidationBlock) checkPayload() []error {
	errs := requireText(b.Name, merge(map[string]string{
		"validation_goal": b.Data.ValidationGoal,
	}, b.Data.fields()))
	if len(b.Data.ValidationSchema) == 0 {
		errs = append(errs, &errors.SchemaError{
			Block:   b.Name,
			Field:   "data.validation_schema",
			Message: "validation schema must be a non-empty object",
		})
	}
	return errs
}

func (b *ForLoopBlock) checkPayload() []error {
	errs := requireText(b.Name, map[string]string{
		"loop_over":     b.Data.LoopOver,
		"loop_variable": b.Data.LoopVariable,
	})
	if v := b.Data.LoopVariable; v != "" && !identifierPattern.MatchString(v) {
		errs = append(errs, &errors.SchemaError{
			Block:   b.Name,
			Field:   "data.loop_variable",
			Message: fmt.Sprintf("%q is not a valid identifier", v),
		})
	}
	if err := checkQuantity(b.Name, "max_iterations", b.Data.MaxIterations); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (b *WaitBlock) checkPayload() []error {
	if err := checkQuantity(b.Name, "wait_seconds", b.Data.WaitSeconds); err != nil {
		return []error{err}
	}
	return nil
}
