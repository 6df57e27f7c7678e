// Package fixture models the declarative conformance corpus: fixture files,
// test groups, cases, and the flattened test cases the runner executes.
//
// A fixture file is a JSON array of groups. Each group shares one input
// document (`given`) across an ordered list of cases, and each case expects
// either a concrete result value or an error-kind token — never both.
package fixture

import (
	"encoding/json"
	"fmt"

	"github.com/evalcheck/evalcheck/pkg/types"
)

// Expectation is the tagged union of the two case shapes: a success case
// expecting a value, or an error case expecting a stderr token.
type Expectation interface {
	expectation()
}

// ValueExpectation expects the evaluator to print a JSON value on stdout
// that is deep-equal to Result.
type ValueExpectation struct {
	// Result keeps the raw source bytes so the expected value can be
	// re-rendered exactly as written in the fixture.
	Result json.RawMessage
}

// ErrorExpectation expects Token to appear as a substring anywhere in the
// evaluator's stderr.
type ErrorExpectation struct {
	Token string
}

func (ValueExpectation) expectation() {}
func (ErrorExpectation) expectation() {}

// Case is one test case inside a group.
type Case struct {
	Expression string
	Expect     Expectation
}

// UnmarshalJSON enforces the case shape at decode time: an expression
// plus exactly one of `result` / `error`.
func (c *Case) UnmarshalJSON(data []byte) error {
	var raw struct {
		Expression *string         `json:"expression"`
		Result     json.RawMessage `json:"result"`
		Error      *string         `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Expression == nil {
		return types.NewError(types.ErrCaseShape, "case has no expression")
	}
	// A literal `"result": null` decodes to the 4-byte message "null",
	// so absence is distinguishable from an expected null result.
	hasResult := raw.Result != nil
	hasError := raw.Error != nil
	switch {
	case hasResult && hasError:
		return types.Errorf(types.ErrCaseShape, "case %q has both result and error", *raw.Expression)
	case !hasResult && !hasError:
		return types.Errorf(types.ErrCaseShape, "case %q has neither result nor error", *raw.Expression)
	}

	c.Expression = *raw.Expression
	if hasResult {
		c.Expect = ValueExpectation{Result: raw.Result}
	} else {
		c.Expect = ErrorExpectation{Token: *raw.Error}
	}
	return nil
}

// Group is one test group: a shared input document plus its cases.
// The group's position within its file is its 0-based group number.
type Group struct {
	// Given keeps the raw source bytes: some fixtures rely on the document
	// reaching the evaluator with its key order intact, so the original
	// serialization must survive loading.
	Given json.RawMessage `json:"given"`
	Cases []Case          `json:"cases"`
}

// File is one loaded fixture file: a category's worth of test groups.
type File struct {
	Category string
	Path     string
	Groups   []Group
}

// FlatCase is the unit of selection and execution: a case enriched with its
// category and 0-based group/test position. (Category, Group, Test) uniquely
// identifies a case across the corpus.
type FlatCase struct {
	Category   string
	Group      int
	Test       int
	Given      json.RawMessage
	Expression string
	Expect     Expectation
}

// ID returns the selector-compatible "category,group,test" triple, suitable
// for re-running exactly this case.
func (c FlatCase) ID() string {
	return fmt.Sprintf("%s,%d,%d", c.Category, c.Group, c.Test)
}
