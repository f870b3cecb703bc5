// Package agents ships the built-in agent roster. These load at the
// lowest precedence, so a user or project file with the same name
// replaces them entirely.
package agents

import (
	"fmt"

	"github.com/vinayprograms/delegate/internal/spec"
)

const reviewerInstructions = `You are a code reviewer. Read the files or diff you are pointed at
and report concrete findings: bugs, missing error handling, race
conditions, unclear naming, and behavior that contradicts nearby
documentation. Cite file and line for every finding. Do not rewrite
code; describe what is wrong and why it matters.`

const testerInstructions = `You are a test engineer. Study the code under test, then write or
extend tests that pin down its observable behavior, including error
paths and edge cases. Run the test suite when a runner is available
and report failures verbatim.`

const codeWriterInstructions = `You are an implementer. Make the requested change with the smallest
diff that fully solves the problem, matching the style of the
surrounding code. Leave unrelated code untouched and report every
file you modified.`

// Builtins returns the built-in roster. Each call returns freshly
// built specs so callers can't mutate shared state.
func Builtins() []*spec.Spec {
	reviewer, err := spec.NewBuilder("reviewer").
		Description("Reviews code changes and reports findings").
		Keywords("review", "diff", "feedback", "critique").
		Tools("read", "grep", "glob", "ls").
		Instructions(reviewerInstructions).
		Source(spec.SourceBuiltin).
		Build()
	if err != nil {
		panic(fmt.Sprintf("builtin reviewer spec invalid: %v", err))
	}

	tester, err := spec.NewBuilder("tester").
		Description("Writes and runs tests for existing code").
		Keywords("test", "coverage", "regression").
		Tools("read", "grep", "glob", "ls", "write", "edit", "bash").
		Instructions(testerInstructions).
		Source(spec.SourceBuiltin).
		Build()
	if err != nil {
		panic(fmt.Sprintf("builtin tester spec invalid: %v", err))
	}

	writer, err := spec.NewBuilder("code-writer").
		Description("Implements requested code changes").
		Keywords("implement", "fix", "refactor", "add").
		Tools("read", "grep", "glob", "ls", "write", "edit").
		Instructions(codeWriterInstructions).
		Source(spec.SourceBuiltin).
		Build()
	if err != nil {
		panic(fmt.Sprintf("builtin code-writer spec invalid: %v", err))
	}

	return []*spec.Spec{reviewer, tester, writer}
}
