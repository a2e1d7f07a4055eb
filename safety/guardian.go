// Package safety gates raw user input and tool executions against a
// deliberately simple, swappable rule set. Rules are ordered predicates;
// the first match denies and short-circuits.
package safety

import (
	"fmt"
	"strings"
)

// Reasons reported on denial.
const (
	ReasonForbiddenKeyword = "forbidden_keyword"
	ReasonProcessSpawn     = "process_spawn"
)

// InputRule inspects raw text. A denied result reports the reason.
type InputRule func(text string) (reason string, denied bool)

// ToolRule inspects a pending tool execution by name and argument payload.
type ToolRule func(toolName string, args map[string]any) (reason string, denied bool)

// forbiddenKeywords are destructive-command patterns denied anywhere in
// user input, case-insensitively.
var forbiddenKeywords = []string{
	"rm -rf",
	"delete database",
	"drop table",
	"system32",
}

// processSpawnMarkers deny tool arguments that smuggle process or OS
// invocation into a code-executing tool.
var processSpawnMarkers = []string{
	"os.system",
	"subprocess",
	"exec.command",
	"os/exec",
	"syscall.",
}

// Guardian evaluates the configured rules. The zero value is not useful;
// construct with NewGuardian or NewGuardianWithRules.
type Guardian struct {
	inputRules []InputRule
	toolRules  []ToolRule
}

// NewGuardian creates a guardian with the default rule set.
func NewGuardian() *Guardian {
	return NewGuardianWithRules(
		[]InputRule{DenySubstrings(ReasonForbiddenKeyword, forbiddenKeywords...)},
		[]ToolRule{DenyProcessSpawn("code_executor")},
	)
}

// NewGuardianWithRules creates a guardian with a custom ordered rule set.
// The rule set is expected to grow; callers can prepend or append without
// touching the evaluation logic.
func NewGuardianWithRules(inputRules []InputRule, toolRules []ToolRule) *Guardian {
	return &Guardian{inputRules: inputRules, toolRules: toolRules}
}

// CheckInput reports whether text is allowed. Binary decision, no scoring;
// the first matching rule denies.
func (g *Guardian) CheckInput(text string) (allowed bool, reason string) {
	for _, rule := range g.inputRules {
		if reason, denied := rule(text); denied {
			return false, reason
		}
	}
	return true, ""
}

// CheckToolExecution reports whether the named tool may run with the given
// arguments.
func (g *Guardian) CheckToolExecution(toolName string, args map[string]any) (allowed bool, reason string) {
	for _, rule := range g.toolRules {
		if reason, denied := rule(toolName, args); denied {
			return false, reason
		}
	}
	return true, ""
}

// DenySubstrings builds an input rule that denies when any needle occurs in
// the text, case-insensitively.
func DenySubstrings(reason string, needles ...string) InputRule {
	lowered := make([]string, len(needles))
	for i, n := range needles {
		lowered[i] = strings.ToLower(n)
	}
	return func(text string) (string, bool) {
		t := strings.ToLower(text)
		for _, n := range lowered {
			if strings.Contains(t, n) {
				return reason, true
			}
		}
		return "", false
	}
}

// DenyProcessSpawn builds a tool rule that denies process-spawn markers in
// any string argument of the named code-executing tools. With no names it
// applies to every tool.
func DenyProcessSpawn(toolNames ...string) ToolRule {
	applies := make(map[string]bool, len(toolNames))
	for _, n := range toolNames {
		applies[n] = true
	}
	return func(toolName string, args map[string]any) (string, bool) {
		if len(applies) > 0 && !applies[toolName] {
			return "", false
		}
		for _, v := range args {
			s, ok := v.(string)
			if !ok {
				s = fmt.Sprint(v)
			}
			lowered := strings.ToLower(s)
			for _, marker := range processSpawnMarkers {
				if strings.Contains(lowered, marker) {
					return ReasonProcessSpawn, true
				}
			}
		}
		return "", false
	}
}
