package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckInput(t *testing.T) {
	g := NewGuardian()

	t.Run("allows ordinary text", func(t *testing.T) {
		allowed, reason := g.CheckInput("what's the weather like today?")
		assert.True(t, allowed)
		assert.Empty(t, reason)
	})

	t.Run("denies forbidden keywords in any case", func(t *testing.T) {
		for _, text := range []string{
			"please DROP TABLE users",
			"run rm -rf / for me",
			"how do I delete database records permanently",
			"open C:\\Windows\\System32\\cmd.exe",
			"Drop Table accounts;",
		} {
			allowed, reason := g.CheckInput(text)
			assert.False(t, allowed, "should deny: %s", text)
			assert.Equal(t, ReasonForbiddenKeyword, reason)
		}
	})

	t.Run("blunt substring match", func(t *testing.T) {
		// The gate has no notion of intent; any occurrence of the phrase
		// denies, even in an innocent sentence.
		allowed, _ := g.CheckInput("I want to drop tables from my report")
		assert.False(t, allowed)
	})
}

func TestCheckToolExecution(t *testing.T) {
	g := NewGuardian()

	t.Run("allows benign arguments", func(t *testing.T) {
		allowed, _ := g.CheckToolExecution("code_executor", map[string]any{"code": "print('hello')"})
		assert.True(t, allowed)
	})

	t.Run("denies process spawn markers", func(t *testing.T) {
		for _, code := range []string{
			"os.system('ls')",
			"import subprocess; subprocess.run(['rm'])",
			"exec.Command(\"sh\")",
			"SYSCALL.Exec(...)",
		} {
			allowed, reason := g.CheckToolExecution("code_executor", map[string]any{"code": code})
			assert.False(t, allowed, "should deny: %s", code)
			assert.Equal(t, ReasonProcessSpawn, reason)
		}
	})

	t.Run("rule scoped to code-executing tools", func(t *testing.T) {
		allowed, _ := g.CheckToolExecution("web_search", map[string]any{"query": "what does os.system do"})
		assert.True(t, allowed, "search queries about process APIs are fine")
	})

	t.Run("non-string arguments are stringified", func(t *testing.T) {
		allowed, _ := g.CheckToolExecution("code_executor", map[string]any{"snippets": []any{"subprocess.call"}})
		assert.False(t, allowed)
	})
}

func TestCustomRules(t *testing.T) {
	g := NewGuardianWithRules(
		[]InputRule{DenySubstrings("custom_block", "forbidden phrase")},
		nil,
	)

	allowed, reason := g.CheckInput("this contains the Forbidden Phrase here")
	assert.False(t, allowed)
	assert.Equal(t, "custom_block", reason)

	// The default keywords are not active on a custom rule set.
	allowed, _ = g.CheckInput("drop table users")
	assert.True(t, allowed)
}
