package screening

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Pattern is one jailbreak detection rule: a case-insensitive regular
// expression tagged with the attack family it belongs to. The pattern set is
// configuration data, not business logic, and can be replaced wholesale from
// a YAML file without touching code.
type Pattern struct {
	Family string `yaml:"family"`
	Expr   string `yaml:"expr"`
}

type compiledPattern struct {
	family string
	re     *regexp.Regexp
}

// DefaultPatterns is the built-in detection set, covering the common
// jailbreak techniques seen against chat endpoints. Expressions are matched
// case-insensitively as substring searches.
var DefaultPatterns = []Pattern{
	// Direct attempts to discard instructions
	{Family: "instruction-override", Expr: `(ignore|forget|disregard).{0,20}(previous|above|all).{0,20}(instructions?|rules?|prompts?)`},
	{Family: "instruction-override", Expr: `(ignore|forget|disregard).{0,20}(system|assistant).{0,20}(prompt|message|instructions?)`},

	// DAN and similar jailbroken personas
	{Family: "role-override", Expr: `\bDAN\b.{0,30}(mode|jailbreak|anything)`},
	{Family: "role-override", Expr: `(you are|act as|pretend).{0,20}(DAN|jailbroken|unrestricted|unfiltered)`},

	// Attempts to redefine the assistant's role
	{Family: "role-override", Expr: `(new|your).{0,10}(instruction|rule|role).{0,10}(is|are|:)`},
	{Family: "role-override", Expr: `(from now on|starting now).{0,30}(you|ignore|forget)`},

	// Privileged-mode phrasing
	{Family: "privileged-mode", Expr: `(developer|dev|admin|sudo|root).{0,10}(mode|access|override)`},
	{Family: "privileged-mode", Expr: `(enable|activate|enter).{0,20}(jailbreak|unrestricted|developer)`},

	// Roleplay without rules
	{Family: "roleplay", Expr: `(roleplay|pretend|imagine).{0,30}(no.{0,10}(rules|restrictions|limits))`},

	// Encoded payloads
	{Family: "encoded-payload", Expr: `(decode|base64|execute).{0,20}(following|this|instruction)`},

	// Hypothetical framing
	{Family: "hypothetical", Expr: `(hypothetically|theoretically|in theory).{0,30}(if you (could|were|had))`},

	// Prompt injection via delimiters
	{Family: "delimiter-injection", Expr: `(\[SYSTEM\]|\[ADMIN\]|\[OVERRIDE\]|###\s*SYSTEM)`},

	// Russian-language equivalents
	{Family: "instruction-override-ru", Expr: `(игнорируй|забудь|отмени).{0,20}(предыдущие|все|системные).{0,20}(инструкции|правила|указания)`},
	{Family: "role-override-ru", Expr: `(ты теперь|отныне ты|представь что ты).{0,30}(без ограничений|можешь всё|не имеешь правил)`},
}

// patternsFile is the on-disk shape of a swappable pattern set.
type patternsFile struct {
	Patterns []Pattern `yaml:"patterns"`
}

// LoadPatterns reads a pattern set from a YAML file:
//
//	patterns:
//	  - family: instruction-override
//	    expr: (ignore|forget).{0,20}instructions?
func LoadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file: %w", err)
	}
	var f patternsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse patterns file %s: %w", path, err)
	}
	if len(f.Patterns) == 0 {
		return nil, fmt.Errorf("patterns file %s contains no patterns", path)
	}
	return f.Patterns, nil
}

func compilePatterns(patterns []Pattern) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid jailbreak pattern %q (family %s): %w", p.Expr, p.Family, err)
		}
		compiled = append(compiled, compiledPattern{family: p.Family, re: re})
	}
	return compiled, nil
}
