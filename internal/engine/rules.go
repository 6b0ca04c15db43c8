package engine

import (
	"fmt"
	"strings"
)

type StepType int

const (
	StepBan StepType = iota
	StepPick
	StepSide
	StepContinue
)

func (s StepType) String() string {
	switch s {
	case StepBan:
		return "Ban"
	case StepPick:
		return "Pick"
	case StepSide:
		return "Side"
	case StepContinue:
		return "Continue"
	default:
		return fmt.Sprintf("StepType(%d)", int(s))
	}
}

// ParseStep is case-sensitive: templates are written as "Ban", "Pick", "Side", "Continue".
func ParseStep(token string) (StepType, error) {
	switch token {
	case "Ban":
		return StepBan, nil
	case "Pick":
		return StepPick, nil
	case "Side":
		return StepSide, nil
	case "Continue":
		return StepContinue, nil
	default:
		return 0, fmt.Errorf("%w: unknown step %q", ErrInvalidRule, token)
	}
}

// RuleProgram is the fixed script a session walks through. It is never
// mutated after construction, so sessions may share one.
type RuleProgram struct {
	steps []StepType
}

func NewRuleProgram(steps ...StepType) RuleProgram {
	return RuleProgram{steps: append([]StepType(nil), steps...)}
}

func ParseRules(tokens []string) (RuleProgram, error) {
	steps := make([]StepType, 0, len(tokens))
	for i, tok := range tokens {
		step, err := ParseStep(strings.TrimSpace(tok))
		if err != nil {
			return RuleProgram{}, fmt.Errorf("rule %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return RuleProgram{steps: steps}, nil
}

func (p RuleProgram) Len() int { return len(p.steps) }

// StepAt returns false once index runs past the end of the program.
func (p RuleProgram) StepAt(index int) (StepType, bool) {
	if index < 0 || index >= len(p.steps) {
		return 0, false
	}
	return p.steps[index], true
}

func (p RuleProgram) Steps() []StepType {
	return append([]StepType(nil), p.steps...)
}

func (p RuleProgram) Tokens() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.String()
	}
	return out
}

func (p RuleProgram) Counts() (bans, picks, sides int) {
	for _, s := range p.steps {
		switch s {
		case StepBan:
			bans++
		case StepPick:
			picks++
		case StepSide:
			sides++
		case StepContinue:
		}
	}
	return bans, picks, sides
}

// Validate rejects programs the summary cannot attribute: every Side must
// follow a Pick (only Continue steps may sit between them) and a Pick owns
// at most one Side. A program may not open with Continue.
func (p RuleProgram) Validate() error {
	if len(p.steps) > 0 && p.steps[0] == StepContinue {
		return fmt.Errorf("%w: program starts with Continue", ErrInvalidRule)
	}

	sideOpen := false // a Pick is waiting for its Side
	for i, s := range p.steps {
		switch s {
		case StepPick:
			sideOpen = true
		case StepSide:
			if !sideOpen {
				return fmt.Errorf("%w: Side at step %d has no preceding Pick", ErrInvalidRule, i)
			}
			sideOpen = false
		case StepBan:
			sideOpen = false
		case StepContinue:
		}
	}
	return nil
}

func (p RuleProgram) String() string {
	return strings.Join(p.Tokens(), " ")
}
