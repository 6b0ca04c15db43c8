package engine

import "slices"

// Preset is a ready-made template for the common seven-map formats.
type Preset struct {
	Name    string
	Maps    []string
	Program RuleProgram
}

var DefaultMapPool = []string{"Ascent", "Bind", "Breeze", "Haven", "Lotus", "Split", "Sunset"}

var Presets = []Preset{
	// Best of one: six alternating bans, the last map goes to the decider.
	{
		Name: "bo1",
		Maps: DefaultMapPool,
		Program: NewRuleProgram(
			StepBan, StepBan, StepBan, StepBan, StepBan, StepBan,
			StepPick, StepSide,
		),
	},
	// Best of three: two bans, two picks with sides, two bans, decider.
	{
		Name: "bo3",
		Maps: DefaultMapPool,
		Program: NewRuleProgram(
			StepBan, StepBan,
			StepPick, StepSide,
			StepPick, StepSide,
			StepBan, StepBan,
			StepPick, StepSide,
		),
	},
	// Best of five: two bans, four picks with sides, decider.
	{
		Name: "bo5",
		Maps: DefaultMapPool,
		Program: NewRuleProgram(
			StepBan, StepBan,
			StepPick, StepSide,
			StepPick, StepSide,
			StepPick, StepSide,
			StepPick, StepSide,
			StepPick, StepSide,
		),
	},
}

func LookupPreset(name string) (Preset, bool) {
	idx := slices.IndexFunc(Presets, func(p Preset) bool { return p.Name == name })
	if idx < 0 {
		return Preset{}, false
	}
	return Presets[idx], true
}
