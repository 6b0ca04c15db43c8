package engine

import (
	"fmt"
	"slices"
	"strings"
)

// SummaryEntry is one picked map and the side chosen on it, if any. Map is
// empty for a side decision with no map right before it in the log.
type SummaryEntry struct {
	Map     string
	MapBy   Chooser
	Side    string
	SideBy  Chooser
	HasSide bool
}

func (e SummaryEntry) String() string {
	switch {
	case e.Map == "":
		return fmt.Sprintf("Side %s chosen by %s", e.Side, e.SideBy.Name)
	case e.HasSide:
		return fmt.Sprintf("%s chosen by %s / Side %s chosen by %s", e.Map, e.MapBy.Name, e.Side, e.SideBy.Name)
	default:
		return fmt.Sprintf("%s chosen by %s", e.Map, e.MapBy.Name)
	}
}

type Summary struct {
	Entries []SummaryEntry
	Banned  []string
}

// BuildSummary pairs each map decision with the side decision that directly
// follows it in the log.
func BuildSummary(log []Decision, banned []string) Summary {
	entries := []SummaryEntry{}
	for i := 0; i < len(log); i++ {
		d := log[i]
		switch d.Kind {
		case KindMap:
			entry := SummaryEntry{Map: d.Value, MapBy: d.By}
			if i+1 < len(log) && log[i+1].Kind == KindSide {
				entry.Side, entry.SideBy, entry.HasSide = log[i+1].Value, log[i+1].By, true
				i++
			}
			entries = append(entries, entry)
		case KindSide:
			entries = append(entries, SummaryEntry{Side: d.Value, SideBy: d.By, HasSide: true})
		}
	}
	return Summary{Entries: entries, Banned: slices.Clone(banned)}
}

func (s Summary) PickedLines() []string {
	lines := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		lines[i] = e.String()
	}
	return lines
}

func (s Summary) BannedLine() string {
	if len(s.Banned) == 0 {
		return "None"
	}
	return strings.Join(s.Banned, ", ")
}

func (s Summary) String() string {
	var b strings.Builder
	b.WriteString("Picked maps:\n")
	if len(s.Entries) == 0 {
		b.WriteString("None\n")
	}
	for _, line := range s.PickedLines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("Banned maps: ")
	b.WriteString(s.BannedLine())
	return b.String()
}
