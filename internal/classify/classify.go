// Package classify maps the free text of a stewarding decision onto a
// penalty category and a short display label.
package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pitwall/stewarding/internal/model"
)

// rule binds a set of decision keywords to a penalty type. Rules are checked
// in order and the first hit wins, so the more specific phrasings sit above
// the generic ones. "stop and go" must outrank "second" because its duration
// is written in seconds too.
type rule struct {
	keywords []string
	penalty  model.PenaltyType
}

var rules = []rule{
	{[]string{"disqualif"}, model.PenaltyDisqualified},
	{[]string{"drive through", "drive-through"}, model.PenaltyDriveThrough},
	{[]string{"stop and go", "stop & go", "stop-and-go"}, model.PenaltyStopAndGo},
	{[]string{"pit lane"}, model.PenaltyPitLane},
	{[]string{"grid"}, model.PenaltyGrid},
	{[]string{"deleted"}, model.PenaltyTime},
	{[]string{"reinstated"}, model.PenaltyTime},
	{[]string{"second"}, model.PenaltyTime},
	{[]string{"fine", "€"}, model.PenaltyFine},
	{[]string{"warning"}, model.PenaltyWarning},
	{[]string{"reprimand"}, model.PenaltyReprimand},
}

// Penalty classifies decision text. Text that matches no rule classifies as
// PenaltyNone, never as an error.
func Penalty(text string) model.PenaltyType {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.penalty
			}
		}
	}
	return model.PenaltyNone
}

var (
	numberRe = regexp.MustCompile(`\d+`)
	amountRe = regexp.MustCompile(`€\s*([\d,.]+)`)
)

// numberWords covers the spelled-out counts that appear in grid and time
// penalties. Anything larger is always printed as digits.
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"fifteen": 15, "twenty": 20, "twenty-five": 25, "thirty": 30,
}

// Format renders a short display label for a classified decision. The label
// falls back to the bare penalty name when the text carries no usable
// quantity.
func Format(t model.PenaltyType, text string) string {
	lower := strings.ToLower(text)
	switch t {
	case model.PenaltyGrid:
		if strings.Contains(lower, "back of the grid") {
			return "Back of the Grid"
		}
		if n, ok := extractCount(lower); ok {
			return fmt.Sprintf("+ %d Places", n)
		}
	case model.PenaltyTime:
		if strings.Contains(lower, "deleted") {
			return "Lap Deleted"
		}
		if strings.Contains(lower, "reinstated") {
			return "Lap Reinstated"
		}
		if n, ok := extractCount(lower); ok {
			return fmt.Sprintf("+ %d seconds", n)
		}
	case model.PenaltyFine:
		if m := amountRe.FindStringSubmatch(text); m != nil {
			return "€" + m[1] + " Fine"
		}
	case model.PenaltyPitLane:
		return "pit lane start"
	}
	return string(t)
}

// extractCount pulls the first quantity out of the text, digits first, then
// spelled-out words.
func extractCount(lower string) (int, bool) {
	if m := numberRe.FindString(lower); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n, true
		}
	}
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == '.' || r == ','
	}) {
		if n, ok := numberWords[word]; ok {
			return n, true
		}
	}
	return 0, false
}
