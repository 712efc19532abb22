package triggers

import (
	"regexp"
	"sort"
	"strings"
)

// Semantic trigger labels produced by Detect.
const (
	Postpone       = "postpone"
	PriceObjection = "price_objection"
	ChoseOther     = "chose_other"
	Refusal        = "refusal"
)

// families maps each label to its pattern set. Matching is per-family
// independent: one message can carry several labels at once.
var families = map[string][]string{
	Postpone: {
		`\bin\s+a\s+week\b`,
		`\bnext\s+week\b`,
		`\blater\b`,
		`\blet'?s\s+talk\s+later\b`,
		`\bwe'?ll\s+get\s+back\s+to\s+it\b`,
		`\bpostpone\b`,
		`\bput\s+(?:it|this)\s+off\b`,
	},
	PriceObjection: {
		`\btoo\s+expensive\b`,
		`\bno\s+budget\b`,
		`\bover\s+(?:our|the)\s+budget\b`,
	},
	ChoseOther: {
		`\bchose\s+someone\s+else\b`,
		`\bwent\s+with\b`,
		`\bdecided\s+on\s+another\b`,
	},
	Refusal: {
		`\brefus\w*\b`,
		`\bnot\s+interested\b`,
		`\bdeclin\w*\b`,
	},
}

var compiled = compile(families)

func compile(fams map[string][]string) map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp, len(fams))
	for label, pats := range fams {
		res := make([]*regexp.Regexp, len(pats))
		for i, p := range pats {
			res[i] = regexp.MustCompile(p)
		}
		out[label] = res
	}
	return out
}

// Detect scans a customer message for known intent signals and returns the
// sorted set of matched labels. Empty input yields an empty result.
func Detect(text string) []string {
	if text == "" {
		return nil
	}
	t := strings.ToLower(text)

	var labels []string
	for label, res := range compiled {
		for _, re := range res {
			if re.MatchString(t) {
				labels = append(labels, label)
				break
			}
		}
	}
	sort.Strings(labels)
	return labels
}
