package extract

import "regexp"

// Category is the semantic role a text fragment plays in a report.
type Category string

const (
	Core       Category = "core"
	Common     Category = "common"
	Diff       Category = "diff"
	Evidence   Category = "evidence"
	Conclusion Category = "conclusion"
	Intro      Category = "intro"
)

// Categories lists every category in canonical order. Candidates matching
// several categories are filed in this order.
var Categories = []Category{Core, Common, Diff, Evidence, Conclusion, Intro}

var patterns = map[Category][]*regexp.Regexp{
	Core: {
		regexp.MustCompile(`(?i)thesis`),
		regexp.MustCompile(`(?i)main[\s_-]*(claim|argument|idea)`),
		regexp.MustCompile(`(?i)central[\s_-]*claim`),
		regexp.MustCompile(`핵심\s*_?\s*주장`),
		regexp.MustCompile(`중심\s*주장`),
		regexp.MustCompile(`주제문|요지`),
	},
	Common: {
		regexp.MustCompile(`(?i)\b(common|similar(ity|ities)?|shared|both)\b`),
		regexp.MustCompile(`공통|유사`),
		regexp.MustCompile(`둘\s*다`),
	},
	Diff: {
		regexp.MustCompile(`(?i)differ(ence|ences|ent|s)?|contrast|unlike|whereas`),
		regexp.MustCompile(`차이|대조|반면|다른\s`),
	},
	Evidence: {
		regexp.MustCompile(`(?i)evidence|\bdata\b|statistic|citation|\bexample`),
		regexp.MustCompile(`근거|증거|사례|데이터|통계|인용|출처`),
	},
	Conclusion: {
		regexp.MustCompile(`(?i)conclu(sion|de|des|ded)|therefore|\bsummary\b`),
		regexp.MustCompile(`결론|따라서|요약|결과적으로`),
	},
	Intro: {
		regexp.MustCompile(`(?i)\bintro(duction)?\b|background`),
		regexp.MustCompile(`서론|도입|배경`),
	},
}

// Match returns every category whose patterns hit s, in canonical order.
// Matching is unanchored; callers normalize s beforehand.
func Match(s string) []Category {
	if s == "" {
		return nil
	}
	var out []Category
	for _, cat := range Categories {
		for _, re := range patterns[cat] {
			if re.MatchString(s) {
				out = append(out, cat)
				break
			}
		}
	}
	return out
}
