package extract

import (
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/logicflow/pkg/analysis"

	"golang.org/x/text/unicode/norm"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Category
	}{
		{name: "empty", in: "", want: nil},
		{name: "plain sentence", in: "Climate change is accelerating", want: nil},
		{name: "core key", in: "Core_Thesis", want: []Category{Core}},
		{name: "korean core", in: "핵심 주장", want: []Category{Core}},
		{name: "common key", in: "공통점", want: []Category{Common}},
		{name: "both sides", in: "둘 다 탄소 배출을 다룬다", want: []Category{Common}},
		{name: "diff key", in: "차이점", want: []Category{Diff}},
		{name: "english difference", in: "Key Differences", want: []Category{Diff}},
		{name: "evidence", in: "근거", want: []Category{Evidence}},
		{name: "case insensitive", in: "SUPPORTING EVIDENCE", want: []Category{Evidence}},
		{name: "conclusion", in: "결론적으로 보면", want: []Category{Conclusion}},
		{name: "intro", in: "Introduction", want: []Category{Intro}},
		{name: "multiple categories", in: "결론의 근거는 다음과 같다", want: []Category{Evidence, Conclusion}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Match(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func texts(list []Candidate) []string {
	out := []string{}
	for _, c := range list {
		out = append(out, c.Text)
	}
	return out
}

func ids(list []Candidate) []string {
	out := []string{}
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func TestExtractThesisAndCommonPoint(t *testing.T) {
	doc := analysis.MustParse(`{
		"Core_Thesis": "Climate change is accelerating",
		"공통점": ["둘 다 탄소 배출을 다룬다"],
		"차이점": []
	}`)

	got := Extract(doc)

	if want := []string{"Climate change is accelerating"}; !reflect.DeepEqual(texts(got[Core]), want) {
		t.Fatalf("core = %v, want %v", texts(got[Core]), want)
	}
	if want := []string{"공통점[0]"}; !reflect.DeepEqual(ids(got[Common]), want) {
		t.Fatalf("common ids = %v, want %v", ids(got[Common]), want)
	}
	if len(got[Diff]) != 0 {
		t.Fatalf("empty 차이점 should yield no diff candidates, got %v", got[Diff])
	}
	if got[Core][0].ID != "Core_Thesis" {
		t.Fatalf("core id = %q, want Core_Thesis", got[Core][0].ID)
	}
}

func TestExtractKeyFallback(t *testing.T) {
	doc := analysis.MustParse(`{"conclusion": null, "evidence": 3, "intro": ""}`)
	got := Extract(doc)

	tests := []struct {
		cat  Category
		want []string
	}{
		{Conclusion, []string{"conclusion"}},
		{Evidence, []string{"evidence"}},
		{Intro, []string{"intro"}},
	}
	for _, tt := range tests {
		if !reflect.DeepEqual(texts(got[tt.cat]), tt.want) {
			t.Errorf("%s = %v, want %v", tt.cat, texts(got[tt.cat]), tt.want)
		}
	}
}

func TestExtractTraversalOrderAndPaths(t *testing.T) {
	doc := analysis.MustParse(`{
		"sections": {
			"근거": [
				{"quote": "first source", "page": 3},
				"second source"
			],
			"notes": "evidence from the lab data"
		},
		"a.b": {"evidence": "dotted key"}
	}`)

	got := Extract(doc)
	wantIDs := []string{
		"sections.근거[0].quote",
		"sections.근거[1]",
		"sections.notes",
		`["a.b"].evidence`,
	}
	if !reflect.DeepEqual(ids(got[Evidence]), wantIDs) {
		t.Fatalf("evidence ids = %v, want %v", ids(got[Evidence]), wantIDs)
	}
}

func TestExtractDuplicatesAcrossCategories(t *testing.T) {
	doc := analysis.MustParse(`{"text": "결론의 근거는 명확하다"}`)
	got := Extract(doc)
	if len(got[Evidence]) != 1 || len(got[Conclusion]) != 1 {
		t.Fatalf("want one evidence and one conclusion, got %v", got)
	}
	if got[Evidence][0].ID != got[Conclusion][0].ID {
		t.Fatal("same fragment should keep the same id in both buckets")
	}
}

func TestExtractDeterministicIDs(t *testing.T) {
	doc := analysis.MustParse(`"a bare thesis string"`)
	first := Extract(doc)
	second := Extract(doc)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not stable: %v vs %v", first, second)
	}
	if c, ok := first.First(Core); !ok || c.ID != "cand-1" {
		t.Fatalf("root string id = %+v, want cand-1", c)
	}
}

func TestExtractNormalizesDecomposedKeys(t *testing.T) {
	doc := analysis.MustParse(`{"` + norm.NFD.String("공통점") + `": ["shared framing"]}`)
	if n := len(Extract(doc)[Common]); n != 1 {
		t.Fatalf("common candidates = %d, want 1", n)
	}
}

func TestExtractNeverFails(t *testing.T) {
	for _, raw := range []string{`{}`, `[]`, `null`, `42`, `true`, ``} {
		doc, _ := analysis.Parse([]byte(raw))
		if got := Extract(doc); got.Total() != 0 {
			t.Errorf("Extract(%q) = %v, want no candidates", raw, got)
		}
	}
}

func TestExtractObjectKeysDoNotTagSubtrees(t *testing.T) {
	doc := analysis.MustParse(`{
		"data": {"title": "Report on climate", "author": "Kim", "Core_Thesis": "X"},
		"background": {"school": "Seoul High", "grade": "11"},
		"summary": {"length": "short"}
	}`)
	got := Extract(doc)

	if len(got[Evidence]) != 0 || len(got[Intro]) != 0 || len(got[Conclusion]) != 0 {
		t.Fatalf("envelope fields were tagged: evidence=%v intro=%v conclusion=%v",
			texts(got[Evidence]), texts(got[Intro]), texts(got[Conclusion]))
	}
	if want := []string{"X"}; !reflect.DeepEqual(texts(got[Core]), want) {
		t.Fatalf("core = %v, want %v", texts(got[Core]), want)
	}
}

func TestExtractCategoryListMembers(t *testing.T) {
	doc := analysis.MustParse(`{
		"근거": [
			"plain source",
			{"quote": "record source", "meta": {"note": "nested note"}},
			["nested list item"]
		]
	}`)
	got := Extract(doc)

	want := []string{"plain source", "record source"}
	if !reflect.DeepEqual(texts(got[Evidence]), want) {
		t.Fatalf("evidence = %v, want %v", texts(got[Evidence]), want)
	}
}

func TestExtractSkipsNeuronMap(t *testing.T) {
	doc := analysis.MustParse(`{
		"Core_Thesis": "Tolls cut traffic",
		"neuron_map": {
			"nodes": ["toll data", "traffic"],
			"edges": [{"source": "toll data", "target": "traffic", "type": "supports"}]
		}
	}`)
	got := Extract(doc)
	if got.Total() != 1 {
		t.Fatalf("candidates = %v, want only the thesis", got)
	}
}

func TestMatchIgnoresEdgeTypes(t *testing.T) {
	for _, s := range []string{"supports", "supported", "causes", "contradicts"} {
		if cats := Match(s); len(cats) != 0 {
			t.Errorf("Match(%q) = %v, want none", s, cats)
		}
	}
}
