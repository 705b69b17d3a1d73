package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/analysis"

	"github.com/tidwall/gjson"
)

// Candidate is a text fragment tagged with a category, before it becomes a
// graph node.
type Candidate struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// Candidates groups candidates by category in traversal order.
type Candidates map[Category][]Candidate

// First returns the first candidate of a category.
func (c Candidates) First(cat Category) (Candidate, bool) {
	list := c[cat]
	if len(list) == 0 {
		return Candidate{}, false
	}
	return list[0], true
}

// Total counts candidates across all categories.
func (c Candidates) Total() int {
	n := 0
	for _, list := range c {
		n += len(list)
	}
	return n
}

type candidateKey struct {
	path     string
	category Category
}

type walker struct {
	out     Candidates
	seen    map[candidateKey]struct{}
	counter int
}

// Extract walks doc depth-first and collects candidates per category.
//
// Strings are matched against every category. Object keys are matched too:
// a matching key over a non-empty string files that string, over any other
// scalar files the key itself, and over an array files the array's string
// members (and the string fields of records in it) under the key's
// categories. A matching key over an object adds nothing by itself; its
// entries are judged on their own keys. The top-level neuron_map section
// belongs to the neuron map and is skipped. Missing or odd sections simply
// contribute nothing.
func Extract(doc analysis.Document) Candidates {
	w := &walker{
		out:  Candidates{},
		seen: map[candidateKey]struct{}{},
	}
	root := doc.Root()
	if root.IsObject() {
		root.ForEach(func(k, val gjson.Result) bool {
			if strings.EqualFold(util.NormalizeText(k.String()), neuronSection) {
				return true
			}
			w.entry(k, val, "", nil)
			return true
		})
		return w.out
	}
	w.visit(root, "")
	return w.out
}

const neuronSection = "neuron_map"

func (w *walker) visit(v gjson.Result, path string) {
	switch {
	case v.IsObject():
		v.ForEach(func(k, val gjson.Result) bool {
			w.entry(k, val, path, nil)
			return true
		})
	case v.IsArray():
		i := 0
		v.ForEach(func(_, val gjson.Result) bool {
			w.visit(val, indexPath(path, i))
			i++
			return true
		})
	case v.Type == gjson.String:
		w.text(v, path, nil)
	}
}

// entry handles one object member. inherited is only set for the fields of
// a record that sits directly in a category-keyed array; it applies to
// string fields whose own key matches nothing.
func (w *walker) entry(k, val gjson.Result, path string, inherited []Category) {
	key := util.NormalizeText(k.String())
	childPath := joinKey(path, key)
	keyCats := Match(key)
	if len(keyCats) == 0 {
		if len(inherited) > 0 && val.Type == gjson.String {
			w.text(val, childPath, inherited)
			return
		}
		w.visit(val, childPath)
		return
	}
	switch {
	case val.IsArray():
		w.list(val, childPath, keyCats)
	case val.IsObject():
		w.visit(val, childPath)
	case val.Type == gjson.String && strings.TrimSpace(val.String()) != "":
		w.text(val, childPath, keyCats)
	default:
		for _, cat := range keyCats {
			w.add(childPath, key, cat)
		}
	}
}

// list files the members of an array held by a key that matched cats.
func (w *walker) list(v gjson.Result, path string, cats []Category) {
	i := 0
	v.ForEach(func(_, val gjson.Result) bool {
		p := indexPath(path, i)
		i++
		switch {
		case val.Type == gjson.String:
			w.text(val, p, cats)
		case val.IsObject():
			val.ForEach(func(k, field gjson.Result) bool {
				w.entry(k, field, p, cats)
				return true
			})
		default:
			w.visit(val, p)
		}
		return true
	})
}

func (w *walker) text(v gjson.Result, path string, inherited []Category) {
	text := util.NormalizeText(v.String())
	if text == "" {
		return
	}
	id := w.idFor(path)
	for _, cat := range union(Match(text), inherited) {
		w.add(id, text, cat)
	}
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// idFor uses the path as id. Only a bare string document has no path; it
// gets a counter id scoped to this walk so repeated extraction is stable.
func (w *walker) idFor(path string) string {
	if path != "" {
		return path
	}
	w.counter++
	return fmt.Sprintf("cand-%d", w.counter)
}

func (w *walker) add(id, text string, cat Category) {
	key := candidateKey{path: id, category: cat}
	if _, ok := w.seen[key]; ok {
		return
	}
	w.seen[key] = struct{}{}
	w.out[cat] = append(w.out[cat], Candidate{ID: id, Text: text, Category: cat})
}

func joinKey(path, key string) string {
	if strings.ContainsAny(key, ".[]\"") {
		return path + "[" + strconv.Quote(key) + "]"
	}
	if path == "" {
		return key
	}
	return path + "." + key
}

func union(a, b []Category) []Category {
	if len(b) == 0 {
		return a
	}
	set := make(map[Category]bool, len(a)+len(b))
	for _, c := range a {
		set[c] = true
	}
	for _, c := range b {
		set[c] = true
	}
	out := make([]Category, 0, len(set))
	for _, c := range Categories {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}
