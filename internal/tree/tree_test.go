package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"shopdesk/internal/models"
)

func strPtr(s string) *string { return &s }

// sampleForest returns:
//
//	A
//	├── B
//	│   └── C
//	└── D
//	E
func sampleForest() []models.Category {
	return Build([]models.Category{
		{ID: "A", Name: "Shoes", InternalLink: "/category/shoes", Children: []models.Category{
			{ID: "B", Name: "Running", Children: []models.Category{
				{ID: "C", Name: "Trail"},
			}},
			{ID: "D", Name: "Boots"},
		}},
		{ID: "E", Name: "Hats", InternalLink: "/category/hats"},
	})
}

func TestBuildAssignsLevelsAndParents(t *testing.T) {
	forest := sampleForest()

	tests := []struct {
		id     string
		level  int
		parent string
	}{
		{"A", 0, ""},
		{"B", 1, "A"},
		{"C", 2, "B"},
		{"D", 1, "A"},
		{"E", 0, ""},
	}
	for _, tt := range tests {
		c, ok := Find(forest, tt.id)
		if !ok {
			t.Fatalf("Find(%q): not found", tt.id)
		}
		if c.Level != tt.level {
			t.Errorf("%s: level = %d, want %d", tt.id, c.Level, tt.level)
		}
		if c.ParentIDValue() != tt.parent {
			t.Errorf("%s: parent = %q, want %q", tt.id, c.ParentIDValue(), tt.parent)
		}
		if c.Children == nil {
			t.Errorf("%s: children should be an empty slice, not nil", tt.id)
		}
	}
}

func TestBuildFromFlatList(t *testing.T) {
	forest := Build([]models.Category{
		{ID: "A"},
		{ID: "B", ParentID: strPtr("A")},
		{ID: "C", ParentID: strPtr("B")},
		{ID: "X", ParentID: strPtr("missing")},
	})
	if len(forest) != 1 {
		t.Fatalf("roots: got %d, want 1", len(forest))
	}
	if Count(forest) != 3 {
		t.Errorf("Count = %d, want 3 (orphan dropped)", Count(forest))
	}
	c, ok := Find(forest, "C")
	if !ok || c.Level != 2 {
		t.Errorf("C: ok=%v level=%d", ok, c.Level)
	}
}

func TestBuildDeduplicatesNestedAndFlat(t *testing.T) {
	forest := Build([]models.Category{
		{ID: "A", Children: []models.Category{{ID: "B"}}},
		{ID: "B", ParentID: strPtr("A")},
	})
	if Count(forest) != 2 {
		t.Errorf("Count = %d, want 2", Count(forest))
	}
}

func TestBuildDropsFourthLevel(t *testing.T) {
	forest := Build([]models.Category{
		{ID: "A", Children: []models.Category{
			{ID: "B", Children: []models.Category{
				{ID: "C", Children: []models.Category{{ID: "D"}}},
			}},
		}},
	})
	if Contains(forest, "D") {
		t.Error("level 3 category should be dropped")
	}
	if !Contains(forest, "C") {
		t.Error("level 2 category should be kept")
	}
}

func TestFindNotFound(t *testing.T) {
	if _, ok := Find(sampleForest(), "nope"); ok {
		t.Error("expected not found")
	}
	if _, ok := Find(nil, "A"); ok {
		t.Error("expected not found in empty forest")
	}
}

func TestChildrenOf(t *testing.T) {
	forest := sampleForest()

	roots, ok := ChildrenOf(forest, "")
	if !ok || len(roots) != 2 {
		t.Errorf("roots: ok=%v len=%d", ok, len(roots))
	}
	kids, ok := ChildrenOf(forest, "A")
	if !ok || len(kids) != 2 || kids[0].ID != "B" || kids[1].ID != "D" {
		t.Errorf("children of A: ok=%v %+v", ok, kids)
	}
	if _, ok := ChildrenOf(forest, "nope"); ok {
		t.Error("expected not found")
	}
}

func TestRemoveThenFindIsNotFound(t *testing.T) {
	for _, c := range Flatten(sampleForest()) {
		forest := sampleForest()
		out, ok := Remove(forest, c.ID)
		if !ok {
			t.Fatalf("Remove(%q) reported no match", c.ID)
		}
		if _, found := Find(out, c.ID); found {
			t.Errorf("Find after Remove(%q) should be not found", c.ID)
		}
		if Count(forest) != 5 {
			t.Errorf("Remove(%q) mutated its input", c.ID)
		}
	}
}

func TestRemoveMissingIsNoOp(t *testing.T) {
	forest := sampleForest()
	out, ok := Remove(forest, "nope")
	if ok {
		t.Error("expected no match")
	}
	if &out[0] != &forest[0] {
		t.Error("no-op Remove should return the same slice")
	}
}

func TestRemoveLeafRecomputesHasChildren(t *testing.T) {
	forest := Build([]models.Category{
		{ID: "A", Children: []models.Category{{ID: "B", Name: "Shoes"}}},
	})
	out, ok := Remove(forest, "B")
	if !ok {
		t.Fatal("expected match")
	}
	a, _ := Find(out, "A")
	if len(a.Children) != 0 || a.HasChildren() {
		t.Errorf("A after delete: children=%d HasChildren=%v", len(a.Children), a.HasChildren())
	}
	orig, _ := Find(forest, "A")
	if !orig.HasChildren() {
		t.Error("input forest must keep its child")
	}
}

func TestReplaceAppliesUpdater(t *testing.T) {
	rename := func(c models.Category) models.Category {
		c.Name = c.Name + "!"
		return c
	}
	for _, c := range Flatten(sampleForest()) {
		forest := sampleForest()
		before, _ := Find(forest, c.ID)
		out, ok := Replace(forest, c.ID, rename)
		if !ok {
			t.Fatalf("Replace(%q) reported no match", c.ID)
		}
		after, _ := Find(out, c.ID)
		if diff := cmp.Diff(rename(before), after); diff != "" {
			t.Errorf("Replace(%q) mismatch (-want +got):\n%s", c.ID, diff)
		}
	}
}

func TestReplaceSharesUntouchedSubtrees(t *testing.T) {
	forest := Build([]models.Category{
		{ID: "A", Children: []models.Category{
			{ID: "B", Children: []models.Category{{ID: "C", Name: "Trail"}}},
		}},
		{ID: "E", Children: []models.Category{{ID: "F"}}},
	})
	out, ok := Replace(forest, "C", func(c models.Category) models.Category {
		c.Name = "Trail running"
		return c
	})
	if !ok {
		t.Fatal("expected match")
	}
	if &out[1].Children[0] != &forest[1].Children[0] {
		t.Error("untouched branch E should share its children array")
	}
	if &out[0].Children[0] == &forest[0].Children[0] {
		t.Error("changed branch A should get a new children array")
	}
	if forest[0].Children[0].Children[0].Name != "Trail" {
		t.Error("Replace mutated its input")
	}
	if out[0].Children[0].Children[0].Name != "Trail running" {
		t.Error("Replace did not apply the updater")
	}
}

func TestReplacePreservesChildrenIdentity(t *testing.T) {
	forest := sampleForest()
	out, ok := Replace(forest, "A", func(c models.Category) models.Category {
		c.Name = "Footwear"
		return c
	})
	if !ok {
		t.Fatal("expected match")
	}
	if out[0].Name != "Footwear" {
		t.Errorf("name = %q, want Footwear", out[0].Name)
	}
	if &out[0].Children[0] != &forest[0].Children[0] {
		t.Error("children array should be shared, not reconstructed")
	}
	if &out[1] == &forest[1] {
		t.Error("root slice should be a new array")
	}
	if out[1].Name != forest[1].Name {
		t.Error("sibling root changed")
	}
}

func TestReplaceMissingReturnsSameSlice(t *testing.T) {
	forest := sampleForest()
	out, ok := Replace(forest, "nope", func(c models.Category) models.Category { return c })
	if ok {
		t.Error("expected no match")
	}
	if &out[0] != &forest[0] {
		t.Error("no-op Replace should return the same slice")
	}
}

func TestAppendChildCreatesSubcategory(t *testing.T) {
	forest := Build([]models.Category{{ID: "A", Name: "Shoes"}})

	out, ok := AppendChild(forest, "A", models.Category{ID: "B", Name: "Sneakers"})
	if !ok {
		t.Fatal("expected parent match")
	}
	a, _ := Find(out, "A")
	if !a.HasChildren() || len(a.Children) != 1 {
		t.Fatalf("A children = %d, want 1", len(a.Children))
	}
	want := models.Category{ID: "B", Name: "Sneakers", ParentID: strPtr("A"), Level: 1, Children: []models.Category{}}
	if diff := cmp.Diff(want, a.Children[0]); diff != "" {
		t.Errorf("child mismatch (-want +got):\n%s", diff)
	}
	if orig, _ := Find(forest, "A"); orig.HasChildren() {
		t.Error("AppendChild mutated its input")
	}
}

func TestAppendChildKeepsCreationOrder(t *testing.T) {
	forest := Build([]models.Category{{ID: "A"}})
	forest, _ = AppendChild(forest, "A", models.Category{ID: "B"})
	forest, _ = AppendChild(forest, "A", models.Category{ID: "C"})
	kids, _ := ChildrenOf(forest, "A")
	if len(kids) != 2 || kids[0].ID != "B" || kids[1].ID != "C" {
		t.Errorf("order: %+v", kids)
	}
}

func TestAppendChildRefusesFourthLevel(t *testing.T) {
	forest := sampleForest()
	if _, ok := AppendChild(forest, "C", models.Category{ID: "Z"}); ok {
		t.Error("appending below level 2 should be refused")
	}
	if _, ok := AppendChild(forest, "nope", models.Category{ID: "Z"}); ok {
		t.Error("appending to a missing parent should be refused")
	}
}

func TestAppendRoot(t *testing.T) {
	forest := sampleForest()
	out := AppendRoot(forest, models.Category{ID: "F", ParentID: strPtr("bogus"), Level: 2})
	if len(out) != 3 || len(forest) != 2 {
		t.Fatalf("lengths: out=%d in=%d", len(out), len(forest))
	}
	f := out[2]
	if f.ParentID != nil || f.Level != 0 || f.Children == nil {
		t.Errorf("root normalization: %+v", f)
	}
}

func TestFlattenOrder(t *testing.T) {
	var ids []string
	for _, c := range Flatten(sampleForest()) {
		ids = append(ids, c.ID)
	}
	want := []string{"A", "B", "C", "D", "E"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("Flatten order (-want +got):\n%s", diff)
	}
}
