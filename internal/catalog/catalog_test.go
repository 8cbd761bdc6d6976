package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"shopdesk/internal/backend"
	"shopdesk/internal/models"
	"shopdesk/internal/tree"
)

// ---------- Fakes ----------

// fakeRemote is an in-memory stand-in for the storefront backend.
type fakeRemote struct {
	mu      sync.Mutex
	listing []models.Category
	nextID  int
	fetches atomic.Int32

	fetchErr  error
	createErr error
	updateErr error
	deleteErr error

	// gate, when set, blocks every call until it is closed.
	gate chan struct{}
}

func (f *fakeRemote) wait(ctx context.Context) error {
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeRemote) FetchCategories(ctx context.Context) ([]models.Category, error) {
	f.fetches.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.listing, nil
}

func (f *fakeRemote) CreateCategory(ctx context.Context, in backend.CreateInput) (models.Category, error) {
	if err := f.wait(ctx); err != nil {
		return models.Category{}, err
	}
	if f.createErr != nil {
		return models.Category{}, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return models.Category{
		ID:           "new-" + string(rune('0'+f.nextID)),
		Name:         in.Name,
		Image:        in.Image,
		InternalLink: in.InternalLink,
		IsActive:     true,
		ParentID:     in.ParentID,
	}, nil
}

func (f *fakeRemote) UpdateCategory(ctx context.Context, id string, in backend.UpdateInput) (models.Category, error) {
	if err := f.wait(ctx); err != nil {
		return models.Category{}, err
	}
	if f.updateErr != nil {
		return models.Category{}, f.updateErr
	}
	return models.Category{
		ID: id, Name: in.Name, Image: in.Image, InternalLink: in.InternalLink,
		IsActive: in.IsActive, ParentID: in.ParentID,
	}, nil
}

func (f *fakeRemote) DeleteCategory(ctx context.Context, id string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	return f.deleteErr
}

type fakeUploader struct {
	filename    string
	contentType string
	size        int
}

func (u *fakeUploader) UploadImage(_ context.Context, filename, contentType string, data []byte) (string, error) {
	u.filename, u.contentType, u.size = filename, contentType, len(data)
	return "https://cdn.example.com/" + filename, nil
}

type memCache struct {
	mu     sync.Mutex
	forest []models.Category
	saves  int
}

func (c *memCache) Load(context.Context) ([]models.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forest, c.forest != nil
}

func (c *memCache) Save(_ context.Context, forest []models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forest = forest
	c.saves++
}

type memAudit struct {
	mu      sync.Mutex
	entries []models.Mutation
}

func (a *memAudit) Record(_ context.Context, m models.Mutation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, m)
}

func (a *memAudit) actions() []models.MutationAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.MutationAction
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

func strPtr(s string) *string { return &s }

// newLoaded returns a Manager already synced with listing.
func newLoaded(t *testing.T, remote *fakeRemote, opts Options) *Manager {
	t.Helper()
	m := New(remote, opts)
	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return m
}

// ---------- Sync ----------

func TestRefreshBuildsForest(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{
		{ID: "A", Name: "Shoes", Children: []models.Category{{ID: "B", Name: "Sneakers"}}},
	}}
	m := newLoaded(t, remote, Options{})

	if !m.Loaded() || m.SyncedAt().IsZero() {
		t.Error("manager should be loaded after refresh")
	}
	b, ok := m.Find("B")
	if !ok || b.Level != 1 || b.ParentIDValue() != "A" {
		t.Errorf("B = %+v, ok=%v", b, ok)
	}
}

func TestRefreshDeduplicatesConcurrentCalls(t *testing.T) {
	remote := &fakeRemote{gate: make(chan struct{}), listing: []models.Category{{ID: "A"}}}
	m := New(remote, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Refresh(context.Background()); err != nil {
				t.Errorf("Refresh: %v", err)
			}
		}()
	}
	// Give the goroutines time to join the same flight.
	time.Sleep(50 * time.Millisecond)
	close(remote.gate)
	wg.Wait()

	if n := remote.fetches.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
}

func TestLoadPrefersCache(t *testing.T) {
	cache := &memCache{forest: []models.Category{{ID: "cached"}}}
	remote := &fakeRemote{}
	m := New(remote, Options{Cache: cache})

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if remote.fetches.Load() != 0 {
		t.Error("cache hit should not call the backend")
	}
	if _, ok := m.Find("cached"); !ok {
		t.Error("cached forest not loaded")
	}
}

func TestLoadFallsBackToRefresh(t *testing.T) {
	cache := &memCache{}
	remote := &fakeRemote{listing: []models.Category{{ID: "A"}}}
	m := New(remote, Options{Cache: cache})

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if remote.fetches.Load() != 1 {
		t.Errorf("fetches = %d, want 1", remote.fetches.Load())
	}
	if cache.saves != 1 {
		t.Errorf("cache saves = %d, want 1", cache.saves)
	}
}

// ---------- Create ----------

func TestCreateSubcategoryUnderRoot(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{{ID: "A", Name: "Shoes"}}}
	audit := &memAudit{}
	m := newLoaded(t, remote, Options{Audit: audit, TenantID: "t1"})

	created, err := m.Create(context.Background(), backend.CreateInput{
		Name: "Sneakers", Image: "b.jpg", ParentID: strPtr("A"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Level != 1 || created.ParentIDValue() != "A" {
		t.Errorf("created = %+v", created)
	}

	a, _ := m.Find("A")
	if !a.HasChildren() || len(a.Children) != 1 || a.Children[0].ID != created.ID {
		t.Errorf("A children = %+v", a.Children)
	}

	want := []models.MutationAction{models.MutationRefresh, models.MutationCreate}
	if diff := cmp.Diff(want, audit.actions()); diff != "" {
		t.Errorf("audit (-want +got):\n%s", diff)
	}
	if audit.entries[1].TenantID != "t1" || audit.entries[1].Level != 1 {
		t.Errorf("audit entry = %+v", audit.entries[1])
	}
}

func TestCreateRoot(t *testing.T) {
	m := newLoaded(t, &fakeRemote{listing: []models.Category{{ID: "A"}}}, Options{})
	created, err := m.Create(context.Background(), backend.CreateInput{Name: "Hats", Image: "h.jpg", InternalLink: "/c/hats"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	roots := m.Snapshot()
	if len(roots) != 2 || roots[1].ID != created.ID || roots[1].Level != 0 {
		t.Errorf("roots = %+v", roots)
	}
}

func TestCreateFailureLeavesTreeUntouched(t *testing.T) {
	remote := &fakeRemote{
		listing:   []models.Category{{ID: "A"}},
		createErr: &backend.APIError{Status: 400, Message: "Name already exists"},
	}
	m := newLoaded(t, remote, Options{})
	before := m.Snapshot()

	_, err := m.Create(context.Background(), backend.CreateInput{Name: "A", ParentID: strPtr("A")})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := backend.UserMessage(err); got != "Name already exists" {
		t.Errorf("UserMessage = %q", got)
	}
	if &m.Snapshot()[0] != &before[0] {
		t.Error("forest should be untouched after failure")
	}
}

func TestCreateBelowDeepestLevel(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{
		{ID: "A", Children: []models.Category{{ID: "B", Children: []models.Category{{ID: "C"}}}}},
	}}
	m := newLoaded(t, remote, Options{})
	_, err := m.Create(context.Background(), backend.CreateInput{Name: "D", ParentID: strPtr("C")})
	if !errors.Is(err, ErrMaxDepth) {
		t.Errorf("err = %v, want ErrMaxDepth", err)
	}
}

func TestCreateUnderVanishedParentIsNoOp(t *testing.T) {
	m := newLoaded(t, &fakeRemote{listing: []models.Category{{ID: "A"}}}, Options{})
	created, err := m.Create(context.Background(), backend.CreateInput{Name: "X", ParentID: strPtr("gone")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tree.Contains(m.Snapshot(), created.ID) {
		t.Error("category with unknown parent should not be placed")
	}
}

func TestCreateRejectsDoubleSubmission(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{{ID: "A"}}}
	m := newLoaded(t, remote, Options{})
	remote.gate = make(chan struct{})

	in := backend.CreateInput{Name: "Sneakers", Image: "b.jpg", ParentID: strPtr("A")}
	errc := make(chan error, 1)
	go func() {
		_, err := m.Create(context.Background(), in)
		errc <- err
	}()

	deadline := time.Now().Add(time.Second)
	for len(m.InFlight()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := m.Create(context.Background(), in); !errors.Is(err, ErrInFlight) {
		t.Errorf("second submission: err = %v, want ErrInFlight", err)
	}

	close(remote.gate)
	if err := <-errc; err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if len(m.InFlight()) != 0 {
		t.Errorf("in-flight keys left: %v", m.InFlight())
	}
	a, _ := m.Find("A")
	if len(a.Children) != 1 {
		t.Errorf("children = %d, want 1", len(a.Children))
	}
}

// ---------- Update ----------

func TestUpdatePreservesChildren(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{
		{ID: "A", Name: "Shoes", InternalLink: "/c/shoes", ProductCount: 9,
			Children: []models.Category{{ID: "B"}, {ID: "C"}}},
	}}
	m := newLoaded(t, remote, Options{})
	before := m.Snapshot()

	updated, err := m.Update(context.Background(), "A", backend.UpdateInput{
		Name: "Footwear", Image: "a.jpg", InternalLink: "/c/shoes", IsActive: true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Footwear" || updated.ProductCount != 9 {
		t.Errorf("updated = %+v", updated)
	}
	after := m.Snapshot()
	if &after[0].Children[0] != &before[0].Children[0] {
		t.Error("children array should be preserved, not reconstructed")
	}
	if before[0].Name != "Shoes" {
		t.Error("previous snapshot must not change")
	}
}

func TestUpdateMovedCategoryResyncs(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{
		{ID: "A", Children: []models.Category{{ID: "B"}}},
		{ID: "E"},
	}}
	m := newLoaded(t, remote, Options{})

	remote.mu.Lock()
	remote.listing = []models.Category{
		{ID: "A"},
		{ID: "E", Children: []models.Category{{ID: "B"}}},
	}
	remote.mu.Unlock()

	got, err := m.Update(context.Background(), "B", backend.UpdateInput{Name: "B", Image: "b.jpg", ParentID: strPtr("E")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ParentIDValue() != "E" {
		t.Errorf("parent = %q, want E", got.ParentIDValue())
	}
	if remote.fetches.Load() != 2 {
		t.Errorf("fetches = %d, want 2", remote.fetches.Load())
	}
}

func TestUpdateMoveKeptWhenResyncFails(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{
		{ID: "A", Children: []models.Category{
			{ID: "B", Children: []models.Category{{ID: "C"}}},
		}},
		{ID: "E"},
	}}
	m := newLoaded(t, remote, Options{})

	remote.mu.Lock()
	remote.fetchErr = errors.New("dial tcp: refused")
	remote.mu.Unlock()

	got, err := m.Update(context.Background(), "B", backend.UpdateInput{Name: "B2", Image: "b.jpg", ParentID: strPtr("E")})
	if err != nil {
		t.Fatalf("Update: %v (the backend confirmed the move)", err)
	}
	if got.Name != "B2" || got.ParentIDValue() != "E" || got.Level != models.LevelSub {
		t.Errorf("moved node = %+v", got)
	}
	if a, _ := m.Find("A"); a.HasChildren() {
		t.Error("old parent still lists the moved category")
	}
	c, ok := m.Find("C")
	if !ok || c.Level != models.LevelNested || c.ParentIDValue() != "B" {
		t.Errorf("grandchild = %+v, %v", c, ok)
	}
}

func TestUpdateMoveToRootWhenResyncFails(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{
		{ID: "A", Children: []models.Category{{ID: "B"}}},
	}}
	m := newLoaded(t, remote, Options{})
	remote.fetchErr = errors.New("dial tcp: refused")

	got, err := m.Update(context.Background(), "B", backend.UpdateInput{Name: "B", Image: "b.jpg"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.IsRoot() || got.Level != models.LevelMain {
		t.Errorf("moved node = %+v", got)
	}
	if n := len(m.Snapshot()); n != 2 {
		t.Errorf("roots = %d, want 2", n)
	}
}

func TestUpdateFailureLeavesTreeUntouched(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{{ID: "A", Name: "Shoes"}}, updateErr: errors.New("dial tcp: refused")}
	m := newLoaded(t, remote, Options{})

	_, err := m.Update(context.Background(), "A", backend.UpdateInput{Name: "Footwear"})
	if err == nil {
		t.Fatal("expected error")
	}
	if backend.UserMessage(err) != backend.MsgGeneric {
		t.Errorf("UserMessage = %q", backend.UserMessage(err))
	}
	if a, _ := m.Find("A"); a.Name != "Shoes" {
		t.Errorf("name = %q, want Shoes", a.Name)
	}
}

// ---------- Delete ----------

func TestDeleteLeafClearsHasChildren(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{
		{ID: "A", Children: []models.Category{{ID: "B", Name: "Shoes"}}},
	}}
	cache := &memCache{}
	m := newLoaded(t, remote, Options{Cache: cache})

	if err := m.Delete(context.Background(), "B"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	a, _ := m.Find("A")
	if a.HasChildren() || len(a.Children) != 0 {
		t.Errorf("A after delete: %+v", a)
	}
	if cache.saves != 2 {
		t.Errorf("cache saves = %d, want 2", cache.saves)
	}
}

func TestDeleteWithProductsShowsGuidance(t *testing.T) {
	remote := &fakeRemote{
		listing:   []models.Category{{ID: "A", Children: []models.Category{{ID: "B"}}}},
		deleteErr: &backend.APIError{Status: 400, Message: "Cannot delete category with existing products"},
	}
	m := newLoaded(t, remote, Options{})
	before := m.Snapshot()

	err := m.Delete(context.Background(), "B")
	if !errors.Is(err, backend.ErrHasProducts) {
		t.Fatalf("err = %v, want ErrHasProducts", err)
	}
	if backend.UserMessage(err) != backend.MsgHasProducts {
		t.Errorf("UserMessage = %q", backend.UserMessage(err))
	}
	if &m.Snapshot()[0] != &before[0] || !tree.Contains(m.Snapshot(), "B") {
		t.Error("tree should be unchanged")
	}
}

func TestDeleteAlreadyRemovedIsNoOp(t *testing.T) {
	audit := &memAudit{}
	m := newLoaded(t, &fakeRemote{listing: []models.Category{{ID: "A"}}}, Options{Audit: audit})
	if err := m.Delete(context.Background(), "ghost"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(m.Snapshot()) != 1 {
		t.Error("forest should be unchanged")
	}
	if got := audit.entries[len(audit.entries)-1]; got.Action != models.MutationDelete || got.CategoryID != "ghost" {
		t.Errorf("audit entry = %+v", got)
	}
}

func TestIndependentMutationsApplyInArrivalOrder(t *testing.T) {
	remote := &fakeRemote{listing: []models.Category{
		{ID: "A", Name: "Shoes", Children: []models.Category{{ID: "B"}}},
		{ID: "E", Name: "Hats"},
	}}
	m := newLoaded(t, remote, Options{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := m.Update(context.Background(), "A", backend.UpdateInput{Name: "Footwear"}); err != nil {
			t.Errorf("Update: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := m.Delete(context.Background(), "E"); err != nil {
			t.Errorf("Delete: %v", err)
		}
	}()
	wg.Wait()

	forest := m.Snapshot()
	if len(forest) != 1 || forest[0].Name != "Footwear" || len(forest[0].Children) != 1 {
		t.Errorf("forest = %+v", forest)
	}
}

// ---------- Upload ----------

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	up := &fakeUploader{}
	m := New(&fakeRemote{}, Options{Uploader: up, MaxImageWidth: 50})

	res, err := m.UploadImage(context.Background(), "wide.png", pngBytes(t, 200, 100))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if res.URL != "https://cdn.example.com/wide.png" || !res.Resized || res.Width != 50 {
		t.Errorf("result = %+v", res)
	}
	if up.contentType != "image/png" {
		t.Errorf("uploaded content type = %q", up.contentType)
	}
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	up := &fakeUploader{}
	m := New(&fakeRemote{}, Options{Uploader: up})
	if _, err := m.UploadImage(context.Background(), "x.txt", []byte("hello")); err == nil {
		t.Error("expected error for non-image upload")
	}
	if up.size != 0 {
		t.Error("nothing should be uploaded")
	}
}

func TestUploadImageWithoutUploader(t *testing.T) {
	m := New(&fakeRemote{}, Options{})
	if _, err := m.UploadImage(context.Background(), "x.png", pngBytes(t, 1, 1)); !errors.Is(err, ErrNoUploader) {
		t.Errorf("err = %v, want ErrNoUploader", err)
	}
}
