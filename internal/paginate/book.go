package paginate

// Book holds per-list page settings keyed by category ID, with RootKey for
// the root list. The zero value uses DefaultPerPage.
type Book struct {
	States  map[string]State `json:"states"`
	PerPage int              `json:"per_page"`
}

// NewBook returns an empty Book whose lists default to perPage items.
func NewBook(perPage int) *Book {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Book{States: make(map[string]State), PerPage: perPage}
}

// Get returns the state for key, or the default state if none was set.
func (b *Book) Get(key string) State {
	if s, ok := b.States[key]; ok {
		return s.normalize()
	}
	return State{CurrentPage: DefaultPage, ItemsPerPage: b.PerPage}.normalize()
}

// SetPage moves the list to page.
func (b *Book) SetPage(key string, page int) State {
	s := b.Get(key)
	s.CurrentPage = page
	s = s.normalize()
	b.set(key, s)
	return s
}

// SetPerPage changes the page size and returns to the first page.
func (b *Book) SetPerPage(key string, perPage int) State {
	s := b.Get(key)
	s.ItemsPerPage = perPage
	s.CurrentPage = DefaultPage
	s = s.normalize()
	b.set(key, s)
	return s
}

// Reset returns the list to page 1.
func (b *Book) Reset(key string) {
	s := b.Get(key)
	s.CurrentPage = DefaultPage
	b.set(key, s)
}

// Forget drops the state of a list, e.g. after its category was deleted.
func (b *Book) Forget(key string) {
	delete(b.States, key)
}

func (b *Book) set(key string, s State) {
	if b.States == nil {
		b.States = make(map[string]State)
	}
	b.States[key] = s
}
