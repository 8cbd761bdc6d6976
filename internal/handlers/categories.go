package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"shopdesk/internal/backend"
	"shopdesk/internal/imaging"
	"shopdesk/internal/models"
	"shopdesk/internal/paginate"
	"shopdesk/internal/slug"
	"shopdesk/internal/tree"
	"shopdesk/internal/wizard"
)

// listResponse is one page of a category list.
type listResponse struct {
	Parent   *models.Summary              `json:"parent,omitempty"`
	Query    string                       `json:"query,omitempty"`
	Page     paginate.Page[models.Summary] `json:"page"`
	SyncedAt time.Time                    `json:"synced_at"`
	InFlight []string                     `json:"in_flight"`
}

func summarize(c models.Category) models.Summary {
	return c.Summarize()
}

// List returns a page of root categories, optionally filtered by name.
// Changing the filter returns the root list to page 1.
func (d *Dashboard) List(w http.ResponseWriter, r *http.Request) {
	if err := d.ensureLoaded(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}

	params, msg := parsePageParams(r.URL.Query())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	sess := d.currentSession(r)
	if r.URL.Query().Has("q") {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if msg := validateQuery(q); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if q != sess.Data.RootQuery {
			sess.Data.RootQuery = q
			sess.Data.Pages.Reset(paginate.RootKey)
		}
	}
	state := params.apply(sess.Data.Pages, paginate.RootKey)

	roots, _ := d.catalog.Children(paginate.RootKey)
	roots = filterByName(roots, sess.Data.RootQuery)
	page := paginate.Map(paginate.Slice(roots, state), summarize)

	d.saveSession(r.Context(), sess)
	writeJSON(w, http.StatusOK, listResponse{
		Query:    sess.Data.RootQuery,
		Page:     page,
		SyncedAt: d.catalog.SyncedAt(),
		InFlight: d.catalog.InFlight(),
	})
}

// Children returns a page of a category's direct children. Each category
// keeps its own page position.
func (d *Dashboard) Children(w http.ResponseWriter, r *http.Request) {
	if err := d.ensureLoaded(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if msg := validateID(id); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	params, msg := parsePageParams(r.URL.Query())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	parent, ok := d.catalog.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	sess := d.currentSession(r)
	state := params.apply(sess.Data.Pages, id)
	page := paginate.Map(paginate.Slice(parent.Children, state), summarize)
	d.saveSession(r.Context(), sess)

	ps := parent.Summarize()
	writeJSON(w, http.StatusOK, listResponse{
		Parent:   &ps,
		Page:     page,
		SyncedAt: d.catalog.SyncedAt(),
		InFlight: d.catalog.InFlight(),
	})
}

// Get returns one category with its subtree.
func (d *Dashboard) Get(w http.ResponseWriter, r *http.Request) {
	if err := d.ensureLoaded(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if msg := validateID(id); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	c, ok := d.catalog.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Refresh resynchronises the whole tree with the backend.
func (d *Dashboard) Refresh(w http.ResponseWriter, r *http.Request) {
	forest, err := d.catalog.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"roots":     len(forest),
		"total":     tree.Count(forest),
		"synced_at": d.catalog.SyncedAt(),
	})
}

// updateRequest is the body of PUT /admin/categories/{id}. Omitted
// fields keep their current value.
type updateRequest struct {
	Name         *string `json:"name"`
	Image        *string `json:"image"`
	InternalLink *string `json:"internal_link"`
	IsActive     *bool   `json:"is_active"`
	ParentID     *string `json:"parent_id"`
}

// Update edits a category. Children are preserved; moving a category to
// another parent is allowed as long as its subtree still fits.
func (d *Dashboard) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if msg := validateID(id); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var req updateRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	existing, ok := d.catalog.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	form := wizard.Form{
		Name:         pick(req.Name, existing.Name),
		Image:        pick(req.Image, existing.Image),
		InternalLink: pick(req.InternalLink, existing.InternalLink),
		ParentID:     pick(req.ParentID, existing.ParentIDValue()),
		IsActive:     existing.IsActive,
	}
	if req.IsActive != nil {
		form.IsActive = *req.IsActive
	}
	form = form.Normalize()

	level, msg := d.placement(existing, form.ParentID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := wizard.ValidateUpdate(form, level); err != nil {
		writeServiceError(w, err)
		return
	}

	in := backend.UpdateInput{
		Name:         form.Name,
		Image:        form.Image,
		InternalLink: form.InternalLink,
		IsActive:     form.IsActive,
	}
	if form.ParentID != "" {
		in.ParentID = &form.ParentID
	}

	updated, err := d.catalog.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// placement returns the level c would have under parentID, or a message
// when the move is not allowed.
func (d *Dashboard) placement(c models.Category, parentID string) (int, string) {
	if parentID == "" {
		return models.LevelMain, ""
	}
	if parentID == c.ID || tree.Contains(c.Children, parentID) {
		return 0, "A category cannot be moved below itself."
	}
	parent, ok := d.catalog.Find(parentID)
	if !ok {
		return 0, "Parent category not found."
	}
	level := parent.Level + 1
	if level+height(c) > models.MaxLevel {
		return 0, msgMaxDepth
	}
	return level, ""
}

// height is the number of levels below c.
func height(c models.Category) int {
	h := 0
	for _, child := range c.Children {
		if ch := height(child) + 1; ch > h {
			h = ch
		}
	}
	return h
}

// Delete removes a category. A category that still has products is
// refused by the backend with guidance to reassign them first.
func (d *Dashboard) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if msg := validateID(id); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := d.catalog.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	sess := d.currentSession(r)
	sess.Data.Pages.Forget(id)
	if p := sess.Data.Wizard.SelectedParent; p != nil && p.ID == id {
		sess.Data.Wizard = sess.Data.Wizard.Back()
	}
	d.saveSession(r.Context(), sess)

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// Upload stores a category image and returns its URL. With target=wizard
// the URL is also put into the open wizard's form.
func (d *Dashboard) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read the uploaded file.")
		return
	}

	res, err := d.catalog.UploadImage(r.Context(), header.Filename, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.FormValue("target") == "wizard" {
		sess := d.currentSession(r)
		if sess.Data.Wizard.Open {
			sess.Data.Wizard.Form.Image = res.URL
			d.saveSession(r.Context(), sess)
		}
	}

	slog.Info("category image stored", "url", res.URL, "resized", res.Resized)
	writeJSON(w, http.StatusCreated, res)
}

// LinkSuggestion proposes an internal link for a category name, unique
// among the current categories.
func (d *Dashboard) LinkSuggestion(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if utf8.RuneCountInString(name) > maxQueryLen {
		writeError(w, http.StatusBadRequest, "Category name is too long (max 120 characters).")
		return
	}

	taken := make(map[string]bool)
	for _, c := range tree.Flatten(d.catalog.Snapshot()) {
		if c.InternalLink != "" {
			taken[c.InternalLink] = true
		}
	}
	link := slug.UniqueLink(name, func(l string) bool { return taken[l] })
	if link == "" {
		writeError(w, http.StatusBadRequest, "Enter a category name first.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"internal_link": link})
}

// mutationEntry is an audit entry with its display label.
type mutationEntry struct {
	models.Mutation
	Label string `json:"label"`
}

func labelled(entries []models.Mutation) []mutationEntry {
	out := make([]mutationEntry, 0, len(entries))
	for _, m := range entries {
		out = append(out, mutationEntry{Mutation: m, Label: m.Label()})
	}
	return out
}

// Mutations lists the most recent confirmed changes.
func (d *Dashboard) Mutations(w http.ResponseWriter, r *http.Request) {
	limit, msg := parseLimit(r.URL.Query())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if d.mutations == nil {
		writeJSON(w, http.StatusOK, map[string]any{"mutations": []mutationEntry{}})
		return
	}

	entries, err := d.mutations.Recent(r.Context(), d.tenantID, limit)
	if err != nil {
		slog.Error("list mutations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load the change history.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mutations": labelled(entries)})
}

// History lists the logged changes of one category, oldest first. It
// also works for categories that no longer exist.
func (d *Dashboard) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if msg := validateID(id); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if d.mutations == nil {
		writeJSON(w, http.StatusOK, map[string]any{"mutations": []mutationEntry{}})
		return
	}

	entries, err := d.mutations.ForCategory(r.Context(), d.tenantID, id)
	if err != nil {
		slog.Error("category history failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load the change history.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mutations": labelled(entries)})
}

// filterByName keeps categories whose name contains q, case-insensitively.
func filterByName(forest []models.Category, q string) []models.Category {
	if q == "" {
		return forest
	}
	q = strings.ToLower(q)
	var out []models.Category
	for _, c := range forest {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

func pick(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
