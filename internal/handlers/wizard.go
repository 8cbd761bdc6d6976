package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopdesk/internal/backend"
	"shopdesk/internal/catalog"
	"shopdesk/internal/models"
	"shopdesk/internal/wizard"
)

// wizardResponse is the wizard state as the dashboard renders it.
type wizardResponse struct {
	wizard.State
	Level   int              `json:"level"`
	Busy    bool             `json:"busy"`
	Created *models.Category `json:"created,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

func (d *Dashboard) wizardView(s wizard.State) wizardResponse {
	return wizardResponse{
		State: s,
		Level: s.Level(),
		Busy:  d.catalog.Busy(createKey(s)),
	}
}

// createKey is the catalog's in-flight key for submitting s.
func createKey(s wizard.State) string {
	in := backend.CreateInput{Name: s.Form.Name}
	if s.Step != wizard.StepMain {
		in.ParentID = &s.Form.ParentID
	}
	return catalog.CreateKey(in)
}

// WizardState returns the session's wizard.
func (d *Dashboard) WizardState(w http.ResponseWriter, r *http.Request) {
	sess := d.currentSession(r)
	writeJSON(w, http.StatusOK, d.wizardView(sess.Data.Wizard))
}

// WizardOpen opens the creation dialog at the main step.
func (d *Dashboard) WizardOpen(w http.ResponseWriter, r *http.Request) {
	sess := d.currentSession(r)
	sess.Data.Wizard = sess.Data.Wizard.Open()
	d.saveSession(r.Context(), sess)
	writeJSON(w, http.StatusOK, d.wizardView(sess.Data.Wizard))
}

// WizardSelectParent sets the parent for the next creation. On an open
// wizard without a parent (after Back) the category fills the current
// step; otherwise the wizard is (re)opened below it ("Add Sub").
func (d *Dashboard) WizardSelectParent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if msg := validateID(id); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	parent, ok := d.catalog.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	sess := d.currentSession(r)
	cur := sess.Data.Wizard
	var (
		next wizard.State
		err  error
	)
	if cur.Open && cur.Step != wizard.StepMain && cur.SelectedParent == nil {
		next, err = cur.SelectParent(parent)
	} else {
		next, err = cur.EnterAt(parent)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	sess.Data.Wizard = next
	d.saveSession(r.Context(), sess)
	writeJSON(w, http.StatusOK, d.wizardView(next))
}

// WizardBack returns to the previous step.
func (d *Dashboard) WizardBack(w http.ResponseWriter, r *http.Request) {
	sess := d.currentSession(r)
	sess.Data.Wizard = sess.Data.Wizard.Back()
	d.saveSession(r.Context(), sess)
	writeJSON(w, http.StatusOK, d.wizardView(sess.Data.Wizard))
}

// WizardCancel closes the dialog.
func (d *Dashboard) WizardCancel(w http.ResponseWriter, r *http.Request) {
	sess := d.currentSession(r)
	sess.Data.Wizard = sess.Data.Wizard.Cancel()
	d.saveSession(r.Context(), sess)
	writeJSON(w, http.StatusOK, d.wizardView(sess.Data.Wizard))
}

// wizardSubmission carries the form fields typed in the dialog. The
// parent always comes from the session.
type wizardSubmission struct {
	Name         *string `json:"name"`
	Image        *string `json:"image"`
	InternalLink *string `json:"internal_link"`
	IsActive     *bool   `json:"is_active"`
}

// WizardSubmit validates the form for the current step and creates the
// category. On success the wizard advances to the next level, or closes
// after the nested step. Typed values are kept on failure.
func (d *Dashboard) WizardSubmit(w http.ResponseWriter, r *http.Request) {
	sess := d.currentSession(r)
	state := sess.Data.Wizard
	if !state.Open {
		writeError(w, http.StatusConflict, "Open the category dialog first.")
		return
	}

	var sub wizardSubmission
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	form := state.Form
	form.Name = pick(sub.Name, form.Name)
	form.Image = pick(sub.Image, form.Image)
	form.InternalLink = pick(sub.InternalLink, form.InternalLink)
	if sub.IsActive != nil {
		form.IsActive = *sub.IsActive
	}
	form = form.Normalize()
	state.Form = form

	if err := wizard.Validate(form, state.Step); err != nil {
		sess.Data.Wizard = state
		d.saveSession(r.Context(), sess)
		writeServiceError(w, err)
		return
	}

	in := backend.CreateInput{
		Name:         form.Name,
		Image:        form.Image,
		InternalLink: form.InternalLink,
	}
	if state.Step != wizard.StepMain {
		in.ParentID = &form.ParentID
	}

	created, err := d.catalog.Create(r.Context(), in)
	if err != nil {
		sess.Data.Wizard = state
		d.saveSession(r.Context(), sess)
		writeServiceError(w, err)
		return
	}

	sess.Data.Wizard = state.Advance(created)
	resp := d.wizardView(sess.Data.Wizard)
	resp.Created = &created
	if sess.ID != "" && d.sessions != nil {
		if err := d.sessions.Save(r.Context(), sess); err != nil {
			slog.Warn("session save failed", "error", err)
			resp.Warning = msgSessionError
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}
