// Package activities serves the activities page: the list, the create form and
// the delete controls, backed by the activities API.
package activities

import (
	"strings"

	"example.com/activities/internal/client"
	"example.com/activities/internal/web/fetch"
)

// Draft is the create form's unsaved input.
type Draft struct {
	Name        string
	Description string
}

// Missing reports whether either field is blank after trimming.
func (d Draft) Missing() bool {
	return strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Description) == ""
}

// PageView is everything the page template needs for one render.
type PageView struct {
	Loading    bool
	FetchError string
	Activities []client.Activity

	// SignedIn gates the create form and the delete controls.
	SignedIn bool
	// Error is the message of the last failed create or delete.
	Error string
	Draft Draft
	// IdempotencyKey is sent back with the create form.
	IdempotencyKey string

	Creating bool
	Deleting bool
}

// ShowForm reports whether the create form is rendered.
func (v PageView) ShowForm() bool {
	return v.SignedIn && !v.Loading && v.FetchError == ""
}

// ShowDelete reports whether list items carry a delete control.
func (v PageView) ShowDelete() bool {
	return v.ShowForm()
}

func newPageView(res fetch.Result[[]client.Activity]) PageView {
	v := PageView{Loading: res.Loading, Activities: res.Data}
	if res.Err != nil {
		v.FetchError = res.Err.Error()
		v.Activities = nil
	}
	return v
}
