package activities

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const htmxScript = "https://unpkg.com/htmx.org@2.0.4"

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:48rem;padding:0 1rem}
.error-message{background:#fdecea;border:1px solid #f5c2c0;color:#8a1c1c;padding:.5rem 1rem;margin-bottom:1rem}
.activity-form div{margin-bottom:.75rem}.activity-form label{display:block;font-weight:600}
.activity-form input,.activity-form textarea{width:100%;box-sizing:border-box}
.activity-card{border:1px solid #ddd;border-radius:4px;padding:.75rem 1rem;margin-bottom:.75rem}
.delete-button{background:#c62828;color:#fff;border:0;padding:.35rem .75rem;cursor:pointer}
button[disabled]{opacity:.6;cursor:not-allowed}`

type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err == nil {
		_, hw.err = io.WriteString(hw.w, s)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) component(ctx context.Context, c templ.Component) {
	if hw.err == nil {
		hw.err = c.Render(ctx, hw.w)
	}
}

// Layout wraps body in the HTML document. refresh adds a no-script reload for
// the loading state.
func Layout(title string, refresh bool, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw(`<title>`)
		hw.text(title)
		hw.raw(`</title>`)
		if refresh {
			hw.raw(`<noscript><meta http-equiv="refresh" content="1"></noscript>`)
		}
		hw.raw(`<style>` + pageStyle + `</style>`)
		hw.raw(`<script src="` + htmxScript + `" defer></script>`)
		hw.raw(`</head><body><main>`)
		hw.component(ctx, body)
		hw.raw(`</main></body></html>`)
		return hw.err
	})
}

// Page renders the activities page fragment for v.
func Page(v PageView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		switch {
		case v.Loading:
			hw.raw(`<div id="activities-page" hx-get="/activities" hx-trigger="load delay:500ms" hx-swap="outerHTML">`)
			hw.raw(`Loading activities...</div>`)
		case v.FetchError != "":
			hw.raw(`<div id="activities-page">Error loading activities: `)
			hw.text(v.FetchError)
			hw.raw(`</div>`)
		default:
			hw.raw(`<div id="activities-page" class="activities-page"><h1>Activities</h1>`)
			if v.Error != "" {
				hw.raw(`<div class="error-message" role="alert">`)
				hw.text(v.Error)
				hw.raw(`</div>`)
			}
			if v.ShowForm() {
				hw.component(ctx, createForm(v))
			}
			hw.component(ctx, activityList(v))
			hw.raw(`</div>`)
		}
		return hw.err
	})
}

func createForm(v PageView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<form method="post" action="/activities" class="activity-form" `)
		hw.raw(`hx-post="/activities" hx-target="#activities-page" hx-swap="outerHTML" hx-disabled-elt="find button">`)
		hw.raw(`<h2>Create New Activity</h2>`)
		hw.raw(`<input type="hidden" id="idempotency_key" name="idempotency_key" value="`)
		hw.text(v.IdempotencyKey)
		hw.raw(`">`)
		hw.raw(`<div><label for="name">Name:</label><input id="name" name="name" type="text" value="`)
		hw.text(v.Draft.Name)
		hw.raw(`" required></div>`)
		hw.raw(`<div><label for="description">Description:</label><textarea id="description" name="description" required>`)
		hw.text(v.Draft.Description)
		hw.raw(`</textarea></div>`)
		if v.Creating {
			hw.raw(`<button type="submit" disabled>Creating...</button>`)
		} else {
			hw.raw(`<button type="submit">Create Activity</button>`)
		}
		hw.raw(`</form>`)
		return hw.err
	})
}

func activityList(v PageView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<div class="activities-list"><h2>All Activities</h2>`)
		for _, a := range v.Activities {
			hw.raw(`<div class="activity-card" id="activity-`)
			hw.text(a.ID)
			hw.raw(`"><h3>`)
			hw.text(a.Name)
			hw.raw(`</h3><p>`)
			hw.text(a.Description)
			hw.raw(`</p>`)
			if v.ShowDelete() {
				hw.raw(`<form method="post" action="/activities/delete" `)
				hw.raw(`hx-post="/activities/delete" hx-target="#activities-page" hx-swap="outerHTML" hx-disabled-elt=".delete-button" `)
				hw.raw(`hx-include="#name,#description,#idempotency_key">`)
				hw.raw(`<input type="hidden" name="id" value="`)
				hw.text(a.ID)
				hw.raw(`">`)
				if v.Deleting {
					hw.raw(`<button type="submit" class="delete-button" disabled>Delete</button>`)
				} else {
					hw.raw(`<button type="submit" class="delete-button">Delete</button>`)
				}
				hw.raw(`</form>`)
			}
			hw.raw(`</div>`)
		}
		hw.raw(`</div>`)
		return hw.err
	})
}
