// Package view renders the jobboard screen as text. Rendering is a pure
// function of the session snapshot.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/gsarma/jobboard/internal/jobs"
	"github.com/gsarma/jobboard/internal/model"
	"github.com/gsarma/jobboard/internal/session"
)

const rule = "----------------------------------------"

// Render writes the screen for s to w.
func Render(w io.Writer, s session.Snapshot) error {
	var b strings.Builder
	b.WriteString("\n")

	switch s.State {
	case session.Unauthenticated:
		b.WriteString("jobboard\n\n")
		b.WriteString("[s] Sign in\n")
	case session.Authenticating:
		b.WriteString("Waiting for sign-in to finish in your browser...\n")
		if s.AuthURL != "" {
			fmt.Fprintf(&b, "If no browser opened, visit:\n  %s\n", s.AuthURL)
		}
	case session.Authenticated:
		renderHeader(&b, s.User)
		if s.SelectedJob != nil {
			renderDetail(&b, *s.SelectedJob)
		} else {
			renderList(&b, jobs.All())
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderHeader(b *strings.Builder, u *model.UserProfile) {
	b.WriteString(rule + "\n")
	if u != nil {
		fmt.Fprintf(b, "%s <%s>\n", u.Name, u.Email)
		if u.PictureURL != "" {
			fmt.Fprintf(b, "avatar: %s\n", u.PictureURL)
		}
	}
	b.WriteString("[l] Logout\n")
	b.WriteString(rule + "\n")
}

func renderList(b *strings.Builder, all []jobs.Job) {
	for i, j := range all {
		fmt.Fprintf(b, "%d. %s\n   %s - %s\n", i+1, j.Title, j.Company, j.Location)
	}
	b.WriteString("\nSelect a job by number.\n")
}

func renderDetail(b *strings.Builder, j jobs.Job) {
	fmt.Fprintf(b, "%s\n%s\n%s\n\n%s\n\n", j.Title, j.Company, j.Location, j.Description)
	b.WriteString("[b] Back to Listings\n")
}

// RenderAlert writes a user-visible alert.
func RenderAlert(w io.Writer, a model.Alert) error {
	_, err := fmt.Fprintf(w, "\n%s: %s\n", a.Title, a.Message)
	return err
}
