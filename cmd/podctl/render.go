package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dimitrije/pod-console/internal/hierarchy"
	"github.com/dimitrije/pod-console/internal/ledger"
	"github.com/dimitrije/pod-console/internal/lifecycle"
	"github.com/dimitrije/pod-console/internal/models"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	nameStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	successStyle = lipgloss.NewStyle().Foreground(colorAccent)
)

func licenseSummary(p *models.Pod) string {
	s := fmt.Sprintf("%d/%d used, %d free", p.AssignedLicenses, p.TotalLicenses, p.AvailableLicenses)
	if p.AvailableLicenses == 0 && p.TotalLicenses > 0 {
		return warningStyle.Render(s)
	}
	return mutedStyle.Render(s)
}

func renderTree(w io.Writer, rows []hierarchy.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no pods"))
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Pods"))
	for _, row := range rows {
		marker := "-"
		if row.HasChildren {
			marker = "+"
		}
		fmt.Fprintf(w, "%s%s %s %s  %s  %s\n",
			strings.Repeat("  ", row.DisplayLevel),
			marker,
			nameStyle.Render(row.Pod.Name),
			mutedStyle.Render("("+string(row.Pod.Type)+")"),
			licenseSummary(row.Pod),
			mutedStyle.Render(row.Pod.ID))
	}
}

func renderBin(w io.Writer, entries []lifecycle.BinEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("the bin is empty"))
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Deleted pods"))
	for _, e := range entries {
		status := successStyle.Render("restorable")
		if !e.CanRestore {
			status = warningStyle.Render("parent " + e.ParentName + " is deleted")
		}
		fmt.Fprintf(w, "%s%s  %s  %s\n",
			strings.Repeat("  ", e.DisplayLevel),
			nameStyle.Render(e.Pod.Name),
			status,
			mutedStyle.Render(e.Pod.ID))
	}
}

func renderPod(w io.Writer, p *models.Pod) {
	fmt.Fprintf(w, "%s  %s\n", nameStyle.Render(p.Name), licenseSummary(p))
}

func renderImport(w io.Writer, r *ledger.ImportResult, dryRun bool) {
	heading := "Import"
	if dryRun {
		heading = "Import plan (dry run)"
	}
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(heading), nameStyle.Render(r.PodName))
	fmt.Fprintf(w, "  users added:       %d\n", r.UsersAdded)
	fmt.Fprintf(w, "  users updated:     %d\n", r.UsersUpdated)
	fmt.Fprintf(w, "  licenses assigned: %d\n", r.LicensesAssigned)
	listProblems(w, "invalid emails", r.InvalidEmails)
	listProblems(w, "duplicate emails", r.DuplicateEmails)
	listProblems(w, "unknown pods", r.MissingPods)
	listRowErrors(w, r.RowErrors)
}

func renderPreview(w io.Writer, p *ledger.Preview) {
	fmt.Fprintln(w, titleStyle.Render("Mass upload preview"))
	fmt.Fprintf(w, "  rows: %d valid of %d\n", p.ValidRows, p.TotalRows)
	for _, pl := range p.Pods {
		line := fmt.Sprintf("  %s: %d requested, %d free", pl.PodName, pl.Requested, pl.Available)
		if pl.Requested > pl.Available {
			line = warningStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
	listProblems(w, "invalid emails", p.InvalidEmails)
	listProblems(w, "unknown pods", p.MissingPods)
	listRowErrors(w, p.RowErrors)
	if p.CanUpload() {
		fmt.Fprintln(w, successStyle.Render("ready to upload"))
	} else {
		fmt.Fprintln(w, errorStyle.Render("upload blocked"))
	}
}

func renderMassResult(w io.Writer, m *ledger.MassResult) {
	fmt.Fprintln(w, titleStyle.Render("Mass upload"))
	for _, r := range m.PodResults {
		if r.Failed() {
			fmt.Fprintf(w, "  %s %s\n", nameStyle.Render(r.PodName), errorStyle.Render(r.Error))
			continue
		}
		fmt.Fprintf(w, "  %s +%d users, %d updated, %d licenses\n",
			nameStyle.Render(r.PodName), r.UsersAdded, r.UsersUpdated, r.LicensesAssigned)
	}
	listProblems(w, "invalid emails", m.InvalidEmails)
	listRowErrors(w, m.RowErrors)
	summary := fmt.Sprintf("%d pods, %d users added, %d licenses assigned",
		m.TotalPodsAffected, m.TotalUsersAdded, m.TotalLicensesAssigned)
	if m.FailedPods > 0 {
		summary += fmt.Sprintf(", %d pods failed", m.FailedPods)
		fmt.Fprintln(w, warningStyle.Render(summary))
		return
	}
	fmt.Fprintln(w, successStyle.Render(summary))
}

func listProblems(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s: %s\n", warningStyle.Render(label), strings.Join(items, ", "))
}

func listRowErrors(w io.Writer, rows []ledger.RowError) {
	for _, re := range rows {
		fmt.Fprintf(w, "  %s\n", errorStyle.Render(fmt.Sprintf("line %d %s: %s", re.Line, re.Email, re.Reason)))
	}
}
