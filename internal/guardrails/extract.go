package guardrails

import (
	"regexp"
	"strings"

	"github.com/ShayCichocki/steward/pkg/models"
)

// Task references are extracted from free text with fixed patterns, most
// explicit first: a "Task: <ref>" label line, then a bare task id, then a
// vault note path under a tasks directory.
var (
	taskLabelRe = regexp.MustCompile(`(?im)^[ \t]*task:[ \t]*(.+?)[ \t]*$`)
	taskIDRe    = regexp.MustCompile(`\b(?i:task)-[a-zA-Z0-9][a-zA-Z0-9-]*\b`)
	taskPathRe  = regexp.MustCompile(`\b(?:[\w./-]*tasks/[\w./ -]+\.md)\b`)
)

// ExtractTaskRef pulls the first task reference out of text. Wiki-link
// brackets around a labeled reference are stripped so "Task: [[tasks/x]]"
// and "Task: tasks/x" resolve the same way.
func ExtractTaskRef(text string) (string, bool) {
	if m := taskLabelRe.FindStringSubmatch(text); m != nil {
		ref := strings.TrimSpace(m[1])
		ref = strings.TrimPrefix(ref, "[[")
		ref = strings.TrimSuffix(ref, "]]")
		if ref != "" {
			return ref, true
		}
	}
	if m := taskIDRe.FindString(text); m != "" {
		return m, true
	}
	if m := taskPathRe.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

// Deliverable extraction patterns. Candidates come from wiki-links, bare
// URLs, markdown link targets, and lines under a "Deliverables" heading.
var (
	wikiLinkRe     = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|[^\[\]]*)?\]\]`)
	urlRe          = regexp.MustCompile(`https?://[^\s)\]>"']+`)
	markdownLinkRe = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)
	headingRe      = regexp.MustCompile(`(?i)^#+\s*deliverables\b`)
	listItemRe     = regexp.MustCompile(`^\s*[-*]\s+(.+?)\s*$`)
)

// vaultPrefixes are path prefixes that mark a reference as vault-relative.
var vaultPrefixes = []string{"tasks/", "notes/", "projects/", "attachments/"}

// ExtractDeliverables collects every deliverable candidate from the final
// output plus any explicitly created files, classified by reference style
// and deduplicated in first-seen order.
func ExtractDeliverables(output string, createdFiles []string) []models.Deliverable {
	seen := make(map[string]struct{})
	var out []models.Deliverable

	add := func(ref string, typ models.DeliverableType) {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return
		}
		if _, dup := seen[ref]; dup {
			return
		}
		seen[ref] = struct{}{}
		out = append(out, models.Deliverable{Type: typ, Ref: ref})
	}

	for _, m := range wikiLinkRe.FindAllStringSubmatch(output, -1) {
		add(m[1], models.DeliverableWikiLink)
	}
	for _, m := range urlRe.FindAllString(output, -1) {
		add(strings.TrimRight(m, ".,;"), models.DeliverableURL)
	}
	for _, m := range markdownLinkRe.FindAllStringSubmatch(output, -1) {
		add(m[1], classifyRef(m[1]))
	}
	for _, line := range deliverablesSection(output) {
		// A list item may itself contain a link already captured above;
		// bare items are classified by their text.
		if wikiLinkRe.MatchString(line) || urlRe.MatchString(line) || markdownLinkRe.MatchString(line) {
			continue
		}
		add(line, classifyRef(line))
	}
	for _, f := range createdFiles {
		add(f, classifyRef(f))
	}

	return out
}

// deliverablesSection returns the list items under a "Deliverables"
// heading, up to the next heading or the end of the text.
func deliverablesSection(output string) []string {
	var items []string
	inSection := false
	for _, line := range strings.Split(output, "\n") {
		if headingRe.MatchString(line) {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			break
		}
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			items = append(items, m[1])
		}
	}
	return items
}

func classifyRef(ref string) models.DeliverableType {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return models.DeliverableURL
	}
	for _, prefix := range vaultPrefixes {
		if strings.HasPrefix(ref, prefix) {
			return models.DeliverableVaultPath
		}
	}
	return models.DeliverableLocalFile
}
