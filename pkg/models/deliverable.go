package models

// DeliverableType says how a deliverable reference was written.
type DeliverableType string

const (
	// DeliverableURL is an http or https link.
	DeliverableURL DeliverableType = "url"
	// DeliverableWikiLink is a [[wiki-link]] into the vault.
	DeliverableWikiLink DeliverableType = "wiki_link"
	// DeliverableVaultPath is a path relative to the vault root.
	DeliverableVaultPath DeliverableType = "vault_path"
	// DeliverableLocalFile is a bare filesystem path outside the vault.
	// Local files are never accessible on their own.
	DeliverableLocalFile DeliverableType = "local_file"
)

// Deliverable is an artifact reference extracted from agent output.
type Deliverable struct {
	// Type is how the reference was written.
	Type DeliverableType `json:"type"`
	// Ref is the URL, link target, or path.
	Ref string `json:"ref"`
	// Verified is true once the reference passed the accessibility check.
	Verified bool `json:"verified"`
}

// Accessible reports whether a deliverable of this type can outlive the
// session. URLs, wiki-links, and vault-relative paths qualify; a bare local
// path dies with the machine it lives on.
func (t DeliverableType) Accessible() bool {
	switch t {
	case DeliverableURL, DeliverableWikiLink, DeliverableVaultPath:
		return true
	default:
		return false
	}
}
