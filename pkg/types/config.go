// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutputFormat selects the markup produced for a note. A single conversion
// never mixes formats.
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputHTML     OutputFormat = "html"
)

// Extension returns the file extension (without the dot) used for notes
// written in this format.
func (f OutputFormat) Extension() string {
	if f == OutputHTML {
		return "html"
	}
	return "md"
}

// Valid reports whether f is a known output format.
func (f OutputFormat) Valid() bool {
	return f == OutputMarkdown || f == OutputHTML
}

// StoreConfig holds settings for opening the Notes database snapshot.
type StoreConfig struct {
	// DataDir is the Notes group container holding NoteStore.sqlite and the
	// Accounts/ tree (default ~/Library/Group Containers/group.com.apple.notes).
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// SnapshotDir is where the database copy is placed. Empty uses a fresh
	// directory under os.TempDir().
	SnapshotDir string `json:"snapshot_dir,omitempty" yaml:"snapshot_dir,omitempty" mapstructure:"snapshot_dir"`
}

// RenderConfig holds the settings threaded through a single note conversion.
type RenderConfig struct {
	// Format selects Markdown or HTML output.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`

	// OmitFirstLine drops the note's first line (usually a repeat of the title).
	OmitFirstLine bool `json:"omit_first_line" yaml:"omit_first_line" mapstructure:"omit_first_line"`

	// IncludeHandwriting renders a drawing's handwriting summary above the image.
	IncludeHandwriting bool `json:"include_handwriting" yaml:"include_handwriting" mapstructure:"include_handwriting"`

	// AttachmentDir receives copies of attachment binaries. Empty references
	// the files in place.
	AttachmentDir string `json:"attachment_dir,omitempty" yaml:"attachment_dir,omitempty" mapstructure:"attachment_dir"`

	// MaxLinkDepth bounds recursion through internal note links (default 8).
	MaxLinkDepth int `json:"max_link_depth" yaml:"max_link_depth" mapstructure:"max_link_depth"`
}

// ExportConfig groups everything the export command needs.
type ExportConfig struct {
	Store  StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Render RenderConfig `json:"render" yaml:"render" mapstructure:"render"`

	// Account is the Notes account name. Empty selects the first account.
	Account string `json:"account" yaml:"account" mapstructure:"account"`

	// Folder is the folder whose notes are exported.
	Folder string `json:"folder" yaml:"folder" mapstructure:"folder"`

	// OutputDir receives one file per note plus manifest.yaml.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Frontmatter prepends YAML frontmatter to Markdown output.
	Frontmatter bool `json:"frontmatter" yaml:"frontmatter" mapstructure:"frontmatter"`

	// Force re-exports notes whose manifest entry shows them unchanged.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`
}
