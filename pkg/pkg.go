//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
)

// Version is the semantic version of the nib module embedded at build time.
// It is printed by the CLI for --version.
//
//go:embed VERSION
var Version string

const (
	// Name is the command name. It appears in help text and names the default
	// config and cache directories.
	Name = "nib"
	// Description is the one-line summary shown in help output.
	Description = "Indentation-aware expression language interpreter"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
