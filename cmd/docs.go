package cmd

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootPage = `---
layout: default
title: %s
nav_order: 0
has_children: true
permalink: /
---
`

// child command without children
const childPage = `---
layout: default
title: %s
parent: seqst
nav_order: %d
---
`

// navOrder is the listing position of each command's doc page
var navOrder = map[string]int{
	"seqst_search":  0,
	"seqst_blast":   1,
	"seqst_extract": 2,
}

// docsCmd is for regenerating the Markdown documentation pages.
var docsCmd = &cobra.Command{
	Use:    "docs [dir]",
	Run:    makeDocs,
	Short:  "Generate Markdown documentation for the seqst commands",
	Hidden: true,
}

// set flags
func init() {
	rootCmd.AddCommand(docsCmd)
}

// makeDocs parses the commands and outputs Markdown documentation files
func makeDocs(cmd *cobra.Command, args []string) {
	dir := "./docs"
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("%v", err)
	}
	if err := doc.GenMarkdownTreeCustom(rootCmd, dir, filePrepender, linkHandler); err != nil {
		log.Fatalf("%v", err)
	}
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	base := pageBase(filename)
	if base == "seqst" {
		return fmt.Sprintf(rootPage, base)
	}

	title := strings.TrimPrefix(base, "seqst_")
	return fmt.Sprintf(childPage, title, navOrder[base])
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	base := pageBase(filename)
	if base == "seqst" {
		return "/"
	}
	return base
}

func pageBase(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}
