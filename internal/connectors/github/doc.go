// Package github fetches source documents from GitHub repositories.
// It walks the repository tree recursively via the Git data API,
// filters files by extension, decodes blob contents and skips anything
// that is not valid UTF-8 text.
package github
