// Package markdown turns Markdown files with YAML front matter into blog
// articles and keeps the content store in sync with a directory of them.
package markdown
