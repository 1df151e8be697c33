package service

import (
	"go-blog-app/internal/data"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	idPattern       = regexp.MustCompile(`^[a-z0-9-]+$`)
	fileNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

var idRules = []validation.Rule{
	validation.Required.Error("id is required"),
	validation.Length(1, 128),
	validation.Match(idPattern).Error("id may only contain lowercase letters, digits and '-'"),
}

var titleRules = []validation.Rule{
	validation.Required.Error("title is required"),
	validation.Length(1, 256),
}

// validateID checks an article id before anything touches the disk.
func validateID(id string) error {
	if err := validation.Validate(id, idRules...); err != nil {
		return validationError(err.Error())
	}
	return nil
}

type articleInput struct {
	ID    string
	Title string
}

func (in articleInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, idRules...),
		validation.Field(&in.Title, titleRules...),
	)
}

func validateArticle(id, title string) error {
	if err := (articleInput{ID: id, Title: title}).Validate(); err != nil {
		return validationError(err.Error())
	}
	return nil
}

// validateBaseName checks an optional caller-supplied media base name.
func validateBaseName(name string) error {
	err := validation.Validate(name,
		validation.Length(0, 128),
		validation.Match(fileNamePattern).Error("filename may only contain letters, digits, '-' and '_'"),
	)
	if err != nil {
		return validationError(err.Error())
	}
	return nil
}

// safeFileName rejects anything that could leave the article's media
// directory or reach its manifest.
func safeFileName(name string) bool {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return name != data.ManifestFile
}

// normalizeTags trims, drops empties and duplicates, and sorts under the
// configured locale. A collator is not safe for concurrent use, so one is
// built per call.
func normalizeTags(tags []string, locale string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	newCollator(locale).SortStrings(out)
	return out
}

func newCollator(locale string) *collate.Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return collate.New(tag)
}
