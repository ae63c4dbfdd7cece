package sqlcgen

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a free-text search into an ILIKE pattern that
// matches it anywhere, with LIKE wildcards in the input taken literally.
// A nil search stays nil so the query skips the filter.
func containsPattern(search *string) *string {
	if search == nil {
		return nil
	}
	p := "%" + likeEscaper.Replace(*search) + "%"
	return &p
}
