package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a free-text term into a LIKE/ILIKE substring pattern with
// wildcards in the term matched literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
