package persistence

import "strings"

// likeEscape is the ESCAPE character used in every LIKE clause. MySQL and SQLite disagree on
// backslash handling inside string literals, so a neutral character is used instead.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// containsPattern returns a LIKE pattern matching any value that contains s
func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}
