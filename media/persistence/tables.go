package persistence

import (
	"regexp"
	"strings"

	"github.com/dfryer1193/mediasweep/shared/db"
)

// multisite sub-sites are installed under <base><blog id>_, e.g. wp_2_
var siteTablePrefixRegex = regexp.MustCompile(`^(.*_)\d+_$`)

// tables holds the prefixed WordPress table names
type tables struct {
	posts    string
	postmeta string
	options  string
	// sitemeta is the network-wide table of a multisite install. It does not exist on single sites.
	sitemeta string
}

func newTables(prefix string) (tables, error) {
	if err := db.ValidateTablePrefix(prefix); err != nil {
		return tables{}, err
	}
	return tables{
		posts:    prefix + "posts",
		postmeta: prefix + "postmeta",
		options:  prefix + "options",
		sitemeta: networkPrefix(prefix) + "sitemeta",
	}, nil
}

// networkPrefix returns the base prefix shared by every site of a multisite network
func networkPrefix(prefix string) string {
	if m := siteTablePrefixRegex.FindStringSubmatch(prefix); m != nil {
		return m[1]
	}
	return prefix
}

// format substitutes {posts}, {postmeta}, {options} and {sitemeta} in a query template
func (t tables) format(query string) string {
	return strings.NewReplacer(
		"{posts}", t.posts,
		"{postmeta}", t.postmeta,
		"{options}", t.options,
		"{sitemeta}", t.sitemeta,
	).Replace(query)
}
