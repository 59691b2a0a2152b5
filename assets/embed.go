// Package assets embeds the default word lists and the journal migrations.
package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed words.txt likely.txt sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// DictionaryList is the embedded list of valid guesses.
func DictionaryList() ([]string, error) {
	return readLines("words.txt")
}

// LikelyList is the embedded list of likely answers.
func LikelyList() ([]string, error) {
	return readLines("likely.txt")
}

// Migrations exposes sql/*.sql with the directory stripped.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// "sql" is a literal embedded directory
		panic(err)
	}
	return sub
}
