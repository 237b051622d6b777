package project

import "strings"

// CanEdit is the single ownership rule for edit and delete actions. A
// session without a username may edit anything; otherwise only the author.
func CanEdit(p Project, username string) bool {
	username = strings.TrimSpace(username)
	return username == "" || p.Author == username
}

// ResolveDisplayImage returns candidate, or the placeholder when it is blank.
func ResolveDisplayImage(candidate string) string {
	if strings.TrimSpace(candidate) == "" {
		return PlaceholderImage
	}
	return candidate
}

// Filter narrows an admin listing.
type Filter struct {
	Mine     bool   // only projects authored by Username
	Username string
	Query    string // case-insensitive match on title, subtitle or author
}

// Apply returns the projects matching f, preserving order.
func (f Filter) Apply(projects []Project) []Project {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if f.Mine && p.Author != f.Username {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Subtitle), q) &&
			!strings.Contains(strings.ToLower(p.Author), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// More returns up to n projects other than current, for "more articles".
func More(current Project, all []Project, n int) []Project {
	var out []Project
	for _, p := range all {
		if len(out) >= n {
			break
		}
		if p.ID == current.ID {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Find returns the project whose slug or id equals key.
func Find(projects []Project, key string) (Project, bool) {
	for _, p := range projects {
		if p.Slug == key {
			return p, true
		}
	}
	for _, p := range projects {
		if p.ID == key {
			return p, true
		}
	}
	return Project{}, false
}
