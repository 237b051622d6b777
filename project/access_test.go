package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanEdit(t *testing.T) {
	p := Project{Author: "Amanda"}
	assert.True(t, CanEdit(p, "Amanda"))
	assert.True(t, CanEdit(p, " Amanda "))
	assert.True(t, CanEdit(p, ""))
	assert.False(t, CanEdit(p, "Ary"))
}

func TestResolveDisplayImage(t *testing.T) {
	assert.Equal(t, PlaceholderImage, ResolveDisplayImage(""))
	assert.Equal(t, PlaceholderImage, ResolveDisplayImage("   "))
	assert.Equal(t, "/img/x.jpg", ResolveDisplayImage("/img/x.jpg"))
}

func TestFilterApply(t *testing.T) {
	projects := []Project{
		{ID: "1", Title: "Go Concurrency", Author: "Amanda"},
		{ID: "2", Title: "Bubbles", Subtitle: "The next hype", Author: "Ary"},
		{ID: "3", Title: "Hard Things", Author: "Amanda"},
	}

	ids := func(ps []Project) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(Filter{}.Apply(projects)))
	assert.Equal(t, []string{"1", "3"}, ids(Filter{Mine: true, Username: "Amanda"}.Apply(projects)))
	assert.Equal(t, []string{"2"}, ids(Filter{Query: "HYPE"}.Apply(projects)))
	assert.Equal(t, []string{"2"}, ids(Filter{Query: "ary"}.Apply(projects)))
	assert.Equal(t, []string{"3"}, ids(Filter{Mine: true, Username: "Amanda", Query: "hard"}.Apply(projects)))
	assert.Empty(t, Filter{Query: "nothing"}.Apply(projects))
}

func TestMoreAndFind(t *testing.T) {
	all := []Project{
		{ID: "1", Slug: "one"},
		{ID: "2", Slug: "two"},
		{ID: "3", Slug: "three"},
		{ID: "4", Slug: "four"},
	}

	more := More(all[1], all, 2)
	assert.Equal(t, []Project{all[0], all[2]}, more)

	p, ok := Find(all, "three")
	assert.True(t, ok)
	assert.Equal(t, "3", p.ID)

	p, ok = Find(all, "4")
	assert.True(t, ok)
	assert.Equal(t, "four", p.Slug)

	_, ok = Find(all, "missing")
	assert.False(t, ok)
}
