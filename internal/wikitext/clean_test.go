package wikitext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "templates removed",
			in:   "{{Short description|Movement of solvent}}Osmosis is diffusion.",
			want: "Osmosis is diffusion.",
		},
		{
			name: "nested templates removed",
			in:   "A{{Infobox|name={{lang|la|osmos}}|x=1}}B",
			want: "AB",
		},
		{
			name: "multi-line template",
			in:   "Before\n{{Infobox\n| a = 1\n| b = 2\n}}\nAfter",
			want: "Before\n\nAfter",
		},
		{
			name: "unbalanced template swept",
			in:   "text {{cite web|url={x}}} more",
			want: "text } more",
		},
		{
			name: "paired and self-closing refs",
			in:   `Fact.<ref name="a">Smith, 2001</ref> Other.<ref name="a" /> End.<REF>x</REF>`,
			want: "Fact. Other. End.",
		},
		{
			name: "comments removed",
			in:   "Keep<!-- hidden\nnote --> this",
			want: "Keep this",
		},
		{
			name: "file image and category links removed",
			in:   "[[File:Osmosis.svg|thumb|A [[cell]] in water]]Text[[Image:x.png]] here[[Category:Physics]]",
			want: "Text here",
		},
		{
			name: "links rewritten",
			in:   "Water crosses a [[semipermeable membrane|membrane]] by [[diffusion]].",
			want: "Water crosses a membrane by diffusion.",
		},
		{
			name: "emphasis removed",
			in:   "'''Osmosis''' is ''passive''.",
			want: "Osmosis is passive.",
		},
		{
			name: "blank runs collapsed",
			in:   "One\n\n\n\n\nTwo\n\nThree",
			want: "One\n\nTwo\n\nThree",
		},
		{
			name: "trimmed",
			in:   "  \n\n padded \n ",
			want: "padded",
		},
		{
			name: "only noise",
			in:   "{{reflist}}\n<!-- x -->\n[[Category:Stubs]]",
			want: "",
		},
		{
			name: "malformed link degrades",
			in:   "Broken [[link without end",
			want: "Broken [[link without end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	samples := []string{
		"'''Osmosis''' is the [[diffusion|net movement]] of water.{{cn}}\n\n\n\nMore.",
		"{{a|{{b|{{c}}}}}} tail [[x]] '''''bold italic'''''",
		"{{cite web|url={x}}} and {{ unterminated",
		"[[File:A.png|thumb|[[B]] caption]] body <ref>r</ref><!-- c -->",
		"''''' [[a|''b'']] '''",
		"plain text already clean",
	}
	for _, s := range samples {
		once := Clean(s)
		assert.Equal(t, once, Clean(once), "input %q", s)
	}
}
