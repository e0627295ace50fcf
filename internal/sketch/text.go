package sketch

import "github.com/ayusman/teamfinger/internal/effect"

const (
	paragraph1 = `It is a technological advancement by humanity in
which computers can understand language and
perform complex mathematical operations to
solve problems.`

	paragraph2 = `Artificial intelligence is the most important
challenge in the modern era, with the goal to
replace human workers with machines and create
new productive and intelligent jobs.`

	paragraph3 = `A robot uses sophisticated neural networks,
computer algorithms, deep learning, deep
learning, to process different information and
then create different products.`
)

// DefaultBlocks returns the three paragraphs of the gradient sketch: the
// first animates weight, the second italic, the third only resets.
func DefaultBlocks() []BlockParams {
	return []BlockParams{
		{ID: "text", Text: paragraph1, Curve: effect.CurveParams{Kind: effect.CurveWeight}},
		{ID: "text2", Text: paragraph2, Curve: effect.CurveParams{Kind: effect.CurveItalic}},
		{ID: "text3", Text: paragraph3, Curve: effect.CurveParams{Kind: effect.CurveNone}},
	}
}

// DefaultItems returns the elements of the highlight sketch.
func DefaultItems() []ItemParams {
	items := []ItemParams{
		{Label: "Team", Class: "word"},
		{Label: "Finger", Class: "word"},
		{Label: "points", Class: "word"},
		{Label: "at", Class: "word"},
		{Label: "things", Class: "word"},
		{Label: "Camera", Class: "card"},
		{Label: "Model", Class: "card"},
		{Label: "Cursor", Class: "card"},
		{Label: "Start", Class: "button"},
		{Label: "Stop", Class: "button"},
		{Label: "(inert)", Class: "label"},
	}
	return items
}
