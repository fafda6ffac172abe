package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"textworld/internal/session"
)

func TestParseMarkupPlainText(t *testing.T) {
	segs := session.ParseMarkup("hello world")
	require.Equal(t, []session.Segment{{Type: session.SegmentText, Text: "hello world"}}, segs)
}

func TestParseMarkupNamedColor(t *testing.T) {
	segs := session.ParseMarkup("|red|danger|-|")
	require.Equal(t, []session.Segment{
		{Type: session.SegmentColorStart, Hex: "#cc0000"},
		{Type: session.SegmentText, Text: "danger"},
		{Type: session.SegmentColorEnd},
	}, segs)
}

func TestParseMarkupHexColor(t *testing.T) {
	segs := session.ParseMarkup("|#112233|x|-|")
	require.Equal(t, "#112233", segs[0].Hex)
}

func TestParseMarkupLiteralPipe(t *testing.T) {
	segs := session.ParseMarkup("a||b")
	require.Equal(t, []session.Segment{{Type: session.SegmentText, Text: "a|b"}}, segs)
}

func TestParseMarkupNestingClosesInnermostFirst(t *testing.T) {
	segs := session.ParseMarkup("|red|outer|blue|inner|-|after|-|")
	require.Equal(t, []session.SegmentType{
		session.SegmentColorStart, session.SegmentText,
		session.SegmentColorStart, session.SegmentText,
		session.SegmentColorEnd, session.SegmentText,
		session.SegmentColorEnd,
	}, typesOf(segs))
}

func TestParseMarkupUnclosedColorClosesAtEndOfLine(t *testing.T) {
	segs := session.ParseMarkup("|red|danger")
	last := segs[len(segs)-1]
	require.Equal(t, session.SegmentColorEnd, last.Type)
}

func TestParseMarkupCloseWithNoOpenColorIsNoOp(t *testing.T) {
	segs := session.ParseMarkup("|-|plain")
	require.Equal(t, []session.Segment{{Type: session.SegmentText, Text: "plain"}}, segs)
}

func typesOf(segs []session.Segment) []session.SegmentType {
	out := make([]session.SegmentType, len(segs))
	for i, s := range segs {
		out[i] = s.Type
	}
	return out
}
