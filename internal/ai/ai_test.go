package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/shanehull/asxreport/internal/config"
	"github.com/shanehull/asxreport/internal/types"
)

type fakeGenerator struct {
	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	text     string
	err      error
}

func (g *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.calls++
	g.model, g.contents, g.config = model, contents, cfg
	if g.err != nil {
		return nil, g.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: g.text}}, Role: genai.RoleModel}},
		},
	}, nil
}

func f(v float64) *float64 { return &v }

func table() types.ReportTable {
	return types.ReportTable{
		{Symbol: "BHP", Headline: "Quarterly Report", MarketSensitive: true, OCChangePct: f(5.5), HLChangePct: f(20)},
		{Symbol: "CBA", Headline: "Appendix 3Y"},
		{Symbol: "RIO", Headline: "Scheme Booklet", MarketSensitive: true},
	}
}

func newTestSummarizer(t *testing.T, g *fakeGenerator) *Summarizer {
	t.Helper()
	s, err := NewSummarizer(context.Background(), config.AIConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	s.models = g
	s.model = "gemini-test"
	return s
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt(table().MarketSensitive())

	assert.Contains(t, prompt, "Market sensitive announcements (2):")
	assert.Contains(t, prompt, "BHP | Quarterly Report | O-C 5.50% | H-L 20.00%")
	assert.Contains(t, prompt, "RIO | Scheme Booklet | O-C n/a | H-L n/a")
	assert.NotContains(t, prompt, "CBA")
}

func TestResponseSchema(t *testing.T) {
	schema := getResponseSchema()

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.ElementsMatch(t, []string{"summary", "highlights"}, schema.Required)
	require.Contains(t, schema.Properties, "highlights")
	assert.ElementsMatch(t, []string{"symbol", "note"}, schema.Properties["highlights"].Items.Required)
}

func TestDigestDisabledWithoutKey(t *testing.T) {
	s, err := NewSummarizer(context.Background(), config.AIConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	d, err := s.Digest(context.Background(), table())
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDigestSkipsWithoutSensitiveRows(t *testing.T) {
	g := &fakeGenerator{}
	s := newTestSummarizer(t, g)

	d, err := s.Digest(context.Background(), types.ReportTable{{Symbol: "CBA", Headline: "Appendix 3Y"}})
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Zero(t, g.calls)
}

func TestDigest(t *testing.T) {
	g := &fakeGenerator{text: `{"summary":["Quarterly updates dominate."],"highlights":[{"symbol":"RIO","note":"Scheme booklet released."}]}`}
	s := newTestSummarizer(t, g)

	d, err := s.Digest(context.Background(), table())
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, []string{"Quarterly updates dominate."}, d.Summary)
	assert.Equal(t, []Highlight{{Symbol: "RIO", Note: "Scheme booklet released."}}, d.Highlights)

	assert.Equal(t, 1, g.calls)
	assert.Equal(t, "gemini-test", g.model)
	assert.Equal(t, "application/json", g.config.ResponseMIMEType)
	require.NotNil(t, g.config.SystemInstruction)
	require.Len(t, g.contents, 1)
	assert.Contains(t, g.contents[0].Parts[0].Text, "RIO | Scheme Booklet")
}

func TestDigestErrors(t *testing.T) {
	_, err := newTestSummarizer(t, &fakeGenerator{err: errors.New("quota exceeded")}).Digest(context.Background(), table())
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = newTestSummarizer(t, &fakeGenerator{text: "not json"}).Digest(context.Background(), table())
	assert.ErrorContains(t, err, "failed to unmarshal")
}
