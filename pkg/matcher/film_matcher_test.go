package matcher

import (
	"os"
	"path/filepath"
	"testing"

	"faq-chatbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMatcher() *FilmMatcher {
	return NewFilmMatcher([]Product{
		{
			Name:    "ドリップバッグ",
			Aliases: []string{"DB"},
			Films: []Film{
				{Name: "アルミ蒸着", Colors: []string{"白", "黒"}},
				{Name: "クラフト", Colors: []string{"茶"}, Note: "小ロット不可"},
			},
		},
		{Name: "スティック", Films: []Film{{Name: "透明", Colors: []string{"クリア"}}}},
	})
}

func TestMatchProductInQuestion(t *testing.T) {
	m := sampleMatcher()

	res := m.Match("ドリップバッグのクラフトは何色？", nil)

	require.Len(t, res.Products, 1)
	assert.Equal(t, "ドリップバッグ", res.Products[0].Product)
	require.Len(t, res.Products[0].Films, 1)
	assert.Equal(t, "【製品フィルム・カラー情報】\n■ ドリップバッグ\n- クラフト: 茶（小ロット不可）", m.Format(res))
}

func TestMatchAliasReturnsAllFilms(t *testing.T) {
	res := sampleMatcher().Match("DBの色は？", nil)
	require.Len(t, res.Products, 1)
	assert.Len(t, res.Products[0].Films, 2)
}

func TestMatchFallsBackToHistory(t *testing.T) {
	history := []store.Turn{
		{Role: store.RoleUser, Content: "スティックについて"},
		{Role: store.RoleAssistant, Content: "ドリップバッグも対応しています"},
		{Role: store.RoleUser, Content: "黒はありますか"},
	}

	res := sampleMatcher().Match("黒はありますか", history)

	require.Len(t, res.Products, 1)
	assert.Equal(t, "スティック", res.Products[0].Product)
}

func TestNoMatch(t *testing.T) {
	m := sampleMatcher()
	res := m.Match("営業時間は？", nil)
	assert.True(t, res.Empty())
	assert.Equal(t, "", m.Format(res))
}

func TestLoadFilmMatcher(t *testing.T) {
	m, err := LoadFilmMatcher(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.IsType(t, Noop{}, m)

	path := filepath.Join(t.TempDir(), "matrix.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"products":[{"name":"缶","films":[{"name":"白缶","colors":["白"]}]}]}`), 0o644))
	m, err = LoadFilmMatcher(path)
	require.NoError(t, err)
	assert.Contains(t, m.Format(m.Match("缶はありますか", nil)), Marker)
}
