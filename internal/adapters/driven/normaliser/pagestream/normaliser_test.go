package pagestream

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-search/tessera/internal/core/domain"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestNormaliseDecodesPages(t *testing.T) {
	content := fmt.Sprintf(`{"number":0,"text":"First page text.","width":612,"height":792}
{"number":1,"text":"","raster":%q,"width":612,"height":792,"images":[{"data":%q,"width":300,"height":200}]}
`, b64("raster-bytes"), b64("image-bytes"))

	raw := &domain.RawDocument{
		FileName: "doc.pages",
		MIMEType: MIMEType,
		Content:  []byte(content),
	}

	pages, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 0, pages[0].Number)
	assert.Equal(t, "First page text.", pages[0].Text)
	assert.Nil(t, pages[0].Raster)

	assert.Equal(t, 1, pages[1].Number)
	assert.Equal(t, []byte("raster-bytes"), pages[1].Raster)
	require.Len(t, pages[1].Images, 1)
	assert.Equal(t, []byte("image-bytes"), pages[1].Images[0].Data)
	assert.Equal(t, 300.0, pages[1].Images[0].Width)
}

func TestNormaliseSkipsBlankLines(t *testing.T) {
	raw := &domain.RawDocument{Content: []byte("\n{\"number\":0,\"text\":\"ok\"}\n\n")}

	pages, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestNormaliseEmptyInput(t *testing.T) {
	pages, err := New().Normalise(context.Background(), &domain.RawDocument{})
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestNormaliseCorruptLine(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"number":0,`},
		{"bad raster base64", `{"number":0,"raster":"!!!"}`},
		{"bad image base64", `{"number":0,"images":[{"data":"!!!"}]}`},
		{"negative page number", `{"number":-1,"text":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &domain.RawDocument{Content: []byte(tt.content)}
			_, err := New().Normalise(context.Background(), raw)
			require.ErrorIs(t, err, domain.ErrFormat)
		})
	}
}

func TestNormaliseCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw := &domain.RawDocument{Content: []byte(`{"number":0,"text":"x"}`)}
	_, err := New().Normalise(ctx, raw)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{"application/x-tessera-pages"}, New().SupportedMIMETypes())
}
