package catalogxml

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountItems(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{"empty", "", 0},
		{"empty catalog", "<CATALOG></CATALOG>", 0},
		{"one item", twoParts[:strings.Index(twoParts, "</ITEM>")+len("</ITEM>")], 1},
		{"two items", twoParts, 2},
		{"tag case must match", "<item></item><ITEM></Item>", 0},
		{"whitespace before close", "<ITEM></ITEM ><ITEM></ITEM\n\t>", 2},
		{"comment is not markup", "<ITEM></ITEM><!-- old: <ITEM></ITEM> -->", 1},
		{"cdata is not markup", "<ITEM><ITEMNAME><![CDATA[</ITEM>]]></ITEMNAME></ITEM>", 1},
		{"comment with extra dashes", "<!-- x --->", 0},
		{"unterminated comment", "<ITEM></ITEM><!-- </ITEM>", 1},
		{"single line", "<CATALOG><ITEM/></ITEM></ITEM></CATALOG>", 2},
		{"partial needle restarts", "<</ITEM>", 1},
		{"does not count other tags", "</ITEMID></ITEMS></ITEMTYPE>", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := CountItems(strings.NewReader(tt.doc), ItemTag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

// Every valid document must yield exactly as many items as the pre-scan
// counted, or progress would stop short of 100 or pass it.
func TestCountItems_AgreesWithParser(t *testing.T) {
	docs := map[string]string{
		"space in end tag": "<CATALOG><ITEM><ITEMID>1</ITEMID></ITEM ></CATALOG>",
		"lowercase item":   "<CATALOG><item><ITEMID>1</ITEMID></item></CATALOG>",
		"comment":          "<CATALOG><!-- <ITEM></ITEM> --><ITEM><ITEMID>1</ITEMID></ITEM></CATALOG>",
		"cdata":            "<CATALOG><ITEM><ITEMNAME><![CDATA[a</ITEM>b]]></ITEMNAME></ITEM></CATALOG>",
		"two parts":        twoParts,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			n, err := CountItems(strings.NewReader(doc), ItemTag)
			require.NoError(t, err)

			items, err := collect(NewParser(strings.NewReader(doc)))
			assert.ErrorIs(t, err, io.EOF)
			assert.Len(t, items, n)
		})
	}
}

func TestCountItems_ReadError(t *testing.T) {
	boom := errors.New("disk gone")
	_, err := CountItems(iotest.ErrReader(boom), ItemTag)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
