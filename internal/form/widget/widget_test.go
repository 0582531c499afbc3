package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

func TestNewRect_Normalizes(t *testing.T) {
	r := NewRect(100, 50, 10, 20)
	assert.Equal(t, Rect{X0: 10, Y0: 20, X1: 100, Y1: 50}, r)
	assert.Equal(t, 90.0, r.Width())
	assert.Equal(t, 30.0, r.Height())
	assert.Equal(t, 55.0, r.MidX())
	assert.Equal(t, 35.0, r.MidY())
	assert.False(t, r.Empty())
	assert.True(t, NewRect(0, 0, 0, 10).Empty())
}

func TestAssign_Shapes(t *testing.T) {
	rect := NewRect(0, 0, 100, 20)
	dropdown := func() *Widget {
		w := New(KindDropdown, "country", rect)
		w.Dropdown().Choices = []string{"Canada", "Mexico", "United States"}
		w.Dropdown().ExportValues = []string{"CA", "", "US"}
		return w
	}
	radio := func() *Widget {
		w := New(KindRadio, "size", rect)
		w.Radio().OptionCount = 3
		return w
	}

	tests := []struct {
		name    string
		widget  *Widget
		value   any
		want    any
		wantErr bool
	}{
		{"text string", New(KindText, "name", rect), "John", "John", false},
		{"text rejects bool", New(KindText, "name", rect), true, nil, true},
		{"checkbox bool", New(KindCheckbox, "agree", rect), true, true, false},
		{"checkbox rejects string", New(KindCheckbox, "agree", rect), "yes", nil, true},
		{"radio int", radio(), 1, 1, false},
		{"radio json number", radio(), float64(2), 2, false},
		{"radio fractional", radio(), 1.5, nil, true},
		{"radio out of range", radio(), 3, nil, true},
		{"radio negative", radio(), -1, nil, true},
		{"dropdown index", dropdown(), 2, 2, false},
		{"dropdown display text", dropdown(), "Mexico", 1, false},
		{"dropdown export value", dropdown(), "US", 2, false},
		{"dropdown unknown choice", dropdown(), "Peru", nil, true},
		{"dropdown out of range", dropdown(), 5, nil, true},
		{"image path", New(KindImage, "photo", rect), "/tmp/a.png", "/tmp/a.png", false},
		{"image bytes", New(KindImage, "photo", rect), []byte{1, 2}, "<bytes>", false},
		{"signature rejects int", New(KindSignature, "sig", rect), 3, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.widget.Assign(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidData))
				assert.Nil(t, tt.widget.Value(), "widget must stay unmodified")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.widget.Value())
		})
	}
}

func TestAssign_NilIsNoop(t *testing.T) {
	w := New(KindText, "name", NewRect(0, 0, 10, 10))
	require.NoError(t, w.Assign(nil))
	assert.False(t, w.HasValue())
}

func TestClone_IsDeep(t *testing.T) {
	w := New(KindText, "name", NewRect(0, 0, 10, 10))
	w.Style.BorderColor = &Color{R: 1}
	require.NoError(t, w.Assign("a"))

	c := w.Clone()
	require.NoError(t, c.Assign("b"))
	c.Style.BorderColor.R = 0

	assert.Equal(t, "a", w.Value())
	assert.Equal(t, 1.0, w.Style.BorderColor.R)
	assert.Equal(t, KindText, c.Kind())
}

func TestSignature_SharesImageAttributes(t *testing.T) {
	w := New(KindSignature, "sig", NewRect(0, 0, 10, 10))
	assert.Equal(t, KindSignature, w.Kind())
	require.NotNil(t, w.Image())
	assert.True(t, w.Image().PreserveAspectRatio)
	require.NoError(t, w.Assign("sig.png"))
	assert.Equal(t, "sig.png", w.Image().Source)
}

func TestDropdown_ExportValue(t *testing.T) {
	d := &DropdownAttributes{Choices: []string{"a", "b"}, ExportValues: []string{"x"}}
	assert.Equal(t, "x", d.ExportValue(0))
	assert.Equal(t, "b", d.ExportValue(1))
	assert.Equal(t, "", d.ExportValue(2))
	assert.Equal(t, "", d.Selected())
}

func TestButtonStyle(t *testing.T) {
	for _, name := range []string{"check", "cross", "circle"} {
		s, ok := ParseButtonStyle(name)
		require.True(t, ok)
		assert.Equal(t, name, s.String())
	}
	_, ok := ParseButtonStyle("star")
	assert.False(t, ok)
	assert.Equal(t, "4", ButtonCheck.Symbol())
	assert.Equal(t, "8", ButtonCross.Symbol())
	assert.Equal(t, "l", ButtonCircle.Symbol())
}
