package page

import (
	"context"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
)

// helveticaWidths holds the standard Helvetica advance widths for the
// printable ASCII range, in 1/1000 of the font size. These are the metrics a
// page viewer applies when it renders the op list, so measuring with them
// keeps alignment shifts and tile strides honest for the page surface.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, // space ! " # $ % & '
	333, 333, 389, 584, 278, 333, 278, 278, // ( ) * + , - . /
	556, 556, 556, 556, 556, 556, 556, 556, // 0 1 2 3 4 5 6 7
	556, 556, 278, 278, 584, 584, 584, 556, // 8 9 : ; < = > ?
	1015, 667, 667, 722, 722, 667, 611, 778, // @ A B C D E F G
	722, 278, 500, 667, 556, 833, 722, 778, // H I J K L M N O
	667, 778, 722, 667, 611, 722, 667, 944, // P Q R S T U V W
	667, 667, 611, 278, 278, 278, 469, 556, // X Y Z [ \ ] ^ _
	333, 556, 556, 500, 556, 556, 278, 556, // ` a b c d e f g
	556, 222, 222, 500, 222, 833, 556, 556, // h i j k l m n o
	556, 556, 333, 500, 278, 556, 500, 722, // p q r s t u v w
	500, 500, 500, 334, 260, 334, 584, // x y z { | } ~
}

// defaultAdvance is used for runes outside the table.
const defaultAdvance = 556

// Measurer measures text with the page font's advance widths.
type Measurer struct{}

// NewMeasurer creates the page-side measurer.
func NewMeasurer() *Measurer { return &Measurer{} }

// Measure implements surface.TextMeasurer. The height is the em square of
// the requested size; the width is the summed advances.
func (m *Measurer) Measure(ctx context.Context, text string, fontSize float64) (mark.TextMetrics, error) {
	if fontSize <= 0 {
		return mark.TextMetrics{}, errors.New(errors.ErrCodeMetricsUnavailable, "non-positive font size %g", fontSize)
	}
	total := 0
	for _, r := range text {
		if r >= ' ' && r <= '~' {
			total += helveticaWidths[r-' ']
		} else {
			total += defaultAdvance
		}
	}
	return mark.TextMetrics{
		Width:  float64(total) / 1000 * fontSize,
		Height: fontSize,
	}, nil
}
