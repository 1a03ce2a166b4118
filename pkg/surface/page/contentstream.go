package page

import (
	"bytes"
	"fmt"
	"math"
	"strings"
)

// EncodeContentStream serializes an op list into PDF content-stream operator
// text, one isolated q/Q block per instruction. Opacity is folded into the
// fill color, which keeps the fragment self-contained: a full ExtGState entry
// would need a resource dictionary the external encoder owns.
//
// The fragment assumes the encoder maps the page's base font to /F1.
func EncodeContentStream(ops []TextOp) []byte {
	var buf bytes.Buffer
	for _, op := range ops {
		rad := op.Angle * math.Pi / 180
		sin, cos := math.Sincos(rad)

		fmt.Fprintf(&buf, "q\n")
		fmt.Fprintf(&buf, "%s %s %s rg\n",
			num(float64(op.Color.R)/255*op.Opacity),
			num(float64(op.Color.G)/255*op.Opacity),
			num(float64(op.Color.B)/255*op.Opacity))
		fmt.Fprintf(&buf, "%s %s %s %s %s %s cm\n",
			num(cos), num(sin), num(-sin), num(cos), num(op.X), num(op.Y))
		fmt.Fprintf(&buf, "BT\n/F1 %s Tf\n0 0 Td\n(%s) Tj\nET\nQ\n",
			num(op.FontSize), escapeText(op.Text))
	}
	return buf.Bytes()
}

// num formats a coordinate the way content streams expect: plain decimal,
// trailing zeros trimmed.
func num(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// escapeText escapes the characters that delimit PDF literal strings.
func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
