package content

import (
	"html"
	"strconv"
	"strings"
)

// InjectProduct fills the product placeholders of a page template:
// {{product_name}}, {{product_price}}, {{product_description}},
// {{product_image}} and {{product_id}}. Text values are HTML escaped; the
// description is inserted as HTML.
func InjectProduct(fragment string, p Product) string {
	r := strings.NewReplacer(
		"{{product_name}}", html.EscapeString(p.Title),
		"{{product_price}}", FormatPrice(p.Price),
		"{{product_description}}", p.Content,
		"{{product_image}}", html.EscapeString(p.Image),
		"{{product_id}}", strconv.Itoa(p.ID),
	)

	return r.Replace(fragment)
}

// FormatPrice renders a price as dollars with thousands separators and two
// decimals, e.g. "$1,299.00".
func FormatPrice(price float64) string {
	s := strconv.FormatFloat(price, 'f', 2, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return sign + "$" + b.String() + "." + frac
}
