package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjectProduct(t *testing.T) {
	p := Product{
		ID:      10,
		Title:   "Laptop & Bag",
		Price:   1299,
		Content: "<p>Fast</p>",
		Image:   "https://cdn.example.com/laptop.png",
	}

	tpl := "<h2>{{product_name}}</h2>{{product_price}}{{product_description}}<img src=\"{{product_image}}\" data-id=\"{{product_id}}\">{{unknown}}"
	want := "<h2>Laptop &amp; Bag</h2>$1,299.00<p>Fast</p><img src=\"https://cdn.example.com/laptop.png\" data-id=\"10\">{{unknown}}"

	assert.Equal(t, want, InjectProduct(tpl, p))
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{9.5, "$9.50"},
		{249.999, "$250.00"},
		{1299, "$1,299.00"},
		{1234567.891, "$1,234,567.89"},
		{-1500, "-$1,500.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(tt.in))
	}
}
