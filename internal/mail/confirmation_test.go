package mail

import (
	"strings"
	"testing"
)

func TestFormatPriceCOP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   int64
		want string
	}{
		{in: 899000, want: "$899.000 COP"},
		{in: 600000, want: "$600.000 COP"},
		{in: 4270000, want: "$4.270.000 COP"},
		{in: 999, want: "$999 COP"},
		{in: 0, want: "$0 COP"},
	}
	for _, tc := range cases {
		if got := FormatPriceCOP(tc.in); got != tc.want {
			t.Fatalf("FormatPriceCOP(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderConfirmation(t *testing.T) {
	t.Parallel()

	html := RenderConfirmation(ConfirmationData{
		FirstName:   "Laura",
		LastName:    "Gómez",
		Email:       "laura@example.com",
		Category:    "gravel",
		Subcategory: "Élite Femenina",
		PriceCOP:    899000,
	})

	for _, want := range []string{"Laura", "Gómez", "Gravel Race", "Élite Femenina", "$899.000 COP", "¡Pago Confirmado!"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered email missing %q", want)
		}
	}
}

func TestRenderConfirmation_NoSubcategoryRow(t *testing.T) {
	t.Parallel()

	html := RenderConfirmation(ConfirmationData{
		FirstName: "Pedro",
		LastName:  "Ruiz",
		Category:  "paseo",
		PriceCOP:  600000,
	})
	if strings.Contains(html, "Subcategoría") {
		t.Fatal("subcategory row rendered for empty subcategory")
	}
	if !strings.Contains(html, "El Paseo") {
		t.Fatal("missing category label")
	}
}

func TestRenderConfirmation_EscapesUserInput(t *testing.T) {
	t.Parallel()

	html := RenderConfirmation(ConfirmationData{
		FirstName: "<script>alert(1)</script>",
		LastName:  "X",
		Category:  "gravel",
		PriceCOP:  899000,
	})
	if strings.Contains(html, "<script>") {
		t.Fatal("user input not escaped")
	}
}

func TestRenderGroupConfirmation(t *testing.T) {
	t.Parallel()

	html := RenderGroupConfirmation(GroupConfirmationData{
		GroupName:        "Los Escarabajos",
		LeaderFirstName:  "Ana",
		LeaderLastName:   "Mejía",
		Category:         "gravel",
		ParticipantCount: 5,
		TotalPriceCOP:    4270000,
	})

	for _, want := range []string{"Los Escarabajos", "Ana", "Mejía", "5", "$4.270.000 COP"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered group email missing %q", want)
		}
	}
}

func TestConfirmationSubject(t *testing.T) {
	t.Parallel()

	if got := ConfirmationSubject("gravel"); !strings.Contains(got, "Gravel Race") {
		t.Fatalf("unexpected subject: %q", got)
	}
	if got := ConfirmationSubject("paseo"); !strings.Contains(got, "El Paseo") {
		t.Fatalf("unexpected subject: %q", got)
	}
}
