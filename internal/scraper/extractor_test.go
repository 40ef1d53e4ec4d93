package scraper

import (
	"testing"
)

// detailPage is a trimmed-down company detail page in the directory's
// markup style: <strong> labels followed by bare text values, and the
// address sitting inside a following map link.
const detailPage = `<!DOCTYPE html>
<html lang="es">
<body>
<div class="ficha">
  <p><strong>Denominación:</strong> TALLERES GARCÍA S.L.</p>
  <p><strong>CIF:</strong> B12345678</p>
  <p><strong>Número D-U-N-S:</strong> 123456789</p>
  <p><strong>Actividad CNAE:</strong> 4520 - Mantenimiento y reparación de vehículos</p>
  <p><strong>Forma jurídica:</strong> Sociedad Limitada</p>
  <p><strong>Domicilio Social:</strong> Actual <a href="/mapa?x=1">CALLE MAYOR 5, 28001 MADRID</a></p>
</div>
</body>
</html>`

func TestExtract(t *testing.T) {
	t.Parallel()

	e := NewExtractor()
	company, err := e.Extract("B12345678", "https://example.com/ficha?id=B12345678", []byte(detailPage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"ID", company.ID, "B12345678"},
		{"Name", company.Name, "TALLERES GARCÍA S.L."},
		{"CIF", company.CIF, "B12345678"},
		{"DUNS", company.DUNS, "123456789"},
		{"CNAE", company.CNAE, "4520 - Mantenimiento y reparación de vehículos"},
		{"LegalForm", company.LegalForm, "Sociedad Limitada"},
		{"Address", company.Address, "CALLE MAYOR 5, 28001 MADRID"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.field, tt.got, tt.want)
		}
	}

	if company.DetailURL != "https://example.com/ficha?id=B12345678" {
		t.Errorf("DetailURL: got %q", company.DetailURL)
	}
	if company.ScrapedAt.IsZero() {
		t.Error("expected ScrapedAt to be set")
	}
}

// TestExtractAccentlessLabels verifies label matching survives missing
// accents. Some pages render "Denominacion" without the acute.
func TestExtractAccentlessLabels(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<p><strong>Denominacion:</strong> SIN TILDES S.A.</p>
<p><strong>Forma Juridica:</strong> Sociedad Anónima</p>
</body></html>`

	company, err := NewExtractor().Extract("X1", "https://example.com/", []byte(page))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if company.Name != "SIN TILDES S.A." {
		t.Errorf("Name: got %q", company.Name)
	}
	if company.LegalForm != "Sociedad Anónima" {
		t.Errorf("LegalForm: got %q", company.LegalForm)
	}
}

// TestExtractMissingFields verifies absent labels leave empty fields
// without failing the whole record.
func TestExtractMissingFields(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<p><strong>Denominación:</strong> SOLO NOMBRE S.L.</p>
<p><strong>Otra Cosa:</strong> irrelevante</p>
</body></html>`

	company, err := NewExtractor().Extract("Y2", "https://example.com/", []byte(page))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if company.Name != "SOLO NOMBRE S.L." {
		t.Errorf("Name: got %q", company.Name)
	}
	if company.CIF != "" || company.DUNS != "" || company.CNAE != "" ||
		company.LegalForm != "" || company.Address != "" {
		t.Errorf("expected empty fields, got %+v", company)
	}
	if company.IsEmpty() {
		t.Error("a record with a name should not be empty")
	}
}

// TestExtractRepeatedLabelFirstWins verifies pages that repeat a label
// keep the first value.
func TestExtractRepeatedLabelFirstWins(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<p><strong>CIF:</strong> B11111111</p>
<p><strong>CIF:</strong> B22222222</p>
</body></html>`

	company, err := NewExtractor().Extract("Z3", "https://example.com/", []byte(page))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if company.CIF != "B11111111" {
		t.Errorf("CIF: got %q, want first occurrence", company.CIF)
	}
}

// TestExtractAddressWithoutAnchor verifies the address stays empty when
// no link follows the label.
func TestExtractAddressWithoutAnchor(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<p><strong>Domicilio Social:</strong> texto suelto sin enlace</p>
</body></html>`

	company, err := NewExtractor().Extract("W4", "https://example.com/", []byte(page))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if company.Address != "" {
		t.Errorf("Address: got %q, want empty", company.Address)
	}
}

func TestFoldLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "accents removed and lowercased",
			input: "Denominación:",
			want:  "denominacion",
		},
		{
			name:  "whitespace collapsed",
			input: "  Forma \n Jurídica  ",
			want:  "forma juridica",
		},
		{
			name:  "trailing colon dropped",
			input: "CIF:",
			want:  "cif",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := foldLabel(tt.input); got != tt.want {
				t.Errorf("foldLabel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
