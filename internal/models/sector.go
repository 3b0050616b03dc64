package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sector is an organizational routing destination: a canonical code plus a
// display label. The taxonomy is closed; legacy spellings map onto it via the
// alias table below.
type Sector struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Canonical sector codes.
const (
	SectorIntake     = "INTAKE"
	SectorInspection = "INSPECTION"
	SectorLegal1     = "LEGAL-1"
	SectorLegal2     = "LEGAL-2"
	SectorFinance    = "FINANCE"
	SectorBoard      = "BOARD"
)

// CanonicalSectors lists the closed taxonomy in presentation order.
var CanonicalSectors = []Sector{
	{Code: SectorIntake, Label: "Intake"},
	{Code: SectorInspection, Label: "Inspection"},
	{Code: SectorLegal1, Label: "Legal 1"},
	{Code: SectorLegal2, Label: "Legal 2"},
	{Code: SectorFinance, Label: "Finance"},
	{Code: SectorBoard, Label: "Board"},
}

// sectorAliases maps cleaned legacy identifiers many-to-one onto canonical
// codes. Keys are in cleaned form (see cleanSectorKey): diacritics stripped,
// uppercased, non-alphanumeric runs collapsed to "_".
var sectorAliases = map[string]string{
	"INTAKE":                 SectorIntake,
	"PROTOCOLO":              SectorIntake,
	"RECEPCAO":               SectorIntake,
	"INSPECTION":             SectorInspection,
	"FISCALIZACAO":           SectorInspection,
	"FISCALIZACAO_DENUNCIAS": SectorInspection,
	"LEGAL_1":                SectorLegal1,
	"JURIDICO":               SectorLegal1,
	"JURIDICO_1":             SectorLegal1,
	"LEGAL_2":                SectorLegal2,
	"JURIDICO_2":             SectorLegal2,
	"FINANCE":                SectorFinance,
	"FINANCEIRO":             SectorFinance,
	"TESOURARIA":             SectorFinance,
	"BOARD":                  SectorBoard,
	"DIRETORIA":              SectorBoard,
	"PLENARIA":               SectorBoard,
}

var sectorLabels = func() map[string]string {
	labels := make(map[string]string, len(CanonicalSectors))
	for _, s := range CanonicalSectors {
		labels[s.Code] = s.Label
	}
	return labels
}()

var diacriticsStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// cleanSectorKey trims and collapses whitespace, strips diacritics,
// uppercases, and collapses runs of non-alphanumeric characters to a single
// underscore.
func cleanSectorKey(raw string) string {
	trimmed := strings.Join(strings.Fields(raw), " ")
	if trimmed == "" {
		return ""
	}
	if stripped, _, err := transform.String(diacriticsStripper, trimmed); err == nil {
		trimmed = stripped
	}
	trimmed = strings.ToUpper(trimmed)

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSep := true
	for _, r := range trimmed {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastSep = false
			continue
		}
		if !lastSep {
			b.WriteByte('_')
			lastSep = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// NormalizeSector resolves a free-form sector identifier to its canonical
// code. Unknown identifiers come back in cleaned form rather than failing, so
// unmapped sectors still render and still compare consistently. The function
// is idempotent: a canonical code normalizes to itself.
func NormalizeSector(raw string) string {
	key := cleanSectorKey(raw)
	if key == "" {
		return ""
	}
	if code, ok := sectorAliases[key]; ok {
		return code
	}
	// Canonical codes contain "-", which the cleanup folds to "_"; the alias
	// table maps those spellings back, so reaching here means truly unknown.
	return key
}

// KnownSector reports whether raw resolves to a canonical taxonomy code.
func KnownSector(raw string) bool {
	_, ok := sectorLabels[NormalizeSector(raw)]
	return ok
}

// SameSector compares two sector identifiers on their canonical keys.
func SameSector(a, b string) bool {
	return NormalizeSector(a) == NormalizeSector(b)
}

// SectorDisplayName builds a human label: the canonical label when the input
// maps into the taxonomy, a title-cased cleanup otherwise, and "General" for
// empty input.
func SectorDisplayName(raw string) string {
	code := NormalizeSector(raw)
	if code == "" {
		return "General"
	}
	if label, ok := sectorLabels[code]; ok {
		return label
	}
	words := strings.Split(strings.ToLower(strings.ReplaceAll(code, "_", " ")), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// SectorAliasSpellings returns every alias key resolving to the given
// canonical code, plus the code itself. Used to match legacy rows whose
// destination column predates normalization.
func SectorAliasSpellings(code string) []string {
	code = NormalizeSector(code)
	spellings := []string{code}
	for alias, canonical := range sectorAliases {
		if canonical == code && alias != code {
			spellings = append(spellings, alias)
		}
	}
	return spellings
}
