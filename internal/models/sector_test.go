package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSectorFoldsLegacySpellings(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"fiscalizacao-denuncias", SectorInspection},
		{"FISCALIZAÇÃO DENÚNCIAS", SectorInspection},
		{"Fiscalizacao_Denuncias", SectorInspection},
		{" juridico ", SectorLegal1},
		{"JURÍDICO-2", SectorLegal2},
		{"financeiro", SectorFinance},
		{"Tesouraria", SectorFinance},
		{"diretoria", SectorBoard},
		{"protocolo", SectorIntake},
		{"legal-1", SectorLegal1},
		{"LEGAL-2", SectorLegal2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeSector(tc.input), "input %q", tc.input)
	}
}

func TestNormalizeSectorIsIdempotent(t *testing.T) {
	inputs := []string{
		"fiscalizacao-denuncias", "JURÍDICO", "LEGAL-1", "unknown sector", "Ouvidoria Geral",
	}
	for _, input := range inputs {
		once := NormalizeSector(input)
		assert.Equal(t, once, NormalizeSector(once), "input %q", input)
	}
}

func TestSameSectorAcrossSpellings(t *testing.T) {
	assert.True(t, SameSector("FISCALIZACAO_DENUNCIAS", "fiscalizacao-denuncias"))
	assert.True(t, SameSector("JURÍDICO", "LEGAL-1"))
	assert.False(t, SameSector("LEGAL-1", "LEGAL-2"))
}

func TestSectorDisplayName(t *testing.T) {
	assert.Equal(t, "General", SectorDisplayName(""))
	assert.Equal(t, "Inspection", SectorDisplayName("fiscalizacao-denuncias"))
	assert.Equal(t, "Legal 1", SectorDisplayName(SectorLegal1))
	// Unknown sectors keep a readable label instead of the raw key.
	assert.Equal(t, "Ouvidoria Geral", SectorDisplayName("ouvidoria geral"))
}

func TestKnownSector(t *testing.T) {
	assert.True(t, KnownSector("juridico"))
	assert.True(t, KnownSector("LEGAL-1"))
	assert.False(t, KnownSector("ouvidoria"))
	assert.False(t, KnownSector(""))
}

func TestSectorAliasSpellingsCoverCleanedForms(t *testing.T) {
	spellings := SectorAliasSpellings(SectorInspection)
	assert.Contains(t, spellings, "INSPECTION")
	assert.Contains(t, spellings, "FISCALIZACAO")
	assert.Contains(t, spellings, "FISCALIZACAO_DENUNCIAS")
}
