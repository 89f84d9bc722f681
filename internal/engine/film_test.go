package engine

import (
	"testing"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gluedScenario produces 1000 m of a 1000 mm duplex from two films and a
// glue.
type gluedScenario struct {
	*fixture
	bom      *model.BoM
	wide     *model.Product
	narrow   *model.Product
	narrowM  *model.UoM
	glue     *model.Product
	coating  *model.Product
	filmCat  *model.ProductCategory
	glueCat  *model.ProductCategory
	coatCat  *model.ProductCategory
	duplex   *model.Product
	widthMM  float64
	narrowGs float64
}

func newGluedScenario(t *testing.T) *gluedScenario {
	t.Helper()
	f := newFixture(t)
	s := &gluedScenario{fixture: f, widthMM: 1000, narrowGs: 30}

	s.filmCat = category("Bought film", func(c *model.ProductCategory) { c.IsSubcontractedFilm = true })
	s.glueCat = category("Glue", func(c *model.ProductCategory) { c.IsGlue = true })
	s.coatCat = category("Coating", func(c *model.ProductCategory) { c.IsCoating = true })
	glued := category("Duplex", func(c *model.ProductCategory) {
		c.IsCompanyFilm = true
		c.FilmType = model.FilmGlued
	})

	s.wide = product("PET 1100", s.filmCat, f.m)
	s.wide.Width = 1100
	s.wide.TotalGrammage = 20

	narrowUnits := f.productCategory("PE 1000",
		unitSpec{"m (PE 1000)", model.UoMReference, 1, f.m},
		unitSpec{"m² (PE 1000)", model.UoMSmaller, 1, f.m2},
		unitSpec{"kg (PE 1000)", model.UoMSmaller, 0.03, f.kg},
	)
	s.narrowM = narrowUnits[0]
	s.narrow = product("PE 1000", s.filmCat, s.narrowM)
	s.narrow.Width = 1000
	s.narrow.TotalGrammage = s.narrowGs

	s.glue = product("PU glue", s.glueCat, f.kg)
	s.coating = product("Varnish", s.coatCat, f.kg)
	s.duplex = product("Duplex", glued, f.m)

	b := model.NewProductionBoM(s.duplex, 1000, f.m)
	b.TotalProductionWidth = s.widthMM
	s.bom = &b
	return s
}

func (s *gluedScenario) addFilms(t *testing.T) {
	t.Helper()
	for _, in := range []FilmInput{
		{Product: s.wide},
		{Product: s.narrow, StretchingFactor: 0.1},
	} {
		line, err := s.e.NewFilmLine(s.bom, in)
		require.NoError(t, err)
		s.bom.Lines = append(s.bom.Lines, line)
	}
}

func TestCoverageFactor(t *testing.T) {
	b := &model.BoM{TotalProductionWidth: 1000}
	film := &model.Product{Width: 1100, Category: &model.ProductCategory{IsCompanyFilm: true}}
	assert.InDelta(t, 1.1, CoverageFactor(b, film), 1e-9)
	assert.Equal(t, 0.0, CoverageFactor(b, &model.Product{Width: 1100}))
	assert.Equal(t, 0.0, CoverageFactor(&model.BoM{}, film))
}

func TestFilmGrammage(t *testing.T) {
	assert.InDelta(t, 20.0, FilmGrammage(20, 1.1, 0.1, 0), 1e-9)
	assert.InDelta(t, 27.0, FilmGrammage(30, 1, 0, 0.1), 1e-9)
	assert.Equal(t, 0.0, FilmGrammage(30, 0.5, 0.8, 0))
	assert.Equal(t, 0.0, FilmGrammage(0, 1, 0, 0))
}

func TestNewFilmLine(t *testing.T) {
	s := newGluedScenario(t)
	s.addFilms(t)

	wide, narrow := s.bom.Lines[0], s.bom.Lines[1]
	assert.True(t, wide.IsFilmComponent)
	assert.Equal(t, 1.1, wide.CoverageFactor)
	assert.Equal(t, 0.1, wide.BorderFactor)
	assert.Equal(t, 20.0, wide.Grammage)
	assert.Equal(t, 1000.0, wide.Quantity)

	assert.Equal(t, 1.0, narrow.CoverageFactor)
	assert.Equal(t, 0.0, narrow.BorderFactor)
	assert.Equal(t, 27.0, narrow.Grammage)
	assert.Equal(t, 900.0, narrow.Quantity)
	assert.Equal(t, s.narrowM.ID, *narrow.UoMID)
}

func TestNewFilmLine_Validation(t *testing.T) {
	s := newGluedScenario(t)

	_, err := s.e.NewFilmLine(s.bom, FilmInput{Product: s.glue})
	require.Error(t, err)
	assert.Equal(t, "Only film products can be added as film components.", err.Error())

	_, err = s.e.NewFilmLine(s.bom, FilmInput{Product: s.wide, StretchingFactor: 1})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	s.e.MaxFilmComponents = 2
	s.addFilms(t)
	_, err = s.e.NewFilmLine(s.bom, FilmInput{Product: s.wide})
	require.Error(t, err)
	assert.Equal(t, "A production BoM cannot hold more than 2 film components.", err.Error())
}

func TestNewFilmLine_ManualBorder(t *testing.T) {
	s := newGluedScenario(t)
	border := 0.05

	line, err := s.e.NewFilmLine(s.bom, FilmInput{Product: s.wide, ManualBorderFactor: &border})
	require.NoError(t, err)
	assert.Equal(t, 0.05, line.BorderFactor)
	assert.Equal(t, 21.0, line.Grammage)
}

func TestNewTreatmentLine_Glue(t *testing.T) {
	s := newGluedScenario(t)

	_, err := s.e.NewTreatmentLine(s.bom, TreatmentInput{Product: s.glue})
	require.Error(t, err)
	assert.Equal(t, "At least two films are needed to add a glue.", err.Error())

	s.addFilms(t)
	glue, err := s.e.NewTreatmentLine(s.bom, TreatmentInput{Product: s.glue, Grammage: 2})
	require.NoError(t, err)

	assert.Equal(t, s.bom.Lines[1].ID, *glue.FilmToTreatID)
	assert.Equal(t, 1.0, glue.CoverageFactor)
	assert.Equal(t, 2.0, glue.Grammage)
	// 900 m² of the narrow film at 2 g/m²
	assert.Equal(t, 1.8, glue.Quantity)
}

func TestNewTreatmentLine_DefaultGrammage(t *testing.T) {
	s := newGluedScenario(t)
	s.addFilms(t)

	glue, err := s.e.NewTreatmentLine(s.bom, TreatmentInput{Product: s.glue})
	require.NoError(t, err)
	assert.Equal(t, 1.0, glue.Grammage)
	assert.Equal(t, 0.9, glue.Quantity)
}

func TestNewTreatmentLine_Coating(t *testing.T) {
	s := newGluedScenario(t)
	s.addFilms(t)

	_, err := s.e.NewTreatmentLine(s.bom, TreatmentInput{Product: s.coating})
	require.Error(t, err)
	assert.Equal(t, "Select the film component to coat.", err.Error())

	target := s.bom.Lines[0].ID
	coat, err := s.e.NewTreatmentLine(s.bom, TreatmentInput{Product: s.coating, FilmToCoatID: &target})
	require.NoError(t, err)
	assert.Equal(t, target, *coat.FilmToTreatID)
	assert.Equal(t, 1.1, coat.CoverageFactor)

	_, err = s.e.NewTreatmentLine(s.bom, TreatmentInput{Product: s.wide})
	require.Error(t, err)
	assert.Equal(t, "Only glue or coating products can be added as treatments.", err.Error())
}

func TestRefreshFilmQuantities_FollowsProducedLength(t *testing.T) {
	s := newGluedScenario(t)
	s.addFilms(t)
	glue, err := s.e.NewTreatmentLine(s.bom, TreatmentInput{Product: s.glue, Grammage: 2})
	require.NoError(t, err)
	s.bom.Lines = append(s.bom.Lines, glue)

	s.bom.Quantity = 2000
	require.NoError(t, s.e.RefreshFilmQuantities(s.bom))

	assert.Equal(t, 2000.0, s.bom.Lines[0].Quantity)
	assert.Equal(t, 1800.0, s.bom.Lines[1].Quantity)
	assert.Equal(t, 3.6, s.bom.Lines[2].Quantity)
}

func TestRefreshFilmFactors_ProductionWidthChange(t *testing.T) {
	s := newGluedScenario(t)
	s.addFilms(t)

	s.bom.TotalProductionWidth = 1100
	s.e.RefreshFilmFactors(s.bom)

	assert.Equal(t, 1.0, s.bom.Lines[0].CoverageFactor)
	assert.Equal(t, 0.0, s.bom.Lines[0].BorderFactor)
	assert.Equal(t, 0.91, s.bom.Lines[1].CoverageFactor)
}

func TestBorderWaste(t *testing.T) {
	s := newGluedScenario(t)
	s.addFilms(t)

	// 1000 m x 1.1 m x 10% border x 20 g/m²
	assert.InDelta(t, 2.2, s.e.BorderWaste(s.bom), 1e-9)
}
