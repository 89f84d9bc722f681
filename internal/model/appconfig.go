package model

// PrecisionSettings holds the number of decimal digits of each named
// precision profile.
type PrecisionSettings struct {
	Concentration int `json:"concentration"`
	Single        int `json:"single"`
	Double        int `json:"double"`
	Triple        int `json:"triple"`
	Quadruple     int `json:"quadruple"`
	ProductUoM    int `json:"product_uom"`
}

// DefaultPrecisionSettings mirrors the decimal precisions shipped with the
// production data.
func DefaultPrecisionSettings() PrecisionSettings {
	return PrecisionSettings{
		Concentration: 3,
		Single:        1,
		Double:        2,
		Triple:        3,
		Quadruple:     4,
		ProductUoM:    3,
	}
}

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Database connection
	DatabaseDriver string `json:"database_driver"` // "sqlite", "postgres"
	DatabaseDSN    string `json:"database_dsn"`

	LogMode string `json:"log_mode"` // "production", "development"

	Precision PrecisionSettings `json:"precision"`

	// MaxFilmComponents caps the number of film lines on a production BoM.
	MaxFilmComponents int `json:"max_film_components"`
	// RecipeSequencePrefix is prepended to generated recipe numbers.
	RecipeSequencePrefix string `json:"recipe_sequence_prefix"`

	RecentExports []string `json:"recent_exports"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DatabaseDriver:       "sqlite",
		DatabaseDSN:          "filmbom.db",
		LogMode:              "production",
		Precision:            DefaultPrecisionSettings(),
		MaxFilmComponents:    4,
		RecipeSequencePrefix: "RCP/",
		RecentExports:        []string{},
	}
}

// AddRecentExport records path as the most recent export, keeping at most
// ten entries without duplicates.
func (c *AppConfig) AddRecentExport(path string) {
	recent := []string{path}
	for _, p := range c.RecentExports {
		if p != path && len(recent) < 10 {
			recent = append(recent, p)
		}
	}
	c.RecentExports = recent
}
