package config

// CompareSuffix is appended to the text column to name its annotation series.
const CompareSuffix = "_nlp"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Input.Separator == "" {
		cfg.Input.Separator = "_"
	}
	if cfg.Columns.Text == "" {
		cfg.Columns.Text = "description"
	}
	if cfg.Columns.Compare == "" {
		cfg.Columns.Compare = cfg.Columns.Text + CompareSuffix
	}
	if cfg.Columns.Title == "" {
		cfg.Columns.Title = "name"
	}
	if cfg.Annotate.Model == "" {
		cfg.Annotate.Model = "prose"
	}
	if cfg.Annotate.Language == "" {
		cfg.Annotate.Language = "english"
	}
	if cfg.Annotate.Workers == 0 {
		cfg.Annotate.Workers = 4
	}
	if cfg.Annotate.Vector == "" {
		cfg.Annotate.Vector = VectorBagOfWords
	}
	if cfg.Annotate.Dimensions == 0 {
		cfg.Annotate.Dimensions = 300
	}
	if cfg.Annotate.MaxTokens == 0 {
		cfg.Annotate.MaxTokens = 256
	}
	if cfg.Normalize.Policy == "" {
		cfg.Normalize.Policy = "length"
	}
	if cfg.Normalize.MinTokenLength == 0 {
		cfg.Normalize.MinTokenLength = 4
	}
	if cfg.Normalize.StopWords == nil {
		cfg.Normalize.StopWords = []string{"en"}
	}
	if cfg.Similarity.Limit == 0 {
		cfg.Similarity.Limit = 10
	}
	if cfg.Terms.MaxDF == 0 {
		cfg.Terms.MaxDF = 0.9
	}
	// min_df 0 and 1 keep the same terms, so 0 is free to mean "unset".
	if cfg.Terms.MinDF == 0 {
		cfg.Terms.MinDF = 10
	}
	if cfg.Terms.MaxFeatures == 0 {
		cfg.Terms.MaxFeatures = 1000
	}
	if cfg.Terms.MaxTokens == 0 {
		cfg.Terms.MaxTokens = 10
	}
}
