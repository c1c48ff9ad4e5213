package tools

// Common JSON Schema building blocks

// StringSchema creates a JSON schema for a string field.
func StringSchema(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// IntegerSchema creates a JSON schema for an integer field with an
// optional default.
func IntegerSchema(description string, def *int) map[string]any {
	schema := map[string]any{
		"type":        "integer",
		"description": description,
	}
	if def != nil {
		schema["default"] = *def
	}
	return schema
}

// BooleanSchema creates a JSON schema for a boolean field with a default.
func BooleanSchema(description string, def bool) map[string]any {
	return map[string]any{
		"type":        "boolean",
		"description": description,
		"default":     def,
	}
}

// ObjectSchema creates a JSON schema for an object with arbitrary properties.
func ObjectSchema(description string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": description,
	}
}

// ArraySchema creates a JSON schema for an array field with a maximum length.
func ArraySchema(description string, items map[string]any, maxItems int) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       items,
		"maxItems":    maxItems,
	}
}

// BuildSchema creates a complete JSON schema object with properties and
// required fields.
func BuildSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ScrapePageSchema returns the parameter schema for scrape_page.
func ScrapePageSchema() map[string]any {
	return BuildSchema(map[string]any{
		"url":             StringSchema("The URL to scrape (http or https)"),
		"onlyMainContent": BooleanSchema("Extract only the main content region instead of the full page text", true),
	}, []string{"url"})
}

// BatchScrapeSchema returns the parameter schema for batch_scrape.
func BatchScrapeSchema() map[string]any {
	return BuildSchema(map[string]any{
		"urls":            ArraySchema("URLs to scrape sequentially", StringSchema("A URL to scrape"), MaxBatchURLs),
		"onlyMainContent": BooleanSchema("Extract only the main content region instead of the full page text", true),
	}, []string{"urls"})
}

// ExtractDataSchema returns the parameter schema for extract_data.
func ExtractDataSchema() map[string]any {
	return BuildSchema(map[string]any{
		"urls":            ArraySchema("URLs to extract data from", StringSchema("A URL to extract from"), MaxExtractURLs),
		"prompt":          StringSchema("Natural-language instruction describing the data to extract"),
		"enableWebSearch": BooleanSchema("Reserved for future use", false),
	}, []string{"urls", "prompt"})
}

// ExtractWithSchemaSchema returns the parameter schema for extract_with_schema.
func ExtractWithSchemaSchema() map[string]any {
	return BuildSchema(map[string]any{
		"urls":            ArraySchema("URLs to extract data from", StringSchema("A URL to extract from"), MaxSchemaExtractURLs),
		"schema":          ObjectSchema("JSON schema the extracted data should conform to"),
		"prompt":          StringSchema("Optional additional extraction instruction"),
		"enableWebSearch": BooleanSchema("Reserved for future use", false),
	}, []string{"urls", "schema"})
}

// ScreenshotSchema returns the parameter schema for screenshot.
func ScreenshotSchema() map[string]any {
	w, h := DefaultScreenshotWidth, DefaultScreenshotHeight
	return BuildSchema(map[string]any{
		"url":      StringSchema("The URL to capture (http or https)"),
		"width":    IntegerSchema("Viewport width in pixels", &w),
		"height":   IntegerSchema("Viewport height in pixels", &h),
		"fullPage": BooleanSchema("Capture the full scrollable page instead of the viewport", false),
	}, []string{"url"})
}
